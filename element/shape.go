package element

import (
	"github.com/ByLCY/folio/band"
	"github.com/ByLCY/folio/gfx"
	"github.com/ByLCY/folio/page"
)

// Shape 是线条或矩形。形状在部分回退时保留在页面上。
type Shape struct {
	Name  string
	Box   gfx.Rect
	Kind  page.ShapeKind
	Style gfx.LineStyle
	Color gfx.Color
	Fill  *gfx.Color

	done bool
}

func (s *Shape) ID() string              { return s.Name }
func (s *Shape) Bounds() gfx.Rect        { return s.Box }
func (s *Shape) Reset()                  { s.done = false }
func (s *Shape) Rewind(p page.Paintable) { s.done = false }

func (s *Shape) Clone() band.Element {
	c := *s
	if s.Fill != nil {
		f := *s.Fill
		c.Fill = &f
	}
	c.done = false
	return &c
}

func (s *Shape) Print(ctx *band.Context, area gfx.Rect) (band.Result, error) {
	if s.done {
		return band.Result{}, nil
	}
	h := s.Box.H
	if h > area.H+band.Tolerance {
		if !ctx.MustFit(area) {
			return band.Result{More: true}, nil
		}
		h = area.H
	}
	r := gfx.Rect{X: area.X, Y: area.Y, W: s.Box.W, H: h}
	if s.Kind == page.ShapeLine && s.Box.H == 0 {
		r.H = 0
	}
	ctx.Page.Add(&page.ShapePaintable{Kind: s.Kind, Rect: r, Style: s.Style, Color: s.Color, Fill: s.Fill, Source: s})
	s.done = true
	return band.Result{Height: h}, nil
}

// PageBreak 在不处于页首时要求换页。
type PageBreak struct {
	Name string
	Y    float64

	fired bool
}

func (b *PageBreak) ID() string          { return b.Name }
func (b *PageBreak) Bounds() gfx.Rect    { return gfx.Rect{Y: b.Y} }
func (b *PageBreak) Reset()              { b.fired = false }
func (b *PageBreak) Clone() band.Element { return &PageBreak{Name: b.Name, Y: b.Y} }

func (b *PageBreak) Print(ctx *band.Context, area gfx.Rect) (band.Result, error) {
	if b.fired || ctx.MustFit(area) {
		b.fired = false
		return band.Result{}, nil
	}
	b.fired = true
	return band.Result{More: true}, nil
}
