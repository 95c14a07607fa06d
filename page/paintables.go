package page

import (
	"image"
	"strconv"
	"strings"

	"github.com/ByLCY/folio/gfx"
	"github.com/ByLCY/folio/textflow"
)

// TextLine 是一行已定位的文本，X/Y 相对于 TextPaintable.Box 左上角。
type TextLine struct {
	Text  string  `json:"text"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Width float64 `json:"width"`
}

// TextPaintable 绘制一个文本元素在本页上的若干行。
// First 是本页第一行在元素完整排版结果中的下标，元素回退时据此恢复行游标。
type TextPaintable struct {
	Box     gfx.Rect        `json:"box"`
	Lines   []TextLine      `json:"lines"`
	Font    gfx.Font        `json:"font"`
	Color   gfx.Color       `json:"color"`
	Ascent  float64         `json:"ascent"`
	Align   textflow.Align  `json:"align"`
	First   int             `json:"first"`
	Metrics gfx.FontMetrics `json:"-"`
	Source  Rewinder        `json:"-"`
}

func (t *TextPaintable) Bounds() gfx.Rect { return t.Box }
func (t *TextPaintable) Owner() Rewinder  { return t.Source }

// Count returns the number of lines drawn by this paintable.
func (t *TextPaintable) Count() int { return len(t.Lines) }

func (t *TextPaintable) Paint(g gfx.Graphics) {
	g.SetColor(t.Color)
	for _, ln := range t.Lines {
		g.DrawString(ln.Text, t.Box.X+ln.X, t.Box.Y+ln.Y+t.Ascent, t.Font)
	}
}

// ResolveTokens substitutes ${page} and ${pages}, re-aligning lines whose
// width changed when metrics are available.
func (t *TextPaintable) ResolveTokens(pageNo, total int) {
	r := strings.NewReplacer("${pages}", strconv.Itoa(total), "${page}", strconv.Itoa(pageNo))
	for i, ln := range t.Lines {
		if !strings.Contains(ln.Text, "${page") {
			continue
		}
		text := r.Replace(ln.Text)
		t.Lines[i].Text = text
		if t.Metrics == nil {
			continue
		}
		w := t.Metrics.StringWidth(text)
		switch {
		case t.Align&textflow.HLeft != 0:
		case t.Align&textflow.HCenter != 0:
			t.Lines[i].X = max(0, (t.Box.W-w)/2)
		case t.Align&textflow.HRight != 0:
			t.Lines[i].X = max(0, t.Box.W-w)
		}
		t.Lines[i].Width = w
	}
}

// ShapeKind 区分线条、矩形边框与填充。
type ShapeKind string

const (
	ShapeLine ShapeKind = "line"
	ShapeRect ShapeKind = "rect"
	ShapeFill ShapeKind = "fill"
)

// ShapePaintable 绘制线条或矩形。部分回退时形状会被保留。
type ShapePaintable struct {
	Kind   ShapeKind     `json:"kind"`
	Rect   gfx.Rect      `json:"rect"`
	Style  gfx.LineStyle `json:"style"`
	Color  gfx.Color     `json:"color"`
	Fill   *gfx.Color    `json:"fill,omitempty"`
	Source Rewinder      `json:"-"`
}

func (s *ShapePaintable) Bounds() gfx.Rect { return s.Rect }
func (s *ShapePaintable) Owner() Rewinder  { return s.Source }
func (s *ShapePaintable) IsShape() bool    { return true }

func (s *ShapePaintable) Paint(g gfx.Graphics) {
	switch s.Kind {
	case ShapeLine:
		g.SetColor(s.Color)
		// 线段沿矩形对角线；水平/垂直线的 W 或 H 为 0。
		g.DrawLine(s.Rect.X, s.Rect.Y, s.Rect.Right(), s.Rect.Bottom(), s.Style)
	case ShapeFill:
		g.SetColor(s.Color)
		g.FillRect(s.Rect)
	default:
		if s.Fill != nil {
			g.SetColor(*s.Fill)
			g.FillRect(s.Rect)
		}
		if s.Style != gfx.LineNone {
			g.SetColor(s.Color)
			g.DrawRect(s.Rect, s.Style)
		}
	}
}

// ImagePaintable 绘制一张已解码的图片。
type ImagePaintable struct {
	Rect   gfx.Rect    `json:"rect"`
	Image  image.Image `json:"-"`
	Name   string      `json:"name,omitempty"`
	Source Rewinder    `json:"-"`
}

func (p *ImagePaintable) Bounds() gfx.Rect { return p.Rect }
func (p *ImagePaintable) Owner() Rewinder  { return p.Source }

func (p *ImagePaintable) Paint(g gfx.Graphics) {
	if p.Image != nil {
		g.DrawImage(p.Image, p.Rect)
	}
}
