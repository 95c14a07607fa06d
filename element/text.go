// Package element 提供区带与报表主体中可用的具体元素：文本、图形、图片、表格与图表。
//
// 元素在每次 Print 时尽量输出能放下的部分，并记住打印进度；
// 输出的 Paintable 被回退时，元素通过 Rewind 恢复进度，以便下一页重新输出。
package element

import (
	"github.com/ByLCY/folio/band"
	"github.com/ByLCY/folio/gfx"
	"github.com/ByLCY/folio/page"
	"github.com/ByLCY/folio/textflow"
)

// Text 是绑定数据的文本块，按行跨页。
type Text struct {
	Name       string
	Box        gfx.Rect
	Template   string
	Font       gfx.Font
	Color      gfx.Color
	Background *gfx.Color
	Align      textflow.Align
	Wrap       bool
	Spacing    float64
	// Currency 按小数点对齐数值（单行）。
	Currency bool

	layout  textflow.Layout
	text    string
	metrics gfx.FontMetrics
	bound   bool
	next    int
}

// NewText creates a wrapping, top-left aligned text element.
func NewText(name string, box gfx.Rect, template string, font gfx.Font) *Text {
	return &Text{Name: name, Box: box, Template: template, Font: font, Wrap: true, Align: textflow.HLeft | textflow.VTop}
}

func (t *Text) ID() string       { return t.Name }
func (t *Text) Bounds() gfx.Rect { return t.Box }

func (t *Text) Reset() {
	t.bound = false
	t.next = 0
}

func (t *Text) Clone() band.Element {
	c := *t
	if t.Background != nil {
		bg := *t.Background
		c.Background = &bg
	}
	c.Reset()
	return &c
}

// Rewind 把行游标退回到被撤回的 Paintable 的第一行。
func (t *Text) Rewind(p page.Paintable) {
	if tp, ok := p.(*page.TextPaintable); ok {
		t.next = min(t.next, tp.First)
	}
}

func (t *Text) bind(ctx *band.Context) {
	t.text = ctx.Bind(t.Template)
	opts := textflow.Options{
		Bounds:  gfx.Rect{W: t.Box.W, H: t.Box.H},
		Align:   t.Align,
		Wrap:    t.Wrap,
		Spacing: t.Spacing,
	}
	if t.Currency {
		opts.CurrencyWidth = textflow.CurrencyWidth(ctx.FontProvider().Metrics(t.Font))
	}
	t.layout, t.metrics = ctx.Layout(t.text, t.Font, opts)
	t.bound = true
	t.next = 0
}

// Lines returns the laid out lines of the last bound text.
func (t *Text) Lines() []string {
	out := make([]string, len(t.layout.Lines))
	for i, ln := range t.layout.Lines {
		out[i] = t.text[ln.Start:ln.End]
	}
	return out
}

func (t *Text) Print(ctx *band.Context, area gfx.Rect) (band.Result, error) {
	if !t.bound {
		t.bind(ctx)
	}
	rest := len(t.layout.Lines) - t.next
	if rest <= 0 {
		return band.Result{}, nil
	}
	n := min(rest, t.layout.Fit(area.H))
	if n == 0 {
		if !ctx.MustFit(area) {
			return band.Result{More: true}, nil
		}
		// 页首连一行都放不下时仍输出一行，由页面裁剪。
		n = 1
	}

	first := t.next
	whole := first == 0 && n == rest
	dy := 0.0
	if whole && t.layout.Bounds.Bottom() <= area.H+band.Tolerance {
		dy = t.layout.Bounds.Y
	}
	step := t.layout.LineHeight + t.layout.Spacing
	tp := &page.TextPaintable{
		Font:    t.Font,
		Color:   t.Color,
		Ascent:  t.metrics.Ascent(),
		Align:   t.Align,
		First:   first,
		Metrics: t.metrics,
		Source:  t,
	}
	for i := range n {
		ln := t.layout.Lines[first+i]
		tp.Lines = append(tp.Lines, page.TextLine{
			Text:  t.text[ln.Start:ln.End],
			X:     ln.X,
			Y:     dy + float64(i)*step,
			Width: ln.Width,
		})
	}
	used := dy + t.layout.Height(n)
	tp.Box = gfx.Rect{X: area.X, Y: area.Y, W: t.Box.W, H: min(used, area.H)}

	h := used
	if whole {
		h = max(used, t.Box.H)
	}
	if t.Background != nil {
		ctx.Page.Add(&page.ShapePaintable{
			Kind:   page.ShapeFill,
			Rect:   gfx.Rect{X: area.X, Y: area.Y, W: t.Box.W, H: min(h, area.H)},
			Color:  *t.Background,
			Source: t,
		})
	}
	ctx.Page.Add(tp)
	t.next += n
	return band.Result{Height: h, More: t.next < len(t.layout.Lines)}, nil
}
