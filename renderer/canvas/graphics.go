package canvasrenderer

import (
	"image"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/folio/gfx"
)

// graphics 在 canvas.Context 上实现 gfx.Graphics。入参为 pt，canvas 坐标为 mm。
type graphics struct {
	ctx   *canvas.Context
	r     *Renderer
	color gfx.Color
}

var _ gfx.Graphics = (*graphics)(nil)

func (g *graphics) SetColor(c gfx.Color) { g.color = c }

func (g *graphics) FillRect(r gfx.Rect) {
	if r.Empty() {
		return
	}
	g.ctx.SetFillColor(toColor(g.color))
	g.ctx.SetStrokeColor(canvas.Transparent)
	g.ctx.DrawPath(toMm(r.X), toMm(r.Y), canvas.Rectangle(toMm(r.W), toMm(r.H)))
}

func (g *graphics) stroke(style gfx.LineStyle) bool {
	if style == gfx.LineNone {
		return false
	}
	g.ctx.SetFillColor(canvas.Transparent)
	g.ctx.SetStrokeColor(toColor(g.color))
	g.ctx.SetStrokeWidth(toMm(style.Width()))
	g.ctx.SetStrokeCapper(canvas.ButtCap)
	var dashes []float64
	for _, d := range style.Dashes() {
		dashes = append(dashes, toMm(d))
	}
	g.ctx.SetDashes(0, dashes...)
	return true
}

func (g *graphics) DrawLine(x1, y1, x2, y2 float64, style gfx.LineStyle) {
	if !g.stroke(style) {
		return
	}
	p := &canvas.Path{}
	p.MoveTo(0, 0)
	p.LineTo(toMm(x2-x1), toMm(y2-y1))
	g.ctx.DrawPath(toMm(x1), toMm(y1), p)
}

func (g *graphics) DrawRect(r gfx.Rect, style gfx.LineStyle) {
	if !g.stroke(style) {
		return
	}
	g.ctx.DrawPath(toMm(r.X), toMm(r.Y), canvas.Rectangle(toMm(r.W), toMm(r.H)))
}

// DrawString 以 y 为基线绘制单行文本。字体无法加载时跳过并记录告警。
func (g *graphics) DrawString(s string, x, y float64, font gfx.Font) {
	if s == "" {
		return
	}
	face, err := g.r.fontFace(font, toColor(g.color))
	if err != nil {
		g.r.logger.Warn("字体加载失败，跳过文本", "font", font.Name, "error", err)
		return
	}
	g.ctx.DrawText(toMm(x), toMm(y), canvas.NewTextLine(face, s, canvas.Left))
}

func (g *graphics) DrawImage(img image.Image, dst gfx.Rect) {
	if img == nil || dst.Empty() {
		return
	}
	px := img.Bounds().Dx()
	if px <= 0 {
		return
	}
	dpmm := float64(px) / toMm(dst.W)
	g.ctx.DrawImage(toMm(dst.X), toMm(dst.Y), img, canvas.DPMM(dpmm))
}
