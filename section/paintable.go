package section

import "github.com/ByLCY/folio/gfx"

// Paintable 标记分节在一页上占据的范围，本身不绘制任何内容。
// 设计模式下通过 BandBounds 还原每个区带的矩形。
type Paintable struct {
	Name  string     `json:"name"`
	X     float64    `json:"x"`
	W     float64    `json:"w"`
	Infos []BandInfo `json:"infos"`
}

func (p *Paintable) Kind() string { return "section" }

func (p *Paintable) Bounds() gfx.Rect {
	var r gfx.Rect
	for _, b := range p.BandBounds() {
		r = r.Union(b)
	}
	return r
}

// BandBounds returns one rectangle per printed band, in page coordinates.
func (p *Paintable) BandBounds() []gfx.Rect {
	out := make([]gfx.Rect, len(p.Infos))
	for i, info := range p.Infos {
		out[i] = gfx.Rect{X: p.X, Y: info.Y, W: p.W, H: info.Height}
	}
	return out
}

func (p *Paintable) Paint(gfx.Graphics) {}
