// Package page 保存一页上已定位的绘制指令（Paintable），并支持回退时截断。
package page

import (
	"encoding/json"
	"fmt"

	"github.com/ByLCY/folio/gfx"
)

// Paintable 是一页上已经定位好的绘制指令。
type Paintable interface {
	Bounds() gfx.Rect
	Paint(g gfx.Graphics)
}

// Rewinder is implemented by elements that can take back content they have
// emitted, so that the next page prints it again.
type Rewinder interface {
	Rewind(p Paintable)
}

// Owned paintables report the element that produced them.
type Owned interface {
	Owner() Rewinder
}

// Shape marks paintables (lines, rectangles) that survive partial rewinds.
type Shape interface {
	Paintable
	IsShape() bool
}

// TokenResolver is implemented by paintables that contain page number tokens.
type TokenResolver interface {
	ResolveTokens(pageNo, total int)
}

// StylePage 是单页的有序 Paintable 列表，按添加顺序绘制。
type StylePage struct {
	Width  float64
	Height float64
	Margin gfx.Insets
	Number int

	items []Paintable
}

// New creates an empty page of the given size in points.
func New(width, height float64, margin gfx.Insets) *StylePage {
	return &StylePage{Width: width, Height: height, Margin: margin}
}

// Content returns the printable area inside the margins.
func (p *StylePage) Content() gfx.Rect {
	return p.Margin.Shrink(gfx.Rect{W: p.Width, H: p.Height})
}

func (p *StylePage) Add(x Paintable) { p.items = append(p.items, x) }

// Insert places x before index i; i == Len() appends.
func (p *StylePage) Insert(i int, x Paintable) {
	if i < 0 || i >= len(p.items) {
		p.items = append(p.items, x)
		return
	}
	p.items = append(p.items, nil)
	copy(p.items[i+1:], p.items[i:])
	p.items[i] = x
}

// Remove deletes and returns the paintable at index i.
func (p *StylePage) Remove(i int) Paintable {
	x := p.items[i]
	p.items = append(p.items[:i], p.items[i+1:]...)
	return x
}

// Truncate 删除下标 n 之后的全部 Paintable 并按原顺序返回被删除的部分。
func (p *StylePage) Truncate(n int) []Paintable {
	if n < 0 {
		n = 0
	}
	if n >= len(p.items) {
		return nil
	}
	removed := make([]Paintable, len(p.items)-n)
	copy(removed, p.items[n:])
	clear(p.items[n:])
	p.items = p.items[:n]
	return removed
}

func (p *StylePage) Len() int           { return len(p.items) }
func (p *StylePage) At(i int) Paintable { return p.items[i] }
func (p *StylePage) Items() []Paintable { return append([]Paintable(nil), p.items...) }
func (p *StylePage) Empty() bool        { return len(p.items) == 0 }
func (p *StylePage) Last() (Paintable, bool) {
	if len(p.items) == 0 {
		return nil, false
	}
	return p.items[len(p.items)-1], true
}

// ContentBottom returns the lowest edge of all paintables, or the top of the
// content area when the page is empty.
func (p *StylePage) ContentBottom() float64 {
	bottom := p.Content().Y
	for _, x := range p.items {
		if b := x.Bounds(); !b.Empty() && b.Bottom() > bottom {
			bottom = b.Bottom()
		}
	}
	return bottom
}

// ResolveTokens 把 ${page}/${pages} 替换为实际页码，在分页全部完成后调用。
func (p *StylePage) ResolveTokens(total int) {
	for _, x := range p.items {
		if r, ok := x.(TokenResolver); ok {
			r.ResolveTokens(p.Number, total)
		}
	}
}

// Paint draws every paintable in insertion order.
func (p *StylePage) Paint(g gfx.Graphics) {
	for _, x := range p.items {
		x.Paint(g)
	}
}

type debugItem struct {
	Kind   string    `json:"kind"`
	Bounds gfx.Rect  `json:"bounds"`
	Data   Paintable `json:"data"`
}

// MarshalJSON 输出调试用的页面结构。
func (p *StylePage) MarshalJSON() ([]byte, error) {
	items := make([]debugItem, len(p.items))
	for i, x := range p.items {
		items[i] = debugItem{Kind: kindOf(x), Bounds: x.Bounds(), Data: x}
	}
	return json.Marshal(struct {
		Number int         `json:"number"`
		Width  float64     `json:"width"`
		Height float64     `json:"height"`
		Margin gfx.Insets  `json:"margin"`
		Items  []debugItem `json:"items"`
	}{p.Number, p.Width, p.Height, p.Margin, items})
}

func kindOf(x Paintable) string {
	switch x.(type) {
	case *TextPaintable:
		return "text"
	case *ShapePaintable:
		return "shape"
	case *ImagePaintable:
		return "image"
	}
	if k, ok := x.(interface{ Kind() string }); ok {
		return k.Kind()
	}
	return fmt.Sprintf("%T", x)
}
