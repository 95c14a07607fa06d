// Package gfx 定义排版引擎与渲染后端之间共享的几何、颜色、字体与绘图接口。
// 引擎内部统一使用 pt（1/72 英寸）作为长度单位。
package gfx

import "math"

// Rect 是以左上角为原点、y 轴向下的矩形。
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

func (r Rect) Right() float64  { return r.X + r.W }
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Translate returns r moved by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// Union returns the smallest rectangle containing r and o. An empty operand is ignored.
func (r Rect) Union(o Rect) Rect {
	if r.W <= 0 && r.H <= 0 {
		return o
	}
	if o.W <= 0 && o.H <= 0 {
		return r
	}
	x := math.Min(r.X, o.X)
	y := math.Min(r.Y, o.Y)
	return Rect{
		X: x,
		Y: y,
		W: math.Max(r.Right(), o.Right()) - x,
		H: math.Max(r.Bottom(), o.Bottom()) - y,
	}
}

// Intersect returns the overlapping area of r and o (zero Rect when disjoint).
func (r Rect) Intersect(o Rect) Rect {
	x1 := math.Max(r.X, o.X)
	y1 := math.Max(r.Y, o.Y)
	x2 := math.Min(r.Right(), o.Right())
	y2 := math.Min(r.Bottom(), o.Bottom())
	if x2 <= x1 || y2 <= y1 {
		return Rect{}
	}
	return Rect{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// Contains reports whether the point lies inside r (right/bottom edges exclusive).
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// Insets 描述四边留白（pt）。
type Insets struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Uniform returns Insets with the same value on every side.
func Uniform(v float64) Insets {
	return Insets{Top: v, Right: v, Bottom: v, Left: v}
}

// Shrink returns r reduced by the insets; width and height never go negative.
func (in Insets) Shrink(r Rect) Rect {
	r.X += in.Left
	r.Y += in.Top
	r.W = math.Max(0, r.W-in.Left-in.Right)
	r.H = math.Max(0, r.H-in.Top-in.Bottom)
	return r
}
