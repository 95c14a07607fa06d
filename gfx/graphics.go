package gfx

import "image"

// Graphics 是渲染后端需要实现的绘图服务。坐标单位为 pt，原点在页面左上角。
type Graphics interface {
	SetColor(c Color)
	FillRect(r Rect)
	// DrawLine strokes a straight segment with butt caps.
	DrawLine(x1, y1, x2, y2 float64, style LineStyle)
	DrawRect(r Rect, style LineStyle)
	// DrawString draws s with its baseline at y.
	DrawString(s string, x, y float64, font Font)
	DrawImage(img image.Image, dst Rect)
}

// OpKind 标识 Recorder 记录的绘图操作类型。
type OpKind string

const (
	OpFill   OpKind = "fill"
	OpLine   OpKind = "line"
	OpRect   OpKind = "rect"
	OpString OpKind = "string"
	OpImage  OpKind = "image"
)

// Op 是一次被记录的绘图调用。
type Op struct {
	Kind  OpKind    `json:"kind"`
	Color Color     `json:"color"`
	Rect  Rect      `json:"rect,omitempty"`
	X1    float64   `json:"x1,omitempty"`
	Y1    float64   `json:"y1,omitempty"`
	X2    float64   `json:"x2,omitempty"`
	Y2    float64   `json:"y2,omitempty"`
	Style LineStyle `json:"style,omitempty"`
	Text  string    `json:"text,omitempty"`
	Font  *Font     `json:"font,omitempty"`
}

// Recorder 记录所有绘图调用而不产生任何输出，用于调试 JSON 与测试。
type Recorder struct {
	Ops   []Op
	color Color
}

var _ Graphics = (*Recorder)(nil)

func (r *Recorder) SetColor(c Color) { r.color = c }

func (r *Recorder) FillRect(rect Rect) {
	r.Ops = append(r.Ops, Op{Kind: OpFill, Color: r.color, Rect: rect})
}

func (r *Recorder) DrawLine(x1, y1, x2, y2 float64, style LineStyle) {
	r.Ops = append(r.Ops, Op{Kind: OpLine, Color: r.color, X1: x1, Y1: y1, X2: x2, Y2: y2, Style: style})
}

func (r *Recorder) DrawRect(rect Rect, style LineStyle) {
	r.Ops = append(r.Ops, Op{Kind: OpRect, Color: r.color, Rect: rect, Style: style})
}

func (r *Recorder) DrawString(s string, x, y float64, font Font) {
	f := font
	r.Ops = append(r.Ops, Op{Kind: OpString, Color: r.color, X1: x, Y1: y, Text: s, Font: &f})
}

func (r *Recorder) DrawImage(img image.Image, dst Rect) {
	r.Ops = append(r.Ops, Op{Kind: OpImage, Rect: dst})
}

// Filter returns the recorded ops of the given kind.
func (r *Recorder) Filter(kind OpKind) []Op {
	var out []Op
	for _, op := range r.Ops {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}

// StrokeArea returns the area covered by a recorded axis-aligned line op
// (butt caps, stroke centred on the segment).
func (op Op) StrokeArea() Rect {
	half := op.Style.Width() / 2
	x1, x2 := op.X1, op.X2
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	y1, y2 := op.Y1, op.Y2
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	if y1 == y2 {
		return Rect{X: x1, Y: y1 - half, W: x2 - x1, H: 2 * half}
	}
	return Rect{X: x1 - half, Y: y1, W: 2 * half, H: y2 - y1}
}
