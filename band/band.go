// Package band 定义分节中的区带（Band）、可打印元素接口与打印上下文，
// 并实现按声明位置逐个放置元素的固定容器打印。
package band

import (
	"fmt"

	"github.com/ByLCY/folio/gfx"
	"github.com/ByLCY/folio/page"
	"github.com/tiendc/go-deepcopy"
)

// Status 是区带打印结果，调用方据此决定继续、换页重试或终止。
type Status int

const (
	OK      Status = iota // 完整打印
	Advance               // 完整打印，但之后必须换页
	Repeat                // 未打印，下一页原样重试
	More                  // 部分打印，下一页从中断处继续
	Abort                 // 停止整个分节
)

func (s Status) String() string {
	switch s {
	case OK:
		return "ok"
	case Advance:
		return "advance"
	case Repeat:
		return "repeat"
	case More:
		return "more"
	case Abort:
		return "abort"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// FillStatus 是固定容器打印的结果。
type FillStatus int

const (
	Completed FillStatus = iota
	MoreFlow             // 有元素因位置超出可用高度而未打印
	MoreElem             // 有元素自身还有剩余内容
)

// Result 是元素一次打印的结果。Height 从打印区域顶部算起。
type Result struct {
	Height float64
	More   bool
}

// Element 是可放入区带或报表主体的元素。
type Element interface {
	ID() string
	// Bounds is the declared geometry relative to the band (or body) origin.
	Bounds() gfx.Rect
	// Reset clears print progress before a new run.
	Reset()
	// Print places as much content as fits in area, resuming from the previous call.
	Print(ctx *Context, area gfx.Rect) (Result, error)
	Clone() Element
}

// Band 是分节中的一个区带。
type Band struct {
	Name         string
	Height       float64
	Elements     []Element `copy:"-"`
	Hidden       bool
	Breakable    bool
	RepeatHeader bool
	PageBefore   bool
	PageAfter    bool
	ShrinkToFit  bool
	Underlay     bool
	FixedSize    bool

	printBounds []gfx.Rect `copy:"-"`
	done        []bool     `copy:"-"`
}

// New creates a band of the given declared height.
func New(name string, height float64, elems ...Element) *Band {
	return &Band{Name: name, Height: max(0, height), Elements: elems}
}

func (b *Band) Add(e Element) { b.Elements = append(b.Elements, e) }

// Printable reports whether the band takes part in printing.
func (b *Band) Printable() bool { return b != nil && !b.Hidden }

// Reset 清除区带及其元素的打印进度。
func (b *Band) Reset() {
	b.printBounds = make([]gfx.Rect, len(b.Elements))
	b.done = make([]bool, len(b.Elements))
	for _, e := range b.Elements {
		e.Reset()
	}
}

func (b *Band) ensureState() {
	if len(b.done) != len(b.Elements) {
		b.Reset()
	}
}

// PrintBounds returns where element i ended up, relative to the band origin.
// The zero Rect means it has not been printed.
func (b *Band) PrintBounds(i int) gfx.Rect {
	b.ensureState()
	return b.printBounds[i]
}

func (b *Band) SetPrintBounds(i int, r gfx.Rect) {
	b.ensureState()
	b.printBounds[i] = r
}

// IndexOf returns the index of the element that owns r, or -1.
func (b *Band) IndexOf(r page.Rewinder) int {
	for i, e := range b.Elements {
		if rw, ok := e.(page.Rewinder); ok && rw == r {
			return i
		}
	}
	return -1
}

// MarkPending 让元素在下一次打印时重新参与排版（用于回退后）。
func (b *Band) MarkPending(i int) {
	b.ensureState()
	if i >= 0 && i < len(b.done) {
		b.done[i] = false
	}
}

// Done reports whether every element has been fully printed.
func (b *Band) Done() bool {
	b.ensureState()
	for _, d := range b.done {
		if !d {
			return false
		}
	}
	return true
}

// ContentBottom is the lowest declared element edge.
func (b *Band) ContentBottom() float64 {
	bottom := 0.0
	for _, e := range b.Elements {
		bottom = max(bottom, e.Bounds().Bottom())
	}
	return bottom
}

// TrailingGap is the declared space between the lowest element and the band bottom.
func (b *Band) TrailingGap() float64 {
	return max(0, b.Height-b.ContentBottom())
}

// Clone 深拷贝区带的属性并克隆其中的元素，打印进度不会被复制。
func (b *Band) Clone() *Band {
	out := &Band{}
	if err := deepcopy.Copy(out, b); err != nil {
		// 只包含基本类型字段，复制失败说明类型定义出错。
		panic(fmt.Sprintf("band: clone %s: %v", b.Name, err))
	}
	out.Elements = make([]Element, len(b.Elements))
	for i, e := range b.Elements {
		out.Elements[i] = e.Clone()
	}
	return out
}

func (b *Band) String() string {
	if b == nil {
		return "<nil>"
	}
	return b.Name
}
