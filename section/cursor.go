package section

import (
	"fmt"

	"github.com/ByLCY/folio/band"
	"github.com/ByLCY/folio/lens"
)

// Phase 是游标所处的阶段，顺序固定：表头 → 内容行 → 分组表尾 → 总计表尾。
type Phase int

const (
	PhaseHeader Phase = iota
	PhaseContent
	PhaseFooter
	PhaseGrandTotal
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseHeader:
		return "header"
	case PhaseContent:
		return "content"
	case PhaseFooter:
		return "footer"
	case PhaseGrandTotal:
		return "grand-total"
	default:
		return "done"
	}
}

// Continuation 记录跨页区带已经消耗的高度。
type Continuation struct {
	Offset float64
}

// Cursor 是分节打印的可恢复位置，按值保存与恢复。
//
// 表头阶段打印 Level..Bound 层；表尾阶段从 Level 回退到 Bound 层。
// Open 表示当前行的分组切换（表尾回退与表头打开）已经处理。
type Cursor struct {
	Phase   Phase
	Row     int
	Prev    int
	Level   int
	Bound   int
	Index   int
	Open    bool
	Started bool
	More    *Continuation
}

func (c Cursor) String() string {
	s := fmt.Sprintf("%s row=%d prev=%d level=%d index=%d", c.Phase, c.Row, c.Prev, c.Level, c.Index)
	if c.More != nil {
		s += fmt.Sprintf(" more=%.1f", c.More.Offset)
	}
	return s
}

// depth is the number of group levels.
func (e *Engine) depth() int { return len(e.groups) }

// hasRow reports whether r is a data row to print as content.
func (e *Engine) hasRow(r int) bool {
	if !e.lens.MoreRows(r) {
		return false
	}
	if gt, ok := e.lens.(lens.GrandTotaler); ok && gt.IsGrandTotal(r) {
		return false
	}
	return true
}

// current returns the band under the cursor; settle must have been called.
func (e *Engine) current() (b *band.Band, kind Kind, lvl int) {
	c := e.cursor
	switch c.Phase {
	case PhaseHeader:
		return levelBands(e.def.Headers, c.Level)[c.Index], Header, c.Level
	case PhaseContent:
		return e.def.Content[c.Index], Content, 0
	case PhaseFooter:
		return levelBands(e.def.Footers, c.Level)[c.Index], Footer, c.Level
	case PhaseGrandTotal:
		return levelBands(e.def.Footers, 0)[c.Index], Footer, 0
	}
	return nil, Content, 0
}

// rowFor returns the lens row a band in the given phase is bound to.
func (e *Engine) rowFor(p Phase) int {
	c := e.cursor
	switch p {
	case PhaseHeader, PhaseContent:
		if e.hasRow(c.Row) || c.Prev < 0 {
			return c.Row
		}
		return c.Prev
	case PhaseGrandTotal:
		if gt, ok := e.lens.(lens.GrandTotaler); ok {
			return gt.GrandTotalRow()
		}
	}
	return c.Prev
}

// settle 把游标推进到下一个可打印的区带，或进入 PhaseDone。
// 分组切换在这里被展开为表尾回退与表头打开。
func (e *Engine) settle() {
	c := &e.cursor
	for {
		switch c.Phase {
		case PhaseHeader:
			if bands := levelBands(e.def.Headers, c.Level); c.Index < len(bands) {
				if bands[c.Index].Printable() {
					return
				}
				c.Index++
				continue
			}
			if c.Level < c.Bound {
				c.Level++
				c.Index = 0
				continue
			}
			c.Phase, c.Index = PhaseContent, 0

		case PhaseContent:
			if !c.Open {
				e.openRow()
				continue
			}
			if c.Index < len(e.def.Content) {
				if e.def.Content[c.Index].Printable() {
					return
				}
				c.Index++
				continue
			}
			c.Prev, c.Row = c.Row, c.Row+1
			c.Index, c.Open = 0, false

		case PhaseFooter:
			if bands := levelBands(e.def.Footers, c.Level); c.Index < len(bands) {
				if bands[c.Index].Printable() {
					return
				}
				c.Index++
				continue
			}
			if c.Level > c.Bound {
				c.Level--
				c.Index = 0
				continue
			}
			if e.hasRow(c.Row) {
				c.Phase, c.Level, c.Bound, c.Index = PhaseHeader, c.Bound, e.depth(), 0
				continue
			}
			c.Phase, c.Index = PhaseGrandTotal, 0

		case PhaseGrandTotal:
			if bands := levelBands(e.def.Footers, 0); c.Index < len(bands) {
				if bands[c.Index].Printable() {
					return
				}
				c.Index++
				continue
			}
			c.Phase = PhaseDone

		default:
			return
		}
	}
}

// openRow 处理进入新行时的分组切换：没有更多行时关闭所有分组；
// 分组值变化时先回退到变化层级的表尾，再打开新的分组表头。
func (e *Engine) openRow() {
	c := &e.cursor
	g := e.depth()
	if !e.hasRow(c.Row) {
		if c.Prev >= 0 && g > 0 {
			c.Phase, c.Level, c.Bound, c.Index = PhaseFooter, g, 1, 0
			return
		}
		c.Phase, c.Index = PhaseGrandTotal, 0
		return
	}
	c.Open = true
	if g == 0 {
		return
	}
	if c.Prev < 0 {
		c.Phase, c.Level, c.Bound, c.Index = PhaseHeader, 1, g, 0
		return
	}
	changed := lens.GroupBreak(e.lens, c.Prev, c.Row, e.groups)
	if changed < 0 {
		return
	}
	c.Phase, c.Level, c.Bound, c.Index = PhaseFooter, g, changed+1, 0
}

// advance moves past the band that was just printed.
func (e *Engine) advance() {
	e.cursor.Index++
	e.cursor.More = nil
	e.settle()
}
