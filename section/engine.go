package section

import (
	"fmt"
	"log/slog"

	"github.com/ByLCY/folio/band"
	"github.com/ByLCY/folio/gfx"
	"github.com/ByLCY/folio/lens"
	"github.com/ByLCY/folio/page"
)

// minSliver 是继续在本页打印下一区带所需的最小剩余高度（pt）。
const minSliver = 5.0

// BandInfo 记录本页实际打印的一个区带。Y 为页面坐标。
type BandInfo struct {
	Band   string  `json:"band"`
	Kind   Kind    `json:"kind"`
	Level  int     `json:"level"`
	Index  int     `json:"index"`
	Y      float64 `json:"y"`
	Height float64 `json:"height"`
	Row    int     `json:"row"`
	Offset float64 `json:"offset"`
	Replay bool    `json:"replay,omitempty"`
}

// Engine 驱动一个分节的逐页打印。同一个 Engine 不能被并发分页。
type Engine struct {
	def    *Section
	lens   lens.TableLens
	groups []int

	cursor   Cursor
	infos    []BandInfo
	noRepeat map[*band.Band]bool
	Logger   *slog.Logger
}

// New creates an engine for def. Without Bind the section prints a single pseudo row.
func New(def *Section) *Engine {
	e := &Engine{def: def}
	e.lens = lens.New(nil, [][]any{{}})
	e.ResetPrint()
	return e
}

// Def returns the section definition.
func (e *Engine) Def() *Section { return e.def }

// Bind 绑定数据源并解析分组列。
func (e *Engine) Bind(l lens.TableLens) error {
	if l == nil {
		l = lens.New(nil, [][]any{{}})
	}
	if err := e.def.Validate(); err != nil {
		return err
	}
	groups := make([]int, len(e.def.GroupCols))
	for i, name := range e.def.GroupCols {
		groups[i] = lens.ColumnIndex(l, name)
		if groups[i] < 0 {
			return fmt.Errorf("分节 %s: 数据源中没有分组列 %q", e.def.Name, name)
		}
	}
	e.lens, e.groups = l, groups
	e.ResetPrint()
	return nil
}

// ResetPrint 清除打印进度，下一次 Print 从头开始。
func (e *Engine) ResetPrint() {
	row := 0
	if e.lens != nil {
		row = e.lens.HeaderRowCount()
	}
	e.cursor = Cursor{Phase: PhaseHeader, Row: row, Prev: -1}
	e.infos = nil
	e.noRepeat = map[*band.Band]bool{}
	_ = e.def.Visit(func(_ Kind, _, _ int, b *band.Band) error {
		b.Reset()
		return nil
	})
	if e.lens != nil {
		e.settle()
	}
}

func (e *Engine) Cursor() Cursor     { return e.cursor }
func (e *Engine) SetCursor(c Cursor) { e.cursor = c }

// IsPrintedOver reports whether the whole section has been printed.
func (e *Engine) IsPrintedOver() bool { return e.cursor.Phase == PhaseDone }

// BandInfos returns the bands printed by the last Print call.
func (e *Engine) BandInfos() []BandInfo { return append([]BandInfo(nil), e.infos...) }

func (e *Engine) log(ctx *band.Context) *slog.Logger {
	l := e.Logger
	if l == nil {
		l = ctx.Log()
	}
	return l.With("section", e.def.Name, "page", ctx.Page.Number)
}

// Print 在 ctx.Page 上从 ctx.Y 开始打印分节，返回之后是否还有内容需要下一页。
func (e *Engine) Print(ctx *band.Context) (bool, error) {
	if e.cursor.Phase == PhaseDone {
		return false, nil
	}
	savedLens, savedRow, savedTop := ctx.Lens, ctx.Row, ctx.Top
	defer func() { ctx.Lens, ctx.Row, ctx.Top = savedLens, savedRow, savedTop }()

	startIdx, startY := ctx.Page.Len(), ctx.Y
	atTop := ctx.AtTop()
	saved := e.cursor

	for {
		e.infos = e.infos[:0]
		ctx.Top = savedTop
		replayed := e.replayHeaders(ctx)
		if replayed > 0 && atTop {
			if ctx.Remaining() < minSliver {
				// 重复表头本身占满了整页：关闭这些表头的重复后在本页重试。
				e.disableReplayed(ctx)
				e.discard(ctx, startIdx, startY, saved)
				continue
			}
			// 表头下方视为页首，放不下的区带按页首规则拆分或处理。
			ctx.Top = ctx.Y
		}
		progress, more, err := e.printBands(ctx)
		if err != nil {
			return false, err
		}
		if progress > 0 || !more {
			break
		}
		// 本页除重复表头外什么都没放下：丢弃本次输出，整体移到下一页。
		e.discard(ctx, startIdx, startY, saved)
		return true, nil
	}

	if len(e.infos) > 0 {
		ctx.Page.Insert(startIdx, &Paintable{Name: e.def.Name, X: ctx.Area.X, W: ctx.Area.W, Infos: e.BandInfos()})
	}
	if e.cursor.Phase == PhaseDone {
		ctx.Y = min(ctx.Y+e.def.Gap, ctx.Area.Bottom())
		return false, nil
	}
	return true, nil
}

func (e *Engine) discard(ctx *band.Context, startIdx int, startY float64, saved Cursor) {
	for _, p := range ctx.Page.Truncate(startIdx) {
		if o, ok := p.(page.Owned); ok && o.Owner() != nil {
			o.Owner().Rewind(p)
		}
	}
	ctx.Y = startY
	e.cursor = saved
	e.infos = e.infos[:0]
}

// disableReplayed 停止重复本页重印过的表头。
func (e *Engine) disableReplayed(ctx *band.Context) {
	for _, info := range e.infos {
		if !info.Replay {
			continue
		}
		for _, b := range levelBands(e.def.Headers, info.Level) {
			if b.Name == info.Band && b.RepeatHeader {
				e.noRepeat[b] = true
			}
		}
		e.log(ctx).Warn("重复表头超出页面高度，已停止重复", "band", info.Band, "level", info.Level)
	}
}

// printBands 打印游标处开始的区带直到本页结束。progress 统计游标前进或留下输出的区带数，
// 重印的表头不计入。
func (e *Engine) printBands(ctx *band.Context) (progress int, more bool, err error) {
	for e.cursor.Phase != PhaseDone {
		b, kind, lvl := e.current()
		phase := e.cursor.Phase
		ctx.Lens, ctx.Row = e.lens, e.rowFor(phase)
		st, printed, err := e.printBand(ctx, b, kind, lvl, e.cursor.Index, false)
		if err != nil {
			return progress, false, err
		}
		if printed {
			e.cursor.Started = true
		}
		if printed || st == band.OK || st == band.Advance {
			progress++
		}
		switch st {
		case band.OK:
			e.advance()
			if e.cursor.Phase != PhaseDone && ctx.Remaining() < minSliver {
				return progress, true, nil
			}
		case band.Advance:
			e.advance()
			return progress, e.cursor.Phase != PhaseDone, nil
		case band.Repeat, band.More:
			return progress, true, nil
		case band.Abort:
			e.log(ctx).Error("区带在空白页上也放不下，终止分节", "band", b.Name, "row", ctx.Row)
			e.cursor.Phase = PhaseDone
			e.cursor.More = nil
			return progress, false, nil
		}
	}
	return progress, false, nil
}

// replayHeaders 在新页顶部重印当前仍处于打开状态的重复表头。
func (e *Engine) replayHeaders(ctx *band.Context) int {
	c := e.cursor
	if !c.Started {
		return 0
	}
	upto, partial := 0, -1
	switch c.Phase {
	case PhaseHeader:
		upto, partial = c.Level-1, c.Level
	case PhaseContent:
		if c.Open || c.Prev >= 0 {
			upto = e.depth()
		}
	case PhaseFooter:
		upto = c.Level
	}
	ctx.Lens = e.lens
	if c.Phase == PhaseFooter {
		ctx.Row = c.Prev
	} else {
		ctx.Row = e.rowFor(PhaseHeader)
	}
	n := 0
	replay := func(lvl, idx int, b *band.Band) {
		if !b.Printable() || !b.RepeatHeader || e.noRepeat[b] {
			return
		}
		st, _, err := e.printBand(ctx, b, Header, lvl, idx, true)
		if err == nil && st == band.OK {
			n++
			return
		}
		e.noRepeat[b] = true
		e.log(ctx).Warn("重复表头无法在本页完整打印，已停止重复", "band", b.Name, "status", st.String(), "error", err)
	}
	for lvl := 0; lvl <= upto; lvl++ {
		for idx, b := range levelBands(e.def.Headers, lvl) {
			replay(lvl, idx, b)
		}
	}
	if partial >= 0 {
		for idx, b := range levelBands(e.def.Headers, partial)[:c.Index] {
			replay(partial, idx, b)
		}
	}
	return n
}

// printBand 打印一个区带并返回状态；printed 表示本页上留下了该区带的输出。
func (e *Engine) printBand(ctx *band.Context, b *band.Band, kind Kind, lvl, idx int, replay bool) (band.Status, bool, error) {
	cont := !replay && e.cursor.More != nil
	atTop := ctx.AtTop()
	if b.PageBefore && !replay && !cont && !atTop {
		return band.Repeat, false, nil
	}
	offset := 0.0
	if cont {
		offset = e.cursor.More.Offset
	} else {
		b.Reset()
	}

	avail := ctx.Remaining()
	declared := max(0, b.Height-offset)
	boxH := avail
	if b.FixedSize {
		boxH = min(declared, avail)
	}
	start := ctx.Page.Len()
	box := gfx.Rect{X: ctx.Area.X, Y: ctx.Y, W: ctx.Area.W, H: boxH}
	fill, bottom, err := band.PrintFixedContainer(ctx, b, box, offset)
	if err != nil {
		e.rewind(ctx, b, start, 0, true)
		return band.Abort, false, err
	}

	var h float64
	switch {
	case b.FixedSize:
		h = declared
	case b.ShrinkToFit:
		h = bottom + b.TrailingGap()
	default:
		h = max(declared, bottom+b.TrailingGap())
	}
	fits := h <= avail+band.Tolerance
	if b.FixedSize && fits && fill != band.Completed {
		// 固定高度的区带内容被截断，不再跨页。
		fill = band.Completed
	}

	if fill == band.Completed && fits {
		e.record(ctx, b, kind, lvl, idx, h, offset, replay)
		if !b.Underlay {
			ctx.Y += min(h, avail)
		}
		if !replay {
			e.cursor.More = nil
		}
		if b.PageAfter && !replay {
			return band.Advance, true, nil
		}
		return band.OK, true, nil
	}
	if replay {
		e.rewind(ctx, b, start, 0, true)
		return band.More, false, nil
	}

	// 已经开始跨页的区带继续拆分，即使本页顶部先重印了表头。
	breakable := b.Breakable || cont || (atTop && ctx.Policy == band.PolicySplit)
	log := e.log(ctx).With("band", b.Name, "row", ctx.Row)
	switch {
	case !breakable && !atTop:
		e.rewind(ctx, b, start, 0, true)
		b.Reset()
		e.cursor.More = nil
		return band.More, false, nil
	case !breakable:
		return e.oversize(ctx, b, kind, lvl, idx, start, offset, avail, log)
	}

	if !b.Breakable {
		log.Warn("区带高度超过整页，已强制拆分", "height", h, "available", avail)
	}
	limit := box.Bottom()
	e.rewind(ctx, b, start, limit, false)
	printed := ctx.Page.Len() > start
	if avail <= 0 && !printed {
		return band.More, false, nil
	}
	e.record(ctx, b, kind, lvl, idx, avail, offset, false)
	ctx.Y = ctx.Area.Bottom()
	e.cursor.More = &Continuation{Offset: offset + avail}
	return band.More, true, nil
}

// oversize 处理在页首仍放不下的不可拆分区带。
func (e *Engine) oversize(ctx *band.Context, b *band.Band, kind Kind, lvl, idx, start int, offset, avail float64, log *slog.Logger) (band.Status, bool, error) {
	switch ctx.Policy {
	case band.PolicyClip:
		log.Warn("区带高度超过整页，已截断打印", "available", avail)
		e.rewind(ctx, b, start, ctx.Area.Bottom(), false)
		e.record(ctx, b, kind, lvl, idx, avail, offset, false)
		ctx.Y = ctx.Area.Bottom()
		e.cursor.More = nil
		return band.Advance, true, nil
	case band.PolicySkip:
		log.Warn("区带高度超过整页，已跳过", "available", avail)
		e.rewind(ctx, b, start, 0, true)
		b.Reset()
		e.cursor.More = nil
		return band.OK, false, nil
	default:
		e.rewind(ctx, b, start, 0, true)
		b.Reset()
		e.cursor.More = nil
		return band.Abort, false, nil
	}
}

// rewind 撤回区带在本次调用中输出的 Paintable。all 为 false 时只撤回底边超过
// limit 的非形状 Paintable；被撤回内容的元素会收到 Rewind 回调并重新标记为未完成。
func (e *Engine) rewind(ctx *band.Context, b *band.Band, start int, limit float64, all bool) {
	removed := ctx.Page.Truncate(start)
	for _, p := range removed {
		if !all {
			if _, ok := p.(page.Shape); ok || p.Bounds().Bottom() <= limit+band.Tolerance {
				ctx.Page.Add(p)
				continue
			}
		}
		o, ok := p.(page.Owned)
		if !ok || o.Owner() == nil {
			continue
		}
		o.Owner().Rewind(p)
		b.MarkPending(b.IndexOf(o.Owner()))
	}
}

func (e *Engine) record(ctx *band.Context, b *band.Band, kind Kind, lvl, idx int, h, offset float64, replay bool) {
	e.infos = append(e.infos, BandInfo{
		Band:   b.Name,
		Kind:   kind,
		Level:  lvl,
		Index:  idx,
		Y:      ctx.Y,
		Height: h,
		Row:    ctx.Row,
		Offset: offset,
		Replay: replay,
	})
}
