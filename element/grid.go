package element

import (
	"fmt"
	"strings"

	"github.com/ByLCY/folio/band"
	"github.com/ByLCY/folio/binding"
	"github.com/ByLCY/folio/gfx"
	"github.com/ByLCY/folio/grid"
	"github.com/ByLCY/folio/lens"
	"github.com/ByLCY/folio/page"
	"github.com/ByLCY/folio/textflow"
	"github.com/tiendc/go-deepcopy"
)

// Column 描述表格元素的一列。Field 为数据列名，包含 ${ 时按模板绑定整行。
type Column struct {
	Title    string
	Field    string
	Width    float64
	Align    textflow.Align
	Currency bool
	// Merge 让取值相同的相邻行纵向合并。
	Merge bool
}

// Grid 把一个数据源画成表格，按行跨页。
type Grid struct {
	Name         string
	Box          gfx.Rect
	Lens         lens.TableLens `copy:"-"`
	Columns      []Column
	Font         gfx.Font
	HeaderFont   gfx.Font
	TextColor    gfx.Color
	HeaderFill   *gfx.Color
	Border       grid.Border
	Padding      float64
	MinRowHeight float64
	RepeatHeader bool

	sheet   *grid.Table `copy:"-"`
	heights []float64   `copy:"-"`
	header  int         `copy:"-"`
	next    int         `copy:"-"`
}

func (g *Grid) ID() string       { return g.Name }
func (g *Grid) Bounds() gfx.Rect { return g.Box }

func (g *Grid) Reset() {
	g.sheet = nil
	g.next = 0
}

// Clone 深拷贝列定义与表头填充色，数据源仍然共享。
func (g *Grid) Clone() band.Element {
	c := &Grid{}
	if err := deepcopy.Copy(c, g); err != nil {
		panic(fmt.Sprintf("element: clone grid %s: %v", g.Name, err))
	}
	c.Lens = g.Lens
	return c
}

// Rewind 把行游标退回到被撤回的行区间的起点。重复的表头没有所有者，不会回退。
func (g *Grid) Rewind(p page.Paintable) {
	if gp, ok := p.(*grid.GridPaintable); ok {
		g.next = min(g.next, gp.StartRow)
	}
}

// Sheet returns the table built on the last print, or nil.
func (g *Grid) Sheet() *grid.Table { return g.sheet }

func (g *Grid) build(ctx *band.Context) error {
	if g.Lens == nil {
		return fmt.Errorf("表格 %s 没有绑定数据源", g.Name)
	}
	cols := make([]int, len(g.Columns))
	for i, col := range g.Columns {
		cols[i] = -1
		if !strings.Contains(col.Field, "${") {
			cols[i] = lens.ColumnIndex(g.Lens, col.Field)
			if cols[i] < 0 {
				return fmt.Errorf("表格 %s: 数据源中没有列 %q", g.Name, col.Field)
			}
		}
	}
	var rows []int
	for r := g.Lens.HeaderRowCount(); g.Lens.MoreRows(r); r++ {
		rows = append(rows, r)
	}
	if err := lens.Err(g.Lens); err != nil {
		return fmt.Errorf("表格 %s: %w", g.Name, err)
	}

	g.header = 0
	for _, col := range g.Columns {
		if col.Title != "" {
			g.header = 1
			break
		}
	}
	t := grid.NewTable(g.header+len(rows), len(g.Columns), g.Box.W)
	t.HeaderRows = g.header
	for c, col := range g.Columns {
		if col.Width > 0 {
			t.SetColWidth(c, col.Width)
		}
	}
	t.SetGridBorders(g.Border)

	cell := func(text string, font gfx.Font, col Column) grid.CellInfo {
		return grid.CellInfo{
			Text:      text,
			Font:      font,
			TextColor: g.TextColor,
			Align:     col.Align,
			Padding:   g.Padding,
			Borders:   [4]grid.Border{g.Border, g.Border, g.Border, g.Border},
		}
	}
	if g.header > 0 {
		font := g.HeaderFont
		if font.Size == 0 {
			font = g.Font
		}
		for c, col := range g.Columns {
			info := cell(col.Title, font, col)
			info.Background = g.HeaderFill
			t.SetCell(0, c, info)
		}
	}
	for i, r := range rows {
		scope := binding.Scope{Row: lens.RowMap(g.Lens, r), Vars: ctx.Vars, Data: ctx.Data, Lang: ctx.Lang}
		for c, col := range g.Columns {
			var text string
			switch {
			case cols[c] < 0:
				text = binding.Interpolate(col.Field, scope)
			case col.Currency:
				text = binding.FormatCurrency(g.Lens.Object(r, cols[c]), ctx.Lang)
			default:
				text = lens.Text(g.Lens.Object(r, cols[c]))
			}
			t.SetCell(g.header+i, c, cell(text, g.Font, col))
		}
	}
	if err := g.mergeRuns(t); err != nil {
		return fmt.Errorf("表格 %s: %w", g.Name, err)
	}
	g.sheet = t
	g.heights = g.rowHeights(ctx, t)
	return nil
}

// mergeRuns 合并 Merge 列中取值相同的连续数据行。
func (g *Grid) mergeRuns(t *grid.Table) error {
	for c, col := range g.Columns {
		if !col.Merge {
			continue
		}
		start := g.header
		for r := g.header + 1; r <= t.RowCount(); r++ {
			if r < t.RowCount() && t.Cell(r, c).Text == t.Cell(start, c).Text {
				continue
			}
			if r-start > 1 {
				if err := t.Merge(start, c, r-start, 1); err != nil {
					return err
				}
			}
			start = r
		}
	}
	return nil
}

func (g *Grid) rowHeights(ctx *band.Context, t *grid.Table) []float64 {
	heights := make([]float64, t.RowCount())
	for r := range heights {
		h := g.MinRowHeight
		for c := range t.ColCount() {
			info := t.Cell(r, c)
			if info.Span.Covered() {
				continue
			}
			text := info.Text
			if info.Span.Rows > 1 {
				// 合并单元格只按首行计高，其余内容由所跨的行分担。
				text, _, _ = strings.Cut(text, "\n")
			}
			opts := textflow.Options{Bounds: gfx.Rect{W: t.ColWidth(c) - 2*info.Padding}, Wrap: true, Align: textflow.HLeft}
			l, _ := ctx.Layout(text, info.Font, opts)
			h = max(h, l.Height(max(1, len(l.Lines)))+2*info.Padding)
		}
		heights[r] = h
	}
	return heights
}

func (g *Grid) Print(ctx *band.Context, area gfx.Rect) (band.Result, error) {
	if g.sheet == nil {
		if err := g.build(ctx); err != nil {
			return band.Result{}, err
		}
		g.next = 0
	}
	total := g.sheet.RowCount()
	if g.next >= total {
		return band.Result{}, nil
	}

	var head *grid.GridPaintable
	top := 0.0
	if g.RepeatHeader && g.header > 0 && g.next > g.header {
		head = grid.NewGridPaintable(area.X, area.Y, 0, g.heights[:g.header], g.sheet)
		head.Fonts = ctx.FontProvider()
		top = head.Bounds().H
	}

	y, end := top, g.next
	for end < total && y+g.heights[end] <= area.H+band.Tolerance {
		y += g.heights[end]
		end++
	}
	if end <= g.header && end < total {
		// 表头行至少要带上一行数据。
		end = g.next
	}
	forced := false
	if end == g.next {
		if !ctx.MustFit(area) {
			return band.Result{More: true}, nil
		}
		end, forced = min(total, max(g.next, g.header)+1), true
	}
	y = top + sum(g.heights[g.next:end])

	body := grid.NewGridPaintable(area.X, area.Y+top, g.next, g.heights[g.next:end], g.sheet)
	body.Fonts = ctx.FontProvider()
	body.Source = g
	if over := y - area.H; forced && over > 0 {
		// 页首也放不下：截断最后一行。
		last := body.Rows() - 1
		body.SetRowHeight(last, body.Heights[last]-over)
		y = area.H
	}
	if head != nil {
		ctx.Page.Add(head)
	}
	ctx.Page.Add(body)
	g.next = end
	return band.Result{Height: y, More: g.next < total}, nil
}

func sum(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s
}
