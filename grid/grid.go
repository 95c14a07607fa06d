package grid

import (
	"image"
	"math"

	"github.com/ByLCY/folio/gfx"
	"github.com/ByLCY/folio/page"
	"github.com/ByLCY/folio/textflow"
)

// borderTolerance is the hit band around a grid line used by LocateBorder.
const borderTolerance = 2.0

// GridPaintable 绘制表格在一页上的一段连续行。构造后单元格信息不再随 Sheet 变化，
// 只有分页时的行高截断（Scale、SetRowHeight）与位置调整（AdjustLoc）会修改它。
type GridPaintable struct {
	X        float64      `json:"x"`
	Y        float64      `json:"y"`
	StartRow int          `json:"startRow"`
	Widths   []float64    `json:"widths"`
	Heights  []float64    `json:"heights"`
	Cells    [][]CellInfo `json:"cells"`

	Fonts  gfx.FontProvider `json:"-"`
	Source page.Rewinder    `json:"-"`
}

// NewGridPaintable builds a paintable at (x, y) for sheet rows
// [startRow, startRow+len(heights)).
func NewGridPaintable(x, y float64, startRow int, heights []float64, sheet Sheet) *GridPaintable {
	g := &GridPaintable{X: x, Y: y}
	g.SetGridRegion(startRow, heights, sheet)
	return g
}

// SetGridRegion 截取 sheet 中从 startRow 开始的若干行。
// 起点位于 startRow 之前（已输出到上一页）的合并区域会被截断到本区间的第一行，
// 并把起始单元格的外观复制到截断后的起点上。
func (g *GridPaintable) SetGridRegion(startRow int, heights []float64, sheet Sheet) {
	cols := sheet.ColCount()
	g.StartRow = startRow
	g.Heights = append([]float64(nil), heights...)
	g.Widths = make([]float64, cols)
	for c := range cols {
		g.Widths[c] = sheet.ColWidth(c)
	}
	g.Cells = make([][]CellInfo, len(heights))
	for i := range heights {
		r := startRow + i
		g.Cells[i] = make([]CellInfo, cols)
		for c := range cols {
			info := sheet.Cell(r, c)
			if info.Span.Covered() && r+info.Span.Row < startRow {
				originRow, originCol := r+info.Span.Row, c+info.Span.Col
				cut := startRow - originRow
				if info.Span.Col == 0 && i == 0 {
					span := info.Span
					info = sheet.Cell(originRow, originCol)
					info.Span = Span{Rows: span.Rows - cut, Cols: span.Cols}
				} else {
					info.Span.Row = startRow - r
					info.Span.Rows -= cut
				}
			}
			g.Cells[i][c] = info
		}
	}
}

func (g *GridPaintable) Rows() int { return len(g.Heights) }
func (g *GridPaintable) Cols() int { return len(g.Widths) }

func (g *GridPaintable) Bounds() gfx.Rect {
	return gfx.Rect{X: g.X, Y: g.Y, W: sum(g.Widths), H: sum(g.Heights)}
}

func (g *GridPaintable) Owner() page.Rewinder { return g.Source }
func (g *GridPaintable) Kind() string         { return "grid" }

// origin resolves the cell owning (r, c) and the span size clamped to the region.
func (g *GridPaintable) origin(r, c int) (or, oc, rows, cols int) {
	s := g.Cells[r][c].Span
	or, oc = r, c
	if s.Covered() {
		or, oc = r+s.Row, c+s.Col
		s = g.Cells[or][oc].Span
	}
	rows, cols = max(s.Rows, 1), max(s.Cols, 1)
	rows = min(rows, len(g.Heights)-or)
	cols = min(cols, len(g.Widths)-oc)
	return
}

// GetCellBounds 返回区间内单元格的矩形；被合并覆盖的单元格返回整个合并区域。
func (g *GridPaintable) GetCellBounds(r, c int) gfx.Rect {
	or, oc, rows, cols := g.origin(r, c)
	return gfx.Rect{
		X: g.X + sum(g.Widths[:oc]),
		Y: g.Y + sum(g.Heights[:or]),
		W: sum(g.Widths[oc : oc+cols]),
		H: sum(g.Heights[or : or+rows]),
	}
}

// Locate maps a page point to a region row and column.
func (g *GridPaintable) Locate(x, y float64) (row, col int, ok bool) {
	row = scan(g.Heights, y-g.Y)
	col = scan(g.Widths, x-g.X)
	return row, col, row >= 0 && col >= 0
}

// BorderHit identifies a grid line: horizontal line Index lies above region row Index.
type BorderHit struct {
	Horizontal bool
	Index      int
}

// LocateBorder 在 2pt 容差内查找经过该点的网格线，优先匹配水平线。
func (g *GridPaintable) LocateBorder(x, y float64) (BorderHit, bool) {
	b := g.Bounds()
	if x < b.X-borderTolerance || x > b.Right()+borderTolerance ||
		y < b.Y-borderTolerance || y > b.Bottom()+borderTolerance {
		return BorderHit{}, false
	}
	pos := g.Y
	for i := 0; i <= len(g.Heights); i++ {
		if math.Abs(y-pos) <= borderTolerance {
			return BorderHit{Horizontal: true, Index: i}, true
		}
		if i < len(g.Heights) {
			pos += g.Heights[i]
		}
	}
	pos = g.X
	for j := 0; j <= len(g.Widths); j++ {
		if math.Abs(x-pos) <= borderTolerance {
			return BorderHit{Index: j}, true
		}
		if j < len(g.Widths) {
			pos += g.Widths[j]
		}
	}
	return BorderHit{}, false
}

// Scale multiplies every row height by f.
func (g *GridPaintable) Scale(f float64) {
	for i := range g.Heights {
		g.Heights[i] *= f
	}
}

// SetRowHeight truncates or grows a region row.
func (g *GridPaintable) SetRowHeight(i int, h float64) { g.Heights[i] = max(0, h) }

// AdjustLoc moves the paintable by (dx, dy).
func (g *GridPaintable) AdjustLoc(dx, dy float64) {
	g.X += dx
	g.Y += dy
}

func (g *GridPaintable) Paint(gr gfx.Graphics) {
	for r := range g.Cells {
		for c := range g.Cells[r] {
			if g.Cells[r][c].Span.Covered() {
				continue
			}
			g.paintCell(gr, r, c)
		}
	}
	g.paintBorders(gr)
}

func (g *GridPaintable) paintCell(gr gfx.Graphics, r, c int) {
	info := g.Cells[r][c]
	cell := g.GetCellBounds(r, c)
	// 背景内缩半个线宽，避免覆盖相邻边框。
	inner := gfx.Insets{
		Top:    info.Borders[Top].Style.Width() / 2,
		Right:  info.Borders[Right].Style.Width() / 2,
		Bottom: info.Borders[Bottom].Style.Width() / 2,
		Left:   info.Borders[Left].Style.Width() / 2,
	}.Shrink(cell)
	switch {
	case info.Image != nil:
		paintImage(gr, info.Image, info.ImageMode, inner)
	case info.Background != nil:
		gr.SetColor(*info.Background)
		gr.FillRect(inner)
	}
	if info.Text == "" {
		return
	}
	var fonts gfx.FontProvider = gfx.FixedProvider{}
	if g.Fonts != nil {
		fonts = g.Fonts
	}
	m := fonts.Metrics(info.Font)
	box := gfx.Uniform(info.Padding).Shrink(inner)
	l := textflow.Process(info.Text, m, textflow.Options{Bounds: box, Align: info.Align, Wrap: true})
	gr.SetColor(info.TextColor)
	n := max(l.Fit(box.H), min(1, len(l.Lines)))
	for i, ln := range l.Lines[:n] {
		y := l.Bounds.Y + float64(i)*(l.LineHeight+l.Spacing) + m.Ascent()
		gr.DrawString(info.Text[ln.Start:ln.End], box.X+ln.X, y, info.Font)
	}
}

func paintImage(gr gfx.Graphics, img image.Image, mode ImageMode, dst gfx.Rect) {
	b := img.Bounds()
	iw, ih := float64(b.Dx()), float64(b.Dy())
	if iw <= 0 || ih <= 0 || dst.Empty() {
		return
	}
	if mode == ImageTile {
		for y := dst.Y; y < dst.Bottom(); y += ih {
			for x := dst.X; x < dst.Right(); x += iw {
				w, h := math.Min(iw, dst.Right()-x), math.Min(ih, dst.Bottom()-y)
				gr.DrawImage(crop(img, w, h), gfx.Rect{X: x, Y: y, W: w, H: h})
			}
		}
		return
	}
	w, h := math.Min(iw, dst.W), math.Min(ih, dst.H)
	src := img
	if w < iw || h < ih {
		// 图片比单元格大时裁掉四周，保留中心部分。
		src = cropAt(img, int((iw-w)/2), int((ih-h)/2), w, h)
	}
	gr.DrawImage(src, gfx.Rect{X: dst.X + (dst.W-w)/2, Y: dst.Y + (dst.H-h)/2, W: w, H: h})
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

func crop(img image.Image, w, h float64) image.Image { return cropAt(img, 0, 0, w, h) }

func cropAt(img image.Image, dx, dy int, w, h float64) image.Image {
	s, ok := img.(subImager)
	if !ok {
		return img
	}
	at := img.Bounds().Min.Add(image.Pt(dx, dy))
	return s.SubImage(image.Rectangle{Min: at, Max: at.Add(image.Pt(int(math.Ceil(w)), int(math.Ceil(h))))})
}

func sum(xs []float64) float64 {
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total
}

// scan returns the index of the interval containing v, or -1.
func scan(sizes []float64, v float64) int {
	if v < 0 {
		return -1
	}
	pos := 0.0
	for i, s := range sizes {
		pos += s
		if v < pos {
			return i
		}
	}
	return -1
}
