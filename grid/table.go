// Package grid 实现单元格网格的几何与绘制：合并单元格、按页截取的行区间、
// 背景与四边独立样式的边框。
package grid

import (
	"errors"
	"fmt"
	"image"

	"github.com/ByLCY/folio/gfx"
	"github.com/ByLCY/folio/textflow"
)

// Edge indexes CellInfo.Borders.
type Edge int

const (
	Top Edge = iota
	Right
	Bottom
	Left
)

// Border 是单元格一条边的样式。
type Border struct {
	Style gfx.LineStyle `json:"style"`
	Color gfx.Color     `json:"color"`
}

// Span 描述合并区域。起始单元格的 Row/Col 为 0；被覆盖的单元格保存指向起始
// 单元格的负偏移。Rows/Cols 是合并区域的总行列数，零值表示未合并。
type Span struct {
	Row  int `json:"row"`
	Col  int `json:"col"`
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Covered reports whether the cell is hidden under another cell's span.
func (s Span) Covered() bool { return s.Row < 0 || s.Col < 0 }

// ImageMode 决定背景图片的铺放方式。
type ImageMode int

const (
	ImageCenter ImageMode = iota
	ImageTile
)

// CellInfo 是单元格的外观快照。
type CellInfo struct {
	Background *gfx.Color     `json:"background,omitempty"`
	Image      image.Image    `json:"-"`
	ImageMode  ImageMode      `json:"imageMode,omitempty"`
	Borders    [4]Border      `json:"borders"`
	Span       Span           `json:"span"`
	Text       string         `json:"text,omitempty"`
	Font       gfx.Font       `json:"font"`
	TextColor  gfx.Color      `json:"textColor"`
	Align      textflow.Align `json:"align,omitempty"`
	Padding    float64        `json:"padding,omitempty"`
}

func (c CellInfo) clone() CellInfo {
	if c.Background != nil {
		bg := *c.Background
		c.Background = &bg
	}
	return c
}

// Sheet 是网格数据的来源。GridPaintable 构造时会复制所需的单元格信息。
type Sheet interface {
	RowCount() int
	ColCount() int
	ColWidth(c int) float64
	Cell(r, c int) CellInfo
}

var ErrSpanOverlap = errors.New("合并区域与已有合并区域重叠")

// Table 是可变的 Sheet 实现。
type Table struct {
	widths     []float64
	cells      [][]CellInfo
	HeaderRows int
}

var _ Sheet = (*Table)(nil)

// NewTable creates a rows×cols table whose columns share width evenly.
func NewTable(rows, cols int, width float64) *Table {
	t := &Table{widths: make([]float64, cols), cells: make([][]CellInfo, rows)}
	for c := range t.widths {
		t.widths[c] = width / float64(max(cols, 1))
	}
	for r := range t.cells {
		t.cells[r] = make([]CellInfo, cols)
	}
	return t
}

func (t *Table) RowCount() int          { return len(t.cells) }
func (t *Table) ColCount() int          { return len(t.widths) }
func (t *Table) ColWidth(c int) float64 { return t.widths[c] }

func (t *Table) SetColWidth(c int, w float64) { t.widths[c] = max(0, w) }

func (t *Table) Cell(r, c int) CellInfo { return t.cells[r][c].clone() }

// SetCell replaces the appearance of a cell, keeping its span information.
func (t *Table) SetCell(r, c int, info CellInfo) {
	info.Span = t.cells[r][c].Span
	t.cells[r][c] = info
}

// Update applies fn to the cell in place.
func (t *Table) Update(r, c int, fn func(*CellInfo)) {
	span := t.cells[r][c].Span
	fn(&t.cells[r][c])
	t.cells[r][c].Span = span
}

// AppendRow adds an empty row and returns its index.
func (t *Table) AppendRow() int {
	t.cells = append(t.cells, make([]CellInfo, len(t.widths)))
	return len(t.cells) - 1
}

// Merge 合并从 (r, c) 开始的 rows×cols 区域。
func (t *Table) Merge(r, c, rows, cols int) error {
	if rows < 1 || cols < 1 || r < 0 || c < 0 || r+rows > len(t.cells) || c+cols > len(t.widths) {
		return fmt.Errorf("合并区域 (%d,%d) %dx%d 超出表格范围", r, c, rows, cols)
	}
	for i := r; i < r+rows; i++ {
		for j := c; j < c+cols; j++ {
			if s := t.cells[i][j].Span; s.Rows > 1 || s.Cols > 1 {
				return fmt.Errorf("(%d,%d): %w", i, j, ErrSpanOverlap)
			}
		}
	}
	for i := r; i < r+rows; i++ {
		for j := c; j < c+cols; j++ {
			t.cells[i][j].Span = Span{Row: r - i, Col: c - j, Rows: rows, Cols: cols}
		}
	}
	return nil
}

// SetGridBorders applies the same border to every edge of every cell.
func (t *Table) SetGridBorders(b Border) {
	for r := range t.cells {
		for c := range t.cells[r] {
			t.cells[r][c].Borders = [4]Border{b, b, b, b}
		}
	}
}
