package grid

import (
	"testing"

	"github.com/ByLCY/folio/gfx"
)

func newSheet(t *testing.T) *Table {
	t.Helper()
	tbl := NewTable(3, 3, 90)
	tbl.SetGridBorders(Border{Style: gfx.LineThin})
	return tbl
}

func cellRect(g *GridPaintable, r, c int) gfx.Rect {
	return gfx.Rect{
		X: g.X + sum(g.Widths[:c]),
		Y: g.Y + sum(g.Heights[:r]),
		W: g.Widths[c],
		H: g.Heights[r],
	}
}

func TestSpanBoundsEqualUnionOfCells(t *testing.T) {
	tbl := newSheet(t)
	if err := tbl.Merge(0, 0, 2, 2); err != nil {
		t.Fatalf("merge: %v", err)
	}
	g := NewGridPaintable(5, 7, 0, []float64{10, 20, 30}, tbl)
	want := cellRect(g, 0, 0).Union(cellRect(g, 0, 1)).Union(cellRect(g, 1, 0)).Union(cellRect(g, 1, 1))
	for _, rc := range [][2]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}} {
		if got := g.GetCellBounds(rc[0], rc[1]); got != want {
			t.Fatalf("cell %v: got %+v want %+v", rc, got, want)
		}
	}
	if got := g.GetCellBounds(2, 2); got != cellRect(g, 2, 2) {
		t.Fatalf("plain cell: %+v", got)
	}
}

func TestMergeRejectsOverlap(t *testing.T) {
	tbl := newSheet(t)
	if err := tbl.Merge(0, 0, 2, 2); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if err := tbl.Merge(1, 1, 2, 2); err == nil {
		t.Fatalf("expected overlap error")
	}
	if err := tbl.Merge(2, 2, 2, 1); err == nil {
		t.Fatalf("expected out of range error")
	}
}

func TestRegionClampsSpanStartedOnPreviousPage(t *testing.T) {
	tbl := newSheet(t)
	red := gfx.Color{R: 255}
	tbl.Update(0, 0, func(c *CellInfo) { c.Background = &red })
	if err := tbl.Merge(0, 0, 3, 2); err != nil {
		t.Fatalf("merge: %v", err)
	}
	g := NewGridPaintable(0, 0, 1, []float64{20, 30}, tbl)
	origin := g.Cells[0][0]
	if origin.Span.Covered() || origin.Span.Rows != 2 || origin.Span.Cols != 2 {
		t.Fatalf("clamped origin span: %+v", origin.Span)
	}
	if origin.Background == nil || *origin.Background != red {
		t.Fatalf("origin attributes must be copied into the clamped cell")
	}
	want := gfx.Rect{W: 60, H: 50}
	for _, rc := range [][2]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}} {
		if got := g.GetCellBounds(rc[0], rc[1]); got != want {
			t.Fatalf("cell %v: got %+v want %+v", rc, got, want)
		}
	}
}

func TestSpanContinuingPastRegionIsClipped(t *testing.T) {
	tbl := newSheet(t)
	if err := tbl.Merge(1, 0, 2, 1); err != nil {
		t.Fatalf("merge: %v", err)
	}
	g := NewGridPaintable(0, 0, 0, []float64{10, 20}, tbl)
	if got := g.GetCellBounds(1, 0); got != (gfx.Rect{Y: 10, W: 30, H: 20}) {
		t.Fatalf("clipped span: %+v", got)
	}
}

func TestSnapshotIgnoresLaterSheetChanges(t *testing.T) {
	tbl := newSheet(t)
	tbl.Update(0, 0, func(c *CellInfo) { c.Text = "before" })
	g := NewGridPaintable(0, 0, 0, []float64{10, 10, 10}, tbl)
	tbl.Update(0, 0, func(c *CellInfo) { c.Text = "after" })
	if g.Cells[0][0].Text != "before" {
		t.Fatalf("paintable changed with the sheet: %q", g.Cells[0][0].Text)
	}
}

func TestBordersNeverOverlap(t *testing.T) {
	tbl := newSheet(t)
	tbl.Update(1, 1, func(c *CellInfo) {
		c.Borders = [4]Border{{Style: gfx.LineThick}, {Style: gfx.LineThick}, {Style: gfx.LineThick}, {Style: gfx.LineThick}}
	})
	tbl.Update(0, 2, func(c *CellInfo) { c.Borders[Right] = Border{Style: gfx.LineMedium} })
	tbl.Update(2, 2, func(c *CellInfo) { c.Borders[Bottom] = Border{Style: gfx.LineDashed} })
	if err := tbl.Merge(2, 0, 1, 2); err != nil {
		t.Fatalf("merge: %v", err)
	}
	g := NewGridPaintable(10, 10, 0, []float64{20, 25, 30}, tbl)

	var rec gfx.Recorder
	g.Paint(&rec)
	lines := rec.Filter(gfx.OpLine)
	if len(lines) == 0 {
		t.Fatalf("no borders painted")
	}
	for a := range lines {
		for b := a + 1; b < len(lines); b++ {
			if ov := lines[a].StrokeArea().Intersect(lines[b].StrokeArea()); !ov.Empty() {
				t.Fatalf("segments overlap: %+v and %+v (area %+v)", lines[a], lines[b], ov)
			}
		}
	}
	// 合并区域内部的竖线不绘制。
	for _, s := range g.Segments() {
		if s.X1 == 40 && s.X2 == 40 && s.Y1 > 55 {
			t.Fatalf("interior span line drawn: %+v", s)
		}
	}
}

func TestBorderCornersAreClosed(t *testing.T) {
	tbl := NewTable(1, 1, 30)
	tbl.SetGridBorders(Border{Style: gfx.LineThick})
	g := NewGridPaintable(0, 0, 0, []float64{30}, tbl)
	var covered gfx.Rect
	for _, s := range g.Segments() {
		op := gfx.Op{Kind: gfx.OpLine, X1: s.X1, Y1: s.Y1, X2: s.X2, Y2: s.Y2, Style: s.Style}
		covered = covered.Union(op.StrokeArea())
	}
	if covered != (gfx.Rect{X: -1.5, Y: -1.5, W: 33, H: 33}) {
		t.Fatalf("outer stroke box: %+v", covered)
	}
}

func TestLocate(t *testing.T) {
	tbl := newSheet(t)
	g := NewGridPaintable(0, 0, 0, []float64{10, 20, 30}, tbl)
	if r, c, ok := g.Locate(35, 15); !ok || r != 1 || c != 1 {
		t.Fatalf("locate: %d %d %v", r, c, ok)
	}
	if _, _, ok := g.Locate(95, 15); ok {
		t.Fatalf("point outside grid located")
	}
	hit, ok := g.LocateBorder(45, 11)
	if !ok || !hit.Horizontal || hit.Index != 1 {
		t.Fatalf("horizontal border: %+v %v", hit, ok)
	}
	hit, ok = g.LocateBorder(31, 25)
	if !ok || hit.Horizontal || hit.Index != 1 {
		t.Fatalf("vertical border: %+v %v", hit, ok)
	}
	if _, ok := g.LocateBorder(45, 20); ok {
		t.Fatalf("no border expected inside a cell")
	}
}

func TestRowHeightTruncation(t *testing.T) {
	tbl := newSheet(t)
	g := NewGridPaintable(0, 0, 0, []float64{10, 20, 30}, tbl)
	g.SetRowHeight(2, 5)
	g.Scale(2)
	g.AdjustLoc(3, 4)
	if got := g.Bounds(); got != (gfx.Rect{X: 3, Y: 4, W: 90, H: 70}) {
		t.Fatalf("bounds: %+v", got)
	}
}
