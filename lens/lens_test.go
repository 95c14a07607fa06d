package lens

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func sample() *Table {
	return New([]string{"region", "name", "amount"}, [][]any{
		{"east", "a", 10.0},
		{"east", "b", 5.5},
		{"west", "c", 2},
	})
}

func TestTableRows(t *testing.T) {
	tbl := sample()
	if tbl.RowCount() != 4 || tbl.HeaderRowCount() != 1 || tbl.ColCount() != 3 {
		t.Fatalf("shape: %d rows %d header %d cols", tbl.RowCount(), tbl.HeaderRowCount(), tbl.ColCount())
	}
	if !tbl.MoreRows(3) || tbl.MoreRows(4) {
		t.Fatalf("MoreRows boundary wrong")
	}
	if got := tbl.Object(2, 1); got != "b" {
		t.Fatalf("object: %v", got)
	}
	if got := ColumnIndex(tbl, "Amount"); got != 2 {
		t.Fatalf("column index: %d", got)
	}
	m := RowMap(tbl, 1)
	if m["name"] != "a" || m["amount"] != 10.0 {
		t.Fatalf("row map: %v", m)
	}
}

func TestFromRecords(t *testing.T) {
	tbl, err := FromRecords([]any{
		map[string]any{"b": 1.0, "a": "x"},
		map[string]any{"a": "y"},
	}, nil)
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if h := Header(tbl); len(h) != 2 || h[0] != "a" || h[1] != "b" {
		t.Fatalf("header: %v", h)
	}
	if tbl.Object(2, 1) != nil {
		t.Fatalf("missing key should be nil")
	}
	if _, err := FromRecords([]any{"oops"}, nil); err == nil {
		t.Fatalf("expected error for non-object record")
	}
}

func TestGroupBreak(t *testing.T) {
	tbl := New([]string{"region", "city", "v"}, [][]any{
		{"east", "x", 1},
		{"east", "x", 2},
		{"east", "y", 3},
		{"west", "y", 4},
	})
	cols := []int{0, 1}
	cases := []struct{ prev, row, want int }{
		{0, 1, 0},
		{1, 2, -1},
		{2, 3, 1},
		{3, 4, 0},
	}
	for _, c := range cases {
		if got := GroupBreak(tbl, c.prev, c.row, cols); got != c.want {
			t.Fatalf("GroupBreak(%d,%d)=%d want %d", c.prev, c.row, got, c.want)
		}
	}
}

func TestStreamLoadsLazily(t *testing.T) {
	calls := 0
	data := [][]any{{1}, {2}, {3}}
	s := NewStream([]string{"n"}, func() ([]any, error) {
		if calls >= len(data) {
			return nil, io.EOF
		}
		calls++
		return data[calls-1], nil
	})
	if s.RowCount() != EOT {
		t.Fatalf("row count must be unknown before reading")
	}
	if !s.MoreRows(1) || calls != 1 {
		t.Fatalf("MoreRows(1) loaded %d rows", calls)
	}
	if s.MoreRows(4) {
		t.Fatalf("row 4 should not exist")
	}
	if s.RowCount() != 4 || s.Object(3, 0) != 3 {
		t.Fatalf("after exhaustion: count=%d", s.RowCount())
	}
}

func TestStreamKeepsError(t *testing.T) {
	boom := errors.New("boom")
	s := NewStream(nil, func() ([]any, error) { return nil, boom })
	if s.MoreRows(0) {
		t.Fatalf("no rows expected")
	}
	if !errors.Is(Err(s), boom) {
		t.Fatalf("err: %v", Err(s))
	}
}

func TestSummaryAppendsGrandTotal(t *testing.T) {
	s := NewSummary(sample(), "Total")
	if s.RowCount() != 5 {
		t.Fatalf("row count: %d", s.RowCount())
	}
	if !s.MoreRows(4) || s.MoreRows(5) {
		t.Fatalf("grand total row boundary")
	}
	if !s.IsGrandTotal(4) || s.IsGrandTotal(3) {
		t.Fatalf("IsGrandTotal wrong")
	}
	if got := s.Object(4, 2); got != 17.5 {
		t.Fatalf("sum: %v", got)
	}
	if got := s.Object(4, 0); got != "Total" {
		t.Fatalf("label: %v", got)
	}
	if got := s.Object(4, 1); got != nil {
		t.Fatalf("non-numeric, non-label column: %v", got)
	}
}

func TestOpenXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := "Sheet1"
	f.SetCellValue(sheet, "A1", "name")
	f.SetCellValue(sheet, "B1", "amount")
	f.SetCellValue(sheet, "A2", "widget")
	f.SetCellValue(sheet, "B2", 100)
	f.SetCellValue(sheet, "A3", "gadget")
	f.SetCellValue(sheet, "B3", 12.5)
	path := filepath.Join(t.TempDir(), "data.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	s, err := OpenXLSX(path, "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if h := Header(s); len(h) != 2 || h[1] != "amount" {
		t.Fatalf("header: %v", h)
	}
	if !s.MoreRows(2) || s.MoreRows(3) {
		t.Fatalf("row boundary")
	}
	if got := s.Object(1, 1); got != int64(100) {
		t.Fatalf("int cell: %v (%T)", got, got)
	}
	if got := s.Object(2, 1); got != 12.5 {
		t.Fatalf("float cell: %v", got)
	}

	if _, err := OpenXLSX(path, "Missing"); !errors.Is(err, ErrNoSheet) {
		t.Fatalf("expected ErrNoSheet, got %v", err)
	}
}
