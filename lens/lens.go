// Package lens 定义报表数据源的拉取式表格游标 TableLens 及其实现。
//
// 行号从 0 开始并包含表头行；数据行从 HeaderRowCount() 开始。读取任一行之前
// 必须先调用 MoreRows(row)，流式数据源据此按需加载。
package lens

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// EOT is returned by RowCount while the number of rows is still unknown.
const EOT = -1

// TableLens 是按行拉取的表格数据。
type TableLens interface {
	// MoreRows reports whether row exists, loading it if necessary.
	MoreRows(row int) bool
	RowCount() int
	ColCount() int
	HeaderRowCount() int
	Object(r, c int) any
}

// Table 是内存中的 TableLens。
type Table struct {
	header []string
	rows   [][]any
}

var _ TableLens = (*Table)(nil)

// New creates a lens with one header row (omitted when header is nil).
func New(header []string, rows [][]any) *Table {
	return &Table{header: header, rows: rows}
}

func (t *Table) headerRows() int {
	if t.header == nil {
		return 0
	}
	return 1
}

func (t *Table) MoreRows(row int) bool { return row >= 0 && row < t.RowCount() }
func (t *Table) RowCount() int         { return t.headerRows() + len(t.rows) }
func (t *Table) HeaderRowCount() int   { return t.headerRows() }

func (t *Table) ColCount() int {
	n := len(t.header)
	for _, r := range t.rows {
		n = max(n, len(r))
	}
	return n
}

func (t *Table) Object(r, c int) any {
	if r < t.headerRows() {
		if c < len(t.header) {
			return t.header[c]
		}
		return nil
	}
	row := t.rows[r-t.headerRows()]
	if c < 0 || c >= len(row) {
		return nil
	}
	return row[c]
}

// FromRecords 把 JSON 解码得到的对象数组转换为表格。cols 为空时按键名排序取所有列。
func FromRecords(records []any, cols []string) (*Table, error) {
	objs := make([]map[string]any, 0, len(records))
	for i, rec := range records {
		obj, ok := rec.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("第 %d 条记录不是对象: %T", i, rec)
		}
		objs = append(objs, obj)
	}
	if len(cols) == 0 {
		seen := map[string]bool{}
		for _, obj := range objs {
			for k := range obj {
				if !seen[k] {
					seen[k] = true
					cols = append(cols, k)
				}
			}
		}
		slices.Sort(cols)
	}
	rows := make([][]any, len(objs))
	for i, obj := range objs {
		row := make([]any, len(cols))
		for c, name := range cols {
			row[c] = obj[name]
		}
		rows[i] = row
	}
	return New(cols, rows), nil
}

// Header returns the names of the first header row.
func Header(l TableLens) []string {
	if l.HeaderRowCount() == 0 || !l.MoreRows(0) {
		return nil
	}
	out := make([]string, l.ColCount())
	for c := range out {
		out[c] = Text(l.Object(0, c))
	}
	return out
}

// ColumnIndex finds a column by header name, case-insensitively. Returns -1 if absent.
func ColumnIndex(l TableLens, name string) int {
	for i, h := range Header(l) {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}

// RowMap 以表头名称为键返回一行数据，供 ${name} 绑定使用。
func RowMap(l TableLens, row int) map[string]any {
	header := Header(l)
	out := make(map[string]any, len(header))
	if row < 0 || !l.MoreRows(row) {
		return out
	}
	for c, h := range header {
		if h != "" {
			out[h] = l.Object(row, c)
		}
	}
	return out
}

// GroupBreak 返回 prev 行到 row 行之间第一个取值发生变化的分组层级（cols 下标），
// 没有变化时返回 -1。prev 不是数据行时视为最外层分组变化。
func GroupBreak(l TableLens, prev, row int, cols []int) int {
	if len(cols) == 0 {
		return -1
	}
	if prev < l.HeaderRowCount() {
		return 0
	}
	for level, c := range cols {
		if !equal(l.Object(prev, c), l.Object(row, c)) {
			return level
		}
	}
	return -1
}

func equal(a, b any) bool {
	if x, ok := Number(a); ok {
		if y, ok := Number(b); ok {
			return x == y
		}
	}
	return reflect.DeepEqual(a, b)
}

// Number converts numeric values (and numeric strings) to float64.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Text formats a cell value for display.
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// Errer is implemented by lenses whose row loading can fail.
type Errer interface {
	Err() error
}

// Err returns the loading error of l, if any.
func Err(l TableLens) error {
	if e, ok := l.(Errer); ok {
		return e.Err()
	}
	return nil
}
