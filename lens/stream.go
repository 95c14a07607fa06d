package lens

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var ErrNoSheet = errors.New("工作表不存在")

// NextFunc 返回下一行数据；没有更多数据时返回 io.EOF。
type NextFunc func() ([]any, error)

// Stream 是按需加载的 TableLens：只有 MoreRows 请求到的行才会被读取，
// 读完之前 RowCount 返回 EOT。
type Stream struct {
	header []string
	rows   [][]any
	next   NextFunc
	cols   int
	done   bool
	err    error
	closer io.Closer
}

var _ TableLens = (*Stream)(nil)

func NewStream(header []string, next NextFunc) *Stream {
	return &Stream{header: header, next: next, cols: len(header)}
}

func (s *Stream) headerRows() int {
	if s.header == nil {
		return 0
	}
	return 1
}

func (s *Stream) MoreRows(row int) bool {
	for !s.done && row >= s.headerRows()+len(s.rows) {
		r, err := s.next()
		if err != nil {
			s.done = true
			if !errors.Is(err, io.EOF) {
				s.err = err
			}
			s.release()
			break
		}
		s.cols = max(s.cols, len(r))
		s.rows = append(s.rows, r)
	}
	return row >= 0 && row < s.headerRows()+len(s.rows)
}

func (s *Stream) RowCount() int {
	if !s.done {
		return EOT
	}
	return s.headerRows() + len(s.rows)
}

func (s *Stream) ColCount() int       { return s.cols }
func (s *Stream) HeaderRowCount() int { return s.headerRows() }
func (s *Stream) Err() error          { return s.err }

func (s *Stream) Object(r, c int) any {
	if r < s.headerRows() {
		if c < len(s.header) {
			return s.header[c]
		}
		return nil
	}
	row := s.rows[r-s.headerRows()]
	if c < 0 || c >= len(row) {
		return nil
	}
	return row[c]
}

// Close releases the underlying source early.
func (s *Stream) Close() error {
	s.done = true
	return s.release()
}

func (s *Stream) release() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

type closers []io.Closer

func (cs closers) Close() error {
	var errs []error
	for _, c := range cs {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// OpenXLSX 以流式方式读取工作表：第一行作为表头，之后每行按需解析。
// sheet 为空时使用第一个工作表。
func OpenXLSX(path, sheet string) (*Stream, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("打开 %s 失败: %w", path, err)
	}
	sheets := f.GetSheetList()
	if sheet == "" && len(sheets) > 0 {
		sheet = sheets[0]
	}
	if !slices.Contains(sheets, sheet) {
		f.Close()
		return nil, fmt.Errorf("%s 中的 %q: %w", path, sheet, ErrNoSheet)
	}
	rows, err := f.Rows(sheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("读取工作表 %q 失败: %w", sheet, err)
	}
	var header []string
	if rows.Next() {
		header, err = rows.Columns()
		if err != nil {
			rows.Close()
			f.Close()
			return nil, fmt.Errorf("读取表头失败: %w", err)
		}
	}
	next := func() ([]any, error) {
		if !rows.Next() {
			if err := rows.Error(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}
		cols, err := rows.Columns()
		if err != nil {
			return nil, err
		}
		out := make([]any, len(cols))
		for i, v := range cols {
			out[i] = parseValue(v)
		}
		return out, nil
	}
	s := NewStream(header, next)
	s.closer = closers{rows, f}
	return s, nil
}

// parseValue 把单元格文本转换为 int64、float64 或原字符串。
func parseValue(v string) any {
	if v == "" {
		return ""
	}
	if i, err := strconv.ParseInt(v, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return strings.TrimSpace(v)
}
