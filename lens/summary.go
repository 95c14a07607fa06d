package lens

// Summary 在底层数据之后追加一行合计：数值列求和，其余列为空（Label 放在第一个非数值列）。
type Summary struct {
	base  TableLens
	Label string

	sums    []float64
	numeric []bool
	total   int // row index of the grand total, valid once computed
}

var _ TableLens = (*Summary)(nil)

func NewSummary(base TableLens, label string) *Summary {
	return &Summary{base: base, Label: label, total: EOT}
}

// Base returns the wrapped lens.
func (s *Summary) Base() TableLens { return s.base }

func (s *Summary) compute() {
	if s.total != EOT {
		return
	}
	n := s.base.HeaderRowCount()
	for s.base.MoreRows(n) {
		n++
	}
	cols := s.base.ColCount()
	s.sums = make([]float64, cols)
	s.numeric = make([]bool, cols)
	seen := make([]bool, cols)
	for c := range cols {
		s.numeric[c] = true
	}
	for r := s.base.HeaderRowCount(); r < n; r++ {
		for c := range cols {
			v := s.base.Object(r, c)
			if v == nil || v == "" {
				continue
			}
			if f, ok := Number(v); ok {
				s.sums[c] += f
				seen[c] = true
			} else {
				s.numeric[c] = false
			}
		}
	}
	for c := range cols {
		s.numeric[c] = s.numeric[c] && seen[c]
	}
	s.total = n
}

func (s *Summary) MoreRows(row int) bool {
	if s.base.MoreRows(row) {
		return true
	}
	s.compute()
	return row == s.total
}

func (s *Summary) RowCount() int {
	if n := s.base.RowCount(); n == EOT {
		return EOT
	}
	s.compute()
	return s.total + 1
}

func (s *Summary) ColCount() int       { return s.base.ColCount() }
func (s *Summary) HeaderRowCount() int { return s.base.HeaderRowCount() }
func (s *Summary) Err() error          { return Err(s.base) }

// IsGrandTotal reports whether row is the appended total row.
func (s *Summary) IsGrandTotal(row int) bool {
	if s.base.MoreRows(row) {
		return false
	}
	s.compute()
	return row == s.total
}

// GrandTotalRow returns the index of the total row, reading the whole base lens.
func (s *Summary) GrandTotalRow() int {
	s.compute()
	return s.total
}

func (s *Summary) Object(r, c int) any {
	if !s.IsGrandTotal(r) {
		return s.base.Object(r, c)
	}
	if c < 0 || c >= len(s.sums) {
		return nil
	}
	if s.numeric[c] {
		return s.sums[c]
	}
	if c == s.labelCol() {
		return s.Label
	}
	return nil
}

func (s *Summary) labelCol() int {
	for c, num := range s.numeric {
		if !num {
			return c
		}
	}
	return -1
}

// GrandTotaler is implemented by lenses that append a grand-total row.
type GrandTotaler interface {
	IsGrandTotal(row int) bool
	GrandTotalRow() int
}
