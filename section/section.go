// Package section 实现分节（表头/内容/表尾区带绑定到表格数据）的分页流程控制。
//
// 每次 Print 调用对应一页：引擎从上次停下的游标位置继续，依次经过表头、
// 内容行、分组表尾与总计表尾，直到本页放不下为止。
package section

import (
	"fmt"

	"github.com/ByLCY/folio/band"
)

// Kind 区分区带在分节中的角色。
type Kind int

const (
	Header Kind = iota
	Content
	Footer
)

func (k Kind) String() string {
	switch k {
	case Header:
		return "header"
	case Content:
		return "content"
	default:
		return "footer"
	}
}

// Section 是分节定义。Headers/Footers 按嵌套层级索引：0 为最外层（报表级），
// 层级 L>0 对应分组列 GroupCols[L-1]。
type Section struct {
	Name      string
	Source    string
	GroupCols []string
	Headers   [][]*band.Band
	Content   []*band.Band
	Footers   [][]*band.Band
	// Gap 是分节结束后与后续内容之间的间距（pt）。
	Gap float64
}

// Visitor is called for every band; returning an error stops the walk.
type Visitor func(kind Kind, level, index int, b *band.Band) error

// Visit 依次遍历表头、内容与表尾区带。
func (s *Section) Visit(v Visitor) error {
	for level, bands := range s.Headers {
		for i, b := range bands {
			if err := v(Header, level, i, b); err != nil {
				return err
			}
		}
	}
	for i, b := range s.Content {
		if err := v(Content, 0, i, b); err != nil {
			return err
		}
	}
	for level, bands := range s.Footers {
		for i, b := range bands {
			if err := v(Footer, level, i, b); err != nil {
				return err
			}
		}
	}
	return nil
}

// SetHeader places b at the end of header level, growing the level list as needed.
func (s *Section) SetHeader(level int, b *band.Band) {
	s.Headers = appendLevel(s.Headers, level, b)
}

func (s *Section) SetFooter(level int, b *band.Band) {
	s.Footers = appendLevel(s.Footers, level, b)
}

func (s *Section) AddContent(b *band.Band) { s.Content = append(s.Content, b) }

func appendLevel(levels [][]*band.Band, level int, b *band.Band) [][]*band.Band {
	for len(levels) <= level {
		levels = append(levels, nil)
	}
	levels[level] = append(levels[level], b)
	return levels
}

// Validate checks that header and footer levels match the grouping depth.
func (s *Section) Validate() error {
	depth := len(s.GroupCols)
	if len(s.Headers) > depth+1 {
		return fmt.Errorf("分节 %s: 表头层级 %d 超过分组数 %d", s.Name, len(s.Headers)-1, depth)
	}
	if len(s.Footers) > depth+1 {
		return fmt.Errorf("分节 %s: 表尾层级 %d 超过分组数 %d", s.Name, len(s.Footers)-1, depth)
	}
	return nil
}

// Clone 深拷贝分节定义，区带与元素都是独立副本。
func (s *Section) Clone() *Section {
	out := &Section{
		Name:      s.Name,
		Source:    s.Source,
		GroupCols: append([]string(nil), s.GroupCols...),
		Gap:       s.Gap,
	}
	_ = s.Visit(func(kind Kind, level, _ int, b *band.Band) error {
		c := b.Clone()
		switch kind {
		case Header:
			out.SetHeader(level, c)
		case Content:
			out.AddContent(c)
		default:
			out.SetFooter(level, c)
		}
		return nil
	})
	return out
}

func levelBands(levels [][]*band.Band, l int) []*band.Band {
	if l < 0 || l >= len(levels) {
		return nil
	}
	return levels[l]
}
