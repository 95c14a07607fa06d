package dsl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Error 是带行列位置的语法错误。
type Error struct {
	Pos lexer.Position
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("第 %d 行第 %d 列: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

func positioned(err error) error {
	var perr participle.Error
	if errors.As(err, &perr) {
		return &Error{Pos: perr.Position(), Msg: perr.Message()}
	}
	return err
}

// Page returns the first page section, or nil.
func (d *Document) Page() *PageSection {
	for _, sec := range d.Sections {
		if sec.Page != nil {
			return sec.Page
		}
	}
	return nil
}

// DataSources lists data sections in declaration order.
func (d *Document) DataSources() []*DataSection {
	var out []*DataSection
	for _, sec := range d.Sections {
		if sec.Data != nil {
			out = append(out, sec.Data)
		}
	}
	return out
}

// Resources 合并所有 resources 段中的命令。
func (d *Document) Resources() []*Command {
	var out []*Command
	for _, sec := range d.Sections {
		if sec.Resources != nil {
			out = append(out, sec.Resources.Block.Commands()...)
		}
	}
	return out
}

// Meta 合并所有 meta 段中的赋值，后出现的同名键覆盖前者。
func (d *Document) Meta() []*Assignment {
	var out []*Assignment
	for _, sec := range d.Sections {
		if sec.Meta != nil {
			out = append(out, sec.Meta.Block.Assignments()...)
		}
	}
	return out
}

// Commands returns the command statements of the block. A nil block has none.
func (b *Block) Commands() []*Command {
	if b == nil {
		return nil
	}
	var out []*Command
	for _, st := range b.Statements {
		if st.Command != nil {
			out = append(out, st.Command)
		}
	}
	return out
}

// Assignments returns the key: value statements of the block in order.
func (b *Block) Assignments() []*Assignment {
	if b == nil {
		return nil
	}
	var out []*Assignment
	for _, st := range b.Statements {
		if st.Assignment != nil {
			out = append(out, st.Assignment)
		}
	}
	return out
}

// Text 拼接块中的文本字面量。
func (b *Block) Text() string {
	if b == nil {
		return ""
	}
	var sb strings.Builder
	for _, st := range b.Statements {
		if st.Text != nil {
			sb.WriteString(string(st.Text.Value))
		}
	}
	return sb.String()
}

// Text renders a scalar value as written. Arrays and objects yield "".
func (v *Value) Text() string {
	if v == nil {
		return ""
	}
	switch {
	case v.String != nil:
		return string(*v.String)
	case v.Number != nil:
		return *v.Number
	case v.Color != nil:
		return *v.Color
	case v.Expr != nil:
		var sb strings.Builder
		for _, part := range v.Expr.Parts {
			sb.WriteString(part.Value)
		}
		return sb.String()
	default:
		return ""
	}
}

// Strings flattens an array value; a scalar becomes a one-element slice.
func (v *Value) Strings() []string {
	if v == nil {
		return nil
	}
	if v.Array != nil {
		out := make([]string, 0, len(v.Array.Values))
		for _, item := range v.Array.Values {
			if s := item.Text(); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if s := v.Text(); s != "" {
		return []string{s}
	}
	return nil
}

// Source returns the data source named after the section keyword, or "".
func (d *SectionDecl) Source() string {
	if d.Head == nil {
		return ""
	}
	return d.Head.Source
}

// GroupColumns 返回声明的分组列，外层在前。
func (d *SectionDecl) GroupColumns() []string {
	if d.Head == nil {
		return nil
	}
	if len(d.Head.Groups) > 0 {
		return d.Head.Groups
	}
	return d.Head.SourceGroups
}
