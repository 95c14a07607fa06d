package binding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Scope 是一次插值可见的变量。查找顺序：当前数据行、Vars、报表级数据。
type Scope struct {
	Row  map[string]any
	Vars map[string]any
	Data any
	// Lang 决定数字格式化（千分位、小数点）的语言习惯，零值按英文处理。
	Lang language.Tag
}

// Lookup resolves a dotted path such as "items[0].name".
func (s Scope) Lookup(path string) (any, bool) {
	for _, src := range []any{s.Row, s.Vars, s.Data} {
		if src == nil {
			continue
		}
		if m, ok := src.(map[string]any); ok && m == nil {
			continue
		}
		if v, ok := resolvePath(src, path); ok {
			return v, true
		}
	}
	return nil, false
}

// Interpolate 将文本中的 ${path.to.value} 替换为 data 中的值，data 可以是 Scope。
// 支持 ${path|currency} 与 ${path|number} 格式化；路径不存在时保留原占位符，
// 因此 ${page}/${pages} 会留到分页结束后再替换。
func Interpolate(text string, data any) string {
	if data == nil || !strings.Contains(text, "${") {
		return text
	}
	scope, ok := data.(Scope)
	if !ok {
		scope = Scope{Data: data}
	}
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := exprPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		path, format, _ := strings.Cut(groups[1], "|")
		path = strings.TrimSpace(path)
		if path == "" {
			return match
		}
		val, ok := scope.Lookup(path)
		if !ok {
			return match
		}
		return Format(val, strings.TrimSpace(format), scope.Lang)
	})
}

// Format 按格式名输出值：currency 固定两位小数并带千分位，number 只加千分位。
func Format(val any, format string, lang language.Tag) string {
	if val == nil {
		return ""
	}
	switch format {
	case "currency", "number":
		f, ok := toFloat(val)
		if !ok {
			return fmt.Sprint(val)
		}
		if lang == language.Und {
			lang = language.English
		}
		p := message.NewPrinter(lang)
		if format == "currency" {
			return p.Sprintf("%.2f", f)
		}
		return p.Sprintf("%v", f)
	}
	switch v := val.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// FormatCurrency formats v with two decimals and digit grouping.
func FormatCurrency(v any, lang language.Tag) string {
	return Format(v, "currency", lang)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func resolvePath(data any, path string) (any, bool) {
	current := data
	for segment := range strings.SplitSeq(path, ".") {
		name, indexes := parseSegment(segment)
		if name != "" {
			var ok bool
			current, ok = descendMap(current, name)
			if !ok {
				return nil, false
			}
		}
		for _, idxStr := range indexes {
			idx, err := strconv.Atoi(idxStr)
			if err != nil {
				return nil, false
			}
			var ok bool
			current, ok = descendArray(current, idx)
			if !ok {
				return nil, false
			}
		}
	}
	return current, true
}

func parseSegment(segment string) (string, []string) {
	name := segment
	var indexes []string
	if i := strings.Index(segment, "["); i != -1 {
		name = segment[:i]
		rest := segment[i:]
		for len(rest) > 0 && rest[0] == '[' {
			end := strings.IndexByte(rest, ']')
			if end == -1 {
				break
			}
			indexes = append(indexes, rest[1:end])
			rest = rest[end+1:]
		}
	}
	return name, indexes
}

func descendMap(current any, key string) (any, bool) {
	switch c := current.(type) {
	case map[string]any:
		val, ok := c[key]
		return val, ok
	case Scope:
		return c.Lookup(key)
	default:
		return nil, false
	}
}

func descendArray(current any, idx int) (any, bool) {
	switch c := current.(type) {
	case []any:
		if idx < 0 || idx >= len(c) {
			return nil, false
		}
		return c[idx], true
	case []map[string]any:
		if idx < 0 || idx >= len(c) {
			return nil, false
		}
		return c[idx], true
	default:
		return nil, false
	}
}
