// Package fonts 提供内置字体数据，供排版测量与渲染共用。
package fonts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-fonts/latin-modern/lmmono10regular"
	"github.com/go-fonts/latin-modern/lmroman10bold"
	"github.com/go-fonts/latin-modern/lmroman10bolditalic"
	"github.com/go-fonts/latin-modern/lmroman10italic"
	"github.com/go-fonts/latin-modern/lmroman10regular"
	"github.com/go-fonts/latin-modern/lmsans10bold"
	"github.com/go-fonts/latin-modern/lmsans10regular"
)

// Default 是未声明字体时使用的内置字体名。
const Default = "roman"

var builtin = map[string][]byte{
	"roman":             lmroman10regular.TTF,
	"roman-bold":        lmroman10bold.TTF,
	"roman-italic":      lmroman10italic.TTF,
	"roman-bold-italic": lmroman10bolditalic.TTF,
	"sans":              lmsans10regular.TTF,
	"sans-bold":         lmsans10bold.TTF,
	"mono":              lmmono10regular.TTF,
}

// Load 返回内置字体的字节数据，name 可写为 "builtin:roman" 或直接 "roman"。
func Load(name string) ([]byte, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.TrimPrefix(strings.TrimPrefix(key, "builtin:"), "built-in:")
	if key == "" {
		key = Default
	}
	data, ok := builtin[key]
	if !ok {
		return nil, fmt.Errorf("内置字体 %s 不存在（可用：%s）", name, strings.Join(Names(), ", "))
	}
	return data, nil
}

// Names lists the builtin font names in sorted order.
func Names() []string {
	out := make([]string, 0, len(builtin))
	for name := range builtin {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
