package band

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ByLCY/folio/binding"
	"github.com/ByLCY/folio/cache"
	"github.com/ByLCY/folio/gfx"
	"github.com/ByLCY/folio/lens"
	"github.com/ByLCY/folio/page"
	"github.com/ByLCY/folio/textflow"
	"golang.org/x/text/language"
)

// OversizePolicy 决定不可拆分的区带在空白页上仍放不下时的处理方式。
type OversizePolicy int

const (
	PolicySplit OversizePolicy = iota // 强制拆分到多页
	PolicyClip                        // 在本页截断打印
	PolicySkip                        // 不打印并告警
	PolicyAbort                       // 终止整个分节
)

func (p OversizePolicy) String() string {
	switch p {
	case PolicyClip:
		return "clip"
	case PolicySkip:
		return "skip"
	case PolicyAbort:
		return "abort"
	default:
		return "split"
	}
}

// ParsePolicy maps a configuration value to an OversizePolicy.
func ParsePolicy(s string) (OversizePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "split":
		return PolicySplit, nil
	case "clip":
		return PolicyClip, nil
	case "skip":
		return PolicySkip, nil
	case "abort":
		return PolicyAbort, nil
	}
	return PolicySplit, fmt.Errorf("未知的超高处理策略 %q", s)
}

// Tolerance 是判断内容是否超出页面时允许的舍入误差（pt）。
const Tolerance = 1.0

// Context 是一次打印调用共享的状态。Y 是页面上的当前纵向位置。
type Context struct {
	Page   *page.StylePage
	Area   gfx.Rect
	Y      float64
	Lens   lens.TableLens
	Row    int
	Data   any
	Vars   map[string]any
	Fonts  gfx.FontProvider
	Logger *slog.Logger
	Policy OversizePolicy
	Lang   language.Tag
	// Top 是视为页首的位置。分节在新页上重印表头后，表头下方即为页首；为 0 时取 Area.Y。
	Top float64
	// Layouts 缓存本次渲染中的文本排版结果，为 nil 时不缓存。
	Layouts *cache.Table[textflow.Key, textflow.Layout]
}

// Remaining returns the vertical space left below Y.
func (c *Context) Remaining() float64 {
	return max(0, c.Area.Bottom()-c.Y)
}

func (c *Context) top() float64 { return max(c.Area.Y, c.Top) }

// AtTop reports whether nothing but repeated headers has been placed above Y on this page.
func (c *Context) AtTop() bool {
	return c.Y <= c.top()+Tolerance/2
}

// MustFit reports whether an element placed at area must print something
// even when it does not fit, because a fresh page would give it no more room.
func (c *Context) MustFit(area gfx.Rect) bool {
	return area.Y <= c.top()+Tolerance/2
}

func (c *Context) Log() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

func (c *Context) FontProvider() gfx.FontProvider {
	if c.Fonts == nil {
		return gfx.FixedProvider{}
	}
	return c.Fonts
}

// Scope 返回当前数据行可见的绑定变量。
func (c *Context) Scope() binding.Scope {
	s := binding.Scope{Vars: c.Vars, Data: c.Data, Lang: c.Lang}
	if c.Lens != nil && c.Row >= c.Lens.HeaderRowCount() {
		s.Row = lens.RowMap(c.Lens, c.Row)
	}
	return s
}

// Bind interpolates ${...} references against the current scope.
func (c *Context) Bind(text string) string {
	return binding.Interpolate(text, c.Scope())
}

// Layout breaks text with the metrics of font, reusing cached results.
func (c *Context) Layout(text string, font gfx.Font, opts textflow.Options) (textflow.Layout, gfx.FontMetrics) {
	m := c.FontProvider().Metrics(font)
	if c.Layouts == nil {
		return textflow.Process(text, m, opts), m
	}
	key := textflow.Key{Text: text, Font: font, Opts: opts}
	return c.Layouts.Get(key, func() textflow.Layout { return textflow.Process(text, m, opts) }), m
}
