// Package textflow 把字符串按字体度量与边界宽度拆分成行，并计算对齐后的行偏移。
//
// 输出的每一行都是原字符串上的 [Start, End) 字节区间；相邻两行之间最多跳过一个
// 空白字符或换行符，因此把各行与被跳过的分隔符依次拼接即可还原原文。
package textflow

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ByLCY/folio/gfx"
	"github.com/mattn/go-runewidth"
)

// Align 是对齐标志位，可组合水平与垂直方向。
type Align int

const (
	HLeft Align = 1 << iota
	HCenter
	HRight
	VTop
	VCenter
	VBottom
)

// Options 控制一次排版。
type Options struct {
	Bounds  gfx.Rect
	Align   Align
	Wrap    bool
	Spacing float64 // 行间额外间距（pt）
	// CurrencyWidth > 0 时按小数点对齐：小数点及其后的部分占据右侧固定宽度。
	CurrencyWidth float64
}

// Key identifies a Process call so that layouts can be cached per run.
type Key struct {
	Text string
	Font gfx.Font
	Opts Options
}

// Line 是一行在原文中的字节区间及其水平偏移（相对 Bounds.X）。
type Line struct {
	Start int     `json:"start"`
	End   int     `json:"end"`
	X     float64 `json:"x"`
	Width float64 `json:"width"` // 不含行尾空白的可见宽度
}

// Layout 是 Process 的结果。
type Layout struct {
	Lines      []Line   `json:"lines"`
	Bounds     gfx.Rect `json:"bounds"`
	LineHeight float64  `json:"lineHeight"`
	Spacing    float64  `json:"spacing"`
}

// Height returns the vertical extent of n lines.
func (l Layout) Height(n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(n)*l.LineHeight + float64(n-1)*l.Spacing
}

// Fit returns how many lines fit into the given height.
func (l Layout) Fit(height float64) int {
	step := l.LineHeight + l.Spacing
	if step <= 0 {
		return len(l.Lines)
	}
	n := int(math.Floor((height + l.Spacing + 1e-9) / step))
	if n < 0 {
		return 0
	}
	return min(n, len(l.Lines))
}

// Process 对 text 进行分行与对齐。
func Process(text string, m gfx.FontMetrics, opts Options) Layout {
	out := Layout{LineHeight: m.Height(), Spacing: opts.Spacing}
	if opts.CurrencyWidth > 0 {
		out.Lines = []Line{currencyLine(text, m, opts)}
	} else {
		out.Lines = breakLines(text, m, opts.Bounds.W, opts.Wrap)
		alignLines(out.Lines, opts.Bounds.W, opts.Align)
	}
	out.Bounds = boundingBox(out, opts)
	return out
}

// breakLines 先按显式换行切段，再对需要折行的段落做宽度折行。
func breakLines(text string, m gfx.FontMetrics, width float64, wrap bool) []Line {
	var lines []Line
	ps := 0
	for {
		pe := strings.IndexByte(text[ps:], '\n')
		if pe < 0 {
			pe = len(text)
		} else {
			pe += ps
		}
		lines = appendParagraph(lines, text, ps, pe, m, width, wrap)
		if pe >= len(text) {
			break
		}
		ps = pe + 1
	}
	for i := range lines {
		lines[i].Width = visibleWidth(text[lines[i].Start:lines[i].End], m)
	}
	return lines
}

func appendParagraph(lines []Line, text string, ps, pe int, m gfx.FontMetrics, width float64, wrap bool) []Line {
	if !wrap || width <= 0 {
		return append(lines, Line{Start: ps, End: pe})
	}
	start := ps
	for {
		if visibleWidth(text[start:pe], m) <= width {
			return append(lines, Line{Start: start, End: pe})
		}
		fit := lastFit(text, start, pe, m, width)
		end, next := breakAt(text, start, fit, pe)
		lines = append(lines, Line{Start: start, End: end})
		if next >= pe {
			return lines
		}
		start = next
	}
}

// lastFit 返回 text[start:k] 仍不超过 width 的最大字节位置 k（至少包含一个字符）。
// 先用平均字宽估计断点，再在估计点两侧二分查找。
func lastFit(text string, start, end int, m gfx.FontMetrics, width float64) int {
	offs := make([]int, 0, end-start+1)
	for i := start; i < end; {
		offs = append(offs, i)
		_, n := utf8.DecodeRuneInString(text[i:end])
		i += n
	}
	offs = append(offs, end)
	runes := len(offs) - 1

	fits := func(k int) bool { return m.StringWidth(text[start:offs[k]]) <= width }

	lo, hi := 0, runes
	if total := m.StringWidth(text[start:end]); total > 0 {
		est := int(width / (total / float64(runes)))
		if est > 0 && est < runes {
			if fits(est) {
				lo = est
			} else {
				hi = est
			}
		}
	}
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if fits(mid) {
			lo = mid
		} else {
			hi = mid
		}
	}
	if lo < 1 {
		lo = 1
	}
	return offs[lo]
}

// breakAt 在 fit 附近选择断行位置，返回本行结束位置 end 与下一行起点 next。
// next-end 最多是一个空白字符的字节长度。
func breakAt(text string, start, fit, pe int) (end, next int) {
	if r, _ := utf8.DecodeRuneInString(text[fit:pe]); isSpace(r) {
		// 断点本身落在空白串上：保留串内空白（不可见），只跳过串尾一个空白字符，
		// 使下一行不以空白开头。
		last, j := fit, fit
		for j < pe {
			r, n := utf8.DecodeRuneInString(text[j:pe])
			if !isSpace(r) {
				break
			}
			last = j
			j += n
		}
		return last, j
	}
	for j := fit; j > start; {
		pr, pn := utf8.DecodeLastRuneInString(text[start:j])
		if isSpace(pr) && j-pn > start {
			return j - pn, j
		}
		cr, _ := utf8.DecodeRuneInString(text[j:pe])
		if isWide(pr) || isWide(cr) {
			return j, j
		}
		j -= pn
	}
	return fit, fit
}

func alignLines(lines []Line, width float64, align Align) {
	for i := range lines {
		switch {
		case align&HLeft != 0 || width <= 0:
			lines[i].X = 0
		case align&HCenter != 0:
			lines[i].X = math.Max(0, (width-lines[i].Width)/2)
		case align&HRight != 0:
			lines[i].X = math.Max(0, width-lines[i].Width)
		}
	}
}

func currencyLine(text string, m gfx.FontMetrics, opts Options) Line {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	dot := strings.LastIndexByte(text, '.')
	if dot < 0 {
		dot = len(text)
	}
	x := opts.Bounds.W - opts.CurrencyWidth - m.StringWidth(text[:dot])
	return Line{Start: 0, End: len(text), X: math.Max(0, x), Width: m.StringWidth(text)}
}

// CurrencyWidth 计算一组数值文本中小数部分（含小数点）的最大宽度，
// 同一列的所有单元格使用该宽度即可让小数点对齐。无样本时按 ".00" 计算。
func CurrencyWidth(m gfx.FontMetrics, samples ...string) float64 {
	if len(samples) == 0 {
		return m.StringWidth(".00")
	}
	w := 0.0
	for _, s := range samples {
		if dot := strings.LastIndexByte(s, '.'); dot >= 0 {
			w = math.Max(w, m.StringWidth(s[dot:]))
		}
	}
	return w
}

func boundingBox(l Layout, opts Options) gfx.Rect {
	if len(l.Lines) == 0 {
		return gfx.Rect{X: opts.Bounds.X, Y: opts.Bounds.Y}
	}
	minX, maxR := math.Inf(1), 0.0
	for _, ln := range l.Lines {
		minX = math.Min(minX, ln.X)
		maxR = math.Max(maxR, ln.X+ln.Width)
	}
	h := l.Height(len(l.Lines))
	dy := 0.0
	if free := opts.Bounds.H - h; free > 0 {
		switch {
		case opts.Align&VCenter != 0:
			dy = free / 2
		case opts.Align&VBottom != 0:
			dy = free
		}
	}
	return gfx.Rect{X: opts.Bounds.X + minX, Y: opts.Bounds.Y + dy, W: maxR - minX, H: h}
}

func visibleWidth(s string, m gfx.FontMetrics) float64 {
	return m.StringWidth(strings.TrimRightFunc(s, isSpace))
}

func isSpace(r rune) bool {
	return r != '\n' && unicode.IsSpace(r)
}

// isWide reports whether r belongs to a CJK run where a break may occur between any two runes.
func isWide(r rune) bool {
	if r == utf8.RuneError {
		return false
	}
	if unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul) {
		return true
	}
	return runewidth.RuneWidth(r) == 2 && !unicode.IsPunct(r)
}
