package gfx

import (
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// FontMetrics 提供排版所需的字体度量，所有返回值单位为 pt。
type FontMetrics interface {
	StringWidth(s string) float64
	// Height is the distance between two consecutive baselines without extra spacing.
	Height() float64
	Ascent() float64
}

// FontProvider resolves a Font to its metrics. Renderers implement it so that
// layout measures text with the same faces used for drawing.
type FontProvider interface {
	Metrics(f Font) FontMetrics
}

// FixedMetrics 是不依赖字体文件的等宽近似：半角字符宽 Size*0.5，
// 东亚宽字符按 go-runewidth 计为两倍。用于测试与无字体环境下的回退。
type FixedMetrics struct {
	Size float64
}

func (m FixedMetrics) size() float64 {
	if m.Size <= 0 {
		return 10
	}
	return m.Size
}

func (m FixedMetrics) StringWidth(s string) float64 {
	cells := 0
	for len(s) > 0 {
		r, n := utf8.DecodeRuneInString(s)
		s = s[n:]
		switch {
		case r == '\t':
			cells += 4
		case r < 0x20:
		default:
			cells += runewidth.RuneWidth(r)
		}
	}
	return float64(cells) * m.size() * 0.5
}

func (m FixedMetrics) Height() float64 { return m.size() * 1.2 }
func (m FixedMetrics) Ascent() float64 { return m.size() * 0.9 }

// FixedProvider serves FixedMetrics for any font.
type FixedProvider struct{}

func (FixedProvider) Metrics(f Font) FontMetrics { return FixedMetrics{Size: f.Size} }
