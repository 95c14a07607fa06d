package gfx

import (
	"fmt"
	"strconv"
	"strings"
)

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

var (
	Black = Color{}
	White = Color{R: 255, G: 255, B: 255}
	Gray  = Color{R: 200, G: 200, B: 200}
)

// ParseHex 解析 #RGB / #RRGGBB / #RRGGBBAA（alpha 被忽略）形式的颜色。
func ParseHex(value string) (Color, error) {
	v := strings.TrimPrefix(strings.TrimSpace(value), "#")
	hex := func(s string) (int, error) {
		n, err := strconv.ParseUint(s, 16, 8)
		return int(n), err
	}
	var parts [3]string
	switch len(v) {
	case 3:
		for i := range parts {
			parts[i] = strings.Repeat(v[i:i+1], 2)
		}
	case 6, 8:
		for i := range parts {
			parts[i] = v[2*i : 2*i+2]
		}
	default:
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
	var out [3]int
	for i, p := range parts {
		n, err := hex(p)
		if err != nil {
			return Color{}, fmt.Errorf("颜色值 %s 无法解析: %w", value, err)
		}
		out[i] = n
	}
	return Color{R: out[0], G: out[1], B: out[2]}, nil
}

// LineStyle 是边框/线条样式，数值越大线越粗（Dashed/Dotted 视为细线）。
type LineStyle int

const (
	LineNone LineStyle = iota
	LineThin
	LineMedium
	LineThick
	LineDashed
	LineDotted
)

// Width returns the stroke width in points.
func (s LineStyle) Width() float64 {
	switch s {
	case LineThin, LineDashed, LineDotted:
		return 1
	case LineMedium:
		return 2
	case LineThick:
		return 3
	default:
		return 0
	}
}

// Dashes returns the dash pattern for the style, nil for solid lines.
func (s LineStyle) Dashes() []float64 {
	switch s {
	case LineDashed:
		return []float64{3, 2}
	case LineDotted:
		return []float64{1, 1}
	default:
		return nil
	}
}

func (s LineStyle) String() string {
	switch s {
	case LineThin:
		return "thin"
	case LineMedium:
		return "medium"
	case LineThick:
		return "thick"
	case LineDashed:
		return "dashed"
	case LineDotted:
		return "dotted"
	default:
		return "none"
	}
}

// ParseLineStyle maps DSL names to a LineStyle; unknown names yield LineNone.
func ParseLineStyle(name string) LineStyle {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "thin", "solid", "1":
		return LineThin
	case "medium", "2":
		return LineMedium
	case "thick", "3":
		return LineThick
	case "dashed", "dash":
		return LineDashed
	case "dotted", "dot":
		return LineDotted
	default:
		return LineNone
	}
}

// Font 标识一个字体面：资源名 + 字号（pt）+ 样式。
type Font struct {
	Name  string  `json:"name"`
	Size  float64 `json:"size"`
	Style string  `json:"style,omitempty"`
}
