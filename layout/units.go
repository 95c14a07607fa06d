package layout

import (
	"strconv"
	"strings"
)

// This file defines unit-safe types and helpers for lengths and line-height.
// Everything handed to the paginator is in pt.

// Unit represents the original unit of a length value as specified in DSL.
type Unit int

const (
	UnitNone Unit = iota // unit-less numbers like factors
	UnitMM               // millimeters
	UnitCM               // centimeters
	UnitIN               // inches
	UnitPT               // points
)

// Conversion constants between pt and mm.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
)

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// To converts this length to target (UnitMM or UnitPT). Unit-less values are returned as is.
func (l Length) To(target Unit) float64 {
	var mm float64
	switch l.Unit {
	case UnitMM:
		mm = l.Value
	case UnitCM:
		mm = l.Value * 10
	case UnitIN:
		mm = l.Value * 25.4
	case UnitPT:
		if target == UnitPT {
			return l.Value
		}
		return l.Value * PtToMm
	default:
		return l.Value
	}
	if target == UnitPT {
		return mm * MmToPt
	}
	return mm
}

func (l Length) ToMM() float64 { return l.To(UnitMM) }
func (l Length) ToPT() float64 { return l.To(UnitPT) }

// ParseRawLengthStr parses a DSL length string preserving its unit.
// Invalid input yields a zero Length with UnitNone.
func ParseRawLengthStr(value string) Length {
	lower := strings.ToLower(strings.TrimSpace(value))
	if lower == "" {
		return Length{}
	}
	unit := UnitNone
	num := lower
	for _, suf := range []struct {
		s string
		u Unit
	}{{"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}} {
		if strings.HasSuffix(lower, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(lower, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}
	}
	return Length{Value: f, Unit: unit}
}

// isLength reports whether value parses as a number with an optional unit.
func isLength(value string) bool {
	_, err := strconv.ParseFloat(trimUnit(strings.ToLower(value)), 64)
	return err == nil
}

// parseLength 返回 pt。不带单位的数值按毫米处理。
func parseLength(value string) float64 {
	l := ParseRawLengthStr(value)
	if l.Unit == UnitNone {
		l.Unit = UnitMM
	}
	return l.ToPT()
}

// parseFontSize 返回 pt。不带单位的数值按 pt 处理，无法解析时为 def。
func parseFontSize(value string, def float64) float64 {
	if value == "" || !isLength(value) {
		return def
	}
	l := ParseRawLengthStr(value)
	if l.Unit == UnitNone {
		l.Unit = UnitPT
	}
	if v := l.ToPT(); v > 0 {
		return v
	}
	return def
}

// parseDimension 解析长度或相对 reference 的百分比，返回 pt。
func parseDimension(value string, reference float64) float64 {
	if value == "" {
		return 0
	}
	if num, ok := strings.CutSuffix(value, "%"); ok {
		if f, err := strconv.ParseFloat(num, 64); err == nil {
			return reference * f / 100
		}
		return 0
	}
	return parseLength(value)
}

func trimUnit(value string) string {
	for _, suffix := range []string{"pt", "mm", "cm", "in", "%"} {
		if strings.HasSuffix(value, suffix) {
			return strings.TrimSuffix(value, suffix)
		}
	}
	return value
}

// LineHeightKind distinguishes factor-based vs absolute line-height specification.
type LineHeightKind int

const (
	LineHeightFactor LineHeightKind = iota
	LineHeightAbsolute
)

// LineHeightSpec preserves original author intent: either a factor (e.g., 1.2x) or an absolute length (e.g., 18pt).
type LineHeightSpec struct {
	Kind   LineHeightKind `json:"kind"`
	Factor float64        `json:"factor,omitempty"`
	Len    Length         `json:"len,omitempty"`
}

// ParseLineHeight accepts "1.4x", a bare factor "1.4" or an absolute length.
func ParseLineHeight(value string) (LineHeightSpec, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if f, ok := strings.CutSuffix(v, "x"); ok {
		n, err := strconv.ParseFloat(f, 64)
		return LineHeightSpec{Kind: LineHeightFactor, Factor: n}, err == nil && n > 0
	}
	l := ParseRawLengthStr(v)
	if l.Unit == UnitNone {
		return LineHeightSpec{Kind: LineHeightFactor, Factor: l.Value}, l.Value > 0
	}
	return LineHeightSpec{Kind: LineHeightAbsolute, Len: l}, l.Value > 0
}

// Resolve computes the absolute line height in target unit using fontSize (which carries its unit).
func (s LineHeightSpec) Resolve(fontSize Length, target Unit) float64 {
	switch s.Kind {
	case LineHeightFactor:
		return fontSize.To(target) * s.Factor
	case LineHeightAbsolute:
		return s.Len.To(target)
	default:
		return fontSize.To(target) * 1.4
	}
}
