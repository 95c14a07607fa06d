package layout

import (
	"math"
	"testing"
)

// TestPtMmRoundTrip 验证 pt↔mm 换算的往返精度（允许极小的浮点误差）。
func TestPtMmRoundTrip(t *testing.T) {
	samples := []float64{0, 0.001, 1, 12, 14.4, 72, 96, 144, 1000}
	for _, pt := range samples {
		mm := pt * PtToMm
		back := mm * MmToPt
		if diff := math.Abs(back - pt); diff > 1e-9 {
			t.Fatalf("pt→mm→pt 往返误差过大: in=%gpt mm=%g back=%g diff=%g", pt, mm, back, diff)
		}
	}
}

// TestLengthToConversions 覆盖 Length 在常见单位上的转换正确性。
func TestLengthToConversions(t *testing.T) {
	if got := (Length{Value: 1, Unit: UnitIN}).ToMM(); math.Abs(got-25.4) > 1e-9 {
		t.Fatalf("1in 转 mm 期望 25.4，实际 %g", got)
	}
	if got := (Length{Value: 2.54, Unit: UnitCM}).ToMM(); math.Abs(got-25.4) > 1e-9 {
		t.Fatalf("2.54cm 转 mm 期望 25.4，实际 %g", got)
	}
	if got := (Length{Value: 12, Unit: UnitPT}).ToMM(); math.Abs(got-12*PtToMm) > 1e-9 {
		t.Fatalf("12pt 转 mm 期望 %g，实际 %g", 12*PtToMm, got)
	}
	if got := (Length{Value: 10, Unit: UnitMM}).ToPT(); math.Abs(got-10*MmToPt) > 1e-9 {
		t.Fatalf("10mm 转 pt 期望 %g，实际 %g", 10*MmToPt, got)
	}
}

func TestParseLengthDefaults(t *testing.T) {
	if got := parseLength("12pt"); got != 12 {
		t.Fatalf("12pt = %g", got)
	}
	if got := parseLength("10"); math.Abs(got-10*MmToPt) > 1e-9 {
		t.Fatalf("不带单位按 mm: %g", got)
	}
	if got := parseFontSize("9", 12); got != 9 {
		t.Fatalf("字号不带单位按 pt: %g", got)
	}
	if got := parseFontSize("bold", 12); got != 12 {
		t.Fatalf("无法解析时使用默认字号: %g", got)
	}
	if got := parseDimension("50%", 300); got != 150 {
		t.Fatalf("50%% = %g", got)
	}
}

// TestLineHeightResolve 验证行高解析：倍数与绝对值两种语义。
func TestLineHeightResolve(t *testing.T) {
	size := Length{Value: 12, Unit: UnitPT}
	spec, ok := ParseLineHeight("1.5x")
	if !ok || spec.Kind != LineHeightFactor {
		t.Fatalf("1.5x = %+v", spec)
	}
	if got := spec.Resolve(size, UnitPT); math.Abs(got-18) > 1e-9 {
		t.Fatalf("1.5x 解析为 pt 错误: %g", got)
	}
	spec, ok = ParseLineHeight("6mm")
	if !ok || spec.Kind != LineHeightAbsolute {
		t.Fatalf("6mm = %+v", spec)
	}
	if got := spec.Resolve(size, UnitMM); math.Abs(got-6) > 1e-9 {
		t.Fatalf("6mm 行高解析为 mm 错误: %g", got)
	}
	if _, ok := ParseLineHeight("tall"); ok {
		t.Fatal("无效行高被接受")
	}
}
