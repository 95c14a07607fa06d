package gfx

import "testing"

func TestRectUnionIgnoresEmpty(t *testing.T) {
	a := Rect{X: 10, Y: 10, W: 20, H: 5}
	if got := (Rect{}).Union(a); got != a {
		t.Fatalf("empty union: got %+v want %+v", got, a)
	}
	b := Rect{X: 0, Y: 12, W: 5, H: 10}
	got := a.Union(b)
	want := Rect{X: 0, Y: 10, W: 30, H: 12}
	if got != want {
		t.Fatalf("union: got %+v want %+v", got, want)
	}
}

func TestRectIntersect(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 10, H: 10}
	if got := a.Intersect(Rect{X: 10, Y: 0, W: 5, H: 5}); !got.Empty() {
		t.Fatalf("touching rects must not intersect, got %+v", got)
	}
	got := a.Intersect(Rect{X: 5, Y: 5, W: 10, H: 10})
	if got != (Rect{X: 5, Y: 5, W: 5, H: 5}) {
		t.Fatalf("intersect: got %+v", got)
	}
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#0F62FE")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c != (Color{R: 15, G: 98, B: 254}) {
		t.Fatalf("unexpected color %+v", c)
	}
	short, err := ParseHex("#333")
	if err != nil || short != (Color{R: 0x33, G: 0x33, B: 0x33}) {
		t.Fatalf("short form: %+v %v", short, err)
	}
	if _, err := ParseHex("#12"); err == nil {
		t.Fatalf("expected error for invalid length")
	}
}

func TestFixedMetricsWideRunes(t *testing.T) {
	m := FixedMetrics{Size: 10}
	if got := m.StringWidth("ab"); got != 10 {
		t.Fatalf("latin width: got %g want 10", got)
	}
	if got := m.StringWidth("中文"); got != 20 {
		t.Fatalf("cjk width: got %g want 20", got)
	}
}

func TestStrokeArea(t *testing.T) {
	op := Op{Kind: OpLine, X1: 10, Y1: 5, X2: 0, Y2: 5, Style: LineMedium}
	if got := op.StrokeArea(); got != (Rect{X: 0, Y: 4, W: 10, H: 2}) {
		t.Fatalf("horizontal stroke: %+v", got)
	}
	op = Op{Kind: OpLine, X1: 3, Y1: 0, X2: 3, Y2: 8, Style: LineThick}
	if got := op.StrokeArea(); got != (Rect{X: 1.5, Y: 0, W: 3, H: 8}) {
		t.Fatalf("vertical stroke: %+v", got)
	}
}
