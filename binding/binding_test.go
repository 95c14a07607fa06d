package binding

import (
	"testing"

	"golang.org/x/text/language"
)

func TestInterpolateData(t *testing.T) {
	data := map[string]any{
		"title": "Sales",
		"items": []any{map[string]any{"name": "first"}},
	}
	got := Interpolate("${title}: ${items[0].name} ${missing}", data)
	if got != "Sales: first ${missing}" {
		t.Fatalf("got %q", got)
	}
}

func TestScopePrefersRow(t *testing.T) {
	scope := Scope{
		Row:  map[string]any{"name": "row"},
		Vars: map[string]any{"name": "var", "section": "s1"},
		Data: map[string]any{"name": "data", "title": "T"},
	}
	got := Interpolate("${name} ${section} ${title} ${page}", scope)
	if got != "row s1 T ${page}" {
		t.Fatalf("got %q", got)
	}
}

func TestCurrencyFormatting(t *testing.T) {
	scope := Scope{Row: map[string]any{"amount": 1234.5, "qty": int64(3), "label": "n/a"}}
	if got := Interpolate("${amount|currency}", scope); got != "1,234.50" {
		t.Fatalf("currency: %q", got)
	}
	if got := Interpolate("${qty}", scope); got != "3" {
		t.Fatalf("int: %q", got)
	}
	if got := Interpolate("${label|currency}", scope); got != "n/a" {
		t.Fatalf("non numeric value must pass through: %q", got)
	}
	if got := FormatCurrency(int64(2), language.English); got != "2.00" {
		t.Fatalf("integer currency: %q", got)
	}
}

func TestFormatPlainFloat(t *testing.T) {
	if got := Format(17.5, "", language.Und); got != "17.5" {
		t.Fatalf("got %q", got)
	}
	if got := Format(nil, "", language.Und); got != "" {
		t.Fatalf("nil should format empty, got %q", got)
	}
}
