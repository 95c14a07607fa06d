package canvasrenderer

import (
	"bytes"
	"context"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ByLCY/folio/band"
	"github.com/ByLCY/folio/element"
	"github.com/ByLCY/folio/generator"
	"github.com/ByLCY/folio/gfx"
	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/page"
	"github.com/ByLCY/folio/textflow"
)

func TestMetricsUseBuiltinFaces(t *testing.T) {
	r := New(Options{})
	m := r.Metrics(gfx.Font{Name: "roman", Size: 12})
	if _, ok := m.(gfx.FixedMetrics); ok {
		t.Fatalf("builtin font fell back to fixed metrics")
	}
	if m.Height() <= 0 || m.Ascent() <= 0 || m.Ascent() >= m.Height() {
		t.Fatalf("height %g ascent %g", m.Height(), m.Ascent())
	}
	w := m.StringWidth("hello")
	if w <= 0 || w > 5*12 {
		t.Fatalf("width %g", w)
	}
	big := r.Metrics(gfx.Font{Name: "roman", Size: 24})
	if math.Abs(big.StringWidth("hello")-2*w) > 1e-3 {
		t.Fatalf("width does not scale with size")
	}
}

func TestMetricsResolveResources(t *testing.T) {
	r := New(Options{Fonts: map[string]layout.FontResource{
		"Body": {Name: "Body", Src: "builtin:sans", IsBuiltin: true},
		"Bad":  {Name: "Bad", Src: "missing.ttf", Fallback: "Body"},
	}})
	sans := r.Metrics(gfx.Font{Name: "Body", Size: 10})
	roman := r.Metrics(gfx.Font{Name: "roman", Size: 10})
	if sans.StringWidth("Wide text") == roman.StringWidth("Wide text") {
		t.Fatalf("resource Body should resolve to the sans face")
	}
	bad := r.Metrics(gfx.Font{Name: "Bad", Size: 10})
	if _, ok := bad.(gfx.FixedMetrics); ok {
		t.Fatalf("fallback resource was not used")
	}
	if bad.StringWidth("Wide text") != sans.StringWidth("Wide text") {
		t.Fatalf("fallback should measure like Body")
	}
}

func TestBoldVariant(t *testing.T) {
	r := New(Options{})
	regular := r.Metrics(gfx.Font{Name: "roman", Size: 10})
	bold := r.Metrics(gfx.Font{Name: "roman", Size: 10, Style: "bold"})
	if bold.StringWidth("Heading") <= regular.StringWidth("Heading") {
		t.Fatalf("bold face should be wider")
	}
}

// 第一行宽度恰好等于容器宽度且后面紧跟显式换行时，不应产生额外的空行。
func TestNoBlankLineWhenEqualWidthThenNewline(t *testing.T) {
	m := New(Options{}).Metrics(gfx.Font{Name: "roman", Size: 12})
	first := "SAMPLE-A"
	limit := m.StringWidth(first)
	l := textflow.Process(first+"\nSAMPLE-B", m, textflow.Options{Bounds: gfx.Rect{W: limit}, Wrap: true})
	if len(l.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(l.Lines))
	}
}

func document(t *testing.T, r *Renderer) *generator.Document {
	t.Helper()
	text := element.NewText("t", gfx.Rect{W: 200}, "Hello ${page}/${pages}", gfx.Font{Name: "roman", Size: 12})
	fill := gfx.Color{R: 200, G: 220, B: 255}
	rect := &element.Shape{Name: "r", Box: gfx.Rect{Y: 30, W: 100, H: 40}, Kind: page.ShapeRect, Style: gfx.LineDashed, Fill: &fill}
	rep := &generator.Report{
		Name:   "test",
		Width:  300,
		Height: 200,
		Margin: gfx.Uniform(20),
		Body:   []band.Element{text, rect, &element.PageBreak{Name: "br"}, text.Clone()},
		Meta:   generator.Meta{Title: "Test", Creator: "Folio"},
	}
	doc, err := generator.New(rep, generator.Options{Fonts: r}).Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(doc.Pages) != 2 {
		t.Fatalf("pages = %d", len(doc.Pages))
	}
	return doc
}

func TestRenderPDF(t *testing.T) {
	r := New(Options{})
	data, err := r.Render(document(t, r))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("not a PDF: %q", data[:min(len(data), 8)])
	}
	if _, err := r.Render(&generator.Document{}); err == nil {
		t.Fatalf("empty document should fail")
	}
}

func TestWritePNGs(t *testing.T) {
	r := New(Options{DPI: 72})
	dir := filepath.Join(t.TempDir(), "png")
	paths, err := r.WritePNGs(document(t, r), dir)
	if err != nil {
		t.Fatalf("png: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("paths %v", paths)
	}
	f, err := os.Open(paths[0])
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	// 300pt 在 72 DPI 下约为 300 像素
	if cfg.Width < 295 || cfg.Width > 305 {
		t.Fatalf("width %d", cfg.Width)
	}
}
