package generator

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/ByLCY/folio/band"
	"github.com/ByLCY/folio/element"
	"github.com/ByLCY/folio/gfx"
	"github.com/ByLCY/folio/lens"
	"github.com/ByLCY/folio/page"
	"github.com/ByLCY/folio/section"
)

func lines(n int) string {
	var b strings.Builder
	for i := range n {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("line")
	}
	return b.String()
}

func texts(p *page.StylePage) []*page.TextPaintable {
	var out []*page.TextPaintable
	for _, x := range p.Items() {
		if tp, ok := x.(*page.TextPaintable); ok {
			out = append(out, tp)
		}
	}
	return out
}

func report(body ...band.Element) *Report {
	header := band.New("page-header", 20,
		element.NewText("no", gfx.Rect{W: 150, H: 20}, "Page ${page}/${pages}", gfx.Font{Size: 10}))
	return &Report{Name: "test", Width: 200, Height: 100, PageHeader: header, Body: body}
}

func TestGenerateFlowsTextAndResolvesPageTokens(t *testing.T) {
	r := report(element.NewText("body", gfx.Rect{W: 100, H: 12}, lines(10), gfx.Font{Size: 10}))
	doc, err := New(r, Options{}).Generate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Pages) != 2 {
		t.Fatalf("pages = %d", len(doc.Pages))
	}
	for i, want := range []struct {
		header string
		lines  int
	}{{"Page 1/2", 6}, {"Page 2/2", 4}} {
		tps := texts(doc.Pages[i])
		if len(tps) != 2 {
			t.Fatalf("page %d texts = %d", i+1, len(tps))
		}
		if got := tps[0].Lines[0].Text; got != want.header {
			t.Fatalf("page %d header = %q", i+1, got)
		}
		if tps[1].Box.Y != 20 || len(tps[1].Lines) != want.lines {
			t.Fatalf("page %d body = %+v", i+1, tps[1])
		}
	}
	if doc.Truncated || len(doc.Warnings) != 0 {
		t.Fatalf("unexpected warnings %v", doc.Warnings)
	}
}

func TestGenerateFooterReservesSpace(t *testing.T) {
	r := report(element.NewText("body", gfx.Rect{W: 100, H: 12}, lines(10), gfx.Font{Size: 10}))
	r.PageFooter = band.New("page-footer", 20,
		element.NewText("f", gfx.Rect{W: 100, H: 12}, "end", gfx.Font{Size: 10}))
	doc, err := New(r, Options{}).Generate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// 主体区域 60pt，每页 5 行。
	if len(doc.Pages) != 2 {
		t.Fatalf("pages = %d", len(doc.Pages))
	}
	tps := texts(doc.Pages[0])
	if len(tps) != 3 || len(tps[2].Lines) != 5 {
		t.Fatalf("page 1 = %+v", tps)
	}
	if tps[1].Box.Y != 80 || tps[1].Lines[0].Text != "end" {
		t.Fatalf("footer = %+v", tps[1])
	}
}

func TestGenerateStopsAtMaxPages(t *testing.T) {
	r := report(element.NewText("body", gfx.Rect{W: 100, H: 12}, lines(30), gfx.Font{Size: 10}))
	g := New(r, Options{MaxPages: 2, DisplayWarning: true})
	doc, err := g.Generate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Pages) != 2 || !doc.Truncated || len(doc.Warnings) != 1 {
		t.Fatalf("doc = %d pages, truncated %v, warnings %v", len(doc.Pages), doc.Truncated, doc.Warnings)
	}
	last := texts(doc.Pages[1])
	stamp := last[len(last)-1]
	if stamp.Color != warningColor || !strings.Contains(stamp.Lines[0].Text, "最大页数") {
		t.Fatalf("warning stamp = %+v", stamp)
	}
	if math.Abs(stamp.Box.Bottom()-100) > 1e-9 {
		t.Fatalf("stamp bottom = %v", stamp.Box.Bottom())
	}

	// 不显示警告时页面上没有额外文本。
	g = New(r, Options{MaxPages: 2})
	doc, err = g.Generate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := texts(doc.Pages[1]); len(got) != 2 {
		t.Fatalf("texts = %d", len(got))
	}
}

// stuck 永远报告还有内容却不输出任何东西。
type stuck struct{}

func (stuck) ID() string            { return "stuck" }
func (stuck) Bounds() gfx.Rect      { return gfx.Rect{} }
func (stuck) Reset()                {}
func (stuck) Rewind(page.Paintable) {}
func (s stuck) Clone() band.Element { return s }
func (stuck) Print(*band.Context, gfx.Rect) (band.Result, error) {
	return band.Result{More: true}, nil
}

func TestGenerateSkipsElementWithoutProgress(t *testing.T) {
	r := report(stuck{}, element.NewText("after", gfx.Rect{W: 100, H: 12}, "tail", gfx.Font{Size: 10}))
	doc, err := New(r, Options{}).Generate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Pages) != 1 || len(doc.Warnings) != 1 {
		t.Fatalf("pages = %d, warnings = %v", len(doc.Pages), doc.Warnings)
	}
	tps := texts(doc.Pages[0])
	if len(tps) != 2 || tps[1].Lines[0].Text != "tail" {
		t.Fatalf("texts = %+v", tps)
	}
}

func TestGenerateEmptyBodyYieldsOnePage(t *testing.T) {
	doc, err := New(report(), Options{}).Generate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Pages) != 1 || texts(doc.Pages[0])[0].Lines[0].Text != "Page 1/1" {
		t.Fatalf("doc = %+v", doc.Pages)
	}
}

func TestGenerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(report(), Options{}).Generate(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestGenerateSection(t *testing.T) {
	def := &section.Section{Name: "rows"}
	def.AddContent(band.New("row", 30,
		element.NewText("name", gfx.Rect{W: 100, H: 12}, "${name}", gfx.Font{Size: 10})))
	data := lens.New([]string{"name"}, [][]any{{"a"}, {"b"}, {"c"}, {"d"}, {"e"}})
	sec, err := section.NewElement("rows", gfx.Rect{}, def, data)
	if err != nil {
		t.Fatal(err)
	}
	r := &Report{Name: "s", Width: 200, Height: 100, Body: []band.Element{sec}}
	g := New(r, Options{})

	var got [][]string
	for p, err := range g.Pages(context.Background()) {
		if err != nil {
			t.Fatal(err)
		}
		var names []string
		for _, tp := range texts(p) {
			names = append(names, tp.Lines[0].Text)
		}
		got = append(got, names)
	}
	if len(got) != 2 || strings.Join(got[0], "") != "abc" || strings.Join(got[1], "") != "de" {
		t.Fatalf("pages = %v", got)
	}

	// 重新生成得到同样的结果。
	doc, err := g.Generate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Pages) != 2 {
		t.Fatalf("second run pages = %d", len(doc.Pages))
	}
}

func TestGenerateSectionBelowTopMovesToNextPage(t *testing.T) {
	def := &section.Section{Name: "tall"}
	def.AddContent(band.New("row", 95,
		element.NewText("name", gfx.Rect{W: 100, H: 12}, "${name}", gfx.Font{Size: 10})))
	data := lens.New([]string{"name"}, [][]any{{"a"}, {"b"}})
	sec, err := section.NewElement("tall", gfx.Rect{Y: 10}, def, data)
	if err != nil {
		t.Fatal(err)
	}
	r := &Report{Name: "s", Width: 200, Height: 100, Body: []band.Element{sec}}
	doc, err := New(r, Options{}).Generate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Warnings) != 0 {
		t.Fatalf("warnings = %v", doc.Warnings)
	}
	var got []string
	for _, p := range doc.Pages {
		for _, tp := range texts(p) {
			got = append(got, tp.Lines[0].Text)
		}
	}
	if len(doc.Pages) != 2 || strings.Join(got, "") != "ab" {
		t.Fatalf("%d pages, texts %v", len(doc.Pages), got)
	}
	if y := texts(doc.Pages[0])[0].Box.Y; y != 0 {
		t.Fatalf("first row should start at the page top, got y=%v", y)
	}
}

func TestPagesStopsEarly(t *testing.T) {
	r := report(element.NewText("body", gfx.Rect{W: 100, H: 12}, lines(30), gfx.Font{Size: 10}))
	n := 0
	for _, err := range New(r, Options{}).Pages(context.Background()) {
		if err != nil {
			t.Fatal(err)
		}
		n++
		break
	}
	if n != 1 {
		t.Fatalf("n = %d", n)
	}
}
