package layout

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ByLCY/folio/dsl"
	"github.com/ByLCY/folio/element"
	"github.com/ByLCY/folio/generator"
	"github.com/ByLCY/folio/lens"
	"github.com/ByLCY/folio/page"
	"github.com/ByLCY/folio/section"
	"github.com/ByLCY/folio/textflow"
	"github.com/xuri/excelize/v2"
)

const salesJSON = `{
  "title": "Q1",
  "items": [
    {"region": "east", "name": "widget", "amount": 10},
    {"region": "east", "name": "gadget", "amount": 5},
    {"region": "west", "name": "gizmo", "amount": 7}
  ]
}`

const salesDSL = `
report Sales v1 {
  meta { title: "Sales" author: "ops" }
  resources {
    font Body { src: "builtin:roman" }
    color Accent = #0F62FE
    style H { font: Body size: 12pt color: Accent }
    style Big extends H { size: 16pt }
  }
  data items { path: "items" summary: "true" }
  page A4 portrait margin 18mm {
    header height 20pt { text { "Sales ${page}/${pages}" } }
    let period = data.title
    text Big { "Quarterly sales ${period}" }
    section items group region {
      header level 0 repeat height 18pt { text x 0 width 200pt { "Name" } }
      header level 1 height 16pt { text { "${region}" } }
      content height 14pt breakable { text width 200pt { "${name}" } text x 200pt width 80pt align right currency { "${amount}" } }
      footer level 1 height 14pt { text { "subtotal" } }
      footer level 0 height 16pt { text { "Total ${amount}" } }
    }
  }
}
`

func build(t *testing.T, src string, opts BuildOptions) *Definition {
	t.Helper()
	doc, err := dsl.ParseString(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	def, err := Build(doc, opts)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(func() { def.Close() })
	return def
}

func salesData(t *testing.T) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(salesJSON), &v); err != nil {
		t.Fatalf("json: %v", err)
	}
	return v
}

func eq(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func allText(doc *generator.Document) []string {
	var out []string
	for _, p := range doc.Pages {
		for _, x := range p.Items() {
			tp, ok := x.(*page.TextPaintable)
			if !ok {
				continue
			}
			for _, l := range tp.Lines {
				out = append(out, l.Text)
			}
		}
	}
	return out
}

func TestBuildReport(t *testing.T) {
	def := build(t, salesDSL, BuildOptions{Data: salesData(t)})
	r := def.Report
	if r.Name != "Sales" || r.Meta.Title != "Sales" || r.Meta.Author != "ops" || r.Meta.Creator != "Folio" {
		t.Fatalf("report header: %s %+v", r.Name, r.Meta)
	}
	if !eq(r.Width, 210*MmToPt) || !eq(r.Height, 297*MmToPt) {
		t.Fatalf("page size %gx%g", r.Width, r.Height)
	}
	if !eq(r.Margin.Left, 18*MmToPt) || !eq(r.Margin.Bottom, 18*MmToPt) {
		t.Fatalf("margin %+v", r.Margin)
	}
	if r.PageHeader == nil || r.PageHeader.Height != 20 {
		t.Fatalf("page header %+v", r.PageHeader)
	}
	if r.Vars["period"] != "Q1" {
		t.Fatalf("vars %+v", r.Vars)
	}
	if len(r.Body) != 2 {
		t.Fatalf("body has %d elements", len(r.Body))
	}

	title, ok := r.Body[0].(*element.Text)
	if !ok {
		t.Fatalf("body[0] is %T", r.Body[0])
	}
	if title.Font.Size != 16 || title.Font.Name != "Body" {
		t.Fatalf("style inheritance: %+v", title.Font)
	}
	if title.Color != def.Resources.Colors["Accent"] {
		t.Fatalf("color %+v", title.Color)
	}
	sec, ok := r.Body[1].(*section.Element)
	if !ok {
		t.Fatalf("body[1] is %T", r.Body[1])
	}
	if !eq(sec.Box.W, r.Width-r.Margin.Left-r.Margin.Right) {
		t.Fatalf("section width %g", sec.Box.W)
	}
	if _, ok := def.Sources["items"].(*lens.Summary); !ok {
		t.Fatalf("source is %T", def.Sources["items"])
	}
}

func TestBuildReportPaginates(t *testing.T) {
	def := build(t, salesDSL, BuildOptions{Data: salesData(t)})
	doc, err := generator.New(def.Report, generator.Options{}).Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(doc.Pages) != 1 {
		t.Fatalf("pages = %d", len(doc.Pages))
	}
	got := strings.Join(allText(doc), "|")
	for _, want := range []string{"Sales 1/1", "Quarterly sales Q1", "east", "widget", "gizmo", "subtotal", "Total 22"} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in %s", want, got)
		}
	}
}

func TestBuildWithoutPage(t *testing.T) {
	doc, err := dsl.ParseString(`report Empty v1 { meta { title: "x" } }`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := Build(doc, BuildOptions{}); !errors.Is(err, ErrNoPage) {
		t.Fatalf("expected ErrNoPage, got %v", err)
	}
}

func TestBuildErrorNamesComponent(t *testing.T) {
	src := `report Bad v1 {
  page A4 {
    section missing {
      content height 10pt { text { "x" } }
    }
  }
}`
	doc, err := dsl.ParseString(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = Build(doc, BuildOptions{})
	var be *BuildError
	if !errors.As(err, &be) {
		t.Fatalf("expected BuildError, got %v", err)
	}
	if be.Component != "page" || !strings.Contains(be.Error(), "missing") {
		t.Fatalf("component %q: %v", be.Component, be)
	}
}

func TestBuildRejectsUnknownGroupColumn(t *testing.T) {
	src := `report Bad v1 {
  data items { path: "items" }
  page A4 {
    section items group country {
      content height 10pt { text { "${name}" } }
    }
  }
}`
	doc, err := dsl.ParseString(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = Build(doc, BuildOptions{Data: salesData(t)})
	var be *BuildError
	if !errors.As(err, &be) || be.Component != "page/section items" {
		t.Fatalf("expected section error, got %v", err)
	}
}

func TestBuildXLSXSource(t *testing.T) {
	dir := t.TempDir()
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "name")
	f.SetCellValue("Sheet1", "B1", "amount")
	f.SetCellValue("Sheet1", "A2", "widget")
	f.SetCellValue("Sheet1", "B2", 100)
	if err := f.SaveAs(filepath.Join(dir, "sales.xlsx")); err != nil {
		t.Fatalf("save: %v", err)
	}
	f.Close()

	src := `report X v1 {
  data rows { src: "sales.xlsx" }
  page A5 landscape margin 10mm 5mm {
    table rows width 100mm {
      column 40mm { title: "Name" field: "name" }
      column { title: "Amount" field: "amount" align: "right" }
    }
  }
}`
	def := build(t, src, BuildOptions{BaseDir: dir})
	r := def.Report
	if !eq(r.Width, 210*MmToPt) || !eq(r.Height, 148*MmToPt) {
		t.Fatalf("landscape size %gx%g", r.Width, r.Height)
	}
	if !eq(r.Margin.Top, 10*MmToPt) || !eq(r.Margin.Left, 5*MmToPt) {
		t.Fatalf("margin %+v", r.Margin)
	}
	g, ok := r.Body[0].(*element.Grid)
	if !ok {
		t.Fatalf("body[0] is %T", r.Body[0])
	}
	if len(g.Columns) != 2 || !eq(g.Columns[0].Width, 40*MmToPt) || !eq(g.Columns[1].Width, 60*MmToPt) {
		t.Fatalf("columns %+v", g.Columns)
	}
	if g.Columns[1].Align&textflow.HRight == 0 {
		t.Fatalf("align %v", g.Columns[1].Align)
	}
	if h := lens.Header(g.Lens); len(h) != 2 || h[0] != "name" {
		t.Fatalf("header %v", h)
	}
}

func TestResolveMarginVariants(t *testing.T) {
	get := func(spec string) (top, right, bottom, left float64) {
		def := build(t, "report T v1 { page "+spec+" { text { \"x\" } } }", BuildOptions{})
		m := def.Report.Margin
		return m.Top * PtToMm, m.Right * PtToMm, m.Bottom * PtToMm, m.Left * PtToMm
	}
	near := func(a, b float64) bool { return math.Abs(a-b) < 1e-3 }

	if t1, r1, b1, l1 := get("A4 portrait margin 10mm"); !(near(t1, 10) && near(r1, 10) && near(b1, 10) && near(l1, 10)) {
		t.Fatalf("1 值语义错误: %g %g %g %g", t1, r1, b1, l1)
	}
	if t2, r2, b2, l2 := get("A4 portrait margin 10mm 5mm"); !(near(t2, 10) && near(b2, 10) && near(l2, 5) && near(r2, 5)) {
		t.Fatalf("2 值语义错误: %g %g %g %g", t2, r2, b2, l2)
	}
	if t3, r3, b3, l3 := get("A4 portrait margin 12mm 8mm 6mm"); !(near(t3, 12) && near(r3, 8) && near(b3, 6) && near(l3, 0)) {
		t.Fatalf("3 值语义错误: %g %g %g %g", t3, r3, b3, l3)
	}
	if t4, r4, b4, l4 := get("A4 portrait margin 1cm 5mm 2cm 3mm"); !(near(t4, 10) && near(r4, 5) && near(b4, 20) && near(l4, 3)) {
		t.Fatalf("4 值语义错误: %g %g %g %g", t4, r4, b4, l4)
	}
	if t5, r5, b5, l5 := get("A4 portrait margin 1mm 2mm 3mm 4mm 999mm"); !(near(t5, 1) && near(r5, 2) && near(b5, 3) && near(l5, 4)) {
		t.Fatalf(">4 值应忽略多余: %g %g %g %g", t5, r5, b5, l5)
	}
	// 未声明时使用配置的默认边距
	def := build(t, `report T v1 { page default { text { "x" } } }`, BuildOptions{PageSize: "Letter", Margin: "1in"})
	if math.Abs(def.Report.Margin.Top-72) > 0.01 || !eq(def.Report.Width, 215.9*MmToPt) {
		t.Fatalf("defaults: %+v %g", def.Report.Margin, def.Report.Width)
	}
}

func TestTextAttributes(t *testing.T) {
	src := `report T v1 {
  page A4 {
    text x 10mm y 5mm width 50% align center valign bottom nowrap background #EEEEEE { "hello" }
    line y 20mm dir vertical length 30mm style dashed
    rect width 20mm height 10mm fill #FF0000
    break
    flux { "ignored" }
  }
}`
	def := build(t, src, BuildOptions{})
	body := def.Report.Body
	if len(body) != 4 {
		t.Fatalf("body has %d elements", len(body))
	}
	txt := body[0].(*element.Text)
	contentW := def.Report.Width - def.Report.Margin.Left - def.Report.Margin.Right
	if !eq(txt.Box.X, 10*MmToPt) || !eq(txt.Box.Y, 5*MmToPt) || !eq(txt.Box.W, contentW/2) {
		t.Fatalf("text box %+v", txt.Box)
	}
	if txt.Wrap || txt.Align != textflow.HCenter|textflow.VBottom || txt.Background == nil {
		t.Fatalf("text attrs wrap=%v align=%v bg=%v", txt.Wrap, txt.Align, txt.Background)
	}
	line := body[1].(*element.Shape)
	if line.Kind != page.ShapeLine || line.Box.W != 0 || !eq(line.Box.H, 30*MmToPt) {
		t.Fatalf("line %+v", line)
	}
	rect := body[2].(*element.Shape)
	if rect.Fill == nil || rect.Fill.R != 255 || rect.Style != 0 {
		t.Fatalf("rect %+v", rect)
	}
	if _, ok := body[3].(*element.PageBreak); !ok {
		t.Fatalf("body[3] is %T", body[3])
	}
}

func TestBuildChartRequiresRegisteredKind(t *testing.T) {
	src := `report T v1 {
  data items { path: "items" }
  page A4 {
    chart items kind pie height 40mm { label: "name" values: ["amount"] }
  }
}`
	doc, err := dsl.ParseString(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := Build(doc, BuildOptions{Data: salesData(t)}); err == nil || !strings.Contains(err.Error(), "pie") {
		t.Fatalf("expected unregistered kind error, got %v", err)
	}

	def := build(t, strings.Replace(src, "kind pie", "kind bar", 1), BuildOptions{Data: salesData(t)})
	c := def.Report.Body[0].(*element.Chart)
	if c.Label != "name" || len(c.Values) != 1 || c.Values[0] != "amount" {
		t.Fatalf("chart %+v", c)
	}
}

func TestStyleCycle(t *testing.T) {
	src := `report T v1 {
  resources {
    style A extends B { size: 9pt }
    style B extends A { size: 10pt }
  }
  page A4 { text { "x" } }
}`
	doc, err := dsl.ParseString(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := Build(doc, BuildOptions{}); err == nil || !strings.Contains(err.Error(), "循环") {
		t.Fatalf("expected cycle error, got %v", err)
	}
}
