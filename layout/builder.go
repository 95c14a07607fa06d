package layout

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/ByLCY/folio/band"
	"github.com/ByLCY/folio/binding"
	"github.com/ByLCY/folio/dsl"
	"github.com/ByLCY/folio/element"
	"github.com/ByLCY/folio/generator"
	"github.com/ByLCY/folio/gfx"
	"github.com/ByLCY/folio/grid"
	"github.com/ByLCY/folio/lens"
	"github.com/ByLCY/folio/page"
	"github.com/ByLCY/folio/section"
	"github.com/ByLCY/folio/textflow"
)

const (
	defaultFontSize = 10.0
	defaultPadding  = 2.0
	defaultTotal    = "合计"
)

var defaultTextColor = gfx.Color{R: 30, G: 30, B: 30}

// Build 根据报表描述生成可分页的报表定义。返回的 Definition 需要 Close 以释放数据文件。
func Build(doc *dsl.Document, opts BuildOptions) (*Definition, error) {
	if doc == nil {
		return nil, fmt.Errorf("报表为空")
	}
	res, err := collectResources(doc)
	if err != nil {
		return nil, wrap("resources", err)
	}
	ps := doc.Page()
	if ps == nil {
		return nil, ErrNoPage
	}

	b := &builder{res: res, opts: opts, sources: map[string]lens.TableLens{}, vars: map[string]any{}}
	def := &Definition{Resources: res, Sources: b.sources}
	for _, ds := range doc.DataSources() {
		if _, dup := b.sources[ds.Name]; dup {
			def.Close()
			return nil, wrap("data "+ds.Name, fmt.Errorf("数据源重复定义"))
		}
		src, err := b.buildSource(ds)
		if err != nil {
			def.Close()
			return nil, wrap("data "+ds.Name, err)
		}
		b.sources[ds.Name] = src
	}

	report, err := b.buildReport(doc, ps)
	if err != nil {
		def.Close()
		return nil, err
	}
	def.Report = report
	return def, nil
}

// builder 保存一次构建中共享的资源与数据源。
type builder struct {
	res     ResourceSet
	opts    BuildOptions
	sources map[string]lens.TableLens
	vars    map[string]any
	seq     map[string]int
}

func (b *builder) buildReport(doc *dsl.Document, ps *dsl.PageSection) (*generator.Report, error) {
	width, height, err := resolvePageSize(ps.Spec, b.opts.PageSize)
	if err != nil {
		return nil, wrap("page", err)
	}
	margin := resolveMargin(ps.Spec.Params, b.opts.Margin)
	if ps.Block == nil {
		return nil, wrap("page", fmt.Errorf("page 段落缺少内容"))
	}
	r := &generator.Report{
		Name:   doc.Name,
		Width:  width,
		Height: height,
		Margin: margin,
		Data:   b.opts.Data,
		Vars:   b.vars,
		Meta:   collectMeta(doc),
	}
	contentW := max(0, width-margin.Left-margin.Right)
	for _, st := range ps.Block.Statements {
		if st.Section != nil {
			e, err := b.buildSection(st.Section, contentW)
			if err != nil {
				return nil, wrap("page", err)
			}
			r.Body = append(r.Body, e)
			continue
		}
		cmd := st.Command
		if cmd == nil {
			continue
		}
		switch cmd.Name {
		case "header":
			bd, err := b.buildBand(cmd.Args, cmd.Block, contentW, "page-header")
			if err != nil {
				return nil, wrap("page header", err)
			}
			r.PageHeader = bd
		case "footer":
			bd, err := b.buildBand(cmd.Args, cmd.Block, contentW, "page-footer")
			if err != nil {
				return nil, wrap("page footer", err)
			}
			r.PageFooter = bd
		case "let":
			if err := b.let(cmd); err != nil {
				return nil, wrap("page", err)
			}
		default:
			e, err := b.buildElement(cmd, contentW)
			if err != nil {
				return nil, wrap("page", err)
			}
			if e != nil {
				r.Body = append(r.Body, e)
			}
		}
	}
	return r, nil
}

// buildElement 把一条命令转换为元素。未知命令记录告警后忽略，返回 nil。
func (b *builder) buildElement(cmd *dsl.Command, width float64) (band.Element, error) {
	switch cmd.Name {
	case "text":
		return b.buildText(cmd, width), nil
	case "line", "rect":
		return b.buildShape(cmd, width), nil
	case "image":
		return b.buildImage(cmd, width)
	case "table":
		return b.buildTable(cmd, width)
	case "chart":
		return b.buildChart(cmd, width)
	case "break":
		_, _, attrs := b.parseArgs(cmd.Args)
		return &element.PageBreak{Name: b.name(attrs, "break"), Y: parseLength(attrs["y"])}, nil
	default:
		b.opts.log().Warn("忽略未知命令", "command", cmd.Name, "line", cmd.Pos.Line)
		return nil, nil
	}
}

func (b *builder) buildBand(args []*dsl.Lexeme, block *dsl.Block, width float64, name string) (*band.Band, error) {
	_, _, attrs := b.parseArgs(args)
	bd := band.New(b.nameOr(attrs, name), 0)
	if block != nil {
		for _, st := range block.Statements {
			var e band.Element
			var err error
			switch {
			case st.Section != nil:
				e, err = b.buildSection(st.Section, width)
			case st.Command != nil:
				e, err = b.buildElement(st.Command, width)
			}
			if err != nil {
				return nil, wrap(bd.Name, err)
			}
			if e != nil {
				bd.Add(e)
			}
		}
	}
	if v := attrs["height"]; v != "" {
		bd.Height = max(0, parseLength(v))
	} else {
		for _, e := range bd.Elements {
			bd.Height = max(bd.Height, e.Bounds().Bottom())
		}
	}
	bd.Breakable = truthy(attrs["breakable"]) && !truthy(attrs["keep-together"])
	bd.RepeatHeader = truthy(attrs["repeat"])
	bd.PageBefore = truthy(attrs["page-before"])
	bd.PageAfter = truthy(attrs["page-after"])
	bd.ShrinkToFit = truthy(attrs["shrink"])
	bd.Underlay = truthy(attrs["underlay"])
	bd.FixedSize = truthy(attrs["fixed"])
	bd.Hidden = truthy(attrs["hidden"])
	return bd, nil
}

func (b *builder) buildText(cmd *dsl.Command, width float64) *element.Text {
	style, _, attrs := b.parseArgs(cmd.Args)
	attrs = mergeStyleAttributes(style, attrs, b.res.Styles)
	font := b.font(attrs)
	t := element.NewText(b.name(attrs, "text"), elementBox(attrs, width), cmd.Block.Text(), font)
	t.Color = resolveColor(attrs["color"], b.res)
	if v := attrs["background"]; v != "" {
		c := resolveColor(v, b.res)
		t.Background = &c
	}
	t.Align = parseAlign(attrs["align"], attrs["valign"])
	t.Wrap = !truthy(attrs["nowrap"]) && normalizeWrap(attrs["wrap"]) != "nowrap"
	t.Currency = truthy(attrs["currency"])
	t.Spacing = spacing(attrs, font.Size)
	return t
}

func (b *builder) buildShape(cmd *dsl.Command, width float64) *element.Shape {
	style, _, attrs := b.parseArgs(cmd.Args)
	attrs = mergeStyleAttributes(style, attrs, b.res.Styles)
	s := &element.Shape{
		Name:  b.name(attrs, cmd.Name),
		Box:   elementBox(attrs, width),
		Kind:  page.ShapeRect,
		Style: gfx.LineThin,
		Color: resolveColor(firstNonEmpty(attrs["stroke"], attrs["color"]), b.res),
	}
	if v := attrs["style"]; v != "" {
		s.Style = gfx.ParseLineStyle(v)
	}
	if cmd.Name == "line" {
		s.Kind = page.ShapeLine
		length := attrs["length"]
		switch strings.ToLower(attrs["dir"]) {
		case "v", "ver", "vertical":
			s.Box.W = 0
			if length != "" {
				s.Box.H = parseLength(length)
			}
		default:
			s.Box.H = 0
			if length != "" {
				s.Box.W = parseDimension(length, width)
			}
		}
		return s
	}
	if v := attrs["fill"]; v != "" {
		c := resolveColor(v, b.res)
		s.Fill = &c
		if attrs["style"] == "" && attrs["stroke"] == "" {
			s.Style = gfx.LineNone
		}
	}
	return s
}

func (b *builder) buildImage(cmd *dsl.Command, width float64) (band.Element, error) {
	_, pos, attrs := b.parseArgs(cmd.Args)
	im := &element.Image{Name: b.name(attrs, "image")}
	box := elementBox(attrs, width)
	src := attrs["src"]
	if len(pos) > 0 {
		r, ok := b.res.Images[pos[0]]
		if !ok {
			return nil, fmt.Errorf("图片资源 %s 未定义", pos[0])
		}
		im.Name = r.Name
		src = firstNonEmpty(src, r.Src)
		if attrs["width"] == "" && r.Width > 0 {
			box.W = r.Width
		}
		if attrs["height"] == "" && r.Height > 0 {
			box.H = r.Height
		}
	}
	if src == "" {
		return nil, fmt.Errorf("图片 %s 缺少 src", im.Name)
	}
	if box.H <= 0 {
		return nil, fmt.Errorf("图片 %s 缺少 height", im.Name)
	}
	im.Src = b.path(src)
	im.Box = box
	return im, nil
}

func (b *builder) buildTable(cmd *dsl.Command, width float64) (band.Element, error) {
	style, pos, attrs := b.parseArgs(cmd.Args)
	attrs = mergeStyleAttributes(style, attrs, b.res.Styles)
	l, err := b.source(pos, attrs)
	if err != nil {
		return nil, err
	}
	font := b.font(attrs)
	g := &element.Grid{
		Name:         b.name(attrs, "table"),
		Box:          elementBox(attrs, width),
		Lens:         l,
		Font:         font,
		HeaderFont:   font,
		TextColor:    resolveColor(attrs["color"], b.res),
		Border:       grid.Border{Style: gfx.LineThin, Color: resolveColor(firstNonEmpty(attrs["border-color"], "#999999"), b.res)},
		Padding:      defaultPadding,
		MinRowHeight: parseLength(attrs["min-height"]),
		RepeatHeader: truthy(attrs["repeat"]),
	}
	if v := attrs["header-style"]; v != "" {
		g.HeaderFont.Style = v
	}
	if v := attrs["border"]; v != "" {
		g.Border.Style = gfx.ParseLineStyle(v)
	}
	if v := attrs["padding"]; v != "" {
		g.Padding = parseLength(v)
	}
	if v := attrs["header-fill"]; v != "" {
		c := resolveColor(v, b.res)
		g.HeaderFill = &c
	}

	var auto []int
	used := 0.0
	for _, c := range cmd.Block.Commands() {
		if c.Name != "column" {
			continue
		}
		col := parseColumn(c, g.Box.W)
		if col.Width <= 0 {
			auto = append(auto, len(g.Columns))
		}
		used += col.Width
		g.Columns = append(g.Columns, col)
	}
	if len(g.Columns) == 0 {
		// 未声明列时显示数据源的全部列。
		for _, name := range lens.Header(l) {
			auto = append(auto, len(g.Columns))
			g.Columns = append(g.Columns, element.Column{Title: name, Field: name})
		}
	}
	if len(auto) > 0 {
		w := max(0, g.Box.W-used) / float64(len(auto))
		for _, i := range auto {
			g.Columns[i].Width = w
		}
	}
	return g, nil
}

func parseColumn(cmd *dsl.Command, tableW float64) element.Column {
	col := element.Column{}
	if len(cmd.Args) > 0 {
		col.Width = parseDimension(cmd.Args[0].Value, tableW)
	}
	for _, a := range cmd.Block.Assignments() {
		v := a.Value.Text()
		switch a.Key {
		case "title", "header":
			col.Title = v
		case "field":
			col.Field = v
		case "width":
			col.Width = parseDimension(v, tableW)
		case "align":
			col.Align = parseAlign(v, "")
		case "currency":
			col.Currency = truthy(v)
		case "merge":
			col.Merge = truthy(v)
		}
	}
	if col.Field == "" {
		col.Field = col.Title
	}
	return col
}

func (b *builder) buildChart(cmd *dsl.Command, width float64) (band.Element, error) {
	_, pos, attrs := b.parseArgs(cmd.Args)
	l, err := b.source(pos, attrs)
	if err != nil {
		return nil, err
	}
	c := &element.Chart{
		Name: b.name(attrs, "chart"),
		Box:  elementBox(attrs, width),
		Kind: firstNonEmpty(attrs["kind"], "bar"),
		Lens: l,
	}
	if !slices.Contains(element.Painters(), c.Kind) {
		return nil, fmt.Errorf("图表 %s: 未注册的图表类型 %q", c.Name, c.Kind)
	}
	if c.Box.H <= 0 {
		return nil, fmt.Errorf("图表 %s 缺少 height", c.Name)
	}
	for _, a := range cmd.Block.Assignments() {
		switch a.Key {
		case "label":
			c.Label = a.Value.Text()
		case "values":
			c.Values = a.Value.Strings()
		case "colors":
			for _, v := range a.Value.Strings() {
				c.Colors = append(c.Colors, resolveColor(v, b.res))
			}
		}
	}
	if len(c.Values) == 0 {
		return nil, fmt.Errorf("图表 %s 缺少 values", c.Name)
	}
	return c, nil
}

func (b *builder) buildSection(decl *dsl.SectionDecl, width float64) (band.Element, error) {
	_, _, attrs := b.parseArgs(decl.Args)
	var l lens.TableLens
	source := firstNonEmpty(attrs["source"], decl.Source())
	if source != "" {
		src, ok := b.sources[source]
		if !ok {
			return nil, fmt.Errorf("数据源 %s 未定义", source)
		}
		l = src
	}
	name := b.nameOr(attrs, firstNonEmpty(source, "section"))
	box := elementBox(attrs, width)
	box.H = 0
	def := &section.Section{Name: name, Source: source, GroupCols: decl.GroupColumns(), Gap: parseLength(b.opts.SectionGap)}
	if v := attrs["gap"]; v != "" {
		def.Gap = parseLength(v)
	}
	if len(decl.Bands) == 0 {
		return nil, wrap("section "+name, fmt.Errorf("分节缺少区带"))
	}
	for _, bd := range decl.Bands {
		built, err := b.buildBand(bd.Args, bd.Block, box.W, fmt.Sprintf("%s-%s-%d", name, bd.Kind, bd.Level))
		if err != nil {
			return nil, wrap("section "+name, err)
		}
		switch bd.Kind {
		case "header":
			def.SetHeader(bd.Level, built)
		case "content":
			def.AddContent(built)
		default:
			def.SetFooter(bd.Level, built)
		}
	}
	e, err := section.NewElement(name, box, def, l)
	if err != nil {
		return nil, wrap("section "+name, err)
	}
	e.Engine.Logger = b.opts.log()
	return e, nil
}

// source 按名字取数据源：第一个位置参数或 source 属性。
func (b *builder) source(pos []string, attrs map[string]string) (lens.TableLens, error) {
	name := attrs["source"]
	if name == "" && len(pos) > 0 {
		name = pos[0]
	}
	if name == "" {
		return nil, fmt.Errorf("缺少数据源")
	}
	l, ok := b.sources[name]
	if !ok {
		return nil, fmt.Errorf("数据源 %s 未定义", name)
	}
	return l, nil
}

func (b *builder) buildSource(ds *dsl.DataSection) (lens.TableLens, error) {
	attrs := map[string]string{}
	var columns []string
	for _, a := range ds.Block.Assignments() {
		attrs[a.Key] = a.Value.Text()
		if a.Key == "columns" {
			columns = a.Value.Strings()
		}
	}
	src := attrs["src"]
	var l lens.TableLens
	switch ext := strings.ToLower(filepath.Ext(src)); {
	case ext == ".xlsx":
		s, err := lens.OpenXLSX(b.path(src), attrs["sheet"])
		if err != nil {
			return nil, err
		}
		l = s
	case ext == ".json":
		raw, err := os.ReadFile(b.path(src))
		if err != nil {
			return nil, fmt.Errorf("读取数据文件失败: %w", err)
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("解析 %s 失败: %w", src, err)
		}
		t, err := tableFrom(v, attrs["path"], columns)
		if err != nil {
			return nil, err
		}
		l = t
	case src == "":
		t, err := tableFrom(b.opts.Data, attrs["path"], columns)
		if err != nil {
			return nil, err
		}
		l = t
	default:
		return nil, fmt.Errorf("不支持的数据文件类型 %s", src)
	}
	if truthy(attrs["summary"]) {
		l = lens.NewSummary(l, firstNonEmpty(attrs["total-label"], defaultTotal))
	}
	return l, nil
}

// tableFrom 取 data 中 path 处的对象数组。
func tableFrom(data any, path string, columns []string) (*lens.Table, error) {
	v := data
	if path != "" {
		var ok bool
		v, ok = binding.Scope{Data: data}.Lookup(strings.TrimPrefix(path, "data."))
		if !ok {
			return nil, fmt.Errorf("数据中没有 %s", path)
		}
	}
	records, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("数据 %q 不是数组: %T", path, v)
	}
	return lens.FromRecords(records, columns)
}

// let 定义报表变量：let name = "literal" | 123 | data.path
func (b *builder) let(cmd *dsl.Command) error {
	if len(cmd.Args) < 3 || cmd.Args[1].Value != "=" {
		return fmt.Errorf("第 %d 行: let 语法为 let 名称 = 值", cmd.Pos.Line)
	}
	name := cmd.Args[0].Value
	rest := cmd.Args[2:]
	if len(rest) == 1 {
		switch rest[0].Type {
		case "String":
			b.vars[name] = rest[0].Value
			return nil
		case "Number":
			if f, err := strconv.ParseFloat(rest[0].Value, 64); err == nil {
				b.vars[name] = f
				return nil
			}
		}
	}
	var path strings.Builder
	for _, p := range rest {
		path.WriteString(p.Value)
	}
	v, ok := binding.Scope{Data: b.opts.Data}.Lookup(strings.TrimPrefix(path.String(), "data."))
	if !ok {
		b.opts.log().Warn("变量取值不存在", "name", name, "path", path.String())
	}
	b.vars[name] = v
	return nil
}

func (b *builder) font(attrs map[string]string) gfx.Font {
	return gfx.Font{
		Name:  attrs["font"],
		Size:  parseFontSize(attrs["size"], defaultFontSize),
		Style: attrs["font-style"],
	}
}

func (b *builder) path(p string) string {
	if p == "" || filepath.IsAbs(p) || b.opts.BaseDir == "" {
		return p
	}
	return filepath.Join(b.opts.BaseDir, p)
}

// name 返回 name 属性，未声明时按类型编号。
func (b *builder) name(attrs map[string]string, kind string) string {
	if v := attrs["name"]; v != "" {
		return v
	}
	if b.seq == nil {
		b.seq = map[string]int{}
	}
	b.seq[kind]++
	return fmt.Sprintf("%s%d", kind, b.seq[kind])
}

func (b *builder) nameOr(attrs map[string]string, def string) string {
	return firstNonEmpty(attrs["name"], def)
}

// keys 是带一个取值的属性名，flags 是单独出现的开关。
var (
	keys = setOf("name", "x", "y", "width", "height", "font", "size", "font-style", "color",
		"background", "fill", "stroke", "style", "align", "valign", "wrap", "spacing",
		"line-height", "gap", "kind", "src", "source", "border",
		"border-color", "padding", "min-height", "header-style", "header-fill", "dir", "length")
	flags = setOf("breakable", "keep-together", "repeat", "currency", "nowrap", "page-before",
		"page-after", "shrink", "underlay", "fixed", "hidden")
)

func setOf(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// parseArgs 把命令参数拆为样式名、位置参数与属性。
// 位置参数是第一个属性名之前的词；第一个位置参数若是已定义的样式则作为样式名。
func (b *builder) parseArgs(args []*dsl.Lexeme) (string, []string, map[string]string) {
	attrs := map[string]string{}
	var pos []string
	i := 0
	for ; i < len(args); i++ {
		v := args[i].Value
		if keys[v] || flags[v] {
			break
		}
		pos = append(pos, v)
	}
	for i < len(args) {
		key := args[i].Value
		i++
		if flags[key] {
			attrs[key] = "true"
			continue
		}
		if i < len(args) {
			attrs[key] = args[i].Value
			i++
		}
	}
	style := ""
	if len(pos) > 0 {
		if _, ok := b.res.Styles[pos[0]]; ok {
			style, pos = pos[0], pos[1:]
		}
	}
	return style, pos, attrs
}

func elementBox(attrs map[string]string, width float64) gfx.Rect {
	r := gfx.Rect{
		X: parseDimension(attrs["x"], width),
		Y: parseLength(attrs["y"]),
		W: parseDimension(attrs["width"], width),
		H: parseLength(attrs["height"]),
	}
	if r.W <= 0 {
		r.W = max(0, width-r.X)
	}
	return r
}

func parseAlign(h, v string) textflow.Align {
	var a textflow.Align
	switch strings.ToLower(h) {
	case "center", "middle":
		a = textflow.HCenter
	case "right", "end":
		a = textflow.HRight
	default:
		a = textflow.HLeft
	}
	switch strings.ToLower(v) {
	case "center", "middle":
		a |= textflow.VCenter
	case "bottom", "end":
		a |= textflow.VBottom
	default:
		a |= textflow.VTop
	}
	return a
}

// spacing 返回行间额外间距。line-height 以 1.2 倍字号作为自然行高估算。
func spacing(attrs map[string]string, size float64) float64 {
	if v := attrs["spacing"]; v != "" {
		return max(0, parseLength(v))
	}
	if lh, ok := ParseLineHeight(attrs["line-height"]); ok {
		return max(0, lh.Resolve(Length{Value: size, Unit: UnitPT}, UnitPT)-size*1.2)
	}
	return 0
}

func normalizeWrap(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "nowrap", "no-wrap", "none", "false":
		return "nowrap"
	default:
		return "wrap"
	}
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "yes", "on", "1":
		return true
	}
	return false
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func collectResources(doc *dsl.Document) (ResourceSet, error) {
	res := ResourceSet{
		Fonts:  map[string]FontResource{},
		Colors: map[string]gfx.Color{},
		Images: map[string]ImageResource{},
		Styles: map[string]Style{},
	}
	rawStyles := map[string]Style{}

	for _, cmd := range doc.Resources() {
		switch cmd.Name {
		case "font":
			font := parseFontResource(cmd)
			if font.Name != "" {
				res.Fonts[font.Name] = font
			}
		case "color":
			name, value := parseColorResource(cmd)
			if name == "" || value == "" {
				continue
			}
			c, err := gfx.ParseHex(value)
			if err != nil {
				return res, fmt.Errorf("颜色 %s: %w", name, err)
			}
			res.Colors[name] = c
		case "image":
			image := parseImageResource(cmd)
			if image.Name != "" {
				res.Images[image.Name] = image
			}
		case "style":
			style := parseStyleResource(cmd)
			if style.Name != "" {
				rawStyles[style.Name] = style
			}
		}
	}

	resolved, err := resolveStyles(rawStyles)
	if err != nil {
		return res, err
	}
	res.Styles = resolved
	return res, nil
}

func collectMeta(doc *dsl.Document) generator.Meta {
	meta := generator.Meta{Creator: "Folio"}
	for _, a := range doc.Meta() {
		switch strings.ToLower(a.Key) {
		case "title":
			meta.Title = a.Value.Text()
		case "author":
			meta.Author = a.Value.Text()
		case "subject":
			meta.Subject = a.Value.Text()
		case "creator":
			meta.Creator = a.Value.Text()
		case "keywords":
			meta.Keywords = a.Value.Strings()
		}
	}
	return meta
}

func parseFontResource(cmd *dsl.Command) FontResource {
	if len(cmd.Args) == 0 {
		return FontResource{}
	}
	font := FontResource{Name: cmd.Args[0].Value}
	for _, a := range cmd.Block.Assignments() {
		v := a.Value.Text()
		switch a.Key {
		case "src":
			font.Src = v
			font.IsBuiltin = strings.HasPrefix(v, "builtin:")
		case "style":
			font.Style = v
		case "fallback":
			font.Fallback = v
		}
	}
	return font
}

func parseImageResource(cmd *dsl.Command) ImageResource {
	if len(cmd.Args) == 0 {
		return ImageResource{}
	}
	image := ImageResource{Name: cmd.Args[0].Value}
	for _, a := range cmd.Block.Assignments() {
		v := a.Value.Text()
		switch a.Key {
		case "src":
			image.Src = v
		case "width":
			image.Width = parseLength(v)
		case "height":
			image.Height = parseLength(v)
		}
	}
	return image
}

func parseStyleResource(cmd *dsl.Command) Style {
	if len(cmd.Args) == 0 {
		return Style{}
	}
	style := Style{
		Name:  cmd.Args[0].Value,
		Props: map[string]string{},
	}
	if len(cmd.Args) >= 3 && strings.EqualFold(cmd.Args[1].Value, "extends") {
		style.Extends = cmd.Args[2].Value
	}
	for _, a := range cmd.Block.Assignments() {
		if val := a.Value.Text(); val != "" {
			style.Props[a.Key] = val
		}
	}
	return style
}

func resolveStyles(styles map[string]Style) (map[string]Style, error) {
	resolved := map[string]Style{}
	visiting := map[string]bool{}

	var dfs func(name string) (Style, error)
	dfs = func(name string) (Style, error) {
		if style, ok := resolved[name]; ok {
			return style, nil
		}
		style, ok := styles[name]
		if !ok {
			return Style{}, fmt.Errorf("style %s 未定义", name)
		}
		if visiting[name] {
			return Style{}, fmt.Errorf("style 继承存在循环：%s", name)
		}
		visiting[name] = true

		props := map[string]string{}
		if style.Extends != "" {
			parent, err := dfs(style.Extends)
			if err != nil {
				return Style{}, err
			}
			for k, v := range parent.Props {
				props[k] = v
			}
		}
		for k, v := range style.Props {
			props[k] = v
		}
		style.Props = props
		resolved[name] = style
		delete(visiting, name)
		return style, nil
	}

	for name := range styles {
		if _, err := dfs(name); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}

func parseColorResource(cmd *dsl.Command) (string, string) {
	if len(cmd.Args) == 0 {
		return "", ""
	}
	name := cmd.Args[0].Value
	value := ""
	if len(cmd.Args) > 1 {
		value = cmd.Args[len(cmd.Args)-1].Value
	}
	return name, value
}

// pagePresets 以 mm 记录常用纸张尺寸。
var pagePresets = map[string][2]float64{
	"A3":     {297, 420},
	"A4":     {210, 297},
	"A5":     {148, 210},
	"LETTER": {215.9, 279.4},
	"LEGAL":  {215.9, 355.6},
}

// resolvePageSize 返回 pt。尺寸写作 default 时使用配置中的纸张。
func resolvePageSize(spec dsl.PageSpec, fallback string) (float64, float64, error) {
	size := strings.ToUpper(spec.Size)
	if size == "DEFAULT" {
		size = strings.ToUpper(firstNonEmpty(fallback, "A4"))
	}
	base, ok := pagePresets[size]
	if !ok {
		return 0, 0, fmt.Errorf("暂不支持的纸张尺寸：%s", spec.Size)
	}
	width, height := base[0]*MmToPt, base[1]*MmToPt
	for _, token := range spec.Params {
		if token.Value == "landscape" {
			width, height = height, width
		}
	}
	return width, height, nil
}

// resolveMargin 解析 margin 后的 1~4 个长度，返回 pt。三个值时左边距为 0。
func resolveMargin(params []*dsl.Lexeme, fallback string) gfx.Insets {
	def := 20 * MmToPt
	if fallback != "" && isLength(fallback) {
		def = parseLength(fallback)
	}
	margin := gfx.Uniform(def)
	for i, token := range params {
		if token.Value != "margin" {
			continue
		}
		var vals []float64
		for j := i + 1; j < len(params) && len(vals) < 4; j++ {
			if !isLength(params[j].Value) {
				break
			}
			vals = append(vals, parseLength(params[j].Value))
		}
		switch len(vals) {
		case 1:
			margin = gfx.Uniform(vals[0])
		case 2:
			margin = gfx.Insets{Top: vals[0], Right: vals[1], Bottom: vals[0], Left: vals[1]}
		case 3:
			margin = gfx.Insets{Top: vals[0], Right: vals[1], Bottom: vals[2]}
		case 4:
			margin = gfx.Insets{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[3]}
		}
	}
	return margin
}

func mergeStyleAttributes(style string, inline map[string]string, styles map[string]Style) map[string]string {
	out := make(map[string]string)
	if s, ok := styles[style]; ok {
		for k, v := range s.Props {
			out[k] = v
		}
	}
	for k, v := range inline {
		out[k] = v
	}
	return out
}

func resolveColor(value string, res ResourceSet) gfx.Color {
	if value == "" {
		return defaultTextColor
	}
	if c, ok := res.Colors[value]; ok {
		return c
	}
	if c, err := gfx.ParseHex(value); err == nil {
		return c
	}
	return defaultTextColor
}
