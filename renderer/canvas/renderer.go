package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"github.com/ByLCY/folio/fonts"
	"github.com/ByLCY/folio/generator"
	"github.com/ByLCY/folio/gfx"
	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/page"
	"github.com/ByLCY/folio/renderer"
)

const defaultDPI = 150.0

// Renderer draws paginated documents via github.com/tdewolff/canvas and
// measures text with the same font faces.
type Renderer struct {
	baseDir string
	fontDir string
	fonts   map[string]layout.FontResource
	dpi     float64
	logger  *slog.Logger

	fontMu       sync.Mutex
	fontFamilies map[string]*fontFamilyEntry
	fallbackFace *fontFamilyEntry
}

var _ renderer.Typesetter = (*Renderer)(nil)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// Options configures the canvas renderer.
type Options struct {
	// BaseDir 用于解析字体资源中的相对路径。
	BaseDir string
	// FontDir 是按名称查找字体文件（<name>.ttf / <name>.otf）的目录。
	FontDir string
	// Fonts 是报表中声明的字体资源，按资源名查找。
	Fonts map[string]layout.FontResource
	// DPI 是 PNG 输出的分辨率，0 表示 150。
	DPI    float64
	Logger *slog.Logger
}

// New creates a canvas-based renderer.
func New(opts Options) *Renderer {
	r := &Renderer{
		baseDir:      opts.BaseDir,
		fontDir:      opts.FontDir,
		fonts:        opts.Fonts,
		dpi:          opts.DPI,
		logger:       opts.Logger,
		fontFamilies: map[string]*fontFamilyEntry{},
	}
	if r.dpi <= 0 {
		r.dpi = defaultDPI
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Render renders the document into a PDF byte slice.
func (r *Renderer) Render(doc *generator.Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}

	var buf bytes.Buffer
	first := doc.Pages[0]
	writer := pdf.New(&buf, toMm(first.Width), toMm(first.Height), nil)
	applyMeta(writer, doc.Meta)
	for i, p := range doc.Pages {
		if i > 0 {
			writer.NewPage(toMm(p.Width), toMm(p.Height))
		}
		r.drawPage(p, false).RenderTo(writer)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPNG rasterizes a single page on a white background.
func (r *Renderer) RenderPNG(p *page.StylePage) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("页面为空")
	}
	img := rasterizer.Draw(r.drawPage(p, true), canvas.DPI(r.dpi), canvas.DefaultColorSpace)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("编码第 %d 页 PNG 失败: %w", p.Number, err)
	}
	return buf.Bytes(), nil
}

// WritePNGs 把每一页写为 dir/page-001.png 形式的文件，返回文件路径。
func (r *Renderer) WritePNGs(doc *generator.Document, dir string) ([]string, error) {
	if doc == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建目录 %s 失败: %w", dir, err)
	}
	paths := make([]string, 0, len(doc.Pages))
	for i, p := range doc.Pages {
		data, err := r.RenderPNG(p)
		if err != nil {
			return paths, err
		}
		path := filepath.Join(dir, fmt.Sprintf("page-%03d.png", i+1))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("写入 %s 失败: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (r *Renderer) drawPage(p *page.StylePage, opaque bool) *canvas.Canvas {
	c := canvas.New(toMm(p.Width), toMm(p.Height))
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点
	g := &graphics{ctx: ctx, r: r, color: gfx.Black}
	if opaque {
		g.SetColor(gfx.White)
		g.FillRect(gfx.Rect{W: p.Width, H: p.Height})
		g.SetColor(gfx.Black)
	}
	p.Paint(g)
	return c
}

func applyMeta(writer *pdf.PDF, meta generator.Meta) {
	if writer == nil {
		return
	}
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

// Metrics 实现 gfx.FontProvider。字体无法加载时退回等宽近似并记录告警。
func (r *Renderer) Metrics(f gfx.Font) gfx.FontMetrics {
	face, err := r.fontFace(f, canvas.Black)
	if err != nil {
		r.logger.Warn("字体加载失败，使用等宽近似度量", "font", f.Name, "error", err)
		return gfx.FixedMetrics{Size: f.Size}
	}
	return faceMetrics{face: face}
}

// faceMetrics 把 canvas 的毫米度量换算为 pt。
type faceMetrics struct {
	face *canvas.FontFace
}

func (m faceMetrics) StringWidth(s string) float64 { return toPt(m.face.TextWidth(s)) }
func (m faceMetrics) Height() float64              { return toPt(m.face.Metrics().LineHeight) }
func (m faceMetrics) Ascent() float64              { return toPt(m.face.Metrics().Ascent) }

func (r *Renderer) fontFace(f gfx.Font, col color.Color) (*canvas.FontFace, error) {
	size := f.Size
	if size <= 0 {
		size = 10
	}
	family, style, err := r.ensureFontFamily(f)
	if err != nil {
		return nil, err
	}
	return family.Face(size, col, style, canvas.FontNormal), nil
}

func (r *Renderer) ensureFontFamily(f gfx.Font) (*canvas.FontFamily, canvas.FontStyle, error) {
	res := r.resolveFontResource(f)
	key := fontCacheKey(res)
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if entry, ok := r.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}

	style := parseFontStyle(res.Style)
	family := canvas.NewFontFamily(firstNonEmpty(res.Name, fonts.Default))
	err := r.loadFontIntoFamily(family, res, style)
	if err != nil && res.Fallback != "" {
		fb := r.resolveFontResource(gfx.Font{Name: res.Fallback, Style: f.Style})
		family = canvas.NewFontFamily(firstNonEmpty(fb.Name, fonts.Default))
		style = parseFontStyle(fb.Style)
		err = r.loadFontIntoFamily(family, fb, style)
	}
	if err != nil {
		fallback, fbErr := r.fallback()
		if fbErr != nil {
			return nil, canvas.FontRegular, err
		}
		r.logger.Warn("字体不可用，使用内置字体", "font", res.Name, "src", res.Src, "error", err)
		r.fontFamilies[key] = fallback
		return fallback.family, fallback.style, nil
	}

	entry := &fontFamilyEntry{family: family, style: style}
	r.fontFamilies[key] = entry
	return family, style, nil
}

// resolveFontResource 依次按报表字体资源、内置字体名、FontDir 中的文件解析字体。
// gfx.Font 的 Style 覆盖资源上声明的样式。
func (r *Renderer) resolveFontResource(f gfx.Font) layout.FontResource {
	res, ok := r.fonts[f.Name]
	if !ok {
		name := firstNonEmpty(f.Name, fonts.Default)
		res = layout.FontResource{Name: name, Src: "builtin:" + name, IsBuiltin: true}
		if _, err := fonts.Load(name); err != nil && r.fontDir != "" {
			res = layout.FontResource{Name: name, Src: findFontFile(r.fontDir, name)}
		}
	}
	if f.Style != "" {
		res.Style = f.Style
	}
	if res.IsBuiltin || strings.HasPrefix(res.Src, "builtin:") {
		// 内置字体的粗体/斜体是独立的字体文件。
		base := strings.TrimPrefix(res.Src, "builtin:")
		res.Src = "builtin:" + builtinVariant(base, parseFontStyle(res.Style))
		res.IsBuiltin = true
	}
	return res
}

func findFontFile(dir, name string) string {
	for _, ext := range []string{"", ".ttf", ".otf", ".woff2", ".woff"} {
		path := filepath.Join(dir, name+ext)
		if st, err := os.Stat(path); err == nil && !st.IsDir() {
			return path
		}
	}
	return filepath.Join(dir, name+".ttf")
}

// builtinVariant maps a builtin family and style to the face file carrying it.
func builtinVariant(base string, style canvas.FontStyle) string {
	family, _, _ := strings.Cut(strings.ToLower(base), "-")
	if family == "" {
		family = fonts.Default
	}
	bold := style&^canvas.FontItalic >= canvas.FontSemiBold
	italic := style&canvas.FontItalic != 0
	var candidates []string
	switch {
	case bold && italic:
		candidates = []string{family + "-bold-italic", family + "-bold"}
	case bold:
		candidates = []string{family + "-bold"}
	case italic:
		candidates = []string{family + "-italic"}
	}
	for _, name := range append(candidates, family) {
		if _, err := fonts.Load(name); err == nil {
			return name
		}
	}
	return base
}

func (r *Renderer) loadFontIntoFamily(family *canvas.FontFamily, font layout.FontResource, style canvas.FontStyle) error {
	data, err := r.loadFontBytes(font)
	if err != nil {
		return err
	}
	return family.LoadFont(data, 0, style)
}

func (r *Renderer) loadFontBytes(font layout.FontResource) ([]byte, error) {
	if font.Src == "" {
		return nil, fmt.Errorf("字体 %s 缺少 src", font.Name)
	}
	src := font.Src
	if strings.HasPrefix(src, "built-in:") || strings.HasPrefix(src, "builtin:") {
		return fonts.Load(src)
	}
	path := src
	if !filepath.IsAbs(path) {
		if r.baseDir == "" && r.fontDir == "" {
			return nil, fmt.Errorf("未指定资源目录时不允许直接使用字体路径：%s（请改用 builtin:）", src)
		}
		path = filepath.Join(firstNonEmpty(r.baseDir, r.fontDir), path)
	}
	return os.ReadFile(path)
}

func (r *Renderer) fallback() (*fontFamilyEntry, error) {
	if r.fallbackFace != nil {
		return r.fallbackFace, nil
	}
	data, err := fonts.Load(fonts.Default)
	if err != nil {
		return nil, err
	}
	family := canvas.NewFontFamily("folio-fallback")
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, err
	}
	r.fallbackFace = &fontFamilyEntry{family: family, style: canvas.FontRegular}
	return r.fallbackFace, nil
}

func parseFontStyle(style string) canvas.FontStyle {
	if style == "" {
		return canvas.FontRegular
	}
	s := strings.ToLower(style)
	result := canvas.FontRegular
	switch {
	case strings.Contains(s, "black"):
		result = canvas.FontBlack
	case strings.Contains(s, "extrabold"):
		result = canvas.FontExtraBold
	case strings.Contains(s, "semibold"), strings.Contains(s, "demibold"):
		result = canvas.FontSemiBold
	case strings.Contains(s, "bold"):
		result = canvas.FontBold
	case strings.Contains(s, "medium"):
		result = canvas.FontMedium
	case strings.Contains(s, "light"):
		result = canvas.FontLight
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") || strings.Contains(style, "I") {
		result |= canvas.FontItalic
	}
	if strings.Contains(style, "B") && !strings.Contains(s, "bold") {
		result = canvas.FontBold | (result & canvas.FontItalic)
	}
	return result
}

func fontCacheKey(font layout.FontResource) string {
	return fmt.Sprintf("%s|%s|%s", font.Name, font.Src, font.Style)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func toColor(c gfx.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}

// toPt 将毫米(mm)转换为点(pt)。
func toPt(mm float64) float64 { return mm * layout.MmToPt }

// toMm 将点(pt)转换为毫米(mm)。canvas 以毫米为坐标单位。
func toMm(pt float64) float64 { return pt * layout.PtToMm }
