// Package generator 把报表主体中的元素依次排入页面，生成完整的页面序列。
//
// 每一页先放置页眉与页脚区带，剩余区域自上而下排列主体元素；
// 元素报告还有剩余内容时换页继续。页码占位符 ${page}/${pages}
// 在全部分页完成后由 Generate 统一替换。
package generator

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/ByLCY/folio/band"
	"github.com/ByLCY/folio/cache"
	"github.com/ByLCY/folio/gfx"
	"github.com/ByLCY/folio/page"
	"github.com/ByLCY/folio/textflow"
	"golang.org/x/text/language"
)

// ErrMaxPages 记录在警告中：分页在达到最大页数后被截断。它不会作为错误返回。
var ErrMaxPages = errors.New("报表超过最大页数，后续内容已省略")

// Meta 保存文档元信息。
type Meta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}

// Report 是待分页的报表定义，尺寸单位为 pt。
type Report struct {
	Name       string
	Width      float64
	Height     float64
	Margin     gfx.Insets
	PageHeader *band.Band
	PageFooter *band.Band
	Body       []band.Element
	Data       any
	Vars       map[string]any
	Meta       Meta
}

// Options 控制一次分页。
type Options struct {
	MaxPages       int
	DisplayWarning bool
	Policy         band.OversizePolicy
	Lang           language.Tag
	Fonts          gfx.FontProvider
	Logger         *slog.Logger
}

// Document 是分页结果。
type Document struct {
	Pages     []*page.StylePage `json:"pages"`
	Meta      Meta              `json:"meta"`
	Warnings  []string          `json:"warnings,omitempty"`
	Truncated bool              `json:"truncated,omitempty"`
}

// Generator 驱动一个报表的分页。同一个 Generator 不能并发使用。
type Generator struct {
	report  *Report
	opts    Options
	metrics *cache.Metrics
	layouts *cache.Table[textflow.Key, textflow.Layout]

	warnings  []string
	truncated bool
}

func New(r *Report, opts Options) *Generator {
	fonts := opts.Fonts
	if fonts == nil {
		fonts = gfx.FixedProvider{}
	}
	return &Generator{
		report:  r,
		opts:    opts,
		metrics: cache.NewMetrics(fonts),
		layouts: cache.New[textflow.Key, textflow.Layout](),
	}
}

// Warnings returns the warnings collected by the last run.
func (g *Generator) Warnings() []string { return append([]string(nil), g.warnings...) }

// Truncated reports whether the last run stopped at the page limit.
func (g *Generator) Truncated() bool { return g.truncated }

func (g *Generator) log() *slog.Logger {
	l := g.opts.Logger
	if l == nil {
		l = slog.Default()
	}
	return l.With("report", g.report.Name)
}

func (g *Generator) warn(msg string, args ...any) {
	g.log().Warn(msg, args...)
	g.warnings = append(g.warnings, msg)
}

func (g *Generator) reset() {
	g.metrics.Clear()
	g.layouts.Clear()
	g.warnings = nil
	g.truncated = false
	r := g.report
	for _, e := range r.Body {
		e.Reset()
	}
	for _, b := range []*band.Band{r.PageHeader, r.PageFooter} {
		if b != nil {
			b.Reset()
		}
	}
}

// Pages 惰性地逐页分页。为了在最后一页上放置截断警告，序列总是比分页进度晚一页。
// 出错时产出 (nil, err) 并结束。
func (g *Generator) Pages(ctx context.Context) iter.Seq2[*page.StylePage, error] {
	return func(yield func(*page.StylePage, error) bool) {
		g.reset()
		body := g.report.Body
		var held *page.StylePage
		idx, cont, number := 0, false, 0

		for idx < len(body) || held == nil {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if g.opts.MaxPages > 0 && number >= g.opts.MaxPages {
				g.truncated = true
				break
			}
			p, bctx, err := g.newPage(number + 1)
			if err != nil {
				yield(nil, err)
				return
			}
			progress, stalledAtTop := false, false
			for idx < len(body) {
				e := body[idx]
				eb := e.Bounds()
				y := bctx.Y
				if !cont {
					y += eb.Y
				}
				if y >= bctx.Area.Bottom() && !bctx.AtTop() {
					break
				}
				w := eb.W
				if w <= 0 {
					w = bctx.Area.W - eb.X
				}
				area := gfx.Rect{X: bctx.Area.X + eb.X, Y: y, W: w, H: max(0, bctx.Area.Bottom()-y)}
				before := p.Len()
				res, err := e.Print(bctx, area)
				if err != nil {
					yield(nil, fmt.Errorf("第 %d 页元素 %s: %w", p.Number, e.ID(), err))
					return
				}
				if p.Len() > before || res.Height > 0 {
					progress = true
				}
				bctx.Y = min(y+res.Height, bctx.Area.Bottom())
				if res.More {
					cont = true
					stalledAtTop = bctx.MustFit(area)
					break
				}
				progress = true
				cont = false
				idx++
			}
			if !progress && idx < len(body) {
				if !stalledAtTop {
					// 元素从页中声明的位置开始放不下，丢弃这一空页并在新页页首重试。
					continue
				}
				// 空白页上也没有任何输出，换页只会重复同样的结果。
				g.warn("元素在空白页上没有输出，已跳过", "element", body[idx].ID(), "page", p.Number)
				idx++
				cont = false
				continue
			}
			number++
			if held != nil && !yield(held, nil) {
				return
			}
			held = p
		}

		if g.truncated {
			msg := fmt.Sprintf("%v（%d 页）", ErrMaxPages, g.opts.MaxPages)
			g.warn(msg, "max_pages", g.opts.MaxPages)
			if g.opts.DisplayWarning {
				g.stamp(held, msg)
			}
		}
		yield(held, nil)
	}
}

// Generate 完成全部分页并替换页码占位符。
func (g *Generator) Generate(ctx context.Context) (*Document, error) {
	doc := &Document{Meta: g.report.Meta}
	for p, err := range g.Pages(ctx) {
		if err != nil {
			return nil, err
		}
		doc.Pages = append(doc.Pages, p)
	}
	for _, p := range doc.Pages {
		p.ResolveTokens(len(doc.Pages))
	}
	doc.Warnings = g.Warnings()
	doc.Truncated = g.truncated
	g.log().Debug("分页完成", "pages", len(doc.Pages), "warnings", len(doc.Warnings))
	return doc, nil
}

// newPage 创建第 n 页并放置页眉页脚，返回主体区域上的打印上下文。
func (g *Generator) newPage(n int) (*page.StylePage, *band.Context, error) {
	r := g.report
	p := page.New(r.Width, r.Height, r.Margin)
	p.Number = n
	area := p.Content()
	bctx := &band.Context{
		Page:    p,
		Area:    area,
		Y:       area.Y,
		Data:    r.Data,
		Vars:    r.Vars,
		Fonts:   g.metrics,
		Logger:  g.log(),
		Policy:  g.opts.Policy,
		Lang:    g.opts.Lang,
		Layouts: g.layouts,
	}
	top, bottom := area.Y, area.Bottom()
	if b := r.PageHeader; b.Printable() {
		h := min(b.Height, area.H)
		if err := printFixed(bctx, b, gfx.Rect{X: area.X, Y: top, W: area.W, H: h}); err != nil {
			return nil, nil, fmt.Errorf("第 %d 页页眉: %w", n, err)
		}
		top += h
	}
	if b := r.PageFooter; b.Printable() {
		h := min(b.Height, bottom-top)
		if err := printFixed(bctx, b, gfx.Rect{X: area.X, Y: bottom - h, W: area.W, H: h}); err != nil {
			return nil, nil, fmt.Errorf("第 %d 页页脚: %w", n, err)
		}
		bottom -= h
	}
	bctx.Area = gfx.Rect{X: area.X, Y: top, W: area.W, H: max(0, bottom-top)}
	bctx.Y = top
	return p, bctx, nil
}

// printFixed 在固定区域内打印页眉或页脚，超出区域的内容被截断。
func printFixed(ctx *band.Context, b *band.Band, box gfx.Rect) error {
	saved := ctx.Area
	defer func() { ctx.Area = saved }()
	ctx.Area = box
	b.Reset()
	_, _, err := band.PrintFixedContainer(ctx, b, box, 0)
	return err
}

var warningColor = gfx.Color{R: 218, G: 30, B: 40}

// stamp 在页面内容区底部写一行警告。
func (g *Generator) stamp(p *page.StylePage, msg string) {
	font := gfx.Font{Size: 8}
	m := g.metrics.Metrics(font)
	c := p.Content()
	h := m.Height()
	p.Add(&page.TextPaintable{
		Box:     gfx.Rect{X: c.X, Y: c.Bottom() - h, W: c.W, H: h},
		Lines:   []page.TextLine{{Text: msg, Width: m.StringWidth(msg)}},
		Font:    font,
		Color:   warningColor,
		Ascent:  m.Ascent(),
		Align:   textflow.HLeft,
		Metrics: m,
	})
}
