package element

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ByLCY/folio/band"
	"github.com/ByLCY/folio/gfx"
	"github.com/ByLCY/folio/lens"
	"github.com/ByLCY/folio/page"
	"github.com/tiendc/go-deepcopy"
)

// ChartData 是图表绑定时从数据源复制出的快照。
type ChartData struct {
	Labels []string    `json:"labels"`
	Names  []string    `json:"names"`
	Series [][]float64 `json:"series"` // Series[i][j] 为第 i 个系列在第 j 个标签上的值
}

// Max returns the largest value across all series, or 0.
func (d ChartData) Max() float64 {
	m := 0.0
	for _, s := range d.Series {
		for _, v := range s {
			m = max(m, v)
		}
	}
	return m
}

// ChartPainter 在 box 内绘制图表。
type ChartPainter func(g gfx.Graphics, box gfx.Rect, data ChartData, colors []gfx.Color)

var (
	paintersMu sync.RWMutex
	painters   = map[string]ChartPainter{"bar": paintBar}
)

// RegisterPainter makes a chart kind available by name, replacing any previous painter.
func RegisterPainter(kind string, p ChartPainter) {
	paintersMu.Lock()
	defer paintersMu.Unlock()
	painters[kind] = p
}

// Painters lists the registered chart kinds in sorted order.
func Painters() []string {
	paintersMu.RLock()
	defer paintersMu.RUnlock()
	out := make([]string, 0, len(painters))
	for k := range painters {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func lookupPainter(kind string) (ChartPainter, bool) {
	paintersMu.RLock()
	defer paintersMu.RUnlock()
	p, ok := painters[kind]
	return p, ok
}

// Chart 是不可拆分的图表元素。
type Chart struct {
	Name   string
	Box    gfx.Rect
	Kind   string
	Lens   lens.TableLens `copy:"-"`
	Label  string
	Values []string
	Colors []gfx.Color

	data ChartData `copy:"-"`
	done bool      `copy:"-"`
}

func (c *Chart) ID() string              { return c.Name }
func (c *Chart) Bounds() gfx.Rect        { return c.Box }
func (c *Chart) Reset()                  { c.done = false }
func (c *Chart) Rewind(p page.Paintable) { c.done = false }

func (c *Chart) Clone() band.Element {
	out := &Chart{}
	if err := deepcopy.Copy(out, c); err != nil {
		panic(fmt.Sprintf("element: clone chart %s: %v", c.Name, err))
	}
	out.Lens = c.Lens
	return out
}

// Snapshot copies the bound columns out of the lens.
func (c *Chart) Snapshot() (ChartData, error) {
	if c.Lens == nil {
		return ChartData{}, fmt.Errorf("图表 %s 没有绑定数据源", c.Name)
	}
	label := lens.ColumnIndex(c.Lens, c.Label)
	if label < 0 {
		return ChartData{}, fmt.Errorf("图表 %s: 数据源中没有列 %q", c.Name, c.Label)
	}
	vals := make([]int, len(c.Values))
	for i, name := range c.Values {
		if vals[i] = lens.ColumnIndex(c.Lens, name); vals[i] < 0 {
			return ChartData{}, fmt.Errorf("图表 %s: 数据源中没有列 %q", c.Name, name)
		}
	}
	d := ChartData{Names: append([]string(nil), c.Values...), Series: make([][]float64, len(vals))}
	gt, _ := c.Lens.(lens.GrandTotaler)
	for r := c.Lens.HeaderRowCount(); c.Lens.MoreRows(r); r++ {
		if gt != nil && gt.IsGrandTotal(r) {
			continue
		}
		d.Labels = append(d.Labels, lens.Text(c.Lens.Object(r, label)))
		for i, col := range vals {
			v, _ := lens.Number(c.Lens.Object(r, col))
			d.Series[i] = append(d.Series[i], v)
		}
	}
	return d, lens.Err(c.Lens)
}

func (c *Chart) Print(ctx *band.Context, area gfx.Rect) (band.Result, error) {
	if c.done {
		return band.Result{}, nil
	}
	painter, ok := lookupPainter(c.Kind)
	if !ok {
		return band.Result{}, fmt.Errorf("图表 %s: 未注册的图表类型 %q", c.Name, c.Kind)
	}
	if c.Box.H > area.H+band.Tolerance && !ctx.MustFit(area) {
		return band.Result{More: true}, nil
	}
	data, err := c.Snapshot()
	if err != nil {
		return band.Result{}, err
	}
	c.data = data
	r := gfx.Rect{X: area.X, Y: area.Y, W: c.Box.W, H: min(c.Box.H, area.H)}
	ctx.Page.Add(&ChartPaintable{Rect: r, Data: data, Colors: c.Colors, painter: painter, Source: c})
	c.done = true
	return band.Result{Height: r.H}, nil
}

// ChartPaintable 保存图表数据快照，绘制时才调用注册的绘制函数。
type ChartPaintable struct {
	Rect   gfx.Rect      `json:"rect"`
	Data   ChartData     `json:"data"`
	Colors []gfx.Color   `json:"-"`
	Source page.Rewinder `json:"-"`

	painter ChartPainter
}

func (p *ChartPaintable) Bounds() gfx.Rect     { return p.Rect }
func (p *ChartPaintable) Owner() page.Rewinder { return p.Source }
func (p *ChartPaintable) Kind() string         { return "chart" }
func (p *ChartPaintable) Paint(g gfx.Graphics) { p.painter(g, p.Rect, p.Data, p.Colors) }

var defaultColors = []gfx.Color{
	{R: 15, G: 98, B: 254},
	{R: 218, G: 30, B: 40},
	{R: 36, G: 161, B: 72},
	{R: 241, G: 194, B: 27},
}

// paintBar 画分组柱状图：每个标签一组，每个系列一根柱子。
func paintBar(g gfx.Graphics, box gfx.Rect, data ChartData, colors []gfx.Color) {
	if len(colors) == 0 {
		colors = defaultColors
	}
	g.SetColor(gfx.Black)
	g.DrawLine(box.X, box.Bottom(), box.Right(), box.Bottom(), gfx.LineThin)
	top := data.Max()
	if top <= 0 || len(data.Labels) == 0 || len(data.Series) == 0 {
		return
	}
	slot := box.W / float64(len(data.Labels))
	bar := slot * 0.8 / float64(len(data.Series))
	for j := range data.Labels {
		x := box.X + float64(j)*slot + slot*0.1
		for i, s := range data.Series {
			h := max(0, s[j]) / top * box.H
			g.SetColor(colors[i%len(colors)])
			g.FillRect(gfx.Rect{X: x + float64(i)*bar, Y: box.Bottom() - h, W: bar, H: h})
		}
	}
}
