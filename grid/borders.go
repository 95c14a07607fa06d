package grid

import "github.com/ByLCY/folio/gfx"

// 边框按网格线逐段绘制。每个顶点处：
//   - 水平线段占据顶点区域，左端从 x-hv 开始；没有后继线段时右端延伸到 x+hv，
//     否则停在 x-hv 交给后继线段；
//   - 垂直线段两端各让出 hh，不进入顶点区域。
// hv/hh 分别是顶点处最粗的垂直/水平线段的半线宽，这样任意两段笔画都不会重叠，
// 粗细不同的线交汇处也不会留缝。

// hBorder returns the border drawn on horizontal line i (0..rows) over column j.
func (g *GridPaintable) hBorder(i, j int) Border {
	var above, below Border
	if i < len(g.Heights) {
		or, oc, _, _ := g.origin(i, j)
		if or < i {
			return Border{}
		}
		below = g.Cells[or][oc].Borders[Top]
	}
	if i > 0 {
		or, oc, rows, _ := g.origin(i-1, j)
		if or+rows-1 > i-1 {
			return Border{}
		}
		above = g.Cells[or][oc].Borders[Bottom]
	}
	return heavier(below, above)
}

// vBorder returns the border drawn on vertical line j (0..cols) over row i.
func (g *GridPaintable) vBorder(i, j int) Border {
	var left, right Border
	if j < len(g.Widths) {
		or, oc, _, _ := g.origin(i, j)
		if oc < j {
			return Border{}
		}
		right = g.Cells[or][oc].Borders[Left]
	}
	if j > 0 {
		or, oc, _, cols := g.origin(i, j-1)
		if oc+cols-1 > j-1 {
			return Border{}
		}
		left = g.Cells[or][oc].Borders[Right]
	}
	return heavier(right, left)
}

func heavier(a, b Border) Border {
	if b.Style.Width() > a.Style.Width() {
		return b
	}
	return a
}

// vertexHalves returns the half widths of the widest vertical (hv) and
// horizontal (hh) segments meeting at vertex (i, j).
func (g *GridPaintable) vertexHalves(i, j int) (hv, hh float64) {
	rows, cols := len(g.Heights), len(g.Widths)
	if i > 0 {
		hv = max(hv, g.vBorder(i-1, j).Style.Width()/2)
	}
	if i < rows {
		hv = max(hv, g.vBorder(i, j).Style.Width()/2)
	}
	if j > 0 {
		hh = max(hh, g.hBorder(i, j-1).Style.Width()/2)
	}
	if j < cols {
		hh = max(hh, g.hBorder(i, j).Style.Width()/2)
	}
	return hv, hh
}

// Segment 是一段已经做过顶点修正的边框。
type Segment struct {
	X1, Y1, X2, Y2 float64
	Border
}

// Segments computes every border stroke of the region.
func (g *GridPaintable) Segments() []Segment {
	rows, cols := len(g.Heights), len(g.Widths)
	xs := offsets(g.X, g.Widths)
	ys := offsets(g.Y, g.Heights)
	var out []Segment
	for i := 0; i <= rows; i++ {
		for j := 0; j < cols; j++ {
			b := g.hBorder(i, j)
			if b.Style == gfx.LineNone {
				continue
			}
			hvL, _ := g.vertexHalves(i, j)
			hvR, _ := g.vertexHalves(i, j+1)
			x2 := xs[j+1] + hvR
			if j+1 < cols && g.hBorder(i, j+1).Style != gfx.LineNone {
				x2 = xs[j+1] - hvR
			}
			out = append(out, Segment{X1: xs[j] - hvL, Y1: ys[i], X2: x2, Y2: ys[i], Border: b})
		}
	}
	for j := 0; j <= cols; j++ {
		for i := 0; i < rows; i++ {
			b := g.vBorder(i, j)
			if b.Style == gfx.LineNone {
				continue
			}
			_, hhT := g.vertexHalves(i, j)
			_, hhB := g.vertexHalves(i+1, j)
			y1, y2 := ys[i]+hhT, ys[i+1]-hhB
			if y2 <= y1 {
				continue
			}
			out = append(out, Segment{X1: xs[j], Y1: y1, X2: xs[j], Y2: y2, Border: b})
		}
	}
	return out
}

func (g *GridPaintable) paintBorders(gr gfx.Graphics) {
	for _, s := range g.Segments() {
		gr.SetColor(s.Color)
		gr.DrawLine(s.X1, s.Y1, s.X2, s.Y2, s.Style)
	}
}

func offsets(start float64, sizes []float64) []float64 {
	out := make([]float64, len(sizes)+1)
	out[0] = start
	for i, s := range sizes {
		out[i+1] = out[i] + s
	}
	return out
}
