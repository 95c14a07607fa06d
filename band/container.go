package band

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/ByLCY/folio/gfx"
)

// PrintFixedContainer 按声明的纵向位置依次打印区带中尚未完成的元素。
//
// box 是区带在本页上可用的矩形（页面坐标），offset 是区带在之前页面上已经占用的高度。
// 元素在区带坐标中的顶部减去 offset 即为它在 box 中的位置；前面的元素长高时，
// 位于其下方的元素随之下移；仍有剩余内容的元素会挡住其下方的元素直到下一页。
// 返回填充状态以及内容底部相对 box.Y 的距离。
func PrintFixedContainer(ctx *Context, b *Band, box gfx.Rect, offset float64) (FillStatus, float64, error) {
	b.ensureState()
	order := make([]int, len(b.Elements))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(x, y int) int {
		bx, by := b.Elements[x].Bounds(), b.Elements[y].Bounds()
		if c := cmp.Compare(bx.Y, by.Y); c != 0 {
			return c
		}
		return cmp.Compare(bx.X, by.X)
	})

	status := Completed
	bottom := 0.0
	blocked := math.Inf(1)
	for _, i := range order {
		if b.done[i] {
			continue
		}
		e := b.Elements[i]
		eb := e.Bounds()
		if eb.Y >= blocked {
			status = max(status, MoreFlow)
			continue
		}
		y := max(eb.Y+b.push(i)-offset, 0)
		if y >= box.H {
			status = max(status, MoreFlow)
			continue
		}
		area := gfx.Rect{X: box.X + eb.X, Y: box.Y + y, W: eb.W, H: box.H - y}
		res, err := e.Print(ctx, area)
		if err != nil {
			return status, bottom, fmt.Errorf("区带 %s 元素 %s: %w", b.Name, e.ID(), err)
		}
		b.printBounds[i] = gfx.Rect{X: eb.X, Y: offset + y, W: eb.W, H: res.Height}
		bottom = max(bottom, y+res.Height)
		if res.More {
			status = MoreElem
			blocked = min(blocked, eb.Bottom())
			continue
		}
		b.done[i] = true
	}
	return status, bottom, nil
}

// push returns how far element i moves down because elements declared
// entirely above it grew past their declared bottom.
func (b *Band) push(i int) float64 {
	top := b.Elements[i].Bounds().Y
	shift := 0.0
	for j, e := range b.Elements {
		pb := b.printBounds[j]
		if j == i || pb == (gfx.Rect{}) {
			continue
		}
		eb := e.Bounds()
		if eb.Bottom() > top {
			continue
		}
		shift = max(shift, pb.Bottom()-eb.Bottom())
	}
	return shift
}
