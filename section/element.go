package section

import (
	"github.com/ByLCY/folio/band"
	"github.com/ByLCY/folio/gfx"
	"github.com/ByLCY/folio/lens"
	"github.com/ByLCY/folio/page"
)

// Element 把分节作为报表主体中的一个元素，宽度与横向位置取自声明的边界。
type Element struct {
	Name   string
	Box    gfx.Rect
	Engine *Engine
	lens   lens.TableLens
}

// NewElement binds def to l (nil prints one pseudo row) and wraps it as an element.
func NewElement(name string, box gfx.Rect, def *Section, l lens.TableLens) (*Element, error) {
	e := &Element{Name: name, Box: box, Engine: New(def), lens: l}
	if err := e.Engine.Bind(l); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Element) ID() string       { return e.Name }
func (e *Element) Bounds() gfx.Rect { return e.Box }
func (e *Element) Reset()           { e.Engine.ResetPrint() }

// Rewind 分节元素的回退由引擎自身的游标负责，这里不需要额外处理。
func (e *Element) Rewind(page.Paintable) {}

func (e *Element) Print(ctx *band.Context, area gfx.Rect) (band.Result, error) {
	savedArea, savedY := ctx.Area, ctx.Y
	defer func() { ctx.Area, ctx.Y = savedArea, savedY }()

	ctx.Area = gfx.Rect{X: area.X, Y: savedArea.Y, W: area.W, H: area.Bottom() - savedArea.Y}
	ctx.Y = area.Y
	more, err := e.Engine.Print(ctx)
	if err != nil {
		return band.Result{}, err
	}
	return band.Result{Height: ctx.Y - area.Y, More: more}, nil
}

func (e *Element) Clone() band.Element {
	out := &Element{Name: e.Name, Box: e.Box, Engine: New(e.Engine.Def().Clone()), lens: e.lens}
	if e.lens != nil {
		// 定义已经通过校验，绑定同一数据源不会失败。
		_ = out.Engine.Bind(e.lens)
	}
	out.Engine.Logger = e.Engine.Logger
	return out
}
