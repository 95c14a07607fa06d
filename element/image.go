package element

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/ByLCY/folio/band"
	"github.com/ByLCY/folio/gfx"
	"github.com/ByLCY/folio/page"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Image 是不可拆分的图片元素，图片在第一次打印时才解码。
type Image struct {
	Name string
	Box  gfx.Rect
	Src  string
	// Data 非空时优先于 Src。
	Data []byte

	img  image.Image
	err  error
	done bool
}

func (im *Image) ID() string              { return im.Name }
func (im *Image) Bounds() gfx.Rect        { return im.Box }
func (im *Image) Reset()                  { im.done = false }
func (im *Image) Rewind(p page.Paintable) { im.done = false }

func (im *Image) Clone() band.Element {
	return &Image{Name: im.Name, Box: im.Box, Src: im.Src, Data: im.Data, img: im.img, err: im.err}
}

// Decoded returns the decoded image, reading it on first use.
func (im *Image) Decoded() (image.Image, error) {
	if im.img != nil || im.err != nil {
		return im.img, im.err
	}
	data := im.Data
	if data == nil {
		b, err := os.ReadFile(im.Src)
		if err != nil {
			im.err = fmt.Errorf("读取图片 %s 失败: %w", im.Src, err)
			return nil, im.err
		}
		data = b
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		im.err = fmt.Errorf("解码图片 %s 失败: %w", im.Name, err)
		return nil, im.err
	}
	im.img = img
	return img, nil
}

func (im *Image) Print(ctx *band.Context, area gfx.Rect) (band.Result, error) {
	if im.done {
		return band.Result{}, nil
	}
	img, err := im.Decoded()
	if err != nil {
		return band.Result{}, err
	}
	r := gfx.Rect{X: area.X, Y: area.Y, W: im.Box.W, H: im.Box.H}
	if r.H > area.H+band.Tolerance {
		if !ctx.MustFit(area) {
			return band.Result{More: true}, nil
		}
		// 页首也放不下：只输出能放下的上半部分。
		img = cropTop(img, area.H/r.H)
		r.H = area.H
	}
	ctx.Page.Add(&page.ImagePaintable{Rect: r, Image: img, Name: im.Name, Source: im})
	im.done = true
	return band.Result{Height: r.H}, nil
}

func cropTop(img image.Image, frac float64) image.Image {
	sub, ok := img.(interface {
		SubImage(r image.Rectangle) image.Image
	})
	if !ok {
		return img
	}
	b := img.Bounds()
	b.Max.Y = b.Min.Y + max(1, int(float64(b.Dy())*frac))
	return sub.SubImage(b)
}
