package renderer

import (
	"github.com/ByLCY/folio/generator"
	"github.com/ByLCY/folio/gfx"
)

// Renderer 将分页结果输出为最终文件，例如 PDF 或图像。
// Render 返回生成的二进制数据（例如 PDF 字节切片）以及可能的错误。
type Renderer interface {
	Render(doc *generator.Document) ([]byte, error)
}

// Typesetter 是同时提供字体度量的渲染器。分页时使用它的度量，
// 保证排版与最终绘制使用同一套字形。
type Typesetter interface {
	Renderer
	gfx.FontProvider
}
