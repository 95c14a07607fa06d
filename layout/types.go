package layout

import (
	"errors"
	"fmt"
	"io"

	"github.com/ByLCY/folio/generator"
	"github.com/ByLCY/folio/gfx"
	"github.com/ByLCY/folio/lens"
)

// 该文件定义构建结果与资源描述，供分页、渲染与调试 JSON 共用。

// ErrNoPage 表示报表中没有 page 段落。
var ErrNoPage = errors.New("报表中缺少 page 段落")

// BuildError 记录构建失败的组件，例如 "data items" 或 "section items/content"。
type BuildError struct {
	Component string
	Err       error
}

func (e *BuildError) Error() string { return fmt.Sprintf("%s: %v", e.Component, e.Err) }
func (e *BuildError) Unwrap() error { return e.Err }

func wrap(component string, err error) error {
	if err == nil {
		return nil
	}
	var be *BuildError
	if errors.As(err, &be) {
		return &BuildError{Component: component + "/" + be.Component, Err: be.Err}
	}
	return &BuildError{Component: component, Err: err}
}

// Definition 是从报表描述构建出的、可直接分页的报表。
type Definition struct {
	Report    *generator.Report
	Resources ResourceSet
	Sources   map[string]lens.TableLens
}

// Close releases data sources backed by files.
func (d *Definition) Close() error {
	var errs []error
	for _, src := range d.Sources {
		if c, ok := src.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
		if s, ok := src.(*lens.Summary); ok {
			if c, ok := s.Base().(io.Closer); ok {
				errs = append(errs, c.Close())
			}
		}
	}
	return errors.Join(errs...)
}

// ResourceSet 记录解析出的字体、颜色、图片与样式定义。
type ResourceSet struct {
	Fonts  map[string]FontResource  `json:"fonts"`
	Colors map[string]gfx.Color     `json:"colors"`
	Images map[string]ImageResource `json:"images"`
	Styles map[string]Style         `json:"styles"`
}

// FontResource 描述字体资源，src 可以是文件路径或 builtin:* 形式。
type FontResource struct {
	Name      string `json:"name"`
	Src       string `json:"src"`
	Style     string `json:"style"`
	IsBuiltin bool   `json:"isBuiltin"`
	Fallback  string `json:"fallback"`
}

// ImageResource 记录图片资源，宽高以 pt 保存。
type ImageResource struct {
	Name   string  `json:"name"`
	Src    string  `json:"src"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Style 用于描述可继承的属性集合。
type Style struct {
	Name    string            `json:"name"`
	Extends string            `json:"extends,omitempty"`
	Props   map[string]string `json:"props"`
}
