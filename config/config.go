// Package config 读取渲染设置。文件为 TOML 格式，缺省的字段沿用 Default 的值。
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ByLCY/folio/band"
	"github.com/pelletier/go-toml/v2"
)

// ErrInvalidPolicy 表示 oversize_policy 不是 split/clip/skip/abort 之一。
var ErrInvalidPolicy = errors.New("无效的超高处理策略")

// Settings 是一次渲染的全局设置。长度字段使用 DSL 的长度写法（如 "18mm"、"12pt"）。
type Settings struct {
	MaxPages       int    `toml:"max_pages"`
	DisplayWarning bool   `toml:"display_warning"`
	OversizePolicy string `toml:"oversize_policy"`
	PageSize       string `toml:"page_size"`
	Margin         string `toml:"margin"`
	SectionGap     string `toml:"section_gap"`
	LogLevel       string `toml:"log_level"`
	FontDir        string `toml:"font_dir"`
}

func Default() Settings {
	return Settings{
		DisplayWarning: true,
		OversizePolicy: "split",
		PageSize:       "A4",
		Margin:         "18mm",
		SectionGap:     "0pt",
		LogLevel:       "info",
	}
}

// Load reads path on top of Default. An empty path returns the defaults.
func Load(path string) (Settings, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Settings{}, fmt.Errorf("无法打开配置文件 %s: %w", path, err)
	}
	defer f.Close()
	s, err := Parse(f)
	if err != nil {
		return Settings{}, fmt.Errorf("配置文件 %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes TOML settings from r; unknown keys are rejected.
func Parse(r io.Reader) (Settings, error) {
	s := Default()
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Settings{}, fmt.Errorf("未知的配置项:\n%s", strict.String())
		}
		return Settings{}, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s Settings) Validate() error {
	if s.MaxPages < 0 {
		return fmt.Errorf("max_pages 不能为负数: %d", s.MaxPages)
	}
	if _, err := s.Policy(); err != nil {
		return err
	}
	if _, err := s.Level(); err != nil {
		return err
	}
	return nil
}

func (s Settings) Policy() (band.OversizePolicy, error) {
	p, err := band.ParsePolicy(s.OversizePolicy)
	if err != nil {
		return band.PolicySplit, fmt.Errorf("%w: %q", ErrInvalidPolicy, s.OversizePolicy)
	}
	return p, nil
}

// Level parses log_level (debug/info/warn/error).
func (s Settings) Level() (slog.Level, error) {
	var l slog.Level
	if strings.TrimSpace(s.LogLevel) == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("无效的日志级别 %q", s.LogLevel)
	}
	return l, nil
}
