package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/ByLCY/folio/config"
	"github.com/ByLCY/folio/dsl"
	"github.com/ByLCY/folio/generator"
	"github.com/ByLCY/folio/layout"
	canvasrenderer "github.com/ByLCY/folio/renderer/canvas"
)

// options 汇总命令行参数，未设置的项沿用配置文件。
type options struct {
	input    string
	output   string
	pngDir   string
	debug    string
	data     string
	config   string
	lang     string
	maxPages int
	policy   string
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "folio",
		Short:        "分页报表生成工具",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.input, "in", "examples/demo.folio", "报表描述文件路径")
	root.PersistentFlags().StringVar(&opts.data, "data", "", "绑定到报表的 JSON 数据，以 @ 开头时读取文件")
	root.PersistentFlags().StringVar(&opts.config, "config", "", "TOML 配置文件")
	root.PersistentFlags().StringVar(&opts.lang, "lang", "", "数值格式使用的语言，如 zh-CN")
	root.PersistentFlags().IntVar(&opts.maxPages, "max-pages", -1, "最大页数，0 表示不限制（默认取配置）")
	root.PersistentFlags().StringVar(&opts.policy, "policy", "", "超高区带处理策略：split/clip/skip/abort")

	render := &cobra.Command{
		Use:   "render",
		Short: "生成 PDF，可选输出每页 PNG",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}
	render.Flags().StringVar(&opts.output, "out", "output/report.pdf", "PDF 输出路径")
	render.Flags().StringVar(&opts.pngDir, "png", "", "PNG 输出目录")
	render.Flags().StringVar(&opts.debug, "debug", "", "分页调试 JSON 输出路径")

	var debugOut string
	debug := &cobra.Command{
		Use:   "debug",
		Short: "只分页并输出调试 JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			o := *opts
			o.output, o.pngDir, o.debug = "", "", debugOut
			return run(cmd.Context(), &o)
		},
	}
	debug.Flags().StringVar(&debugOut, "out", "-", "调试 JSON 输出路径，- 表示标准输出")

	root.AddCommand(render, debug)
	return root
}

// run 串联配置、解析、构建、分页与渲染。
func run(ctx context.Context, opts *options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	settings, err := config.Load(opts.config)
	if err != nil {
		return err
	}
	if opts.maxPages >= 0 {
		settings.MaxPages = opts.maxPages
	}
	if opts.policy != "" {
		settings.OversizePolicy = opts.policy
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	logger, err := newLogger(settings)
	if err != nil {
		return err
	}
	policy, err := settings.Policy()
	if err != nil {
		return err
	}
	lang := language.Und
	if opts.lang != "" {
		if lang, err = language.Parse(opts.lang); err != nil {
			return fmt.Errorf("无效的语言 %q: %w", opts.lang, err)
		}
	}
	data, err := loadData(opts.data)
	if err != nil {
		return err
	}

	file, err := os.Open(opts.input)
	if err != nil {
		return fmt.Errorf("无法打开报表文件 %s: %w", opts.input, err)
	}
	defer file.Close()
	doc, err := dsl.Parse(file)
	if err != nil {
		return fmt.Errorf("解析报表失败: %w", err)
	}

	baseDir := filepath.Dir(opts.input)
	def, err := layout.Build(doc, layout.BuildOptions{
		BaseDir:    baseDir,
		Data:       data,
		PageSize:   settings.PageSize,
		Margin:     settings.Margin,
		SectionGap: settings.SectionGap,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("构建报表失败: %w", err)
	}
	defer def.Close()

	r := canvasrenderer.New(canvasrenderer.Options{
		BaseDir: baseDir,
		FontDir: settings.FontDir,
		Fonts:   def.Resources.Fonts,
		Logger:  logger,
	})
	gen := generator.New(def.Report, generator.Options{
		MaxPages:       settings.MaxPages,
		DisplayWarning: settings.DisplayWarning,
		Policy:         policy,
		Lang:           lang,
		Fonts:          r,
		Logger:         logger,
	})
	result, err := gen.Generate(ctx)
	if err != nil {
		return fmt.Errorf("分页失败: %w", err)
	}
	for _, w := range result.Warnings {
		logger.Warn(w)
	}

	if opts.debug != "" {
		if err := writeDebug(result, opts.debug); err != nil {
			return err
		}
	}
	if opts.output != "" {
		if err := writePDF(r, result, opts.output); err != nil {
			return err
		}
		logger.Info("已生成 PDF", "path", opts.output, "pages", len(result.Pages))
	}
	if opts.pngDir != "" {
		paths, err := r.WritePNGs(result, opts.pngDir)
		if err != nil {
			return fmt.Errorf("输出 PNG 失败: %w", err)
		}
		logger.Info("已生成 PNG", "dir", opts.pngDir, "files", len(paths))
	}
	return nil
}

func newLogger(s config.Settings) (*slog.Logger, error) {
	level, err := s.Level()
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}

// loadData 解析 --data：JSON 文本，或 @path 指向的 JSON 文件。
func loadData(arg string) (any, error) {
	if arg == "" {
		return nil, nil
	}
	raw := []byte(arg)
	if path, ok := strings.CutPrefix(arg, "@"); ok {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取数据文件失败: %w", err)
		}
		raw = b
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("解析 data JSON 失败: %w", err)
	}
	return v, nil
}

func writePDF(r *canvasrenderer.Renderer, doc *generator.Document, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	pdfBytes, err := r.Render(doc)
	if err != nil {
		return fmt.Errorf("渲染 PDF 失败: %w", err)
	}
	if err := os.WriteFile(path, pdfBytes, 0o644); err != nil {
		return fmt.Errorf("写入 PDF 文件失败: %w", err)
	}
	return nil
}

func writeDebug(doc *generator.Document, path string) error {
	if path == "-" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(doc, path); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
