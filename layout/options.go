package layout

import "log/slog"

// BuildOptions 配置构建阶段所需的外部输入。
type BuildOptions struct {
	// BaseDir 是相对路径（数据文件、图片）的基准目录。
	BaseDir string
	// Data 是绑定到 ${...} 与 data 段 path 的 JSON 数据。
	Data any
	// 以下为报表未声明时的默认值，使用 DSL 的长度写法。
	PageSize   string
	Margin     string
	SectionGap string
	Logger     *slog.Logger
}

func (o BuildOptions) log() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}
