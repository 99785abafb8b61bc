package xrun

import (
	"log/slog"
	"os"
)

// Option 配置 Group 的选项函数。
type Option func(*groupOptions)

type groupOptions struct {
	logger          *slog.Logger
	name            string
	signals         []os.Signal
	noSignalHandler bool
	coordinator     *Coordinator
}

func defaultOptions() *groupOptions {
	return &groupOptions{
		logger: slog.Default(),
		name:   "xrun",
	}
}

// WithLogger 设置记录生命周期事件的日志记录器，默认 slog.Default()，nil 忽略。
func WithLogger(logger *slog.Logger) Option {
	return func(o *groupOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithName 设置 Group 名称，出现在日志的 group 字段中。默认 "xrun"。
func WithName(name string) Option {
	return func(o *groupOptions) {
		if name != "" {
			o.name = name
		}
	}
}

// WithSignals 设置监听的信号列表，默认 DefaultSignals()。
//
//	xrun.RunWithOptions(ctx, []xrun.Option{
//	    xrun.WithSignals([]os.Signal{syscall.SIGINT, syscall.SIGTERM}),
//	}, myService)
func WithSignals(signals []os.Signal) Option {
	// 创建时拷贝，调用方之后修改切片不影响配置
	copied := append([]os.Signal(nil), signals...)
	return func(o *groupOptions) {
		o.signals = copied
	}
}

// WithoutSignalHandler 禁用自动信号处理，调用方自行管理信号。
func WithoutSignalHandler() Option {
	return func(o *groupOptions) {
		o.noSignalHandler = true
	}
}

// WithCoordinator 使用外部创建的关闭协调器。
//
// 需要在 Group 之外观察关闭状态的组件（如监听器）应与 Group 共享同一个协调器。
// 未设置时 Group 自行创建。nil 忽略。
func WithCoordinator(c *Coordinator) Option {
	return func(o *groupOptions) {
		if c != nil {
			o.coordinator = c
		}
	}
}
