package xpool

import (
	"log/slog"

	"github.com/omeyang/tidepool/pkg/observability/xmetrics"
)

// Option 定义 Pool 可选配置函数类型。
type Option func(*options)

type options struct {
	logger       *slog.Logger
	name         string
	logTaskValue bool
	observer     xmetrics.Observer
}

func defaultOptions() options {
	return options{
		logger: slog.Default(),
	}
}

// WithLogger 设置日志记录器，默认 slog.Default()，nil 被忽略。
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithName 设置 pool 名称，写入日志的 pool 字段和观测的 component。
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogTaskValue 失败日志中记录完整 task 值，默认只记录类型。
func WithLogTaskValue() Option {
	return func(o *options) {
		o.logTaskValue = true
	}
}

// WithObserver 为每个任务开启一次观测跨度，nil 被忽略。
func WithObserver(observer xmetrics.Observer) Option {
	return func(o *options) {
		if observer != nil {
			o.observer = observer
		}
	}
}
