package xlog

import (
	"io"
	"log/slog"
)

// Slog 返回与 l 共享 handler 和级别的 *slog.Logger
//
// 用于只接受 *slog.Logger 的组件（xpool、xrun）。
// 非 Build 产生的 Logger 返回 slog.Default()。
func Slog(l Logger) *slog.Logger {
	if xl, ok := l.(*xlogger); ok {
		return slog.New(xl.handler)
	}
	return slog.Default()
}

// Discard 返回丢弃全部输出的 Logger，用于测试或禁用日志的场景
func Discard() LoggerWithLevel {
	l, _, _ := New().SetOutput(io.Discard).SetLevel(LevelError + 4).Build()
	return l
}

