package xctx

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

// Trace Key 常量，遵循 OpenTelemetry 语义约定（下划线分隔）
const (
	KeyTraceID    = "trace_id"
	KeySpanID     = "span_id"
	KeyTraceFlags = "trace_flags"

	traceFieldCount = 3
)

const (
	keyTraceID    = contextKey("xctx:trace_id")
	keySpanID     = contextKey("xctx:span_id")
	keyTraceFlags = contextKey("xctx:trace_flags")
)

// WithTraceID 将 trace ID 注入 context
func WithTraceID(ctx context.Context, traceID string) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return context.WithValue(ctx, keyTraceID, traceID), nil
}

// TraceID 从 context 提取 trace ID，不存在返回空字符串
func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(keyTraceID).(string); ok {
		return v
	}
	return ""
}

// RequireTraceID 从 context 获取 trace ID，不存在则返回 ErrMissingTraceID
func RequireTraceID(ctx context.Context) (string, error) {
	if ctx == nil {
		return "", ErrNilContext
	}
	v := TraceID(ctx)
	if v == "" {
		return "", ErrMissingTraceID
	}
	return v, nil
}

// EnsureTraceID 确保 context 中存在 trace ID
//
// 已存在则原样返回；否则生成 W3C 格式（32 位小写十六进制）的随机 ID 并注入。
func EnsureTraceID(ctx context.Context) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if TraceID(ctx) != "" {
		return ctx, nil
	}
	return WithTraceID(ctx, randomHex(16))
}

// WithSpanID 将 span ID 注入 context
func WithSpanID(ctx context.Context, spanID string) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return context.WithValue(ctx, keySpanID, spanID), nil
}

// SpanID 从 context 提取 span ID，不存在返回空字符串
func SpanID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(keySpanID).(string); ok {
		return v
	}
	return ""
}

// WithTraceFlags 将 trace flags 注入 context
//
// 格式: 2 位十六进制字符串（"01" 表示已采样，"00" 表示未采样）。
func WithTraceFlags(ctx context.Context, flags string) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return context.WithValue(ctx, keyTraceFlags, flags), nil
}

// TraceFlags 从 context 提取 trace flags，不存在返回空字符串
func TraceFlags(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(keyTraceFlags).(string); ok {
		return v
	}
	return ""
}

// randomHex 生成 n 字节随机数的十六进制表示。
// Go 1.24 起 crypto/rand.Read 不返回错误。
func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
