package xctx

import (
	"context"
	"log/slog"
)

// AppendConnAttrs 将 context 中的连接信息追加到现有切片。
// 只追加非空字段，传入预分配切片可避免热路径分配。
func AppendConnAttrs(attrs []slog.Attr, ctx context.Context) []slog.Attr {
	if ctx == nil {
		return attrs
	}
	if v := ConnID(ctx); v != "" {
		attrs = append(attrs, slog.String(KeyConnID, v))
	}
	if v := RemoteAddr(ctx); v != "" {
		attrs = append(attrs, slog.String(KeyRemoteAddr, v))
	}
	if v, ok := Worker(ctx); ok {
		attrs = append(attrs, slog.Int(KeyWorker, v))
	}
	return attrs
}

// ConnAttrs 从 context 提取连接信息，都为空时返回 nil。
func ConnAttrs(ctx context.Context) []slog.Attr {
	attrs := AppendConnAttrs(make([]slog.Attr, 0, connFieldCount), ctx)
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

// AppendTraceAttrs 将 context 中的追踪信息追加到现有切片。
func AppendTraceAttrs(attrs []slog.Attr, ctx context.Context) []slog.Attr {
	if ctx == nil {
		return attrs
	}
	if v := TraceID(ctx); v != "" {
		attrs = append(attrs, slog.String(KeyTraceID, v))
	}
	if v := SpanID(ctx); v != "" {
		attrs = append(attrs, slog.String(KeySpanID, v))
	}
	if v := TraceFlags(ctx); v != "" {
		attrs = append(attrs, slog.String(KeyTraceFlags, v))
	}
	return attrs
}

// TraceAttrs 从 context 提取追踪信息，都为空时返回 nil。
func TraceAttrs(ctx context.Context) []slog.Attr {
	attrs := AppendTraceAttrs(make([]slog.Attr, 0, traceFieldCount), ctx)
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}
