package xtrace

import (
	"context"
	"strings"

	"github.com/omeyang/tidepool/pkg/context/xctx"
)

// 请求头名称
const (
	HeaderTraceparent = "Traceparent"
	HeaderTraceID     = "X-Trace-ID"
	HeaderSpanID      = "X-Span-ID"
)

const (
	traceparentLen = 55
	zeroTraceID    = "00000000000000000000000000000000"
	zeroSpanID     = "0000000000000000"
)

// Carrier 按名称读取头部，http.Header 和 textproto.MIMEHeader 都满足
type Carrier interface {
	Get(key string) string
}

// Info 追踪信息，字段统一为小写十六进制
type Info struct {
	TraceID string
	SpanID  string
	Flags   string
}

// IsValid trace ID 和 span ID 都有效
func (i Info) IsValid() bool {
	return isTraceID(i.TraceID) && isSpanID(i.SpanID)
}

// Traceparent 生成 version 00 的 traceparent，无效时返回空。Flags 为空时按 "00"。
func (i Info) Traceparent() string {
	if !i.IsValid() {
		return ""
	}
	flags := i.Flags
	if !isFlags(flags) {
		flags = "00"
	}
	return "00-" + i.TraceID + "-" + i.SpanID + "-" + flags
}

// Extract 从头部提取追踪信息，无效的值被丢弃
func Extract(h Carrier) Info {
	if h == nil {
		return Info{}
	}
	if info, ok := ParseTraceparent(h.Get(HeaderTraceparent)); ok {
		return info
	}

	var info Info
	if id := strings.ToLower(strings.TrimSpace(h.Get(HeaderTraceID))); isTraceID(id) {
		info.TraceID = id
	}
	if id := strings.ToLower(strings.TrimSpace(h.Get(HeaderSpanID))); isSpanID(id) {
		info.SpanID = id
	}
	return info
}

// ParseTraceparent 解析 W3C traceparent。
//
// 版本 ff 无效；version 00 必须恰好 55 个字符；更高版本只取前 4 段。
func ParseTraceparent(s string) (Info, bool) {
	s = strings.TrimSpace(s)
	if len(s) < traceparentLen {
		return Info{}, false
	}
	parts := strings.SplitN(s, "-", 5)
	if len(parts) < 4 {
		return Info{}, false
	}

	version := strings.ToLower(parts[0])
	if len(version) != 2 || !isHex(version) || version == "ff" {
		return Info{}, false
	}
	if version == "00" && (len(s) != traceparentLen || len(parts) != 4) {
		return Info{}, false
	}

	info := Info{
		TraceID: strings.ToLower(parts[1]),
		SpanID:  strings.ToLower(parts[2]),
		Flags:   strings.ToLower(parts[3]),
	}
	if !info.IsValid() || !isFlags(info.Flags) {
		return Info{}, false
	}
	return info, true
}

// ContextWith 将有效字段写入 ctx，已有的值被覆盖
func ContextWith(ctx context.Context, info Info) context.Context {
	if ctx == nil {
		return ctx
	}
	if info.TraceID != "" {
		ctx, _ = xctx.WithTraceID(ctx, info.TraceID)
	}
	if info.SpanID != "" {
		ctx, _ = xctx.WithSpanID(ctx, info.SpanID)
	}
	if info.Flags != "" {
		ctx, _ = xctx.WithTraceFlags(ctx, info.Flags)
	}
	return ctx
}

// FromContext 读取 ctx 中的追踪信息
func FromContext(ctx context.Context) Info {
	return Info{
		TraceID: xctx.TraceID(ctx),
		SpanID:  xctx.SpanID(ctx),
		Flags:   xctx.TraceFlags(ctx),
	}
}

func isTraceID(s string) bool {
	return len(s) == 32 && isHex(s) && s != zeroTraceID
}

func isSpanID(s string) bool {
	return len(s) == 16 && isHex(s) && s != zeroSpanID
}

func isFlags(s string) bool {
	return len(s) == 2 && isHex(s)
}

// isHex 接受大小写，输出前已统一转小写
func isHex(s string) bool {
	if s == "" {
		return false
	}
	for i := range len(s) {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}
