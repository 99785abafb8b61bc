package xmetrics

import (
	"context"
	"strconv"
	"time"
)

// Kind 跨度类型
type Kind int

const (
	// KindInternal 内部操作
	KindInternal Kind = iota
	// KindServer 服务端处理
	KindServer
	// KindClient 客户端调用
	KindClient
)

// String 返回 Kind 的可读名称
func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "Internal"
	case KindServer:
		return "Server"
	case KindClient:
		return "Client"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Status 观测结果状态
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Attr 观测属性
type Attr struct {
	Key   string
	Value any
}

// String 字符串属性
func String(key, value string) Attr { return Attr{Key: key, Value: value} }

// Int 整数属性
func Int(key string, value int) Attr { return Attr{Key: key, Value: value} }

// Int64 int64 属性
func Int64(key string, value int64) Attr { return Attr{Key: key, Value: value} }

// Duration 时间间隔属性，按纳秒记录
func Duration(key string, value time.Duration) Attr { return Attr{Key: key, Value: value} }

// SpanOptions 跨度参数
type SpanOptions struct {
	Component string
	Operation string
	Kind      Kind
	Attrs     []Attr
}

// Result 跨度结束时的结果，Status 为空时根据 Err 推导
type Result struct {
	Status Status
	Err    error
	Attrs  []Attr
}

// Span 一次观测跨度
type Span interface {
	End(result Result)
}

// Observer 统一观测接口
type Observer interface {
	Start(ctx context.Context, opts SpanOptions) (context.Context, Span)
}

// NoopObserver 空实现
type NoopObserver struct{}

// Start 返回原 ctx 与空跨度
func (NoopObserver) Start(ctx context.Context, _ SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx, NoopSpan{}
}

// NoopSpan 空跨度
type NoopSpan struct{}

// End 不做任何处理
func (NoopSpan) End(Result) {}

// Start 使用 observer 开始观测
//
// 返回值保证非 nil：nil ctx 替换为 context.Background()，nil observer 或
// observer 返回 nil Span 时使用 [NoopSpan]。
func Start(ctx context.Context, observer Observer, opts SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	if observer == nil {
		return ctx, NoopSpan{}
	}
	retCtx, span := observer.Start(ctx, opts)
	if retCtx == nil {
		retCtx = ctx
	}
	if span == nil {
		span = NoopSpan{}
	}
	return retCtx, span
}
