package xctx

import "context"

// 连接信息日志属性 Key
const (
	KeyConnID     = "conn_id"
	KeyRemoteAddr = "remote_addr"
	KeyWorker     = "worker"

	connFieldCount = 3
)

const (
	keyConnID     = contextKey("xctx:conn_id")
	keyRemoteAddr = contextKey("xctx:remote_addr")
	keyWorker     = contextKey("xctx:worker")
)

// WithConnID 将连接 ID 注入 context
func WithConnID(ctx context.Context, id string) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return context.WithValue(ctx, keyConnID, id), nil
}

// ConnID 从 context 提取连接 ID，不存在返回空字符串
func ConnID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(keyConnID).(string); ok {
		return v
	}
	return ""
}

// RequireConnID 从 context 获取连接 ID，不存在则返回 ErrMissingConnID
func RequireConnID(ctx context.Context) (string, error) {
	if ctx == nil {
		return "", ErrNilContext
	}
	v := ConnID(ctx)
	if v == "" {
		return "", ErrMissingConnID
	}
	return v, nil
}

// WithRemoteAddr 将对端地址注入 context
func WithRemoteAddr(ctx context.Context, addr string) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return context.WithValue(ctx, keyRemoteAddr, addr), nil
}

// RemoteAddr 从 context 提取对端地址，不存在返回空字符串
func RemoteAddr(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(keyRemoteAddr).(string); ok {
		return v
	}
	return ""
}

// WithWorker 将 worker 序号注入 context
//
// 负数返回 ErrInvalidWorker。
func WithWorker(ctx context.Context, worker int) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if worker < 0 {
		return nil, ErrInvalidWorker
	}
	return context.WithValue(ctx, keyWorker, worker), nil
}

// Worker 从 context 提取 worker 序号
//
// ok 为 false 表示未设置；worker 0 是合法值，不能用零值判断。
func Worker(ctx context.Context) (worker int, ok bool) {
	if ctx == nil {
		return 0, false
	}
	worker, ok = ctx.Value(keyWorker).(int)
	return worker, ok
}
