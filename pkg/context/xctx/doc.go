// Package xctx 提供连接级上下文字段的注入与提取。
//
// 每个被接受的 TCP 连接在进入 worker pool 之前会携带一组标识字段，
// 日志系统（xlog.EnrichHandler）和观测系统（xmetrics）从 context 中读取它们：
//
// 连接信息（Conn）：
//   - conn_id      : 连接标识（accept 时生成的 UUID）
//   - remote_addr  : 对端地址
//   - worker       : 正在处理该连接的 worker 序号（0..N-1）
//
// 追踪信息（Trace）：
//   - trace_id     : 追踪标识（W3C 规范，128-bit，十六进制）
//   - span_id      : 跨度标识（W3C 规范，64-bit，十六进制）
//   - trace_flags  : 追踪标志（W3C 规范，2 位十六进制）
//
// # 命名约定
//
//	WithXxx(ctx, value)    - 注入：将 value 写入 context
//	Xxx(ctx)               - 读取：缺失时返回零值
//	RequireXxx(ctx)        - 强制读取：缺失时返回错误
//
// Worker 是 int 字段，读取函数返回 (value, ok) 以区分"未设置"与 worker 0。
//
// # 哨兵错误
//
//	ErrNilContext     - context 为 nil
//	ErrMissingConnID  - conn_id 缺失
//	ErrMissingTraceID - trace_id 缺失
//	ErrInvalidWorker  - worker 序号为负数
package xctx
