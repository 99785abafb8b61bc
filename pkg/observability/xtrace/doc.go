// Package xtrace 从请求头中提取链路追踪信息并写入 xctx。
//
// 支持的请求头：
//   - traceparent：W3C Trace Context，格式 {version}-{trace-id}-{parent-id}-{trace-flags}
//   - X-Trace-ID / X-Span-ID：常见的自定义头，traceparent 有效时被覆盖
//
// 写入 xctx 后，xmetrics 的 OTel 观测器会把它作为远端父跨度。
package xtrace
