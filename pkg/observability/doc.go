// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog 扩展
//   - xtrace: 从请求头提取 W3C traceparent 等追踪信息
//   - xmetrics: 统一观测接口，OpenTelemetry 实现
//   - xsampling: 按 key 一致的采样策略
//   - xrotate: 日志文件轮转
//
// 设计原则：
//   - 遵循 OpenTelemetry 语义规范
//   - 自动从 context 中提取追踪信息注入日志
package observability
