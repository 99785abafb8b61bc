// Package xlog 基于 log/slog 的结构化日志库。
//
// # 核心功能
//
//   - Builder 模式配置（输出目标、级别、格式、轮转）
//   - 自动从 context 注入 conn_id、worker、trace_id 等（EnrichHandler，默认启用）
//   - 动态级别调整（配置热更新时调用 SetLevel）
//   - 全局 Logger 便利函数
//   - [Slog] 桥接：为只接受 *slog.Logger 的组件（xpool、xrun）提供同源 logger
//
// # 创建 Logger
//
// 使用 Builder 模式（first-error-wins：遇到第一个配置错误后 Build 返回该错误）：
//
//	logger, cleanup, err := xlog.New().
//	    SetLevelString("debug").
//	    SetFormat("json").
//	    SetRotation("/var/log/tidepool.log").
//	    Build()
//	if err != nil {
//	    return err
//	}
//	defer cleanup()
//
// # 日志级别
//
// LevelDebug(-4)、LevelInfo(0)、LevelWarn(4)、LevelError(8)。
// 可通过 [ParseLevel] 从字符串解析。Level 实现 encoding.TextUnmarshaler，
// 配置文件可直接反序列化。
//
// # 便捷属性
//
// [Err]、[Duration]、[Component]、[Operation]、[Count]、[StatusCode]、[Method]、[Path]、
// [Worker]、[ConnID]、[Bytes]。
//
// # EnrichHandler 注意事项
//
// 对启用了 enrich 的 logger 调用 WithGroup 后，注入字段会被归入 group 下。
package xlog
