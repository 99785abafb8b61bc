// Package xmetrics 提供统一的观测接口（metrics + tracing）。
//
// 业务代码只依赖 Observer/Span/Attr；默认实现基于 OpenTelemetry。
//
//	obs, _ := xmetrics.NewOTelObserver()
//	ctx, span := xmetrics.Start(ctx, obs, xmetrics.SpanOptions{
//		Component: "static",
//		Operation: "serve",
//		Kind:      xmetrics.KindServer,
//	})
//	defer span.End(xmetrics.Result{Err: err})
//
// # 指标
//
//   - tidepool.operation.total（计数）
//   - tidepool.operation.duration（秒，直方图）
//
// 属性统一为 component / operation / status。
// 跨度开始后 trace_id、span_id 会同步写入 xctx，日志可直接关联。
package xmetrics
