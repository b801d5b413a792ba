// Package xmetrics 提供统一的可观测性接口（metrics + tracing）。
//
// 仓储与消息组件只依赖 Observer/Span/Attr 接口，默认 NoopObserver，
// 需要时注入基于 OpenTelemetry 的实现。
//
//	obs, _ := xmetrics.NewOTelObserver()
//	ctx, span := xmetrics.Start(ctx, obs, xmetrics.SpanOptions{
//		Component: "xredisstore",
//		Operation: "find",
//		Kind:      xmetrics.KindClient,
//	})
//	defer span.End(xmetrics.Result{Err: err})
//
// # 指标
//
//   - xstore.operation.total
//   - xstore.operation.duration
//
// 属性：component / operation / status（ok、error、miss）。
package xmetrics
