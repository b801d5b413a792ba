// Package xlog 提供基于 log/slog 的结构化日志。
//
// 所有方法强制传入 context.Context，只接受 slog.Attr：
//
//	logger, cleanup, err := xlog.New().
//		SetLevelString("debug").
//		SetFormat("json").
//		SetRotation("/var/log/xstore/app.log").
//		Build()
//	if err != nil {
//		return err
//	}
//	defer cleanup()
//
//	logger.Info(ctx, "model saved", xlog.ModelID(id), xlog.Duration(d))
//
// 默认从 ctx 中有效的 OpenTelemetry span 提取并附加
// trace_id 和 span_id。级别可通过 SetLevel 在运行时调整，派生 logger 共享级别。
package xlog
