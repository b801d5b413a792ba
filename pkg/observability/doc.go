// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog 扩展
//   - xmetrics: 统一观测接口与 OpenTelemetry 实现
//   - xrotate: 日志文件轮转
//
// 存储后端与消息组件通过 xmetrics.Observer 上报 span 和指标，
// xlog 自动从 context 中提取 trace_id 注入日志。
package observability
