// Package xretry 基于 avast/retry-go/v5 提供带默认策略的重试。
//
// 默认 3 次、指数退避（50ms 起，上限 1s），ctx 取消或超时立即停止。
// 错误可以用 PermanentError / Unrecoverable 声明不可重试。
// xmessenger 的发布与重新订阅使用它处理 Redis 的瞬时故障。
package xretry
