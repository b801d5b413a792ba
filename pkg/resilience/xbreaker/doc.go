// Package xbreaker 基于 [sony/gobreaker/v2] 的熔断器。
//
// 状态：
//   - StateClosed：请求正常通过，失败计入统计
//   - StateOpen：请求直接以 ErrOpenState 失败，Timeout 后进入半开
//   - StateHalfOpen：放行 MaxRequests 个探测请求
//
// Protect 把熔断器套在 xmodel.Repository 上，远程后端（Redis、MongoDB）
// 持续失败时快速失败而不是逐个等待超时：
//
//	b := xbreaker.New("redis:users", xbreaker.WithTimeout(10*time.Second))
//	repo, err := xbreaker.Protect(store, b)
//
// [sony/gobreaker/v2]: https://github.com/sony/gobreaker
package xbreaker
