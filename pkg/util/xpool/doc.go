// Package xpool 提供泛型 worker pool。
//
// 在 xstore 中承担三类后台工作：
//   - xmodel 异步仓储的默认执行器
//   - xmessenger 监听器分发
//   - storageopt 慢操作异步钩子
//
// # 注意事项
//
//   - New 创建后自动启动 worker，无需手动 Start
//   - Submit 非阻塞，队列满返回 ErrQueueFull
//   - Close 等待队列排空；Shutdown(ctx) 支持超时，超时后可用 Done 等待残留 worker
//   - Close/Shutdown 不可在 handler 内调用，否则会死锁
//   - panic 的任务只记录日志，不会重试
package xpool
