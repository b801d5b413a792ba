// Package xmodel 定义模型仓库抽象及其通用组合。
//
// 核心类型：
//   - Model / Repository[T]：所有后端实现同一接口，阻塞方法都接受 context.Context
//   - MapRepository：基于 map 的并发安全仓库
//   - FallbackRepository：持久化 main 与缓存 fallback 的两级组合，
//     FindInBothAndSaveToFallback 对同一 id 的并发未命中只回源一次
//   - Async / Future / Executor：把同步仓库方法转为 Future，执行器基于 xpool
//   - Observe：为任意仓库加上 xmetrics span、xlog 失败日志与慢操作检测
//
// 约定：
//   - 模型不存在时返回 ErrNotFound（可用 errors.Is 判断），不返回零值加 nil
//   - FindAll / FindIDs 在仓库为空时返回空切片
//   - All / IDs 把 ForEach 适配为 range-over-func
package xmodel
