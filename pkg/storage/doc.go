// Package storage 提供 xmodel.Repository 的各种后端实现。
//
// 子包列表：
//   - xmemstore: 进程内有界仓库，可选过期
//   - xfilestore: 每个模型一个 JSON 文件
//   - xboltstore: 基于 bbolt 的嵌入式持久化仓库
//   - xredisstore: 每个模型一个 Redis 哈希，可选近端缓存
//   - xmongostore: 每个模型一个 MongoDB 文档，以 _id 为键
//   - xcache: Redis 与内存缓存的封装，供 xredisstore 使用
//
// 远程后端（xredisstore、xmongostore）自带观测，其余后端可用 xmodel.Observe 包装。
package storage
