// Package util 提供通用工具相关的子包。
//
// 子包列表：
//   - xfile: 安全路径拼接与原子写文件
//   - xkeylock: 基于 key 的进程内互斥锁，支持 context 超时
//   - xlru: 泛型 LRU 缓存，可选 TTL 过期
//   - xpool: 泛型 Worker Pool，可配置 worker 数与队列长度
package util
