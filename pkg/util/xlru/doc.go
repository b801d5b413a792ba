// Package xlru 封装 hashicorp/golang-lru/v2 的 expirable LRU。
//
// 在原库基础上补充了参数校验、Close 后的安全降级，以及
// 停止后台过期清理 goroutine 的能力。xmemstore 以它作为存储。
package xlru
