// Package xkeylock 提供基于 key 的进程内互斥锁。
//
// 按 xxhash 分片降低争用，条目在最后一个持有者或等待者离开时回收。
// xfilestore 用它串行化同一模型文件的读改写。
package xkeylock
