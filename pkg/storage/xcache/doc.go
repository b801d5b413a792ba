// Package xcache 提供两类缓存辅助：
//
//   - Redis：基于 SET NX 的分布式锁，token 由 uuid 生成，Lua 脚本校验后释放。
//     xredisstore 用它串行化跨进程的 Update。
//   - Memory：基于 ristretto 的进程内缓存，xredisstore 用它作为可选的近端缓存。
//
// 两者都只补充底层客户端缺少的能力，常规读写直接使用 Client()。
package xcache
