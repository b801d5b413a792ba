// Package xredisstore 提供以 Redis 哈希保存模型的仓库。
//
// 每个模型对应 key <table>:<id>，序列化后的 JSON 对象的每个顶层成员存为
// 一个哈希字段，值为该成员的原始 JSON 文本：
//
//	cache, _ := xcache.NewRedis(client)
//	players, err := xredisstore.New[*Player](cache, "players",
//		playerSerializer, playerDeserializer,
//		xredisstore.WithExpireAfterSave(24*time.Hour),
//		xredisstore.WithExpireAfterAccess(time.Hour),
//	)
//
// Save 在事务内先 DEL 再 HSET，DeleteAndRetrieve 在事务内 HGETALL + DEL。
// 列举与批量删除使用 SCAN，不会阻塞 Redis。Update 通过 xcache 分布式锁做
// 跨进程的读改写。
package xredisstore
