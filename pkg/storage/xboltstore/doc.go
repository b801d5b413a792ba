// Package xboltstore 提供基于 bbolt 的嵌入式持久仓库。
//
// 一个数据库文件可以承载多个仓库，每个仓库对应一个桶：
//
//	db, err := xboltstore.Open("/var/lib/app/data.db")
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//
//	users, err := xboltstore.New[*User](db, "users", userSerializer, userDeserializer)
//
// DeleteAndRetrieve 在单个写事务内完成，是原子的。遍历先在读事务内复制数据，
// 回调中可以继续读写同一仓库。
package xboltstore
