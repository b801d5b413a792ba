// Package xmongostore 把模型保存到 MongoDB 集合。
//
// 文档主键 _id 即模型 id，序列化结果缺少 _id 时自动补上：
//
//	coll := client.Database("app").Collection("users")
//	store, err := xmongostore.New(coll, serializeUser, deserializeUser,
//		xmongostore.WithInstrument(xmodel.WithSlowThreshold(100*time.Millisecond)),
//	)
//
// Save 使用 upsert 的 ReplaceOne 整体替换文档；FindIDs 只投影 _id；
// FindAll 与 ForEach 通过游标分批读取，批大小由 WithBatchSize 控制。
// Close 只释放观测资源，客户端的生命周期由调用方管理。
package xmongostore
