// Package xfilestore 提供每个模型一个 JSON 文件的本地仓库。
//
// 模型 id 直接作为文件名，含路径分隔符、空字节或等于 "." ".." 的 id 会被拒绝，
// 返回 [ErrInvalidID]。文件内容由调用方提供的 xcodec 序列化函数决定：
//
//	store, err := xfilestore.New[*User]("/var/lib/app/users",
//		userSerializer, userDeserializer,
//		xfilestore.WithPrettyPrinting(true),
//	)
//
// 列举时忽略子目录、非 .json 文件以及原子写入产生的临时文件。
package xfilestore
