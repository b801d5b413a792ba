package xredisstore

import "errors"

var (
	// ErrNilCache 未提供 xcache.Redis
	ErrNilCache = errors.New("xredisstore: nil redis cache")

	// ErrEmptyTable 表名为空
	ErrEmptyTable = errors.New("xredisstore: empty table name")

	// ErrInvalidTable 表名含 ':'，会与其他表的 key 前缀重叠
	ErrInvalidTable = errors.New("xredisstore: table name must not contain ':'")

	// ErrNilCodec 未提供序列化或反序列化函数
	ErrNilCodec = errors.New("xredisstore: nil serializer or deserializer")

	// ErrEmptyDocument 序列化结果没有任何字段，Redis 无法保存空哈希
	ErrEmptyDocument = errors.New("xredisstore: document has no fields")

	// ErrNilUpdate Update 的回调为 nil
	ErrNilUpdate = errors.New("xredisstore: nil update func")
)
