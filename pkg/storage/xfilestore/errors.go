package xfilestore

import "errors"

var (
	// ErrInvalidID id 无法安全地映射为文件名
	ErrInvalidID = errors.New("xfilestore: invalid model id")

	// ErrNilCodec 未提供序列化或反序列化函数
	ErrNilCodec = errors.New("xfilestore: nil serializer or deserializer")
)
