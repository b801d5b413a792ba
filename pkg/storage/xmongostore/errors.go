package xmongostore

import "errors"

var (
	// ErrNilCollection 未提供集合
	ErrNilCollection = errors.New("xmongostore: nil collection")

	// ErrNilCodec 未提供序列化或反序列化函数
	ErrNilCodec = errors.New("xmongostore: nil serializer or deserializer")

	// ErrIDMismatch 序列化结果中的 _id 与模型 id 不一致
	ErrIDMismatch = errors.New("xmongostore: document _id does not match model id")

	// ErrEmptyField FindByField 的字段名为空
	ErrEmptyField = errors.New("xmongostore: empty field name")
)
