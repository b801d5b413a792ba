package xboltstore

import "errors"

var (
	// ErrNilDB 未提供数据库
	ErrNilDB = errors.New("xboltstore: nil db")

	// ErrEmptyBucket 桶名为空
	ErrEmptyBucket = errors.New("xboltstore: empty bucket name")

	// ErrNilCodec 未提供序列化或反序列化函数
	ErrNilCodec = errors.New("xboltstore: nil serializer or deserializer")

	// ErrBucketMissing 桶在打开后被外部删除
	ErrBucketMissing = errors.New("xboltstore: bucket missing")
)
