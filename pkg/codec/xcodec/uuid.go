package xcodec

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// 详细 UUID 子文档的字段名
const (
	FieldMost  = "most"
	FieldLeast = "least"
)

// DetailedUUID 以高低 64 位表示的 UUID，兼容 {most, least} 形式的历史数据
type DetailedUUID struct {
	Most  int64
	Least int64
}

// FromUUID 拆分 UUID
func FromUUID(u uuid.UUID) DetailedUUID {
	return DetailedUUID{
		Most:  int64(binary.BigEndian.Uint64(u[:8])),
		Least: int64(binary.BigEndian.Uint64(u[8:])),
	}
}

// UUID 合并为 uuid.UUID
func (d DetailedUUID) UUID() uuid.UUID {
	var u uuid.UUID
	binary.BigEndian.PutUint64(u[:8], uint64(d.Most))
	binary.BigEndian.PutUint64(u[8:], uint64(d.Least))
	return u
}
