package xcodec

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Reader 在 Source 之上提供类型化的字段读取
//
// 数值与布尔字段缺失时返回零值；其余读取用 ok 区分缺失。
type Reader[D any] struct {
	src Source[D]
}

// NewReader 包装 Source
func NewReader[D any](src Source[D]) *Reader[D] {
	return &Reader[D]{src: src}
}

// Raw 返回底层文档
func (r *Reader[D]) Raw() D { return r.src.Raw() }

// Has 字段是否存在
func (r *Reader[D]) Has(field string) bool { return r.src.Has(field) }

// ReadThis 读取子文档
func (r *Reader[D]) ReadThis(field string) (D, bool) { return r.src.Document(field) }

// ReadReader 读取子文档并包装为 Reader
func (r *Reader[D]) ReadReader(field string) (*Reader[D], bool) {
	doc, ok := r.src.Document(field)
	if !ok {
		return nil, false
	}
	return NewReader(r.src.Open(doc)), true
}

// ReadString 缺失时返回空串
func (r *Reader[D]) ReadString(field string) string {
	s, _ := r.src.String(field)
	return s
}

// ReadNumber 以 float64 读取任意数值
func (r *Reader[D]) ReadNumber(field string) (float64, bool) {
	if f, ok := r.src.Float64(field); ok {
		return f, true
	}
	if i, ok := r.src.Int64(field); ok {
		return float64(i), true
	}
	return 0, false
}

// ReadInt64 整数字段优先按整数读取，避免经 float64 丢失精度
func (r *Reader[D]) ReadInt64(field string) int64 {
	if i, ok := r.src.Int64(field); ok {
		return i
	}
	if f, ok := r.src.Float64(field); ok {
		return int64(f)
	}
	return 0
}

// ReadInt 超出 int 范围时截断到边界
func (r *Reader[D]) ReadInt(field string) int {
	v := r.ReadInt64(field)
	switch {
	case v > math.MaxInt:
		return math.MaxInt
	case v < math.MinInt:
		return math.MinInt
	}
	return int(v)
}

// ReadFloat64 缺失时返回 0
func (r *Reader[D]) ReadFloat64(field string) float64 {
	f, _ := r.ReadNumber(field)
	return f
}

// ReadBool 缺失时返回 false
func (r *Reader[D]) ReadBool(field string) bool {
	b, _ := r.src.Bool(field)
	return b
}

// ReadUUID 读取字符串形式的 UUID，格式错误视为缺失
func (r *Reader[D]) ReadUUID(field string) (uuid.UUID, bool) {
	s, ok := r.src.String(field)
	if !ok {
		return uuid.Nil, false
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	return u, true
}

// ReadDetailedUUID 读取 {most, least} 子文档，任一半缺失视为缺失
func (r *Reader[D]) ReadDetailedUUID(field string) (uuid.UUID, bool) {
	doc, ok := r.src.Document(field)
	if !ok {
		return uuid.Nil, false
	}
	return r.detailedUUID(doc)
}

// ReadDetailedUUIDs 读取 {most, least} 子文档数组，跳过无效元素
func (r *Reader[D]) ReadDetailedUUIDs(field string) ([]uuid.UUID, bool) {
	docs, ok := r.src.Documents(field)
	if !ok {
		return nil, false
	}
	out := make([]uuid.UUID, 0, len(docs))
	for _, doc := range docs {
		if u, ok := r.detailedUUID(doc); ok {
			out = append(out, u)
		}
	}
	return out, true
}

func (r *Reader[D]) detailedUUID(doc D) (uuid.UUID, bool) {
	sub := r.src.Open(doc)
	most, okM := sub.Int64(FieldMost)
	least, okL := sub.Int64(FieldLeast)
	if !okM || !okL {
		return uuid.Nil, false
	}
	return DetailedUUID{Most: most, Least: least}.UUID(), true
}

// ReadTime 读取毫秒时间戳，返回 UTC 时间
func (r *Reader[D]) ReadTime(field string) (time.Time, bool) {
	if !r.src.Has(field) {
		return time.Time{}, false
	}
	if ms, ok := r.src.Int64(field); ok {
		return time.UnixMilli(ms).UTC(), true
	}
	if f, ok := r.src.Float64(field); ok {
		return time.UnixMilli(int64(f)).UTC(), true
	}
	return time.Time{}, false
}

// ReadStrings 读取字符串数组
func (r *Reader[D]) ReadStrings(field string) ([]string, bool) {
	return r.src.Strings(field)
}

// ReadDocuments 读取子文档数组
func (r *Reader[D]) ReadDocuments(field string) ([]D, bool) {
	return r.src.Documents(field)
}
