package xcodec

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Writer 在 Sink 之上提供类型化的字段写入，支持链式调用
//
// 记录第一个错误，之后的写入全部跳过，由 End 返回该错误。
type Writer[D any] struct {
	sink Sink[D]
	err  error
}

// NewWriter 包装 Sink
func NewWriter[D any](sink Sink[D]) *Writer[D] {
	return &Writer[D]{sink: sink}
}

func (w *Writer[D]) do(field string, fn func() error) *Writer[D] {
	if w.err != nil {
		return w
	}
	if err := fn(); err != nil {
		w.err = fmt.Errorf("xcodec: write %q: %w", field, err)
	}
	return w
}

// Fail 记录外部错误，常用于 Serializer 失败
func (w *Writer[D]) Fail(err error) *Writer[D] {
	if w.err == nil && err != nil {
		w.err = err
	}
	return w
}

// Err 返回已记录的错误
func (w *Writer[D]) Err() error { return w.err }

func (w *Writer[D]) WriteString(field, value string) *Writer[D] {
	return w.do(field, func() error { return w.sink.SetString(field, value) })
}

func (w *Writer[D]) WriteInt64(field string, value int64) *Writer[D] {
	return w.do(field, func() error { return w.sink.SetInt64(field, value) })
}

func (w *Writer[D]) WriteInt(field string, value int) *Writer[D] {
	return w.WriteInt64(field, int64(value))
}

// WriteNumber 写入浮点数，整数请用 WriteInt64 以保留精度
func (w *Writer[D]) WriteNumber(field string, value float64) *Writer[D] {
	return w.do(field, func() error { return w.sink.SetFloat64(field, value) })
}

func (w *Writer[D]) WriteBool(field string, value bool) *Writer[D] {
	return w.do(field, func() error { return w.sink.SetBool(field, value) })
}

// WriteUUID 以字符串形式写入，uuid.Nil 跳过
func (w *Writer[D]) WriteUUID(field string, value uuid.UUID) *Writer[D] {
	if value == uuid.Nil {
		return w
	}
	return w.WriteString(field, value.String())
}

// WriteDetailedUUID 以 {least, most} 子文档写入，uuid.Nil 跳过
func (w *Writer[D]) WriteDetailedUUID(field string, value uuid.UUID) *Writer[D] {
	if value == uuid.Nil {
		return w
	}
	doc, err := w.detailedUUID(value)
	if err != nil {
		return w.Fail(err)
	}
	return w.WriteThis(field, doc)
}

// WriteDetailedUUIDs 以子文档数组写入，nil 切片跳过
//
// 数组内的 uuid.Nil 照常写为 {0, 0}，保持元素的个数与位置。
func (w *Writer[D]) WriteDetailedUUIDs(field string, values []uuid.UUID) *Writer[D] {
	if values == nil {
		return w
	}
	docs := make([]D, 0, len(values))
	for _, u := range values {
		doc, err := w.detailedUUID(u)
		if err != nil {
			return w.Fail(err)
		}
		docs = append(docs, doc)
	}
	return w.WriteDocuments(field, docs)
}

func (w *Writer[D]) detailedUUID(u uuid.UUID) (D, error) {
	d := FromUUID(u)
	sub := w.sink.NewSink()
	if err := sub.SetInt64(FieldLeast, d.Least); err != nil {
		var zero D
		return zero, err
	}
	if err := sub.SetInt64(FieldMost, d.Most); err != nil {
		var zero D
		return zero, err
	}
	return sub.Current(), nil
}

// WriteTime 以毫秒时间戳写入，零值跳过
func (w *Writer[D]) WriteTime(field string, value time.Time) *Writer[D] {
	if value.IsZero() {
		return w
	}
	return w.WriteInt64(field, value.UnixMilli())
}

// WriteThis 写入子文档
func (w *Writer[D]) WriteThis(field string, doc D) *Writer[D] {
	return w.do(field, func() error { return w.sink.SetDocument(field, doc) })
}

// WriteStrings nil 切片跳过，空切片写入空数组
func (w *Writer[D]) WriteStrings(field string, values []string) *Writer[D] {
	if values == nil {
		return w
	}
	return w.do(field, func() error { return w.sink.SetStrings(field, values) })
}

// WriteDocuments nil 切片跳过
func (w *Writer[D]) WriteDocuments(field string, docs []D) *Writer[D] {
	if docs == nil {
		return w
	}
	return w.do(field, func() error { return w.sink.SetDocuments(field, docs) })
}

// Child 创建同格式的子文档 Writer
func (w *Writer[D]) Child() *Writer[D] {
	return NewWriter(w.sink.NewSink())
}

// Current 返回当前文档，不检查错误
func (w *Writer[D]) Current() D { return w.sink.Current() }

// End 返回最终文档与第一个写入错误
func (w *Writer[D]) End() (D, error) {
	if w.err != nil {
		var zero D
		return zero, w.err
	}
	return w.sink.Current(), nil
}
