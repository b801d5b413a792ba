package xcodec

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
)

// ReadObject 读取子文档并反序列化，字段缺失时返回 ok=false
func ReadObject[T, D any](r *Reader[D], field string, de Deserializer[T, D]) (T, bool, error) {
	var zero T
	doc, ok := r.ReadThis(field)
	if !ok {
		return zero, false, nil
	}
	v, err := de(doc)
	if err != nil {
		return zero, true, fmt.Errorf("xcodec: read %q: %w", field, err)
	}
	return v, true, nil
}

// ReadCollection 读取子文档数组并逐个反序列化，遇到第一个错误即返回
func ReadCollection[T, D any](r *Reader[D], field string, de Deserializer[T, D]) ([]T, bool, error) {
	docs, ok := r.ReadDocuments(field)
	if !ok {
		return nil, false, nil
	}
	out := make([]T, 0, len(docs))
	for i, doc := range docs {
		v, err := de(doc)
		if err != nil {
			return nil, true, fmt.Errorf("xcodec: read %q[%d]: %w", field, i, err)
		}
		out = append(out, v)
	}
	return out, true, nil
}

// ReadMap 读取以集合形式保存的 map，键由 keyOf 从值中取得
func ReadMap[K comparable, V, D any](r *Reader[D], field string, de Deserializer[V, D], keyOf func(V) K) (map[K]V, bool, error) {
	values, ok, err := ReadCollection(r, field, de)
	if !ok || err != nil {
		return nil, ok, err
	}
	out := make(map[K]V, len(values))
	for _, v := range values {
		out[keyOf(v)] = v
	}
	return out, true, nil
}

// WriteObject 序列化并写入子文档
func WriteObject[T, D any](w *Writer[D], field string, value T, ser Serializer[T, D]) *Writer[D] {
	if w.Err() != nil {
		return w
	}
	doc, err := ser(value)
	if err != nil {
		return w.Fail(fmt.Errorf("xcodec: write %q: %w", field, err))
	}
	return w.WriteThis(field, doc)
}

// WriteCollection 序列化并写入子文档数组，nil 切片跳过
func WriteCollection[T, D any](w *Writer[D], field string, values []T, ser Serializer[T, D]) *Writer[D] {
	if w.Err() != nil || values == nil {
		return w
	}
	docs := make([]D, 0, len(values))
	for i, v := range values {
		doc, err := ser(v)
		if err != nil {
			return w.Fail(fmt.Errorf("xcodec: write %q[%d]: %w", field, i, err))
		}
		docs = append(docs, doc)
	}
	return w.WriteDocuments(field, docs)
}

// WriteMap 只写入 map 的值，按键排序保证输出稳定；读取时用 ReadMap 还原
func WriteMap[K cmp.Ordered, V, D any](w *Writer[D], field string, values map[K]V, ser Serializer[V, D]) *Writer[D] {
	if values == nil {
		return w
	}
	keys := slices.Sorted(maps.Keys(values))
	ordered := make([]V, 0, len(keys))
	for _, k := range keys {
		ordered = append(ordered, values[k])
	}
	return WriteCollection(w, field, ordered, ser)
}
