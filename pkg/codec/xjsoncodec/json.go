package xjsoncodec

import (
	"encoding/json"
	"fmt"
	"iter"
	"maps"
	"slices"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/omeyang/xstore/pkg/codec/xcodec"
)

// Pretty 缩进两个空格，与常见编辑器的格式一致
func Pretty(doc []byte) []byte {
	return pretty.PrettyOptions(doc, &pretty.Options{Indent: "  ", Width: 80})
}

// Ugly 去除所有空白
func Ugly(doc []byte) []byte {
	return pretty.Ugly(doc)
}

// Fields 遍历顶层成员，值为原始 JSON 文本
//
// 非对象文档不产生任何成员。
func Fields(doc []byte) iter.Seq2[string, []byte] {
	return func(yield func(string, []byte) bool) {
		root := gjson.ParseBytes(doc)
		if !root.IsObject() {
			return
		}
		root.ForEach(func(k, v gjson.Result) bool {
			return yield(k.Str, []byte(v.Raw))
		})
	}
}

// Compose 由字段名到原始 JSON 值的映射组装对象，字段按名称排序
//
// 是 Fields 的逆操作，值必须各自是合法 JSON。
func Compose(fields map[string]string) ([]byte, error) {
	doc := []byte("{}")
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		v := fields[k]
		if !gjson.Valid(v) {
			return nil, fmt.Errorf("%w: field %q", ErrInvalidJSON, k)
		}
		var err error
		doc, err = sjson.SetRawBytes(doc, path(k), []byte(v))
		if err != nil {
			return nil, fmt.Errorf("xjsoncodec: compose field %q: %w", k, err)
		}
	}
	return doc, nil
}

// Marshal 返回基于 struct tag 的序列化函数，适合不需要手写字段映射的模型
func Marshal[T any]() xcodec.Serializer[T, []byte] {
	return func(v T) ([]byte, error) {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMarshal, err)
		}
		return data, nil
	}
}

// Unmarshal 返回与 Marshal 对应的反序列化函数
func Unmarshal[T any]() xcodec.Deserializer[T, []byte] {
	return func(doc []byte) (T, error) {
		var v T
		if err := json.Unmarshal(doc, &v); err != nil {
			return v, fmt.Errorf("%w: %w", ErrMarshal, err)
		}
		return v, nil
	}
}
