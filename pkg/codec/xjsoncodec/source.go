package xjsoncodec

import (
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/omeyang/xstore/pkg/codec/xcodec"
)

// source 用 gjson 按字段查询 JSON 对象
type source struct {
	doc []byte
}

// NewReader 校验 doc 是 JSON 对象并返回 Reader
func NewReader(doc []byte) (*xcodec.Reader[[]byte], error) {
	if !gjson.ValidBytes(doc) {
		return nil, ErrInvalidJSON
	}
	if !gjson.ParseBytes(doc).IsObject() {
		return nil, ErrNotObject
	}
	return xcodec.NewReader[[]byte](source{doc: doc}), nil
}

// path 转义字段名，使 . * ? 等字符按字面匹配
func path(field string) string {
	return gjson.Escape(field)
}

func (s source) get(field string) gjson.Result {
	return gjson.GetBytes(s.doc, path(field))
}

func (s source) Raw() []byte { return s.doc }

func (s source) Open(doc []byte) xcodec.Source[[]byte] { return source{doc: doc} }

func (s source) Has(field string) bool {
	return s.get(field).Exists()
}

func (s source) String(field string) (string, bool) {
	r := s.get(field)
	if r.Type != gjson.String {
		return "", false
	}
	return r.Str, true
}

// Int64 只接受整数字面量，直接解析原文以保留 2^53 以上的精度
func (s source) Int64(field string) (int64, bool) {
	r := s.get(field)
	if r.Type != gjson.Number {
		return 0, false
	}
	i, err := strconv.ParseInt(r.Raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return i, true
}

func (s source) Float64(field string) (float64, bool) {
	r := s.get(field)
	if r.Type != gjson.Number {
		return 0, false
	}
	return r.Num, true
}

func (s source) Bool(field string) (bool, bool) {
	r := s.get(field)
	if !r.IsBool() {
		return false, false
	}
	return r.Bool(), true
}

func (s source) Document(field string) ([]byte, bool) {
	r := s.get(field)
	if !r.IsObject() {
		return nil, false
	}
	return []byte(r.Raw), true
}

// Strings 跳过非字符串元素
func (s source) Strings(field string) ([]string, bool) {
	r := s.get(field)
	if !r.IsArray() {
		return nil, false
	}
	items := r.Array()
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it.Type == gjson.String {
			out = append(out, it.Str)
		}
	}
	return out, true
}

// Documents 跳过非对象元素
func (s source) Documents(field string) ([][]byte, bool) {
	r := s.get(field)
	if !r.IsArray() {
		return nil, false
	}
	items := r.Array()
	out := make([][]byte, 0, len(items))
	for _, it := range items {
		if it.IsObject() {
			out = append(out, []byte(it.Raw))
		}
	}
	return out, true
}
