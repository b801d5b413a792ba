package xbsoncodec

import (
	"math"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/omeyang/xstore/pkg/codec/xcodec"
)

// source 在 bson.D 上按键查找，数值在 int32/int64/float64 之间按需转换
type source struct {
	doc bson.D
}

// NewReader 包装 bson.D
func NewReader(doc bson.D) *xcodec.Reader[bson.D] {
	return xcodec.NewReader[bson.D](source{doc: doc})
}

func (s source) lookup(field string) (any, bool) {
	for _, e := range s.doc {
		if e.Key == field {
			return e.Value, true
		}
	}
	return nil, false
}

func (s source) Raw() bson.D { return s.doc }

func (s source) Open(doc bson.D) xcodec.Source[bson.D] { return source{doc: doc} }

func (s source) Has(field string) bool {
	_, ok := s.lookup(field)
	return ok
}

func (s source) String(field string) (string, bool) {
	v, _ := s.lookup(field)
	str, ok := v.(string)
	return str, ok
}

// Int64 整数类型直接转换，整数值的浮点数也接受
func (s source) Int64(field string) (int64, bool) {
	v, _ := s.lookup(field)
	switch n := v.(type) {
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		if n == math.Trunc(n) && n >= math.MinInt64 && n < math.MaxInt64 {
			return int64(n), true
		}
	}
	return 0, false
}

func (s source) Float64(field string) (float64, bool) {
	v, _ := s.lookup(field)
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}

func (s source) Bool(field string) (bool, bool) {
	v, _ := s.lookup(field)
	b, ok := v.(bool)
	return b, ok
}

func (s source) Document(field string) (bson.D, bool) {
	v, _ := s.lookup(field)
	return asDocument(v)
}

func (s source) Strings(field string) ([]string, bool) {
	v, _ := s.lookup(field)
	switch list := v.(type) {
	case []string:
		return list, true
	case bson.A:
		out := make([]string, 0, len(list))
		for _, it := range list {
			if str, ok := it.(string); ok {
				out = append(out, str)
			}
		}
		return out, true
	}
	return nil, false
}

func (s source) Documents(field string) ([]bson.D, bool) {
	v, _ := s.lookup(field)
	switch list := v.(type) {
	case []bson.D:
		return list, true
	case bson.A:
		out := make([]bson.D, 0, len(list))
		for _, it := range list {
			if d, ok := asDocument(it); ok {
				out = append(out, d)
			}
		}
		return out, true
	}
	return nil, false
}

func asDocument(v any) (bson.D, bool) {
	switch d := v.(type) {
	case bson.D:
		return d, true
	case bson.M:
		return FromM(d), true
	}
	return nil, false
}
