package xjsoncodec

import (
	"bytes"
	"math"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/omeyang/xstore/pkg/codec/xcodec"
)

// sink 用 sjson 逐字段构建 JSON 对象，字段按写入顺序排列
type sink struct {
	doc []byte
}

// NewWriter 返回写入空 JSON 对象的 Writer
func NewWriter() *xcodec.Writer[[]byte] {
	return xcodec.NewWriter[[]byte](newSink())
}

func newSink() *sink {
	return &sink{doc: []byte("{}")}
}

func (s *sink) set(field string, value any) error {
	doc, err := sjson.SetBytes(s.doc, path(field), value)
	if err != nil {
		return err
	}
	s.doc = doc
	return nil
}

func (s *sink) setRaw(field string, raw []byte) error {
	doc, err := sjson.SetRawBytes(s.doc, path(field), raw)
	if err != nil {
		return err
	}
	s.doc = doc
	return nil
}

func (s *sink) SetString(field, value string) error { return s.set(field, value) }

func (s *sink) SetInt64(field string, value int64) error { return s.set(field, value) }

func (s *sink) SetFloat64(field string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return ErrNonFinite
	}
	return s.set(field, value)
}

func (s *sink) SetBool(field string, value bool) error { return s.set(field, value) }

func (s *sink) SetDocument(field string, doc []byte) error {
	if !gjson.ValidBytes(doc) {
		return ErrInvalidJSON
	}
	return s.setRaw(field, doc)
}

func (s *sink) SetStrings(field string, values []string) error {
	return s.set(field, values)
}

func (s *sink) SetDocuments(field string, docs [][]byte) error {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, d := range docs {
		if !gjson.ValidBytes(d) {
			return ErrInvalidJSON
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(d)
	}
	buf.WriteByte(']')
	return s.setRaw(field, buf.Bytes())
}

func (s *sink) NewSink() xcodec.Sink[[]byte] { return newSink() }

func (s *sink) Current() []byte { return s.doc }
