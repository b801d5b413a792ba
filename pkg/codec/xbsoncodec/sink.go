package xbsoncodec

import (
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/omeyang/xstore/pkg/codec/xcodec"
	"github.com/omeyang/xstore/pkg/model/xmodel"
)

// IDField MongoDB 主键字段
const IDField = "_id"

// sink 按写入顺序追加元素，重复写入同名字段时原位替换
type sink struct {
	doc bson.D
}

// NewWriter 返回写入空 bson.D 的 Writer
func NewWriter() *xcodec.Writer[bson.D] {
	return xcodec.NewWriter[bson.D](&sink{doc: bson.D{}})
}

// NewWriterFor 返回已写入 _id 的 Writer
func NewWriterFor(model xmodel.Model) *xcodec.Writer[bson.D] {
	return NewWriter().WriteString(IDField, model.ID())
}

func (s *sink) set(field string, value any) error {
	for i := range s.doc {
		if s.doc[i].Key == field {
			s.doc[i].Value = value
			return nil
		}
	}
	s.doc = append(s.doc, bson.E{Key: field, Value: value})
	return nil
}

func (s *sink) SetString(field, value string) error          { return s.set(field, value) }
func (s *sink) SetInt64(field string, value int64) error     { return s.set(field, value) }
func (s *sink) SetFloat64(field string, value float64) error { return s.set(field, value) }
func (s *sink) SetBool(field string, value bool) error       { return s.set(field, value) }
func (s *sink) SetDocument(field string, doc bson.D) error   { return s.set(field, doc) }

func (s *sink) SetStrings(field string, values []string) error {
	arr := make(bson.A, 0, len(values))
	for _, v := range values {
		arr = append(arr, v)
	}
	return s.set(field, arr)
}

// SetDocuments 写为 bson.A，读取时与驱动解码出的类型一致
func (s *sink) SetDocuments(field string, docs []bson.D) error {
	arr := make(bson.A, 0, len(docs))
	for _, d := range docs {
		arr = append(arr, d)
	}
	return s.set(field, arr)
}

func (s *sink) NewSink() xcodec.Sink[bson.D] { return &sink{doc: bson.D{}} }

func (s *sink) Current() bson.D { return s.doc }
