package main

import (
	"errors"
	"fmt"

	"github.com/tidwall/sjson"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/omeyang/xstore/pkg/codec/xbsoncodec"
	"github.com/omeyang/xstore/pkg/codec/xjsoncodec"
)

// idField 记录文档中保存 id 的字段
const idField = "id"

var errMissingID = errors.New("record without id")

// Record 是命令行操作的通用模型：id 加一个 JSON 对象
type Record struct {
	id  string
	Doc []byte
}

func (r *Record) ID() string { return r.id }

// newRecord 校验 doc 是 JSON 对象并写入 id 字段
func newRecord(id string, doc []byte) (*Record, error) {
	if _, err := xjsoncodec.NewReader(doc); err != nil {
		return nil, err
	}
	out, err := sjson.SetBytes(doc, idField, id)
	if err != nil {
		return nil, fmt.Errorf("set id: %w", err)
	}
	return &Record{id: id, Doc: out}, nil
}

func serializeJSON(r *Record) ([]byte, error) {
	return r.Doc, nil
}

func deserializeJSON(doc []byte) (*Record, error) {
	rd, err := xjsoncodec.NewReader(doc)
	if err != nil {
		return nil, err
	}
	id := rd.ReadString(idField)
	if id == "" {
		return nil, errMissingID
	}
	return &Record{id: id, Doc: doc}, nil
}

// serializeBSON 把 id 字段换成 _id，其余成员按扩展 JSON 转换
func serializeBSON(r *Record) (bson.D, error) {
	var doc bson.D
	if err := bson.UnmarshalExtJSON(r.Doc, false, &doc); err != nil {
		return nil, fmt.Errorf("to bson: %w", err)
	}
	out := make(bson.D, 0, len(doc)+1)
	out = append(out, bson.E{Key: xbsoncodec.IDField, Value: r.id})
	for _, e := range doc {
		if e.Key != idField && e.Key != xbsoncodec.IDField {
			out = append(out, e)
		}
	}
	return out, nil
}

func deserializeBSON(doc bson.D) (*Record, error) {
	id, ok := xbsoncodec.ID(doc)
	if !ok {
		return nil, errMissingID
	}
	rest := make(bson.D, 0, len(doc))
	for _, e := range doc {
		if e.Key != xbsoncodec.IDField {
			rest = append(rest, e)
		}
	}
	data, err := bson.MarshalExtJSON(rest, false, false)
	if err != nil {
		return nil, fmt.Errorf("from bson: %w", err)
	}
	return newRecord(id, data)
}
