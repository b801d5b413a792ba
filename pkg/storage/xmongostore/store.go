package xmongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	mopts "go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/omeyang/xstore/pkg/codec/xbsoncodec"
	"github.com/omeyang/xstore/pkg/codec/xcodec"
	"github.com/omeyang/xstore/pkg/model/xmodel"
)

const component = "xmongostore"

var (
	_ xmodel.Repository[xmodel.Model] = (*Store[xmodel.Model])(nil)
	_ xmodel.Describer                = (*Store[xmodel.Model])(nil)
	_ xmodel.HealthChecker            = (*Store[xmodel.Model])(nil)
)

// Store 以 MongoDB 集合保存模型，文档主键 _id 即模型 id
type Store[T xmodel.Model] struct {
	coll collection
	name string
	ser  xcodec.Serializer[T, bson.D]
	de   xcodec.Deserializer[T, bson.D]
	opts options
	in   *xmodel.Instrument
	// ping 为 nil 时 Health 退化为对集合计数
	ping func(ctx context.Context) error
}

// New 创建仓库
func New[T xmodel.Model](coll *mongo.Collection, ser xcodec.Serializer[T, bson.D], de xcodec.Deserializer[T, bson.D], opts ...Option) (*Store[T], error) {
	if coll == nil {
		return nil, ErrNilCollection
	}
	s, err := newStore(coll, ser, de, opts...)
	if err != nil {
		return nil, err
	}
	client := coll.Database().Client()
	s.ping = func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) }
	return s, nil
}

func newStore[T xmodel.Model](coll collection, ser xcodec.Serializer[T, bson.D], de xcodec.Deserializer[T, bson.D], opts ...Option) (*Store[T], error) {
	if coll == nil {
		return nil, ErrNilCollection
	}
	if ser == nil || de == nil {
		return nil, ErrNilCodec
	}
	o := options{batchSize: DefaultBatchSize}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	s := &Store[T]{coll: coll, name: coll.Name(), ser: ser, de: de, opts: o}
	in, err := xmodel.NewInstrument(component, s.Describe(), o.instrument...)
	if err != nil {
		return nil, fmt.Errorf("xmongostore: %w", err)
	}
	s.in = in
	return s, nil
}

// Describe 实现 xmodel.Describer
func (s *Store[T]) Describe() xmodel.Description {
	return xmodel.Description{System: "mongodb", Collection: s.name}
}

// Stats 返回观测计数
func (s *Store[T]) Stats() xmodel.Stats { return s.in.Stats() }

// Health 向主节点发送 ping
func (s *Store[T]) Health(ctx context.Context) error {
	return s.in.Ping(ctx, func(ctx context.Context) error {
		if s.ping != nil {
			return s.ping(ctx)
		}
		_, err := s.coll.CountDocuments(ctx, bson.D{}, mopts.Count().SetLimit(1))
		return err
	})
}

// Close 释放观测资源，不断开客户端
func (s *Store[T]) Close() error {
	s.in.Close()
	return nil
}

func byID(id string) bson.D { return bson.D{{Key: xbsoncodec.IDField, Value: id}} }

// encode 序列化并保证 _id 存在且等于模型 id
func (s *Store[T]) encode(model T) (bson.D, error) {
	id := model.ID()
	doc, err := s.ser(model)
	if err != nil {
		return nil, fmt.Errorf("xmongostore: encode %s: %w", id, err)
	}
	got, ok := xbsoncodec.ID(doc)
	switch {
	case !ok:
		doc = append(bson.D{{Key: xbsoncodec.IDField, Value: id}}, doc...)
	case got != id:
		return nil, fmt.Errorf("%w: %q != %q", ErrIDMismatch, got, id)
	}
	return doc, nil
}

func (s *Store[T]) decode(id string, doc bson.D) (T, error) {
	m, err := s.de(doc)
	if err != nil {
		return xmodel.Zero[T](), fmt.Errorf("xmongostore: decode %s: %w", id, err)
	}
	return m, nil
}

// single 读取 FindOne 类结果，ErrNoDocuments 转为 NotFound
func (s *Store[T]) single(op, id string, res *mongo.SingleResult) (T, error) {
	var doc bson.D
	if err := res.Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return xmodel.Zero[T](), xmodel.NotFound(id)
		}
		return xmodel.Zero[T](), fmt.Errorf("xmongostore: %s %s: %w", op, id, err)
	}
	return s.decode(id, doc)
}

func (s *Store[T]) Find(ctx context.Context, id string) (_ T, err error) {
	if err := xmodel.CheckID(id); err != nil {
		return xmodel.Zero[T](), err
	}
	ctx, end := s.in.Begin(ctx, "find", id)
	defer func() { end(err) }()
	return s.single("find", id, s.coll.FindOne(ctx, byID(id)))
}

func (s *Store[T]) Exists(ctx context.Context, id string) (_ bool, err error) {
	if err := xmodel.CheckID(id); err != nil {
		return false, err
	}
	ctx, end := s.in.Begin(ctx, "exists", id)
	defer func() { end(err) }()

	n, err := s.coll.CountDocuments(ctx, byID(id), mopts.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("xmongostore: exists %s: %w", id, err)
	}
	return n > 0, nil
}

// Save 按 _id 整体替换，不存在时插入
func (s *Store[T]) Save(ctx context.Context, model T) (_ T, err error) {
	if err := xmodel.CheckModel(model); err != nil {
		return xmodel.Zero[T](), err
	}
	id := model.ID()
	ctx, end := s.in.Begin(ctx, "save", id)
	defer func() { end(err) }()

	doc, err := s.encode(model)
	if err != nil {
		return xmodel.Zero[T](), err
	}
	if _, err := s.coll.ReplaceOne(ctx, byID(id), doc, mopts.Replace().SetUpsert(true)); err != nil {
		return xmodel.Zero[T](), fmt.Errorf("xmongostore: save %s: %w", id, err)
	}
	return model, nil
}

func (s *Store[T]) Delete(ctx context.Context, id string) (_ bool, err error) {
	if err := xmodel.CheckID(id); err != nil {
		return false, err
	}
	ctx, end := s.in.Begin(ctx, "delete", id)
	defer func() { end(err) }()

	res, err := s.coll.DeleteOne(ctx, byID(id))
	if err != nil {
		return false, fmt.Errorf("xmongostore: delete %s: %w", id, err)
	}
	return res != nil && res.DeletedCount > 0, nil
}

func (s *Store[T]) DeleteAndRetrieve(ctx context.Context, id string) (_ T, err error) {
	if err := xmodel.CheckID(id); err != nil {
		return xmodel.Zero[T](), err
	}
	ctx, end := s.in.Begin(ctx, "delete_and_retrieve", id)
	defer func() { end(err) }()
	return s.single("delete", id, s.coll.FindOneAndDelete(ctx, byID(id)))
}

func (s *Store[T]) DeleteAll(ctx context.Context) (err error) {
	ctx, end := s.in.Begin(ctx, "delete_all", "")
	defer func() { end(err) }()

	if _, err := s.coll.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("xmongostore: delete all %s: %w", s.name, err)
	}
	return nil
}

func (s *Store[T]) FindAll(ctx context.Context, postLoad func(T)) (_ []T, err error) {
	ctx, end := s.in.Begin(ctx, "find_all", "")
	defer func() { end(err) }()

	out := []T{}
	err = s.iterate(ctx, bson.D{}, func(m T) error {
		if postLoad != nil {
			postLoad(m)
		}
		out = append(out, m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FindByField 返回 field 等于 value 的全部模型
func (s *Store[T]) FindByField(ctx context.Context, field string, value any) (_ []T, err error) {
	if field == "" {
		return nil, ErrEmptyField
	}
	ctx, end := s.in.Begin(ctx, "find_by_field", "")
	defer func() { end(err) }()

	out := []T{}
	err = s.iterate(ctx, bson.D{{Key: field, Value: value}}, func(m T) error {
		out = append(out, m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store[T]) FindIDs(ctx context.Context) (_ []string, err error) {
	ctx, end := s.in.Begin(ctx, "find_ids", "")
	defer func() { end(err) }()

	ids := []string{}
	err = s.iterateIDs(ctx, func(id string) error {
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store[T]) ForEach(ctx context.Context, fn func(T) error) (err error) {
	ctx, end := s.in.Begin(ctx, "for_each", "")
	defer func() { end(err) }()
	return s.iterate(ctx, bson.D{}, fn)
}

func (s *Store[T]) ForEachID(ctx context.Context, fn func(string) error) (err error) {
	ctx, end := s.in.Begin(ctx, "for_each_id", "")
	defer func() { end(err) }()
	return s.iterateIDs(ctx, fn)
}

// Count 返回集合中的文档数
func (s *Store[T]) Count(ctx context.Context) (_ int64, err error) {
	ctx, end := s.in.Begin(ctx, "count", "")
	defer func() { end(err) }()

	n, err := s.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("xmongostore: count %s: %w", s.name, err)
	}
	return n, nil
}

func (s *Store[T]) iterate(ctx context.Context, filter bson.D, fn func(T) error) error {
	return s.cursor(ctx, filter, mopts.Find().SetBatchSize(s.opts.batchSize), func(doc bson.D) error {
		id, _ := xbsoncodec.ID(doc)
		m, err := s.decode(id, doc)
		if err != nil {
			return err
		}
		return fn(m)
	})
}

// iterateIDs 只投影 _id
func (s *Store[T]) iterateIDs(ctx context.Context, fn func(string) error) error {
	fo := mopts.Find().
		SetBatchSize(s.opts.batchSize).
		SetProjection(bson.D{{Key: xbsoncodec.IDField, Value: 1}})
	return s.cursor(ctx, bson.D{}, fo, func(doc bson.D) error {
		id, ok := xbsoncodec.ID(doc)
		if !ok {
			return nil
		}
		return fn(id)
	})
}

// cursor fn 返回的错误原样返回，游标自身的错误加上前缀
func (s *Store[T]) cursor(ctx context.Context, filter bson.D, fo *mopts.FindOptionsBuilder, fn func(bson.D) error) (err error) {
	cur, err := s.coll.Find(ctx, filter, fo)
	if err != nil {
		return fmt.Errorf("xmongostore: find %s: %w", s.name, err)
	}
	defer func() {
		if cerr := cur.Close(context.WithoutCancel(ctx)); cerr != nil && err == nil {
			err = fmt.Errorf("xmongostore: close cursor %s: %w", s.name, cerr)
		}
	}()

	for cur.Next(ctx) {
		var doc bson.D
		if err := cur.Decode(&doc); err != nil {
			return fmt.Errorf("xmongostore: decode %s: %w", s.name, err)
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	if err := cur.Err(); err != nil {
		return fmt.Errorf("xmongostore: cursor %s: %w", s.name, err)
	}
	return nil
}
