package xboltstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	bolt "go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"

	"github.com/omeyang/xstore/pkg/codec/xcodec"
	"github.com/omeyang/xstore/pkg/model/xmodel"
)

var (
	_ xmodel.Repository[xmodel.Model] = (*Store[xmodel.Model])(nil)
	_ xmodel.Describer                = (*Store[xmodel.Model])(nil)
)

// Store 以 bbolt 桶保存模型，键为 id，值为序列化后的 JSON 文档
//
// 同一数据库可以承载多个 Store，每个使用独立的桶。Store 不拥有 db，
// 由调用方负责关闭。
type Store[T xmodel.Model] struct {
	db     *bolt.DB
	bucket []byte
	ser    xcodec.Serializer[T, []byte]
	de     xcodec.Deserializer[T, []byte]
}

// New 创建仓库，桶不存在时创建
func New[T xmodel.Model](db *bolt.DB, bucket string, ser xcodec.Serializer[T, []byte], de xcodec.Deserializer[T, []byte]) (*Store[T], error) {
	switch {
	case db == nil:
		return nil, ErrNilDB
	case bucket == "":
		return nil, ErrEmptyBucket
	case ser == nil || de == nil:
		return nil, ErrNilCodec
	}
	s := &Store[T]{db: db, bucket: []byte(bucket), ser: ser, de: de}
	if db.IsReadOnly() {
		return s, nil
	}
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(s.bucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("xboltstore: create bucket %s: %w", bucket, err)
	}
	return s, nil
}

// Describe 实现 xmodel.Describer
func (s *Store[T]) Describe() xmodel.Description {
	return xmodel.Description{System: "bbolt", Collection: string(s.bucket)}
}

func (s *Store[T]) view(ctx context.Context, fn func(b *bolt.Bucket) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return ErrBucketMissing
		}
		return fn(b)
	})
}

func (s *Store[T]) update(ctx context.Context, fn func(b *bolt.Bucket) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return ErrBucketMissing
		}
		return fn(b)
	})
}

func (s *Store[T]) decode(id string, data []byte) (T, error) {
	m, err := s.de(data)
	if err != nil {
		return xmodel.Zero[T](), fmt.Errorf("xboltstore: decode %s: %w", id, err)
	}
	return m, nil
}

// get 返回值的副本，bbolt 返回的切片只在事务内有效
func get(b *bolt.Bucket, id string) []byte {
	v := b.Get([]byte(id))
	if v == nil {
		return nil
	}
	return bytes.Clone(v)
}

func (s *Store[T]) Find(ctx context.Context, id string) (T, error) {
	if err := xmodel.CheckID(id); err != nil {
		return xmodel.Zero[T](), err
	}
	var data []byte
	if err := s.view(ctx, func(b *bolt.Bucket) error {
		data = get(b, id)
		return nil
	}); err != nil {
		return xmodel.Zero[T](), err
	}
	if data == nil {
		return xmodel.Zero[T](), xmodel.NotFound(id)
	}
	return s.decode(id, data)
}

func (s *Store[T]) Exists(ctx context.Context, id string) (bool, error) {
	if err := xmodel.CheckID(id); err != nil {
		return false, err
	}
	var ok bool
	err := s.view(ctx, func(b *bolt.Bucket) error {
		ok = b.Get([]byte(id)) != nil
		return nil
	})
	return ok, err
}

func (s *Store[T]) Save(ctx context.Context, model T) (T, error) {
	if err := xmodel.CheckModel(model); err != nil {
		return xmodel.Zero[T](), err
	}
	id := model.ID()
	data, err := s.ser(model)
	if err != nil {
		return xmodel.Zero[T](), fmt.Errorf("xboltstore: encode %s: %w", id, err)
	}
	if err := s.update(ctx, func(b *bolt.Bucket) error {
		return b.Put([]byte(id), data)
	}); err != nil {
		return xmodel.Zero[T](), fmt.Errorf("xboltstore: save %s: %w", id, err)
	}
	return model, nil
}

func (s *Store[T]) Delete(ctx context.Context, id string) (bool, error) {
	if err := xmodel.CheckID(id); err != nil {
		return false, err
	}
	var existed bool
	err := s.update(ctx, func(b *bolt.Bucket) error {
		existed = b.Get([]byte(id)) != nil
		if !existed {
			return nil
		}
		return b.Delete([]byte(id))
	})
	if err != nil {
		return false, fmt.Errorf("xboltstore: delete %s: %w", id, err)
	}
	return existed, nil
}

// DeleteAndRetrieve 读取与删除在同一个写事务内完成
func (s *Store[T]) DeleteAndRetrieve(ctx context.Context, id string) (T, error) {
	if err := xmodel.CheckID(id); err != nil {
		return xmodel.Zero[T](), err
	}
	var data []byte
	err := s.update(ctx, func(b *bolt.Bucket) error {
		data = get(b, id)
		if data == nil {
			return nil
		}
		return b.Delete([]byte(id))
	})
	if err != nil {
		return xmodel.Zero[T](), fmt.Errorf("xboltstore: delete %s: %w", id, err)
	}
	if data == nil {
		return xmodel.Zero[T](), xmodel.NotFound(id)
	}
	return s.decode(id, data)
}

// DeleteAll 删除并重建桶
func (s *Store[T]) DeleteAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(s.bucket); err != nil && !errors.Is(err, berrors.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket(s.bucket)
		return err
	})
	if err != nil {
		return fmt.Errorf("xboltstore: delete all %s: %w", s.bucket, err)
	}
	return nil
}

type entry struct {
	id   string
	data []byte
}

// snapshot 在读事务内复制全部键值，回调在事务外执行，可以安全地写回同一仓库
func (s *Store[T]) snapshot(ctx context.Context, withValues bool) ([]entry, error) {
	out := []entry{}
	err := s.view(ctx, func(b *bolt.Bucket) error {
		return b.ForEach(func(k, v []byte) error {
			e := entry{id: string(k)}
			if withValues {
				e.data = bytes.Clone(v)
			}
			out = append(out, e)
			return nil
		})
	})
	return out, err
}

func (s *Store[T]) FindAll(ctx context.Context, postLoad func(T)) ([]T, error) {
	out := []T{}
	err := s.ForEach(ctx, func(m T) error {
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

// FindIDs 按键的字节序返回
func (s *Store[T]) FindIDs(ctx context.Context) ([]string, error) {
	entries, err := s.snapshot(ctx, false)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.id)
	}
	return ids, nil
}

func (s *Store[T]) ForEach(ctx context.Context, fn func(T) error) error {
	entries, err := s.snapshot(ctx, true)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		m, err := s.decode(e.id, e.data)
		if err != nil {
			return err
		}
		if err := fn(m); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store[T]) ForEachID(ctx context.Context, fn func(string) error) error {
	ids, err := s.FindIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(id); err != nil {
			return err
		}
	}
	return nil
}
