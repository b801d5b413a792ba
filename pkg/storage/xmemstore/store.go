package xmemstore

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/omeyang/xstore/pkg/model/xmodel"
	"github.com/omeyang/xstore/pkg/util/xlru"
)

var (
	_ xmodel.Repository[xmodel.Model] = (*Store[xmodel.Model])(nil)
	_ xmodel.Describer                = (*Store[xmodel.Model])(nil)
)

// Store 容量有限、可选过期的内存仓库
//
// 适合作为 FallbackRepository 的 fallback 层。TTL > 0 时内部有后台清理
// goroutine，用完必须 Close。
type Store[T xmodel.Model] struct {
	cache  *xlru.Cache[string, T]
	name   string
	closed atomic.Bool
}

// New 创建内存仓库
func New[T xmodel.Model](opts ...Option[T]) (*Store[T], error) {
	o := defaultOptions[T]()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	var lruOpts []xlru.Option[string, T]
	if o.onEvicted != nil {
		lruOpts = append(lruOpts, xlru.WithOnEvicted(o.onEvicted))
	}
	cache, err := xlru.New(xlru.Config{Size: o.size, TTL: o.ttl}, lruOpts...)
	if err != nil {
		return nil, fmt.Errorf("xmemstore: %w", err)
	}
	return &Store[T]{cache: cache, name: o.name}, nil
}

// Describe 实现 xmodel.Describer
func (s *Store[T]) Describe() xmodel.Description {
	return xmodel.Description{System: "memory", Collection: s.name}
}

// Len 返回条目数，可能包含已过期但尚未清理的条目
func (s *Store[T]) Len() int { return s.cache.Len() }

// Close 清空并停止后台清理，幂等
func (s *Store[T]) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		s.cache.Close()
	}
	return nil
}

func (s *Store[T]) check(ctx context.Context) error {
	if s.closed.Load() {
		return xmodel.ErrClosed
	}
	return ctx.Err()
}

func (s *Store[T]) checkID(ctx context.Context, id string) error {
	if err := xmodel.CheckID(id); err != nil {
		return err
	}
	return s.check(ctx)
}

func (s *Store[T]) Find(ctx context.Context, id string) (T, error) {
	if err := s.checkID(ctx, id); err != nil {
		return xmodel.Zero[T](), err
	}
	m, ok := s.cache.Get(id)
	if !ok {
		return xmodel.Zero[T](), xmodel.NotFound(id)
	}
	return m, nil
}

// Exists 不刷新 LRU 顺序
func (s *Store[T]) Exists(ctx context.Context, id string) (bool, error) {
	if err := s.checkID(ctx, id); err != nil {
		return false, err
	}
	return s.cache.Contains(id), nil
}

func (s *Store[T]) Save(ctx context.Context, model T) (T, error) {
	if err := xmodel.CheckModel(model); err != nil {
		return xmodel.Zero[T](), err
	}
	if err := s.check(ctx); err != nil {
		return xmodel.Zero[T](), err
	}
	s.cache.Set(model.ID(), model)
	return model, nil
}

func (s *Store[T]) Delete(ctx context.Context, id string) (bool, error) {
	if err := s.checkID(ctx, id); err != nil {
		return false, err
	}
	return s.cache.Delete(id), nil
}

func (s *Store[T]) DeleteAndRetrieve(ctx context.Context, id string) (T, error) {
	if err := s.checkID(ctx, id); err != nil {
		return xmodel.Zero[T](), err
	}
	m, ok := s.cache.Take(id)
	if !ok {
		return xmodel.Zero[T](), xmodel.NotFound(id)
	}
	return m, nil
}

func (s *Store[T]) DeleteAll(ctx context.Context) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	s.cache.Clear()
	return nil
}

// FindAll 按从旧到新的顺序返回未过期的模型
func (s *Store[T]) FindAll(ctx context.Context, postLoad func(T)) ([]T, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	values := s.cache.Values()
	out := make([]T, 0, len(values))
	for _, m := range values {
		if postLoad != nil {
			postLoad(m)
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *Store[T]) FindIDs(ctx context.Context) ([]string, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	ids := s.cache.Keys()
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// ForEach 在快照上迭代
func (s *Store[T]) ForEach(ctx context.Context, fn func(T) error) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	for _, m := range s.cache.Values() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(m); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store[T]) ForEachID(ctx context.Context, fn func(string) error) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	for _, id := range s.cache.Keys() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(id); err != nil {
			return err
		}
	}
	return nil
}
