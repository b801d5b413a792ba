package xmodel

import (
	"context"
	"sync"
)

var _ Repository[Model] = (*MapRepository[Model])(nil)

// MapRepository 基于 map 的并发安全仓库
//
// ForEach 在快照上迭代，回调中可以安全地读写同一仓库。
type MapRepository[T Model] struct {
	mu     sync.RWMutex
	models map[string]T
}

// NewMapRepository 创建空仓库
func NewMapRepository[T Model]() *MapRepository[T] {
	return &MapRepository[T]{models: make(map[string]T)}
}

// NewMapRepositoryFrom 使用已有 map 创建仓库，之后调用方不应再修改 models
func NewMapRepositoryFrom[T Model](models map[string]T) *MapRepository[T] {
	if models == nil {
		models = make(map[string]T)
	}
	return &MapRepository[T]{models: models}
}

// Len 返回模型数量
func (r *MapRepository[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.models)
}

func (r *MapRepository[T]) Find(ctx context.Context, id string) (T, error) {
	if err := CheckID(id); err != nil {
		return Zero[T](), err
	}
	if err := ctx.Err(); err != nil {
		return Zero[T](), err
	}
	r.mu.RLock()
	m, ok := r.models[id]
	r.mu.RUnlock()
	if !ok {
		return Zero[T](), NotFound(id)
	}
	return m, nil
}

func (r *MapRepository[T]) Exists(ctx context.Context, id string) (bool, error) {
	if err := CheckID(id); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	_, ok := r.models[id]
	r.mu.RUnlock()
	return ok, nil
}

func (r *MapRepository[T]) Save(ctx context.Context, model T) (T, error) {
	if err := CheckModel(model); err != nil {
		return Zero[T](), err
	}
	if err := ctx.Err(); err != nil {
		return Zero[T](), err
	}
	r.mu.Lock()
	r.models[model.ID()] = model
	r.mu.Unlock()
	return model, nil
}

func (r *MapRepository[T]) Delete(ctx context.Context, id string) (bool, error) {
	_, err := r.DeleteAndRetrieve(ctx, id)
	if IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

func (r *MapRepository[T]) DeleteAndRetrieve(ctx context.Context, id string) (T, error) {
	if err := CheckID(id); err != nil {
		return Zero[T](), err
	}
	if err := ctx.Err(); err != nil {
		return Zero[T](), err
	}
	r.mu.Lock()
	m, ok := r.models[id]
	delete(r.models, id)
	r.mu.Unlock()
	if !ok {
		return Zero[T](), NotFound(id)
	}
	return m, nil
}

func (r *MapRepository[T]) DeleteAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	clear(r.models)
	r.mu.Unlock()
	return nil
}

func (r *MapRepository[T]) FindAll(ctx context.Context, postLoad func(T)) ([]T, error) {
	snapshot, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(snapshot))
	for _, m := range snapshot {
		if postLoad != nil {
			postLoad(m)
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *MapRepository[T]) FindIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.models))
	for id := range r.models {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *MapRepository[T]) ForEach(ctx context.Context, fn func(T) error) error {
	snapshot, err := r.snapshot(ctx)
	if err != nil {
		return err
	}
	for _, m := range snapshot {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(m); err != nil {
			return err
		}
	}
	return nil
}

func (r *MapRepository[T]) ForEachID(ctx context.Context, fn func(string) error) error {
	ids, err := r.FindIDs(ctx)
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

func (r *MapRepository[T]) snapshot(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]T, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, m)
	}
	return out, nil
}
