package xmodel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

var _ Repository[Model] = (*FallbackRepository[Model])(nil)

// FallbackRepository 组合持久化的 main 仓库与缓存性质的 fallback 仓库
//
// Repository 方法全部委托给 main；InFallback 系列只访问 fallback；
// InBoth、Load、Upload 系列在两层之间搬运模型。
type FallbackRepository[T Model] struct {
	main     Repository[T]
	fallback Repository[T]

	loads       singleflight.Group
	loadTimeout time.Duration
}

// FallbackOption 配置 FallbackRepository
type FallbackOption func(*fallbackOptions)

type fallbackOptions struct {
	loadTimeout time.Duration
}

// WithLoadTimeout 设置合并加载的独立超时
//
// 合并后的加载不随单个调用方的 ctx 取消，这个超时防止 main 挂起时加载永不结束。
// 默认 30 秒，<= 0 忽略。
func WithLoadTimeout(d time.Duration) FallbackOption {
	return func(o *fallbackOptions) {
		if d > 0 {
			o.loadTimeout = d
		}
	}
}

// DefaultLoadTimeout 合并加载的默认超时
const DefaultLoadTimeout = 30 * time.Second

// NewFallbackRepository 创建组合仓库
func NewFallbackRepository[T Model](main, fallback Repository[T], opts ...FallbackOption) (*FallbackRepository[T], error) {
	if main == nil || fallback == nil {
		return nil, ErrNilRepository
	}
	o := fallbackOptions{loadTimeout: DefaultLoadTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return &FallbackRepository[T]{main: main, fallback: fallback, loadTimeout: o.loadTimeout}, nil
}

// Main 返回主仓库
func (r *FallbackRepository[T]) Main() Repository[T] { return r.main }

// Fallback 返回 fallback 仓库
func (r *FallbackRepository[T]) Fallback() Repository[T] { return r.fallback }

func (r *FallbackRepository[T]) Find(ctx context.Context, id string) (T, error) {
	return r.main.Find(ctx, id)
}

func (r *FallbackRepository[T]) Exists(ctx context.Context, id string) (bool, error) {
	return r.main.Exists(ctx, id)
}

func (r *FallbackRepository[T]) Save(ctx context.Context, model T) (T, error) {
	return r.main.Save(ctx, model)
}

func (r *FallbackRepository[T]) Delete(ctx context.Context, id string) (bool, error) {
	return r.main.Delete(ctx, id)
}

func (r *FallbackRepository[T]) DeleteAndRetrieve(ctx context.Context, id string) (T, error) {
	return r.main.DeleteAndRetrieve(ctx, id)
}

func (r *FallbackRepository[T]) DeleteAll(ctx context.Context) error {
	return r.main.DeleteAll(ctx)
}

func (r *FallbackRepository[T]) FindAll(ctx context.Context, postLoad func(T)) ([]T, error) {
	return r.main.FindAll(ctx, postLoad)
}

func (r *FallbackRepository[T]) FindIDs(ctx context.Context) ([]string, error) {
	return r.main.FindIDs(ctx)
}

func (r *FallbackRepository[T]) ForEach(ctx context.Context, fn func(T) error) error {
	return r.main.ForEach(ctx, fn)
}

func (r *FallbackRepository[T]) ForEachID(ctx context.Context, fn func(string) error) error {
	return r.main.ForEachID(ctx, fn)
}

// ---- fallback 层 ----

func (r *FallbackRepository[T]) FindInFallback(ctx context.Context, id string) (T, error) {
	return r.fallback.Find(ctx, id)
}

func (r *FallbackRepository[T]) ExistsInFallback(ctx context.Context, id string) (bool, error) {
	return r.fallback.Exists(ctx, id)
}

func (r *FallbackRepository[T]) SaveInFallback(ctx context.Context, model T) (T, error) {
	return r.fallback.Save(ctx, model)
}

func (r *FallbackRepository[T]) DeleteInFallback(ctx context.Context, id string) (bool, error) {
	return r.fallback.Delete(ctx, id)
}

func (r *FallbackRepository[T]) DeleteAndRetrieveInFallback(ctx context.Context, id string) (T, error) {
	return r.fallback.DeleteAndRetrieve(ctx, id)
}

func (r *FallbackRepository[T]) DeleteAllInFallback(ctx context.Context) error {
	return r.fallback.DeleteAll(ctx)
}

func (r *FallbackRepository[T]) FindAllInFallback(ctx context.Context, postLoad func(T)) ([]T, error) {
	return r.fallback.FindAll(ctx, postLoad)
}

func (r *FallbackRepository[T]) FindIDsInFallback(ctx context.Context) ([]string, error) {
	return r.fallback.FindIDs(ctx)
}

func (r *FallbackRepository[T]) ForEachInFallback(ctx context.Context, fn func(T) error) error {
	return r.fallback.ForEach(ctx, fn)
}

func (r *FallbackRepository[T]) ForEachIDInFallback(ctx context.Context, fn func(string) error) error {
	return r.fallback.ForEachID(ctx, fn)
}

// ---- 两层组合 ----

// FindInBoth 先查 fallback 再查 main，不回写
func (r *FallbackRepository[T]) FindInBoth(ctx context.Context, id string) (T, error) {
	m, err := r.fallback.Find(ctx, id)
	if err == nil || !IsNotFound(err) {
		return m, err
	}
	return r.main.Find(ctx, id)
}

// FindAndSaveToFallback 从 main 读取，找到后写入 fallback
func (r *FallbackRepository[T]) FindAndSaveToFallback(ctx context.Context, id string) (T, error) {
	m, err := r.main.Find(ctx, id)
	if err != nil {
		return Zero[T](), err
	}
	if _, err := r.fallback.Save(ctx, m); err != nil {
		return Zero[T](), fmt.Errorf("xmodel: save %s to fallback: %w", id, err)
	}
	return m, nil
}

// FindInBothAndSaveToFallback fallback 命中直接返回，否则从 main 加载并写入 fallback
//
// 同一 id 的并发未命中合并为一次 main 加载。每个调用方仍可通过自己的 ctx 提前放弃等待。
func (r *FallbackRepository[T]) FindInBothAndSaveToFallback(ctx context.Context, id string) (T, error) {
	m, err := r.fallback.Find(ctx, id)
	if err == nil || !IsNotFound(err) {
		return m, err
	}

	ch := r.loads.DoChan(id, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.loadTimeout)
		defer cancel()
		return r.FindAndSaveToFallback(loadCtx, id)
	})

	select {
	case <-ctx.Done():
		return Zero[T](), ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Zero[T](), res.Err
		}
		loaded, ok := res.Val.(T)
		if !ok {
			return Zero[T](), errors.New("xmodel: unexpected singleflight result type")
		}
		return loaded, nil
	}
}

// ExistsInAny fallback 或 main 中任一存在
func (r *FallbackRepository[T]) ExistsInAny(ctx context.Context, id string) (bool, error) {
	ok, err := r.fallback.Exists(ctx, id)
	if err != nil || ok {
		return ok, err
	}
	return r.main.Exists(ctx, id)
}

// ExistsInBoth fallback 与 main 中都存在
func (r *FallbackRepository[T]) ExistsInBoth(ctx context.Context, id string) (bool, error) {
	ok, err := r.fallback.Exists(ctx, id)
	if err != nil || !ok {
		return false, err
	}
	return r.main.Exists(ctx, id)
}

// SaveInBoth 先写 fallback 再写 main
func (r *FallbackRepository[T]) SaveInBoth(ctx context.Context, model T) (T, error) {
	if _, err := r.fallback.Save(ctx, model); err != nil {
		return Zero[T](), err
	}
	return r.main.Save(ctx, model)
}

// DeleteInBoth 两层都尝试删除，两层都删到数据才返回 true
func (r *FallbackRepository[T]) DeleteInBoth(ctx context.Context, id string) (bool, error) {
	inFallback, errF := r.fallback.Delete(ctx, id)
	inMain, errM := r.main.Delete(ctx, id)
	if err := errors.Join(errF, errM); err != nil {
		return false, err
	}
	return inFallback && inMain, nil
}

// LoadAll 从 main 加载全部模型并写入 fallback
func (r *FallbackRepository[T]) LoadAll(ctx context.Context, postLoad func(T)) ([]T, error) {
	models, err := r.main.FindAll(ctx, postLoad)
	if err != nil {
		return nil, err
	}
	for _, m := range models {
		if _, err := r.fallback.Save(ctx, m); err != nil {
			return nil, fmt.Errorf("xmodel: load %s into fallback: %w", m.ID(), err)
		}
	}
	return models, nil
}

// SaveAll 把 fallback 中的每个模型经 preSave 处理后写入 main，fallback 保持不变
func (r *FallbackRepository[T]) SaveAll(ctx context.Context, preSave func(T)) error {
	return r.fallback.ForEach(ctx, func(m T) error {
		if preSave != nil {
			preSave(m)
		}
		if _, err := r.main.Save(ctx, m); err != nil {
			return fmt.Errorf("xmodel: save %s to main: %w", m.ID(), err)
		}
		return nil
	})
}

// Upload 把模型从 fallback 移到 main
//
// 先写入 main 再从 fallback 删除，写入失败时模型仍留在 fallback。
func (r *FallbackRepository[T]) Upload(ctx context.Context, id string) (T, error) {
	m, err := r.fallback.Find(ctx, id)
	if err != nil {
		return Zero[T](), err
	}
	saved, err := r.main.Save(ctx, m)
	if err != nil {
		return Zero[T](), fmt.Errorf("xmodel: upload %s to main: %w", id, err)
	}
	if _, err := r.fallback.Delete(ctx, id); err != nil {
		return saved, fmt.Errorf("xmodel: upload %s: delete from fallback: %w", id, err)
	}
	return saved, nil
}

// UploadAll 把 fallback 中的全部模型写入 main 后清空 fallback
//
// 任一模型写入失败时不清空 fallback。
func (r *FallbackRepository[T]) UploadAll(ctx context.Context, preUpload func(T)) error {
	if err := r.SaveAll(ctx, preUpload); err != nil {
		return err
	}
	return r.fallback.DeleteAll(ctx)
}
