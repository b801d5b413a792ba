package xbreaker

import (
	"context"
	"errors"

	"github.com/omeyang/xstore/pkg/model/xmodel"
)

var _ xmodel.Repository[xmodel.Model] = (*Repository[xmodel.Model])(nil)

// Repository 让仓库的每次调用经过熔断器
//
// 模型不存在、参数错误、ctx 取消以及 ForEach 回调返回的错误都属于调用方，
// 原样返回但按成功统计，只有后端故障会推动熔断。
type Repository[T xmodel.Model] struct {
	repo    xmodel.Repository[T]
	breaker *Breaker
}

// Protect 用 b 保护 repo
func Protect[T xmodel.Model](repo xmodel.Repository[T], b *Breaker) (*Repository[T], error) {
	if repo == nil {
		return nil, xmodel.ErrNilRepository
	}
	if b == nil {
		return nil, ErrNilBreaker
	}
	return &Repository[T]{repo: repo, breaker: b}, nil
}

// Breaker 返回使用的熔断器
func (r *Repository[T]) Breaker() *Breaker { return r.breaker }

// Unwrap 返回被保护的仓库
func (r *Repository[T]) Unwrap() xmodel.Repository[T] { return r.repo }

// callbackError 标记来自 ForEach 回调的错误
type callbackError struct{ err error }

func (e *callbackError) Error() string { return e.err.Error() }
func (e *callbackError) Unwrap() error { return e.err }

func callerFault(err error) bool {
	var ce *callbackError
	return xmodel.IsNotFound(err) ||
		errors.Is(err, xmodel.ErrEmptyID) ||
		errors.Is(err, xmodel.ErrNilModel) ||
		errors.Is(err, context.Canceled) ||
		errors.As(err, &ce)
}

func (r *Repository[T]) call(ctx context.Context, fn func() error) error {
	var passed error
	err := r.breaker.Do(ctx, func() error {
		err := fn()
		if err != nil && callerFault(err) {
			passed = err
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}
	var ce *callbackError
	if errors.As(passed, &ce) {
		return ce.err
	}
	return passed
}

func callValue[T xmodel.Model, V any](ctx context.Context, r *Repository[T], fn func() (V, error)) (V, error) {
	var out V
	err := r.call(ctx, func() error {
		var err error
		out, err = fn()
		return err
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return out, nil
}

func (r *Repository[T]) Find(ctx context.Context, id string) (T, error) {
	return callValue(ctx, r, func() (T, error) { return r.repo.Find(ctx, id) })
}

func (r *Repository[T]) Exists(ctx context.Context, id string) (bool, error) {
	return callValue(ctx, r, func() (bool, error) { return r.repo.Exists(ctx, id) })
}

func (r *Repository[T]) Save(ctx context.Context, model T) (T, error) {
	return callValue(ctx, r, func() (T, error) { return r.repo.Save(ctx, model) })
}

func (r *Repository[T]) Delete(ctx context.Context, id string) (bool, error) {
	return callValue(ctx, r, func() (bool, error) { return r.repo.Delete(ctx, id) })
}

func (r *Repository[T]) DeleteAndRetrieve(ctx context.Context, id string) (T, error) {
	return callValue(ctx, r, func() (T, error) { return r.repo.DeleteAndRetrieve(ctx, id) })
}

func (r *Repository[T]) DeleteAll(ctx context.Context) error {
	return r.call(ctx, func() error { return r.repo.DeleteAll(ctx) })
}

func (r *Repository[T]) FindAll(ctx context.Context, postLoad func(T)) ([]T, error) {
	return callValue(ctx, r, func() ([]T, error) { return r.repo.FindAll(ctx, postLoad) })
}

func (r *Repository[T]) FindIDs(ctx context.Context) ([]string, error) {
	return callValue(ctx, r, func() ([]string, error) { return r.repo.FindIDs(ctx) })
}

func (r *Repository[T]) ForEach(ctx context.Context, fn func(T) error) error {
	return r.call(ctx, func() error {
		return r.repo.ForEach(ctx, func(m T) error {
			if err := fn(m); err != nil {
				return &callbackError{err: err}
			}
			return nil
		})
	})
}

func (r *Repository[T]) ForEachID(ctx context.Context, fn func(string) error) error {
	return r.call(ctx, func() error {
		return r.repo.ForEachID(ctx, func(id string) error {
			if err := fn(id); err != nil {
				return &callbackError{err: err}
			}
			return nil
		})
	})
}
