package xmodel

import (
	"context"
	"errors"
	"iter"
)

// errStopIteration 调用方提前 break 时终止 ForEach
var errStopIteration = errors.New("xmodel: stop iteration")

// All 把 ForEach 适配为 range-over-func
//
// 出错时产出一次 (零值, err) 后结束：
//
//	for m, err := range xmodel.All(ctx, repo) {
//		if err != nil {
//			return err
//		}
//		...
//	}
func All[T Model](ctx context.Context, repo Repository[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		err := repo.ForEach(ctx, func(m T) error {
			if !yield(m, nil) {
				return errStopIteration
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStopIteration) {
			yield(Zero[T](), err)
		}
	}
}

// IDs 把 ForEachID 适配为 range-over-func
func IDs[T Model](ctx context.Context, repo Repository[T]) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		err := repo.ForEachID(ctx, func(id string) error {
			if !yield(id, nil) {
				return errStopIteration
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStopIteration) {
			yield("", err)
		}
	}
}
