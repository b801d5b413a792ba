package xmodel

import "context"

var _ Repository[Model] = (*Observed[Model])(nil)

// Observed 为任意仓库加上 span、失败日志和慢操作检测
type Observed[T Model] struct {
	repo Repository[T]
	in   *Instrument
}

// Observe 包装仓库，repo 实现 Describer 时 span 会带上 db.system 与 db.collection
//
// 返回值需要 Close 以释放异步慢操作钩子的 worker。
func Observe[T Model](repo Repository[T], component string, opts ...InstrumentOption) (*Observed[T], error) {
	if repo == nil {
		return nil, ErrNilRepository
	}
	var desc Description
	if d, ok := repo.(Describer); ok {
		desc = d.Describe()
	}
	in, err := NewInstrument(component, desc, opts...)
	if err != nil {
		return nil, err
	}
	return &Observed[T]{repo: repo, in: in}, nil
}

// Unwrap 返回被包装的仓库
func (o *Observed[T]) Unwrap() Repository[T] { return o.repo }

// Stats 返回累计的操作数、失败数与慢操作数
func (o *Observed[T]) Stats() Stats { return o.in.Stats() }

// Close 释放观测资源，不关闭被包装的仓库
func (o *Observed[T]) Close() { o.in.Close() }

func (o *Observed[T]) Find(ctx context.Context, id string) (_ T, err error) {
	ctx, end := o.in.Begin(ctx, "find", id)
	defer func() { end(err) }()
	return o.repo.Find(ctx, id)
}

func (o *Observed[T]) Exists(ctx context.Context, id string) (_ bool, err error) {
	ctx, end := o.in.Begin(ctx, "exists", id)
	defer func() { end(err) }()
	return o.repo.Exists(ctx, id)
}

func (o *Observed[T]) Save(ctx context.Context, model T) (_ T, err error) {
	var id string
	if !IsNil(model) {
		id = model.ID()
	}
	ctx, end := o.in.Begin(ctx, "save", id)
	defer func() { end(err) }()
	return o.repo.Save(ctx, model)
}

func (o *Observed[T]) Delete(ctx context.Context, id string) (_ bool, err error) {
	ctx, end := o.in.Begin(ctx, "delete", id)
	defer func() { end(err) }()
	return o.repo.Delete(ctx, id)
}

func (o *Observed[T]) DeleteAndRetrieve(ctx context.Context, id string) (_ T, err error) {
	ctx, end := o.in.Begin(ctx, "delete_and_retrieve", id)
	defer func() { end(err) }()
	return o.repo.DeleteAndRetrieve(ctx, id)
}

func (o *Observed[T]) DeleteAll(ctx context.Context) (err error) {
	ctx, end := o.in.Begin(ctx, "delete_all", "")
	defer func() { end(err) }()
	return o.repo.DeleteAll(ctx)
}

func (o *Observed[T]) FindAll(ctx context.Context, postLoad func(T)) (_ []T, err error) {
	ctx, end := o.in.Begin(ctx, "find_all", "")
	defer func() { end(err) }()
	return o.repo.FindAll(ctx, postLoad)
}

func (o *Observed[T]) FindIDs(ctx context.Context) (_ []string, err error) {
	ctx, end := o.in.Begin(ctx, "find_ids", "")
	defer func() { end(err) }()
	return o.repo.FindIDs(ctx)
}

func (o *Observed[T]) ForEach(ctx context.Context, fn func(T) error) (err error) {
	ctx, end := o.in.Begin(ctx, "for_each", "")
	defer func() { end(err) }()
	return o.repo.ForEach(ctx, fn)
}

func (o *Observed[T]) ForEachID(ctx context.Context, fn func(string) error) (err error) {
	ctx, end := o.in.Begin(ctx, "for_each_id", "")
	defer func() { end(err) }()
	return o.repo.ForEachID(ctx, fn)
}
