package xmodel

import (
	"context"
	"fmt"
	"sync"

	"github.com/omeyang/xstore/pkg/util/xpool"
)

// Executor 异步任务执行器，Submit 返回 false 表示任务被拒绝
type Executor interface {
	Submit(task func()) bool
}

// ExecutorFunc 函数形式的 Executor
type ExecutorFunc func(task func()) bool

// Submit 实现 Executor
func (f ExecutorFunc) Submit(task func()) bool { return f(task) }

// InlineExecutor 为每个任务启动一个 goroutine，从不拒绝
var InlineExecutor Executor = ExecutorFunc(func(task func()) bool {
	go task()
	return true
})

// PoolExecutor 基于 xpool 的有界执行器，队列满或关闭后拒绝任务
type PoolExecutor struct {
	pool *xpool.Pool[func()]
}

// NewPoolExecutor 创建执行器，使用完毕必须 Close
func NewPoolExecutor(workers, queueSize int, opts ...xpool.Option) (*PoolExecutor, error) {
	opts = append([]xpool.Option{xpool.WithName("xmodel-executor")}, opts...)
	pool, err := xpool.New(workers, queueSize, func(task func()) { task() }, opts...)
	if err != nil {
		return nil, err
	}
	return &PoolExecutor{pool: pool}, nil
}

// Submit 实现 Executor
func (e *PoolExecutor) Submit(task func()) bool {
	return e.pool.Submit(task) == nil
}

// Close 等待已提交的任务执行完毕
func (e *PoolExecutor) Close() error {
	return e.pool.Close()
}

// Shutdown 在 ctx 到期前等待任务执行完毕
func (e *PoolExecutor) Shutdown(ctx context.Context) error {
	return e.pool.Shutdown(ctx)
}

// Future 异步结果
type Future[V any] struct {
	done chan struct{}
	once sync.Once
	val  V
	err  error
}

func newFuture[V any]() *Future[V] {
	return &Future[V]{done: make(chan struct{})}
}

func (f *Future[V]) complete(v V, err error) {
	f.once.Do(func() {
		f.val, f.err = v, err
		close(f.done)
	})
}

// Done 结果就绪时关闭
func (f *Future[V]) Done() <-chan struct{} {
	return f.done
}

// Wait 等待结果，ctx 结束时返回 ctx.Err()，任务本身不会被取消
func (f *Future[V]) Wait(ctx context.Context) (V, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		return Zero[V](), ctx.Err()
	}
}

// Go 在 exec 上执行 fn 并返回 Future
//
// 任务被拒绝时 Future 以 ErrExecutorRejected 完成；fn panic 时以错误完成。
func Go[V any](exec Executor, fn func() (V, error)) *Future[V] {
	f := newFuture[V]()
	if exec == nil {
		exec = InlineExecutor
	}
	task := func() {
		defer func() {
			if r := recover(); r != nil {
				f.complete(Zero[V](), fmt.Errorf("xmodel: async task panicked: %v", r))
			}
		}()
		f.complete(fn())
	}
	if !exec.Submit(task) {
		f.complete(Zero[V](), ErrExecutorRejected)
	}
	return f
}

// Async 为仓库提供返回 Future 的异步方法
//
// 异步任务使用创建 Future 时传入的 ctx。
type Async[T Model] struct {
	repo Repository[T]
	exec Executor
}

// NewAsync 创建异步包装，exec 为 nil 时使用 InlineExecutor
func NewAsync[T Model](repo Repository[T], exec Executor) (*Async[T], error) {
	if repo == nil {
		return nil, ErrNilRepository
	}
	if exec == nil {
		exec = InlineExecutor
	}
	return &Async[T]{repo: repo, exec: exec}, nil
}

// Repository 返回被包装的仓库
func (a *Async[T]) Repository() Repository[T] { return a.repo }

// Executor 返回执行器
func (a *Async[T]) Executor() Executor { return a.exec }

func (a *Async[T]) FindAsync(ctx context.Context, id string) *Future[T] {
	return Go(a.exec, func() (T, error) { return a.repo.Find(ctx, id) })
}

func (a *Async[T]) ExistsAsync(ctx context.Context, id string) *Future[bool] {
	return Go(a.exec, func() (bool, error) { return a.repo.Exists(ctx, id) })
}

func (a *Async[T]) SaveAsync(ctx context.Context, model T) *Future[T] {
	return Go(a.exec, func() (T, error) { return a.repo.Save(ctx, model) })
}

func (a *Async[T]) DeleteAsync(ctx context.Context, id string) *Future[bool] {
	return Go(a.exec, func() (bool, error) { return a.repo.Delete(ctx, id) })
}

func (a *Async[T]) DeleteAndRetrieveAsync(ctx context.Context, id string) *Future[T] {
	return Go(a.exec, func() (T, error) { return a.repo.DeleteAndRetrieve(ctx, id) })
}

func (a *Async[T]) DeleteAllAsync(ctx context.Context) *Future[struct{}] {
	return Go(a.exec, func() (struct{}, error) { return struct{}{}, a.repo.DeleteAll(ctx) })
}

func (a *Async[T]) FindAllAsync(ctx context.Context, postLoad func(T)) *Future[[]T] {
	return Go(a.exec, func() ([]T, error) { return a.repo.FindAll(ctx, postLoad) })
}

func (a *Async[T]) FindIDsAsync(ctx context.Context) *Future[[]string] {
	return Go(a.exec, func() ([]string, error) { return a.repo.FindIDs(ctx) })
}

func (a *Async[T]) ForEachAsync(ctx context.Context, fn func(T) error) *Future[struct{}] {
	return Go(a.exec, func() (struct{}, error) { return struct{}{}, a.repo.ForEach(ctx, fn) })
}
