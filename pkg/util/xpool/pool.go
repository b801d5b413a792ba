package xpool

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/omeyang/xstore/pkg/observability/xlog"
)

const (
	maxWorkers   = 1 << 16
	maxQueueSize = 1 << 24

	defaultQueueSize = 100
)

var _ io.Closer = (*Pool[int])(nil)

// Pool 是泛型 worker pool。
// New 创建后 worker 立即启动，Submit 永不阻塞。
type Pool[T any] struct {
	workers   int
	queueSize int
	handler   func(T)
	opts      options

	queue   chan T
	wg      sync.WaitGroup
	mu      sync.RWMutex // 保护 queue 的关闭与发送
	closed  atomic.Bool
	done    chan struct{}
	pending atomic.Int64
}

// New 创建并启动 worker pool。
//
// workers 取值 [1, 65536]；queueSize 为 0 时使用默认值 100，否则取值 [1, 16777216]。
func New[T any](workers, queueSize int, handler func(T), opts ...Option) (*Pool[T], error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	if workers < 1 || workers > maxWorkers {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWorkers, workers)
	}
	if queueSize == 0 {
		queueSize = defaultQueueSize
	}
	if queueSize < 1 || queueSize > maxQueueSize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidQueueSize, queueSize)
	}

	o := options{logger: xlog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	p := &Pool[T]{
		workers:   workers,
		queueSize: queueSize,
		handler:   handler,
		opts:      o,
		queue:     make(chan T, queueSize),
		done:      make(chan struct{}),
	}
	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}
	go func() {
		p.wg.Wait()
		close(p.done)
	}()
	return p, nil
}

func (p *Pool[T]) worker() {
	defer p.wg.Done()
	for task := range p.queue {
		p.run(task)
		p.pending.Add(-1)
	}
}

func (p *Pool[T]) run(task T) {
	defer func() {
		if r := recover(); r != nil {
			attrs := []slog.Attr{slog.Any("panic", r), slog.String("task_type", fmt.Sprintf("%T", task))}
			if p.opts.name != "" {
				attrs = append(attrs, xlog.Component(p.opts.name))
			}
			if p.opts.logTaskValue {
				attrs = append(attrs, slog.Any("task", task))
			}
			p.opts.logger.Stack(context.Background(), "xpool: worker panic recovered", attrs...)
		}
	}()
	p.handler(task)
}

// Submit 非阻塞提交任务。
// 队列满返回 ErrQueueFull，pool 已关闭返回 ErrPoolStopped。
func (p *Pool[T]) Submit(task T) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed.Load() {
		return ErrPoolStopped
	}
	select {
	case p.queue <- task:
		p.pending.Add(1)
		return nil
	default:
		return ErrQueueFull
	}
}

// Close 等待队列中所有任务处理完成后返回。
// 重复调用返回 ErrPoolStopped。
func (p *Pool[T]) Close() error {
	return p.Shutdown(context.Background())
}

// Shutdown 拒绝新任务并等待剩余任务完成。
// ctx 到期时立即返回 ctx 错误，残留 worker 继续处理队列，可通过 Done 等待。
func (p *Pool[T]) Shutdown(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	p.mu.Lock()
	if !p.closed.CompareAndSwap(false, true) {
		p.mu.Unlock()
		return ErrPoolStopped
	}
	close(p.queue)
	p.mu.Unlock()

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done 在所有 worker 退出后关闭。
func (p *Pool[T]) Done() <-chan struct{} {
	return p.done
}

// Workers 返回 worker 数量。
func (p *Pool[T]) Workers() int {
	return p.workers
}

// QueueSize 返回队列容量。
func (p *Pool[T]) QueueSize() int {
	return p.queueSize
}

// Pending 返回已提交但尚未处理完成的任务数。
func (p *Pool[T]) Pending() int64 {
	return p.pending.Load()
}
