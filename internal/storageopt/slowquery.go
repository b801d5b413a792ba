package storageopt

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/omeyang/xstore/pkg/util/xpool"
)

// SyncHook 在请求路径上同步执行，必须足够轻量
type SyncHook[T any] func(ctx context.Context, info T)

// AsyncHook 在 worker pool 中执行，拿不到请求的 ctx，执行时请求可能已经结束
type AsyncHook[T any] func(info T)

// 异步钩子 pool 的默认规模
const (
	DefaultAsyncWorkers = 10
	DefaultAsyncQueue   = 1000
)

// SlowDetector 耗时达到阈值时触发钩子
//
// 异步钩子的队列满时丢弃通知，不阻塞请求。
type SlowDetector[T any] struct {
	threshold time.Duration
	syncHook  SyncHook[T]

	mu   sync.RWMutex
	pool *xpool.Pool[T] // Close 后置为 nil
}

// NewSlowDetector threshold 为 0 时禁用；async 非 nil 时立即启动 worker pool
func NewSlowDetector[T any](threshold time.Duration, syncHook SyncHook[T], asyncHook AsyncHook[T], poolOpts ...xpool.Option) (*SlowDetector[T], error) {
	d := &SlowDetector[T]{threshold: threshold, syncHook: syncHook}
	if asyncHook == nil || threshold <= 0 {
		return d, nil
	}
	opts := append([]xpool.Option{xpool.WithName("slow-op")}, poolOpts...)
	pool, err := xpool.New(DefaultAsyncWorkers, DefaultAsyncQueue, func(info T) { asyncHook(info) }, opts...)
	if err != nil {
		return nil, fmt.Errorf("storageopt: slow hook pool: %w", err)
	}
	d.pool = pool
	return d, nil
}

// Observe 耗时达到阈值时触发钩子并返回 true
func (d *SlowDetector[T]) Observe(ctx context.Context, info T, elapsed time.Duration) bool {
	if d == nil || d.threshold <= 0 || elapsed < d.threshold {
		return false
	}
	if d.syncHook != nil {
		d.syncHook(ctx, info)
	}
	d.mu.RLock()
	if d.pool != nil {
		_ = d.pool.Submit(info) //nolint:errcheck // 队列满时丢弃
	}
	d.mu.RUnlock()
	return true
}

// Close 等待已排队的异步钩子执行完，幂等
func (d *SlowDetector[T]) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	pool := d.pool
	d.pool = nil
	d.mu.Unlock()
	if pool != nil {
		_ = pool.Close() //nolint:errcheck // pool 只在这里关闭
	}
}
