package xkeylock

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

const (
	defaultShardCount = 32
	maxShardCount     = 1 << 16
)

// Handle 表示一次成功的加锁，Unlock 幂等，第二次起返回 ErrLockNotHeld。
type Handle interface {
	Unlock() error
	Key() string
}

// Locker 提供进程内按 key 互斥的锁，非可重入。
type Locker interface {
	io.Closer

	// Acquire 阻塞获取锁，受 ctx 控制。
	Acquire(ctx context.Context, key string) (Handle, error)

	// TryAcquire 非阻塞获取锁，被占用时返回 ErrLockOccupied。
	TryAcquire(key string) (Handle, error)

	// Len 返回活跃 key 数（持有者与等待者）。
	Len() int
}

// Option 定义 Locker 可选配置。
type Option func(*options)

type options struct {
	shardCount int
}

// WithShardCount 设置分片数，必须为 2 的幂且不超过 65536，默认 32。
func WithShardCount(n int) Option {
	return func(o *options) {
		o.shardCount = n
	}
}

// New 创建 Locker。
func New(opts ...Option) (Locker, error) {
	o := options{shardCount: defaultShardCount}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	sc := o.shardCount
	if sc <= 0 || sc > maxShardCount || sc&(sc-1) != 0 {
		return nil, fmt.Errorf("%w: must be a positive power of 2 (max %d), got %d",
			ErrInvalidShardCount, maxShardCount, sc)
	}

	kl := &keyLock{
		shards: make([]shard, sc),
		mask:   uint64(sc - 1),
		done:   make(chan struct{}),
	}
	for i := range kl.shards {
		kl.shards[i].entries = make(map[string]*entry)
	}
	return kl, nil
}

type keyLock struct {
	shards []shard
	mask   uint64
	closed atomic.Bool
	count  atomic.Int64
	done   chan struct{}
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// entry 以容量为 1 的 channel 作为互斥量，refs 统计持有者与等待者。
type entry struct {
	ch   chan struct{}
	refs int
}

type handle struct {
	kl       *keyLock
	key      string
	e        *entry
	unlocked atomic.Bool
}

func (kl *keyLock) shardFor(key string) *shard {
	return &kl.shards[xxhash.Sum64String(key)&kl.mask]
}

func (kl *keyLock) ref(key string) (*entry, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	s := kl.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if kl.closed.Load() {
		return nil, ErrClosed
	}
	e, ok := s.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		s.entries[key] = e
		kl.count.Add(1)
	}
	e.refs++
	return e, nil
}

func (kl *keyLock) unref(key string, e *entry) {
	s := kl.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(s.entries, key)
		kl.count.Add(-1)
	}
}

func (kl *keyLock) Acquire(ctx context.Context, key string) (Handle, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, err := kl.ref(key)
	if err != nil {
		return nil, err
	}
	select {
	case e.ch <- struct{}{}:
		return &handle{kl: kl, key: key, e: e}, nil
	case <-ctx.Done():
		kl.unref(key, e)
		return nil, ctx.Err()
	case <-kl.done:
		kl.unref(key, e)
		return nil, ErrClosed
	}
}

func (kl *keyLock) TryAcquire(key string) (Handle, error) {
	e, err := kl.ref(key)
	if err != nil {
		return nil, err
	}
	select {
	case e.ch <- struct{}{}:
		return &handle{kl: kl, key: key, e: e}, nil
	default:
		kl.unref(key, e)
		return nil, ErrLockOccupied
	}
}

func (kl *keyLock) Len() int {
	return int(max(kl.count.Load(), 0))
}

// Close 唤醒所有等待者并拒绝新的加锁，已持有的 Handle 仍可 Unlock。
func (kl *keyLock) Close() error {
	if !kl.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	close(kl.done)
	return nil
}

func (h *handle) Unlock() error {
	if !h.unlocked.CompareAndSwap(false, true) {
		return ErrLockNotHeld
	}
	<-h.e.ch
	h.kl.unref(h.key, h.e)
	return nil
}

func (h *handle) Key() string {
	return h.key
}

var (
	_ Locker = (*keyLock)(nil)
	_ Handle = (*handle)(nil)
)
