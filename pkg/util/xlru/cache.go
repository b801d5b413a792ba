package xlru

import (
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MaxSize Config.Size 上限
const MaxSize = 1 << 24

// ErrInvalidConfig Config 取值越界
var ErrInvalidConfig = errors.New("xlru: invalid config")

// Config 缓存容量与过期时间
type Config struct {
	// Size 取值 (0, MaxSize]
	Size int
	// TTL 0 表示不过期
	TTL time.Duration
}

func (c Config) validate() error {
	if c.Size <= 0 || c.Size > MaxSize {
		return fmt.Errorf("%w: size %d not in (0, %d]", ErrInvalidConfig, c.Size, MaxSize)
	}
	if c.TTL < 0 {
		return fmt.Errorf("%w: negative ttl %s", ErrInvalidConfig, c.TTL)
	}
	return nil
}

// Option 缓存选项
type Option[K comparable, V any] func(*Cache[K, V])

// WithOnEvicted 条目被淘汰、过期或删除时回调
//
// 回调持有内部锁，不能再调用同一个 Cache。
func WithOnEvicted[K comparable, V any](fn func(key K, value V)) Option[K, V] {
	return func(c *Cache[K, V]) { c.onEvicted = fn }
}

// Cache 并发安全、可选 TTL 的 LRU 缓存
//
// Close 之后所有读取返回未命中，写入被丢弃。
type Cache[K comparable, V any] struct {
	lru       atomic.Pointer[expirable.LRU[K, V]]
	onEvicted func(key K, value V)
}

// New 按 cfg 创建缓存
func New[K comparable, V any](cfg Config, opts ...Option[K, V]) (*Cache[K, V], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	c := &Cache[K, V]{}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.lru.Store(expirable.NewLRU(cfg.Size, c.onEvicted, cfg.TTL))
	return c, nil
}

// Get 命中时把条目移到最新位置
func (c *Cache[K, V]) Get(key K) (value V, ok bool) {
	if l := c.lru.Load(); l != nil {
		return l.Get(key)
	}
	return value, false
}

// Contains 不改变淘汰顺序，已过期视为不存在
func (c *Cache[K, V]) Contains(key K) bool {
	l := c.lru.Load()
	if l == nil {
		return false
	}
	// expirable.LRU.Contains 不看 TTL
	_, ok := l.Peek(key)
	return ok
}

// Set 返回是否因容量淘汰了旧条目
func (c *Cache[K, V]) Set(key K, value V) bool {
	if l := c.lru.Load(); l != nil {
		return l.Add(key, value)
	}
	return false
}

// Delete 返回键是否存在
func (c *Cache[K, V]) Delete(key K) bool {
	if l := c.lru.Load(); l != nil {
		return l.Remove(key)
	}
	return false
}

// Take 取出并删除条目，与并发 Delete 竞争时以删除成功的一方为准
func (c *Cache[K, V]) Take(key K) (value V, ok bool) {
	l := c.lru.Load()
	if l == nil {
		return value, false
	}
	if value, ok = l.Peek(key); !ok || !l.Remove(key) {
		var zero V
		return zero, false
	}
	return value, true
}

// Clear 删除全部条目
func (c *Cache[K, V]) Clear() {
	if l := c.lru.Load(); l != nil {
		l.Purge()
	}
}

// Len 可能包含已过期但未清理的条目
func (c *Cache[K, V]) Len() int {
	if l := c.lru.Load(); l != nil {
		return l.Len()
	}
	return 0
}

// Keys 未过期的键，从旧到新
func (c *Cache[K, V]) Keys() []K {
	if l := c.lru.Load(); l != nil {
		return l.Keys()
	}
	return nil
}

// Values 与 Keys 顺序一致
func (c *Cache[K, V]) Values() []V {
	if l := c.lru.Load(); l != nil {
		return l.Values()
	}
	return nil
}

// Close 清空缓存并结束过期清理 goroutine，可重复调用
func (c *Cache[K, V]) Close() {
	if l := c.lru.Swap(nil); l != nil {
		l.Purge()
		closeDone(l)
	}
}

// closeDone 关闭 expirable.LRU 未导出的 done 通道
//
// golang-lru v2 在 TTL > 0 时启动清理 goroutine 却没有 Close 方法。
// 字段结构不符时什么也不做，goroutine 随进程存活。
func closeDone(lru any) {
	defer func() { _ = recover() }()

	v := reflect.ValueOf(lru)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return
	}
	done := v.Elem().FieldByName("done")
	if !done.IsValid() || done.Type() != reflect.TypeFor[chan struct{}]() || done.IsNil() {
		return
	}
	close(*(*chan struct{})(unsafe.Pointer(done.UnsafeAddr()))) //nolint:gosec // 上游未导出字段
}
