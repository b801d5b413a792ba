package xcache

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Memory 进程内字节缓存，cost 为值的字节数
//
// ristretto 异步落地写入，Set 后需要立即可见时先调用 Wait。
type Memory interface {
	Get(key string) ([]byte, bool)
	// Set 返回 false 表示被准入策略拒绝
	Set(key string, value []byte) bool
	Delete(key string)
	Clear()
	Stats() MemoryStats
	Client() *ristretto.Cache[string, []byte]
	Wait()
	Close() error
}

// MemoryStats 命中与淘汰计数，来自 ristretto.Metrics
type MemoryStats struct {
	Hits        uint64
	Misses      uint64
	HitRatio    float64
	KeysAdded   uint64
	KeysEvicted uint64
	CostAdded   uint64
	CostEvicted uint64
}

// MinMemoryMaxCost WithMemoryMaxCost 的下限
const MinMemoryMaxCost = 1 << 20

type memoryOptions struct {
	counters int64
	maxCost  int64
	buffer   int64
	ttl      time.Duration
}

// MemoryOption 配置 NewMemory
type MemoryOption func(*memoryOptions)

// WithMemoryNumCounters 准入计数器个数，约为预期 key 数的 10 倍
func WithMemoryNumCounters(n int64) MemoryOption {
	return func(o *memoryOptions) {
		if n > 0 {
			o.counters = n
		}
	}
}

// WithMemoryMaxCost 总字节上限，不低于 MinMemoryMaxCost
func WithMemoryMaxCost(cost int64) MemoryOption {
	return func(o *memoryOptions) {
		if cost > 0 {
			o.maxCost = max(cost, MinMemoryMaxCost)
		}
	}
}

func WithMemoryBufferItems(n int64) MemoryOption {
	return func(o *memoryOptions) {
		if n > 0 {
			o.buffer = n
		}
	}
}

// WithMemoryTTL 0 表示不过期
func WithMemoryTTL(ttl time.Duration) MemoryOption {
	return func(o *memoryOptions) {
		if ttl >= 0 {
			o.ttl = ttl
		}
	}
}

type memoryCache struct {
	cache  *ristretto.Cache[string, []byte]
	ttl    time.Duration
	owned  bool
	closed atomic.Bool
}

// NewMemory 默认 1e6 个计数器、64MB 上限、不过期
func NewMemory(opts ...MemoryOption) (Memory, error) {
	o := memoryOptions{counters: 1e6, maxCost: 64 << 20, buffer: 64}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: o.counters,
		MaxCost:     o.maxCost,
		BufferItems: o.buffer,
		Metrics:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("xcache: %w", err)
	}
	return &memoryCache{cache: c, ttl: o.ttl, owned: true}, nil
}

// NewMemoryFromClient 共享外部的 ristretto 实例，Close 不关闭它
func NewMemoryFromClient(client *ristretto.Cache[string, []byte]) (Memory, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if client.Metrics == nil {
		return nil, ErrMetricsDisabled
	}
	return &memoryCache{cache: client}, nil
}

func (m *memoryCache) Get(key string) ([]byte, bool) {
	if m.closed.Load() {
		return nil, false
	}
	return m.cache.Get(key)
}

func (m *memoryCache) Set(key string, value []byte) bool {
	return !m.closed.Load() && m.cache.SetWithTTL(key, value, int64(len(value)), m.ttl)
}

func (m *memoryCache) Delete(key string) {
	if !m.closed.Load() {
		m.cache.Del(key)
	}
}

func (m *memoryCache) Clear() {
	if !m.closed.Load() {
		m.cache.Clear()
	}
}

func (m *memoryCache) Wait() {
	if !m.closed.Load() {
		m.cache.Wait()
	}
}

func (m *memoryCache) Stats() MemoryStats {
	metrics := m.cache.Metrics
	if m.closed.Load() || metrics == nil {
		return MemoryStats{}
	}
	return MemoryStats{
		Hits:        metrics.Hits(),
		Misses:      metrics.Misses(),
		HitRatio:    metrics.Ratio(),
		KeysAdded:   metrics.KeysAdded(),
		KeysEvicted: metrics.KeysEvicted(),
		CostAdded:   metrics.CostAdded(),
		CostEvicted: metrics.CostEvicted(),
	}
}

func (m *memoryCache) Client() *ristretto.Cache[string, []byte] { return m.cache }

func (m *memoryCache) Close() error {
	if m.closed.Swap(true) {
		return ErrClosed
	}
	if m.owned {
		m.cache.Close()
	}
	return nil
}
