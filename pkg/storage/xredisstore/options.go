package xredisstore

import (
	"time"

	"github.com/omeyang/xstore/pkg/model/xmodel"
	"github.com/omeyang/xstore/pkg/storage/xcache"
)

const (
	// DefaultScanCount 每次 SCAN 的 COUNT 提示
	DefaultScanCount = 256

	// DefaultLockTTL Update 持有分布式锁的时长
	DefaultLockTTL = 5 * time.Second
)

// Option 配置 Store
type Option func(*options)

type options struct {
	expireAfterSave   time.Duration
	expireAfterAccess time.Duration
	scanCount         int64
	lockTTL           time.Duration
	near              xcache.Memory
	instrument        []xmodel.InstrumentOption
}

func defaultOptions() options {
	return options{scanCount: DefaultScanCount, lockTTL: DefaultLockTTL}
}

// WithExpireAfterSave 保存后设置过期时间，0 表示不过期
func WithExpireAfterSave(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.expireAfterSave = d
		}
	}
}

// WithExpireAfterAccess 每次读取后刷新过期时间，0 表示不刷新
func WithExpireAfterAccess(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.expireAfterAccess = d
		}
	}
}

// WithScanCount 设置 SCAN 的 COUNT 提示
func WithScanCount(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.scanCount = n
		}
	}
}

// WithLockTTL 设置 Update 的锁时长，回调必须在此时间内完成
func WithLockTTL(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.lockTTL = d
		}
	}
}

// WithNearCache 在进程内缓存序列化后的文档，减少 Find 的网络往返
//
// 本进程的写操作会同步失效，其他进程的写入在近端缓存 TTL 到期前不可见。
// 缓存应当专属于这个 Store，DeleteAll 会清空整个缓存。命中近端缓存时
// 不刷新 Redis 的访问过期时间。
func WithNearCache(mem xcache.Memory) Option {
	return func(o *options) { o.near = mem }
}

// WithInstrument 为每个操作打开 span，记录失败日志并检测慢操作
func WithInstrument(opts ...xmodel.InstrumentOption) Option {
	return func(o *options) { o.instrument = append(o.instrument, opts...) }
}
