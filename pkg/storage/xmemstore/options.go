package xmemstore

import "time"

// DefaultSize 默认最大条目数
const DefaultSize = 10000

// Option 配置 Store
type Option[T any] func(*options[T])

type options[T any] struct {
	size      int
	ttl       time.Duration
	name      string
	onEvicted func(id string, model T)
}

func defaultOptions[T any]() options[T] {
	return options[T]{size: DefaultSize, name: "memory"}
}

// WithSize 设置最大条目数，超出时淘汰最久未访问的模型
func WithSize[T any](n int) Option[T] {
	return func(o *options[T]) { o.size = n }
}

// WithTTL 设置写入后的过期时间，0 表示永不过期
func WithTTL[T any](d time.Duration) Option[T] {
	return func(o *options[T]) { o.ttl = d }
}

// WithName 设置仓库名，出现在 Describe 与观测属性中
func WithName[T any](name string) Option[T] {
	return func(o *options[T]) {
		if name != "" {
			o.name = name
		}
	}
}

// WithOnEvicted 设置淘汰或过期回调，删除操作也会触发
//
// 回调在缓存内部锁中执行，不得回调 Store 的方法。
func WithOnEvicted[T any](fn func(id string, model T)) Option[T] {
	return func(o *options[T]) { o.onEvicted = fn }
}
