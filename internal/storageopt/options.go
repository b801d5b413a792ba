package storageopt

import (
	"time"

	"github.com/omeyang/xstore/pkg/observability/xlog"
	"github.com/omeyang/xstore/pkg/observability/xmetrics"
)

// SlowOpInfo 描述一次慢操作。
type SlowOpInfo struct {
	Component  string
	Collection string
	Operation  string
	ModelID    string
	Duration   time.Duration
}

// Options 是各存储后端共用的观测配置。
type Options struct {
	// Observer 默认 NoopObserver。
	Observer xmetrics.Observer

	// Logger 记录失败的操作，默认 xlog.Default()。
	Logger xlog.Logger

	// HealthTimeout 健康检查超时，默认 5 秒。
	HealthTimeout time.Duration

	// SlowThreshold 为 0 时禁用慢操作检测。
	SlowThreshold time.Duration

	SlowHook      SyncHook[SlowOpInfo]
	AsyncSlowHook AsyncHook[SlowOpInfo]
}

// Option 修改 Options。
type Option func(*Options)

// DefaultOptions 返回默认配置。
func DefaultOptions() Options {
	return Options{
		Observer:      xmetrics.NoopObserver{},
		HealthTimeout: DefaultHealthTimeout,
	}
}

// Apply 依次应用 opts，跳过 nil。
func Apply(opts []Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.Logger == nil {
		o.Logger = xlog.Default()
	}
	return o
}

// WithObserver 设置观测接口，nil 忽略。
func WithObserver(obs xmetrics.Observer) Option {
	return func(o *Options) {
		if obs != nil {
			o.Observer = obs
		}
	}
}

// WithLogger 设置日志，nil 忽略。
func WithLogger(l xlog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithHealthTimeout 设置健康检查超时。
func WithHealthTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.HealthTimeout = d
		}
	}
}

// WithSlowThreshold 设置慢操作阈值。
func WithSlowThreshold(d time.Duration) Option {
	return func(o *Options) {
		o.SlowThreshold = d
	}
}

// WithSlowHook 设置慢操作同步钩子。
func WithSlowHook(h SyncHook[SlowOpInfo]) Option {
	return func(o *Options) {
		o.SlowHook = h
	}
}

// WithAsyncSlowHook 设置慢操作异步钩子。
func WithAsyncSlowHook(h AsyncHook[SlowOpInfo]) Option {
	return func(o *Options) {
		o.AsyncSlowHook = h
	}
}
