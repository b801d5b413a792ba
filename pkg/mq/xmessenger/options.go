package xmessenger

import (
	"time"

	"github.com/omeyang/xstore/pkg/observability/xlog"
)

// 默认参数
const (
	DefaultDispatchWorkers = 4
	DefaultDispatchQueue   = 1024
	DefaultPublishAttempts = 3
	DefaultPublishDelay    = 50 * time.Millisecond
)

// Option 配置 Messenger
type Option func(*options)

type options struct {
	logger          xlog.Logger
	workers         int
	queue           int
	publishAttempts uint
	publishDelay    time.Duration
}

func defaultOptions() options {
	return options{
		workers:         DefaultDispatchWorkers,
		queue:           DefaultDispatchQueue,
		publishAttempts: DefaultPublishAttempts,
		publishDelay:    DefaultPublishDelay,
	}
}

// WithLogger 设置日志，默认 xlog.Default()
func WithLogger(l xlog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithDispatch 设置分发监听器的 worker 数与队列容量
//
// workers 为 1 时同一进程内的消息按接收顺序回调。
func WithDispatch(workers, queue int) Option {
	return func(o *options) {
		if workers > 0 {
			o.workers = workers
		}
		if queue > 0 {
			o.queue = queue
		}
	}
}

// WithPublishRetry 设置发布失败时的尝试次数与初始退避
func WithPublishRetry(attempts uint, delay time.Duration) Option {
	return func(o *options) {
		if attempts > 0 {
			o.publishAttempts = attempts
		}
		if delay > 0 {
			o.publishDelay = delay
		}
	}
}
