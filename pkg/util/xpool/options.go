package xpool

import "github.com/omeyang/xstore/pkg/observability/xlog"

// Option 配置 Pool
type Option func(*options)

type options struct {
	logger       xlog.Logger
	name         string
	logTaskValue bool
}

// WithLogger 记录 worker 中恢复的 panic，默认 xlog.Default()
func WithLogger(logger xlog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithName 多个 pool 共用 logger 时区分日志来源
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogTaskValue panic 日志附带完整 task 值，默认只有类型，因为 task 可能携带模型数据
func WithLogTaskValue() Option {
	return func(o *options) {
		o.logTaskValue = true
	}
}
