package xrun

import (
	"errors"

	"github.com/omeyang/xstore/pkg/observability/xlog"
)

// ErrNilFunc Go 传入了 nil 服务
var ErrNilFunc = errors.New("xrun: nil service func")

// Option 配置 Group
type Option func(*options)

type options struct {
	logger xlog.Logger
	name   string
}

func defaultOptions() *options {
	return &options{
		logger: xlog.Default(),
		name:   "xrun",
	}
}

// WithLogger 记录服务的启动与退出，默认使用 xlog.Default()
func WithLogger(logger xlog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithName 设置日志中的 group 名称
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}
