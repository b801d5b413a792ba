package xfilestore

import (
	"os"

	"github.com/omeyang/xstore/pkg/observability/xlog"
)

const (
	// DefaultFileMode 模型文件默认权限
	DefaultFileMode os.FileMode = 0o640

	// DefaultDirMode 存储目录默认权限
	DefaultDirMode os.FileMode = 0o750
)

// Option 配置 Store
type Option func(*options)

type options struct {
	pretty   bool
	fileMode os.FileMode
	dirMode  os.FileMode
	logger   xlog.Logger
}

func defaultOptions() options {
	return options{fileMode: DefaultFileMode, dirMode: DefaultDirMode}
}

// WithPrettyPrinting 以两空格缩进写入文件
func WithPrettyPrinting(pretty bool) Option {
	return func(o *options) { o.pretty = pretty }
}

// WithFileMode 设置模型文件权限
func WithFileMode(mode os.FileMode) Option {
	return func(o *options) {
		if mode != 0 {
			o.fileMode = mode
		}
	}
}

// WithDirMode 设置创建存储目录时使用的权限
func WithDirMode(mode os.FileMode) Option {
	return func(o *options) {
		if mode != 0 {
			o.dirMode = mode
		}
	}
}

// WithLogger 设置 logger，遍历时跳过损坏文件会记录警告，默认 xlog.Default()
func WithLogger(l xlog.Logger) Option {
	return func(o *options) { o.logger = l }
}
