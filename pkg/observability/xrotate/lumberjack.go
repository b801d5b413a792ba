package xrotate

import (
	"fmt"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/omeyang/xstore/pkg/util/xfile"
)

// 默认单文件 100MB，保留 7 个备份或 30 天，备份 gzip 压缩
const (
	DefaultMaxSizeMB  = 100
	DefaultMaxBackups = 7
	DefaultMaxAgeDays = 30
)

// Option 直接修改 lumberjack.Logger，NewLumberjack 统一校验
type Option func(*lumberjack.Logger)

// WithMaxSize 单文件上限，1 到 10240 MB
func WithMaxSize(mb int) Option {
	return func(l *lumberjack.Logger) { l.MaxSize = mb }
}

// WithMaxBackups 0 表示不按数量清理
func WithMaxBackups(n int) Option {
	return func(l *lumberjack.Logger) { l.MaxBackups = n }
}

// WithMaxAge 0 表示不按天数清理
func WithMaxAge(days int) Option {
	return func(l *lumberjack.Logger) { l.MaxAge = days }
}

func WithCompress(compress bool) Option {
	return func(l *lumberjack.Logger) { l.Compress = compress }
}

// WithLocalTime 备份文件名中的时间戳用本地时区
func WithLocalTime(local bool) Option {
	return func(l *lumberjack.Logger) { l.LocalTime = local }
}

type bound struct {
	name     string
	value    int
	min, max int
}

func check(l *lumberjack.Logger) error {
	for _, b := range []bound{
		{"max size", l.MaxSize, 1, 10240},
		{"max backups", l.MaxBackups, 0, 1024},
		{"max age", l.MaxAge, 0, 3650},
	} {
		if b.value < b.min || b.value > b.max {
			return fmt.Errorf("%w: %s %d not in [%d, %d]", ErrInvalidConfig, b.name, b.value, b.min, b.max)
		}
	}
	if l.MaxBackups == 0 && l.MaxAge == 0 {
		return ErrNoCleanupPolicy
	}
	return nil
}

type lumberjackRotator struct {
	l      *lumberjack.Logger
	closed atomic.Bool
}

// NewLumberjack 按大小轮转写入 filename，父目录不存在时创建
//
// 相对路径中不能出现 ".."。
func NewLumberjack(filename string, opts ...Option) (Rotator, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}
	path, err := xfile.SanitizePath(filename)
	if err != nil {
		return nil, err
	}
	l := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    DefaultMaxSizeMB,
		MaxBackups: DefaultMaxBackups,
		MaxAge:     DefaultMaxAgeDays,
		Compress:   true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	if err := check(l); err != nil {
		return nil, err
	}
	if err := xfile.EnsureDir(path); err != nil {
		return nil, err
	}
	return &lumberjackRotator{l: l}, nil
}

func (r *lumberjackRotator) Write(p []byte) (int, error) {
	if r.closed.Load() {
		return 0, ErrClosed
	}
	return r.l.Write(p)
}

func (r *lumberjackRotator) Rotate() error {
	if r.closed.Load() {
		return ErrClosed
	}
	return r.l.Rotate()
}

func (r *lumberjackRotator) Close() error {
	if r.closed.Swap(true) {
		return ErrClosed
	}
	return r.l.Close()
}
