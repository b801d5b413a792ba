package xboltstore

import (
	"fmt"
	"os"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/omeyang/xstore/pkg/util/xfile"
)

const (
	// DefaultOpenTimeout 等待文件锁的默认超时，另一进程持有数据库时 Open 失败而不是永久阻塞
	DefaultOpenTimeout = time.Second

	// DefaultFileMode 数据库文件默认权限
	DefaultFileMode os.FileMode = 0o600
)

// OpenOption 配置 Open
type OpenOption func(*openOptions)

type openOptions struct {
	timeout  time.Duration
	mode     os.FileMode
	readOnly bool
}

// WithOpenTimeout 设置等待文件锁的超时
func WithOpenTimeout(d time.Duration) OpenOption {
	return func(o *openOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithReadOnly 以只读方式打开，多个进程可以同时读取
func WithReadOnly() OpenOption {
	return func(o *openOptions) { o.readOnly = true }
}

// Open 打开或创建 bbolt 数据库，父目录不存在时自动创建
func Open(path string, opts ...OpenOption) (*bolt.DB, error) {
	o := openOptions{timeout: DefaultOpenTimeout, mode: DefaultFileMode}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	clean, err := xfile.SanitizePath(path)
	if err != nil {
		return nil, fmt.Errorf("xboltstore: %w", err)
	}
	if !o.readOnly {
		if err := xfile.EnsureDir(clean); err != nil {
			return nil, fmt.Errorf("xboltstore: %w", err)
		}
	}
	db, err := bolt.Open(clean, o.mode, &bolt.Options{Timeout: o.timeout, ReadOnly: o.readOnly})
	if err != nil {
		return nil, fmt.Errorf("xboltstore: open %s: %w", clean, err)
	}
	return db, nil
}
