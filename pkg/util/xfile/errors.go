package xfile

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyPath = errors.New("xfile: empty path")
	// ErrUnsafePath 路径含空字节、分隔符或 ".." 等可能逃出目录的成分
	ErrUnsafePath = errors.New("xfile: unsafe path")
	// ErrInvalidPerm 目录权限缺少所有者执行位
	ErrInvalidPerm = errors.New("xfile: directory permission lacks owner execute bit")
)

func unsafePath(path, reason string) error {
	return fmt.Errorf("%w %q: %s", ErrUnsafePath, path, reason)
}
