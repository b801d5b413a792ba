package xfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultDirPerm 创建目录的默认权限。
const DefaultDirPerm os.FileMode = 0o750

// EnsureDir 确保 filename 的父目录存在。
func EnsureDir(filename string) error {
	return EnsureDirWithPerm(filepath.Dir(filename), DefaultDirPerm)
}

// EnsureDirWithPerm 以指定权限创建目录（含父目录）。
// perm 必须包含所有者执行位，否则目录无法遍历。
func EnsureDirWithPerm(dir string, perm os.FileMode) error {
	if dir == "" {
		return ErrEmptyPath
	}
	if perm&0o100 == 0 {
		return fmt.Errorf("%w: %o", ErrInvalidPerm, perm)
	}
	if err := os.MkdirAll(dir, perm); err != nil {
		return fmt.Errorf("xfile: mkdir %s: %w", dir, err)
	}
	return nil
}

// WriteFileAtomic 先写同目录临时文件再 rename，读者不会看到写了一半的内容。
func WriteFileAtomic(filename string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(filename)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filename)+".tmp-*")
	if err != nil {
		return fmt.Errorf("xfile: create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			err = errors.Join(err, ignoreNotExist(os.Remove(tmpName)))
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("xfile: write temp: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("xfile: sync temp: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("xfile: close temp: %w", err)
	}
	if err = os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("xfile: chmod temp: %w", err)
	}
	if err = os.Rename(tmpName, filename); err != nil {
		return fmt.Errorf("xfile: rename: %w", err)
	}
	return nil
}

// IsTempFile 判断文件名是否为 WriteFileAtomic 遗留的临时文件。
func IsTempFile(name string) bool {
	matched, _ := filepath.Match(".*.tmp-*", name)
	return matched
}

func ignoreNotExist(err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
