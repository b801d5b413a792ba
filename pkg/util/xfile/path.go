package xfile

import (
	"path/filepath"
	"strings"
)

func isSep(r rune) bool { return r == '/' || r == '\\' }

// SafeJoin 把单段名称放到 base 目录下，用于模型 id 到文件名的映射
//
// '/' 与 '\' 在任何平台都视为分隔符。
func SafeJoin(base, name string) (string, error) {
	switch {
	case base == "" || name == "":
		return "", ErrEmptyPath
	case strings.ContainsRune(name, 0):
		return "", unsafePath(name, "null byte")
	case strings.IndexFunc(name, isSep) >= 0:
		return "", unsafePath(name, "separator")
	case name == "." || name == "..":
		return "", unsafePath(name, "dot segment")
	}
	joined := filepath.Join(base, name)
	if filepath.Dir(joined) != filepath.Clean(base) {
		return "", unsafePath(name, "escapes base")
	}
	return joined, nil
}

// SanitizePath 清理文件路径，拒绝相对路径中的 ".."，不限制所在目录
func SanitizePath(filename string) (string, error) {
	if filename == "" {
		return "", ErrEmptyPath
	}
	if strings.ContainsRune(filename, 0) {
		return "", unsafePath(filename, "null byte")
	}
	if strings.HasSuffix(filename, "/") || strings.HasSuffix(filename, `\`) {
		return "", unsafePath(filename, "directory")
	}
	cleaned := filepath.Clean(filename)
	if filepath.IsAbs(cleaned) {
		return cleaned, nil
	}
	for _, seg := range strings.FieldsFunc(cleaned, isSep) {
		if seg == ".." {
			return "", unsafePath(filename, "parent reference")
		}
	}
	return cleaned, nil
}
