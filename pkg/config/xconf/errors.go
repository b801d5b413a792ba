package xconf

import "errors"

var (
	ErrEmptyPath         = errors.New("xconf: empty config path")
	ErrUnsupportedFormat = errors.New("xconf: unsupported config format")
	ErrLoadFailed        = errors.New("xconf: failed to load config")
	ErrParseFailed       = errors.New("xconf: failed to parse config")
	ErrUnmarshalFailed   = errors.New("xconf: failed to unmarshal config")

	// ErrNotReloadable 从字节创建的配置不能 Reload 或 Watch
	ErrNotReloadable = errors.New("xconf: config is not backed by a file")

	// ErrUnsupportedConfig Watch 只接受本包创建的 Config
	ErrUnsupportedConfig = errors.New("xconf: unsupported config implementation")
)
