package xrotate

import "errors"

var (
	ErrEmptyFilename = errors.New("xrotate: empty filename")
	// ErrInvalidConfig 大小、数量或天数越界
	ErrInvalidConfig = errors.New("xrotate: invalid rotation config")
	// ErrNoCleanupPolicy 备份数量与天数都不限制时备份会无限增长
	ErrNoCleanupPolicy = errors.New("xrotate: neither max backups nor max age is set")
	ErrClosed          = errors.New("xrotate: closed")
)
