package xrotate

import "io"

// Rotator 并发安全的轮转写入器
//
// Close 之后 Write、Rotate 与再次 Close 都返回 ErrClosed。
type Rotator interface {
	io.WriteCloser
	// Rotate 立即把当前文件转为备份
	Rotate() error
}
