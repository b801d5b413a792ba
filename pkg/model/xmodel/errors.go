package xmodel

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound 模型不存在
	ErrNotFound = errors.New("xmodel: model not found")

	// ErrNilModel 保存了 nil 模型
	ErrNilModel = errors.New("xmodel: nil model")

	// ErrEmptyID 模型 id 为空
	ErrEmptyID = errors.New("xmodel: empty model id")

	// ErrNilRepository 组合仓库时传入 nil
	ErrNilRepository = errors.New("xmodel: nil repository")

	// ErrExecutorRejected 执行器拒绝了任务（队列满或已关闭）
	ErrExecutorRejected = errors.New("xmodel: executor rejected task")

	// ErrClosed 仓库或执行器已关闭
	ErrClosed = errors.New("xmodel: closed")
)

// NotFound 返回包装了 id 的 ErrNotFound
func NotFound(id string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// IsNotFound 判断 err 是否为 ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
