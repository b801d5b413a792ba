package xpool

import "errors"

// 参数错误
var (
	ErrNilHandler       = errors.New("xpool: nil handler")
	ErrInvalidWorkers   = errors.New("xpool: workers out of range")
	ErrInvalidQueueSize = errors.New("xpool: queue size out of range")
	ErrNilContext       = errors.New("xpool: nil context")
)

// 运行期错误
var (
	// ErrPoolStopped Close 或 Shutdown 之后提交
	ErrPoolStopped = errors.New("xpool: stopped")

	// ErrQueueFull 队列已满，Submit 不等待
	ErrQueueFull = errors.New("xpool: queue full")
)
