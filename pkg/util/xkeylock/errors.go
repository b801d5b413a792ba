package xkeylock

import "errors"

var (
	// ErrLockNotHeld 表示 Handle 已经释放过。
	ErrLockNotHeld = errors.New("xkeylock: lock not held")

	// ErrClosed 表示 Locker 已关闭。
	ErrClosed = errors.New("xkeylock: closed")

	// ErrInvalidKey 表示 key 为空。
	ErrInvalidKey = errors.New("xkeylock: invalid key")

	// ErrLockOccupied 表示 TryAcquire 时锁已被占用。
	ErrLockOccupied = errors.New("xkeylock: lock occupied")

	// ErrInvalidShardCount 表示分片数不合法。
	ErrInvalidShardCount = errors.New("xkeylock: invalid shard count")

	// ErrNilContext 表示 ctx 为 nil。
	ErrNilContext = errors.New("xkeylock: nil context")
)
