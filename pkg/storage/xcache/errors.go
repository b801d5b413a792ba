package xcache

import "errors"

var (
	ErrNilClient = errors.New("xcache: nil client")
	ErrClosed    = errors.New("xcache: closed")
	ErrEmptyKey  = errors.New("xcache: empty key")

	// ErrLockFailed 锁被其他持有者占用，重试次数用尽
	ErrLockFailed = errors.New("xcache: lock held by another owner")
	// ErrLockExpired 解锁时锁已过期，可能已被别人重新获取
	ErrLockExpired = errors.New("xcache: lock expired before unlock")
	// ErrInvalidLockTTL 锁的 ttl 不是正数
	ErrInvalidLockTTL = errors.New("xcache: lock ttl must be positive")

	// ErrMetricsDisabled 外部传入的 ristretto 没有开启 Metrics，Stats 无法工作
	ErrMetricsDisabled = errors.New("xcache: ristretto metrics disabled")
)
