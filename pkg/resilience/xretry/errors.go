package xretry

import "errors"

// RetryableError 自行声明是否可重试的错误，xbreaker.BreakerError 也实现了它
type RetryableError interface {
	error
	Retryable() bool
}

// markedError 为任意错误附加重试标记
type markedError struct {
	err   error
	retry bool
}

func (e *markedError) Error() string   { return e.err.Error() }
func (e *markedError) Unwrap() error   { return e.err }
func (e *markedError) Retryable() bool { return e.retry }

// Permanent 标记 err 不可重试，例如编解码失败或客户端已关闭；nil 原样返回
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &markedError{err: err}
}

// Temporary 标记 err 可重试，用于覆盖外层的 Permanent 判定
func Temporary(err error) error {
	if err == nil {
		return nil
	}
	return &markedError{err: err, retry: true}
}

// IsRetryable 取错误链上最外层的标记，没有标记的错误视为可重试，nil 不可重试
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var re RetryableError
	if errors.As(err, &re) {
		return re.Retryable()
	}
	return true
}

// IsPermanent nil 返回 false
func IsPermanent(err error) bool {
	return err != nil && !IsRetryable(err)
}
