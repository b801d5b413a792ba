package xbreaker

import (
	"errors"
	"fmt"

	"github.com/sony/gobreaker/v2"
)

var (
	// ErrOpenState 熔断器处于打开状态
	ErrOpenState = gobreaker.ErrOpenState

	// ErrTooManyRequests 半开状态下请求过多
	ErrTooManyRequests = gobreaker.ErrTooManyRequests

	// ErrNilBreaker 传入的 Breaker 为 nil
	ErrNilBreaker = errors.New("xbreaker: nil breaker")
)

// BreakerError 熔断器拒绝执行时返回的错误
//
// Retryable 返回 false，与 xretry 组合时不会重试被熔断拦截的调用。
type BreakerError struct {
	Err   error
	Name  string
	State State
}

func (e *BreakerError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("xbreaker %s: %v", e.Name, e.Err)
	}
	return "xbreaker: " + e.Err.Error()
}

func (e *BreakerError) Unwrap() error { return e.Err }

func (e *BreakerError) Retryable() bool { return false }

// wrapBreakerError 只包装本熔断器直接返回的 sentinel，嵌套熔断器的错误保持原样
func wrapBreakerError(err error, name string) error {
	switch {
	case err == nil:
		return nil
	case err == gobreaker.ErrOpenState:
		return &BreakerError{Err: err, Name: name, State: StateOpen}
	case err == gobreaker.ErrTooManyRequests:
		return &BreakerError{Err: err, Name: name, State: StateHalfOpen}
	default:
		return err
	}
}

// IsOpen 判断 err 是否因熔断器打开而被拒绝
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState)
}

// IsBreakerError 判断 err 是否为熔断器拒绝，包括半开状态下的限流
func IsBreakerError(err error) bool {
	return IsOpen(err) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
