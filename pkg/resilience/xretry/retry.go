package xretry

import (
	"context"
	"errors"
	"time"

	retry "github.com/avast/retry-go/v5"
)

// 直接暴露 retry-go 的类型与选项，调用方不需要同时引入两个包。
type (
	// Option 是 retry-go 的配置选项。
	Option = retry.Option
	// OnRetryFunc 每次重试前的回调。
	OnRetryFunc = retry.OnRetryFunc
	// RetryIfFunc 判断错误是否需要重试。
	RetryIfFunc = retry.RetryIfFunc
)

var (
	Attempts      = retry.Attempts
	Delay         = retry.Delay
	MaxDelay      = retry.MaxDelay
	DelayType     = retry.DelayType
	OnRetry       = retry.OnRetry
	RetryIf       = retry.RetryIf
	LastErrorOnly = retry.LastErrorOnly

	BackOffDelay = retry.BackOffDelay
	FixedDelay   = retry.FixedDelay

	Unrecoverable = retry.Unrecoverable
	IsRecoverable = retry.IsRecoverable
)

// 存储操作的默认重试参数。
const (
	DefaultAttempts = 3
	DefaultDelay    = 50 * time.Millisecond
	DefaultMaxDelay = time.Second
)

// Do 在 ctx 控制下执行 fn 并按需重试。
//
// 默认规则：ctx 的取消与超时不重试，Unrecoverable 与 Permanent 标记的错误不重试，
// 其余错误重试。opts 追加在默认选项之后，可以覆盖默认值。
func Do(ctx context.Context, fn func() error, opts ...Option) error {
	return retry.New(defaultOpts(ctx, opts)...).Do(fn)
}

// DoWithData 与 Do 相同，但返回 fn 的结果。
func DoWithData[T any](ctx context.Context, fn func() (T, error), opts ...Option) (T, error) {
	return retry.NewWithData[T](defaultOpts(ctx, opts)...).Do(fn)
}

func defaultOpts(ctx context.Context, opts []Option) []Option {
	all := make([]Option, 0, len(opts)+6)
	all = append(all,
		retry.Context(ctx),
		Attempts(DefaultAttempts),
		Delay(DefaultDelay),
		MaxDelay(DefaultMaxDelay),
		DelayType(BackOffDelay),
		RetryIf(shouldRetry),
	)
	return append(all, opts...)
}

func shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if !IsRecoverable(err) {
		return false
	}
	return IsRetryable(err)
}
