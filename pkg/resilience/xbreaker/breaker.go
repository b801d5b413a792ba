package xbreaker

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
)

type (
	// Counts 统计计数，用于熔断判定
	Counts = gobreaker.Counts

	// State 熔断器状态
	State = gobreaker.State
)

const (
	StateClosed   = gobreaker.StateClosed
	StateHalfOpen = gobreaker.StateHalfOpen
	StateOpen     = gobreaker.StateOpen
)

// 默认配置
const (
	DefaultFailures    = 5
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRequests = 1
)

// TripPolicy 熔断判定策略，ReadyToTrip 返回 true 时从 Closed 转为 Open
type TripPolicy interface {
	ReadyToTrip(counts Counts) bool
}

// Breaker 封装 gobreaker，统计结果由 SuccessFunc 判定
type Breaker struct {
	name          string
	tripPolicy    TripPolicy
	isSuccessful  func(error) bool
	timeout       time.Duration
	interval      time.Duration
	maxRequests   uint32
	onStateChange func(name string, from, to State)

	cb *gobreaker.CircuitBreaker[any]
}

// Option 熔断器配置选项
type Option func(*Breaker)

// WithTripPolicy 设置熔断判定策略，默认连续失败 DefaultFailures 次
func WithTripPolicy(p TripPolicy) Option {
	return func(b *Breaker) {
		if p != nil {
			b.tripPolicy = p
		}
	}
}

// WithSuccessFunc 设置成功判定，默认 err == nil
func WithSuccessFunc(f func(error) bool) Option {
	return func(b *Breaker) {
		if f != nil {
			b.isSuccessful = f
		}
	}
}

// WithTimeout 设置 Open 到 HalfOpen 的等待时间
func WithTimeout(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithInterval 设置 Closed 状态下清零统计的周期，0 表示不清零
func WithInterval(d time.Duration) Option {
	return func(b *Breaker) {
		if d >= 0 {
			b.interval = d
		}
	}
}

// WithMaxRequests 设置 HalfOpen 状态下允许通过的请求数
func WithMaxRequests(n uint32) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.maxRequests = n
		}
	}
}

// WithOnStateChange 设置状态变化回调
func WithOnStateChange(f func(name string, from, to State)) Option {
	return func(b *Breaker) {
		b.onStateChange = f
	}
}

// New 创建熔断器，name 用于错误信息和状态回调
func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:        name,
		tripPolicy:  NewConsecutiveFailures(DefaultFailures),
		timeout:     DefaultTimeout,
		maxRequests: DefaultMaxRequests,
	}
	for _, opt := range opts {
		opt(b)
	}

	st := gobreaker.Settings{
		Name:        b.name,
		MaxRequests: b.maxRequests,
		Interval:    b.interval,
		Timeout:     b.timeout,
		ReadyToTrip: b.tripPolicy.ReadyToTrip,
	}
	if b.isSuccessful != nil {
		st.IsSuccessful = b.isSuccessful
	}
	if b.onStateChange != nil {
		st.OnStateChange = b.onStateChange
	}
	b.cb = gobreaker.NewCircuitBreaker[any](st)
	return b
}

// Do 执行受保护的操作
//
// ctx 已结束时直接返回 ctx 的错误，不计入统计。熔断拒绝的错误包装为 *BreakerError。
func (b *Breaker) Do(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	return wrapBreakerError(err, b.name)
}

// Execute 是 Do 的泛型版本
func Execute[T any](ctx context.Context, b *Breaker, fn func() (T, error)) (T, error) {
	var out T
	err := b.Do(ctx, func() error {
		var err error
		out, err = fn()
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func (b *Breaker) Name() string { return b.name }

func (b *Breaker) State() State { return b.cb.State() }

func (b *Breaker) Counts() Counts { return b.cb.Counts() }
