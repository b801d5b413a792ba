package xmodel

import (
	"context"
	"time"

	"github.com/omeyang/xstore/internal/storageopt"
	"github.com/omeyang/xstore/pkg/observability/xlog"
	"github.com/omeyang/xstore/pkg/observability/xmetrics"
)

// InstrumentOption 配置观测：span、失败日志与慢操作检测
type InstrumentOption = storageopt.Option

// SlowOpInfo 慢操作信息
type SlowOpInfo = storageopt.SlowOpInfo

// SlowOpHook 慢操作同步钩子，在请求路径上执行，必须轻量
type SlowOpHook = storageopt.SyncHook[SlowOpInfo]

// AsyncSlowOpHook 慢操作异步钩子，在内部 worker pool 上执行
type AsyncSlowOpHook = storageopt.AsyncHook[SlowOpInfo]

// Instrument 单个组件的观测器
type Instrument = storageopt.Instrument

// Stats 观测器累计的计数
type Stats = storageopt.Stats

// WithObserver 设置 span/指标观测实现，默认不上报
func WithObserver(obs xmetrics.Observer) InstrumentOption {
	return storageopt.WithObserver(obs)
}

// WithLogger 设置记录失败操作的 logger，默认 xlog.Default()
func WithLogger(l xlog.Logger) InstrumentOption {
	return storageopt.WithLogger(l)
}

// WithSlowThreshold 设置慢操作阈值，0 表示不检测
func WithSlowThreshold(d time.Duration) InstrumentOption {
	return storageopt.WithSlowThreshold(d)
}

// WithSlowHook 设置慢操作同步钩子
func WithSlowHook(h SlowOpHook) InstrumentOption {
	return storageopt.WithSlowHook(h)
}

// WithAsyncSlowHook 设置慢操作异步钩子
func WithAsyncSlowHook(h AsyncSlowOpHook) InstrumentOption {
	return storageopt.WithAsyncSlowHook(h)
}

// WithHealthTimeout 设置健康检查超时
func WithHealthTimeout(d time.Duration) InstrumentOption {
	return storageopt.WithHealthTimeout(d)
}

// Description 描述仓库背后的存储，Observe 用它填充 span 属性
type Description struct {
	// System 后端类型，例如 "redis"、"mongodb"
	System string
	// Collection 表、集合、目录或桶名
	Collection string
}

// Describer 由后端仓库实现
type Describer interface {
	Describe() Description
}

// HealthChecker 由连接外部服务的仓库实现，检查耗时计入 Stats 的 PingCount
type HealthChecker interface {
	Health(ctx context.Context) error
}

// NewInstrument 为后端创建观测器，ErrNotFound 记为未命中而不是失败
func NewInstrument(component string, desc Description, opts ...InstrumentOption) (*Instrument, error) {
	return storageopt.NewInstrument(storageopt.InstrumentConfig{
		Component:  component,
		System:     desc.System,
		Collection: desc.Collection,
		Kind:       xmetrics.KindClient,
		IsMiss:     IsNotFound,
	}, storageopt.Apply(opts))
}
