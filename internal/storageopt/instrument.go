package storageopt

import (
	"context"
	"time"

	"github.com/omeyang/xstore/pkg/observability/xlog"
	"github.com/omeyang/xstore/pkg/observability/xmetrics"
	"github.com/omeyang/xstore/pkg/util/xpool"
)

// InstrumentConfig 描述被观测的存储组件
type InstrumentConfig struct {
	// Component 组件名，例如 "xredisstore"
	Component string
	// System 写入 db.system，例如 "redis"
	System string
	// Collection 表、集合、目录或桶名
	Collection string
	Kind       xmetrics.Kind
	// IsMiss 判断错误是否只是模型不存在，这类结果不计失败也不打日志
	IsMiss func(error) bool
}

// Instrument 一次 Begin/end 完成 span、计数、慢操作检测与失败日志
type Instrument struct {
	cfg      InstrumentConfig
	opts     Options
	logger   xlog.Logger
	detector *SlowDetector[SlowOpInfo]
	counters counters
}

func NewInstrument(cfg InstrumentConfig, opts Options) (*Instrument, error) {
	if opts.Observer == nil {
		opts.Observer = xmetrics.NoopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = xlog.Default()
	}
	logger := opts.Logger.With(xlog.Component(cfg.Component))
	detector, err := NewSlowDetector(opts.SlowThreshold, opts.SlowHook, opts.AsyncSlowHook,
		xpool.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return &Instrument{cfg: cfg, opts: opts, logger: logger, detector: detector}, nil
}

func (in *Instrument) baseAttrs() []xmetrics.Attr {
	attrs := make([]xmetrics.Attr, 0, 3)
	if in.cfg.System != "" {
		attrs = append(attrs, xmetrics.DBSystem(in.cfg.System))
	}
	if in.cfg.Collection != "" {
		attrs = append(attrs, xmetrics.Collection(in.cfg.Collection))
	}
	return attrs
}

// Begin 开始观测一次操作，返回的 end 必须调用且只调用一次
//
//	ctx, end := in.Begin(ctx, "find", id)
//	defer func() { end(err) }()
func (in *Instrument) Begin(ctx context.Context, operation, modelID string) (context.Context, func(error)) {
	attrs := in.baseAttrs()
	if modelID != "" {
		attrs = append(attrs, xmetrics.ModelID(modelID))
	}
	ctx, span := xmetrics.Start(ctx, in.opts.Observer, xmetrics.SpanOptions{
		Component: in.cfg.Component,
		Operation: operation,
		Kind:      in.cfg.Kind,
		Attrs:     attrs,
	})
	start := time.Now()

	return ctx, func(err error) {
		elapsed := time.Since(start)
		in.counters.ops.Add(1)
		span.End(in.finish(ctx, operation, modelID, elapsed, err))
	}
}

func (in *Instrument) finish(ctx context.Context, operation, modelID string, elapsed time.Duration, err error) xmetrics.Result {
	result := xmetrics.Result{Err: err}
	switch {
	case err == nil:
	case in.cfg.IsMiss != nil && in.cfg.IsMiss(err):
		result = xmetrics.Result{Status: xmetrics.StatusMiss}
	default:
		in.counters.errs.Add(1)
		in.logger.Warn(ctx, "storage operation failed",
			xlog.Operation(operation),
			xlog.ModelID(modelID),
			xlog.Duration(elapsed),
			xlog.Err(err),
		)
	}

	info := SlowOpInfo{
		Component:  in.cfg.Component,
		Collection: in.cfg.Collection,
		Operation:  operation,
		ModelID:    modelID,
		Duration:   elapsed,
	}
	if in.detector.Observe(ctx, info, elapsed) {
		in.counters.slow.Add(1)
		result.Attrs = append(result.Attrs,
			xmetrics.Bool("slow", true),
			xmetrics.Int64("slow_threshold_ms", in.opts.SlowThreshold.Milliseconds()),
		)
	}
	return result
}

func (in *Instrument) Options() Options { return in.opts }

// Logger 带 component 属性
func (in *Instrument) Logger() xlog.Logger { return in.logger }

func (in *Instrument) Stats() Stats { return in.counters.snapshot() }

// Close 等待异步慢操作钩子排空
func (in *Instrument) Close() { in.detector.Close() }
