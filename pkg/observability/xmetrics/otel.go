package xmetrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultScope = "github.com/omeyang/xstore/xmetrics"

	metricOperationTotal    = "xstore.operation.total"
	metricOperationDuration = "xstore.operation.duration"
)

// Option 配置 NewOTelObserver
type Option func(*otelObserver)

// WithInstrumentationName 覆盖 tracer 与 meter 的 scope 名
func WithInstrumentationName(name string) Option {
	return func(o *otelObserver) {
		if name != "" {
			o.scope = name
		}
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *otelObserver) {
		if tp != nil {
			o.tp = tp
		}
	}
}

func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *otelObserver) {
		if mp != nil {
			o.mp = mp
		}
	}
}

type otelObserver struct {
	scope string
	tp    trace.TracerProvider
	mp    metric.MeterProvider

	tracer   trace.Tracer
	total    metric.Int64Counter
	duration metric.Float64Histogram
}

// NewOTelObserver 每个操作一个 span，另记录次数与耗时（秒）
//
// 指标属性为 component、operation、status，未指定 provider 时使用全局的。
func NewOTelObserver(opts ...Option) (Observer, error) {
	o := &otelObserver{scope: defaultScope, tp: otel.GetTracerProvider(), mp: otel.GetMeterProvider()}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	meter := o.mp.Meter(o.scope)
	var err error
	if o.total, err = meter.Int64Counter(metricOperationTotal,
		metric.WithDescription("storage and messaging operations"),
		metric.WithUnit("{operation}"),
	); err != nil {
		return nil, fmt.Errorf("xmetrics: %s: %w", metricOperationTotal, err)
	}
	if o.duration, err = meter.Float64Histogram(metricOperationDuration,
		metric.WithDescription("storage and messaging operation latency"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("xmetrics: %s: %w", metricOperationDuration, err)
	}
	o.tracer = o.tp.Tracer(o.scope)
	return o, nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func (o *otelObserver) Start(ctx context.Context, opts SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	s := &otelSpan{
		o:         o,
		component: orUnknown(opts.Component),
		operation: orUnknown(opts.Operation),
		start:     time.Now(),
	}
	attrs := append([]Attr{
		attribute.String(keyComponent, s.component),
		attribute.String(keyOperation, s.operation),
	}, opts.Attrs...)
	ctx, s.span = o.tracer.Start(ctx, s.component+"."+s.operation,
		trace.WithSpanKind(opts.Kind),
		trace.WithAttributes(attrs...),
	)
	s.ctx = ctx
	return ctx, s
}

type otelSpan struct {
	o         *otelObserver
	span      trace.Span
	ctx       context.Context
	component string
	operation string
	start     time.Time
	once      sync.Once
}

// End 只有第一次调用生效
func (s *otelSpan) End(r Result) {
	s.once.Do(func() { s.end(r) })
}

func (s *otelSpan) end(r Result) {
	status := r.status()
	elapsed := time.Since(s.start)

	if status == StatusError {
		desc := "operation failed"
		if r.Err != nil {
			s.span.RecordError(r.Err)
			desc = r.Err.Error()
		}
		s.span.SetStatus(codes.Error, desc)
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.SetAttributes(r.Attrs...)
	s.span.End()

	// 调用方的 ctx 往往已经取消
	ctx := context.WithoutCancel(s.ctx)
	set := metric.WithAttributes(
		attribute.String(keyComponent, s.component),
		attribute.String(keyOperation, s.operation),
		attribute.String(keyStatus, string(status)),
	)
	s.o.total.Add(ctx, 1, set)
	s.o.duration.Record(ctx, elapsed.Seconds(), set)
}
