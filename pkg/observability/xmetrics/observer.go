package xmetrics

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// Kind 即 span kind
type Kind = trace.SpanKind

const (
	KindInternal = trace.SpanKindInternal
	KindClient   = trace.SpanKindClient
	KindProducer = trace.SpanKindProducer
	KindConsumer = trace.SpanKindConsumer
)

// Status 写入指标的结果标签
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
	// StatusMiss 模型不存在，不算失败
	StatusMiss Status = "miss"
)

type SpanOptions struct {
	// Component 例如 "xredisstore"
	Component string
	// Operation 例如 "find"
	Operation string
	Kind      Kind
	Attrs     []Attr
}

// Result Status 为空时由 Err 决定
type Result struct {
	Status Status
	Err    error
	Attrs  []Attr
}

func (r Result) status() Status {
	switch {
	case r.Status != "":
		return r.Status
	case r.Err != nil:
		return StatusError
	default:
		return StatusOK
	}
}

type Span interface {
	End(result Result)
}

type Observer interface {
	Start(ctx context.Context, opts SpanOptions) (context.Context, Span)
}

type NoopObserver struct{}

func (NoopObserver) Start(ctx context.Context, _ SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx, NoopSpan{}
}

type NoopSpan struct{}

func (NoopSpan) End(Result) {}

// Start 容忍 nil ctx 与 nil observer，返回值都不为 nil
func Start(ctx context.Context, observer Observer, opts SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	if observer == nil {
		return ctx, NoopSpan{}
	}
	next, span := observer.Start(ctx, opts)
	if next == nil {
		next = ctx
	}
	if span == nil {
		span = NoopSpan{}
	}
	return next, span
}
