package storageopt

import (
	"context"
	"time"

	"github.com/omeyang/xstore/pkg/observability/xlog"
	"github.com/omeyang/xstore/pkg/observability/xmetrics"
)

// DefaultHealthTimeout 默认健康检查超时
const DefaultHealthTimeout = 5 * time.Second

// withTimeout 在 ctx 没有更早的 deadline 时附加 timeout
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) <= timeout {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// Ping 在 HealthTimeout 内执行 ping 并计数，失败记 Warn 日志
func (in *Instrument) Ping(ctx context.Context, ping func(context.Context) error) error {
	ctx, cancel := withTimeout(ctx, in.opts.HealthTimeout)
	defer cancel()

	ctx, span := xmetrics.Start(ctx, in.opts.Observer, xmetrics.SpanOptions{
		Component: in.cfg.Component,
		Operation: "ping",
		Kind:      in.cfg.Kind,
		Attrs:     in.baseAttrs(),
	})
	in.counters.pings.Add(1)
	err := ping(ctx)
	if err != nil {
		in.counters.pingErrs.Add(1)
		in.logger.Warn(ctx, "health check failed", xlog.Err(err))
	}
	span.End(xmetrics.Result{Err: err})
	return err
}
