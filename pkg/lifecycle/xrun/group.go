package xrun

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xstore/pkg/observability/xlog"
)

// Group 基于 errgroup + context 管理多个服务的并发运行和协调关闭
//
// 任一服务返回错误或调用 Cancel 后，其余服务的 ctx 都会被取消。
// Go 与 Cancel 可并发调用，Wait 只应调用一次。
type Group struct {
	eg       *errgroup.Group
	ctx      context.Context
	causeCtx context.Context
	cancel   context.CancelCauseFunc
	opts     *options
}

// NewGroup 创建 Group，返回的 ctx 在任一服务失败或 Cancel 时结束
func NewGroup(ctx context.Context, opts ...Option) (*Group, context.Context) {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	causeCtx, cancel := context.WithCancelCause(ctx)
	eg, egCtx := errgroup.WithContext(causeCtx)
	return &Group{
		eg:       eg,
		ctx:      egCtx,
		causeCtx: causeCtx,
		cancel:   cancel,
		opts:     o,
	}, egCtx
}

// Go 启动一个具名服务，fn 应在 ctx 结束后返回
func (g *Group) Go(name string, fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		attrs := []slog.Attr{slog.String("group", g.opts.name), slog.String("service", name)}
		g.opts.logger.Debug(g.ctx, "service starting", attrs...)

		err := fn(g.ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			g.opts.logger.Warn(g.ctx, "service exited with error", append(attrs, xlog.Err(err))...)
		} else {
			g.opts.logger.Debug(g.ctx, "service stopped", attrs...)
		}
		return err
	})
}

// Cancel 主动结束所有服务，cause 非 nil 时由 Wait 返回
//
// cause 不应包装 context.Canceled，否则会被当作普通取消过滤掉。
func (g *Group) Cancel(cause error) {
	g.cancel(cause)
}

// Wait 等待所有服务退出
//
// 由 Cancel 或父 ctx 引起的 context.Canceled 被过滤，显式的 cause 被保留；
// 服务内部产生的 context.Canceled 原样返回。
func (g *Group) Wait() error {
	defer g.cancel(nil)

	err := g.eg.Wait()
	if g.causeCtx.Err() == nil {
		return err
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if cause := context.Cause(g.causeCtx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	return nil
}

// Context 返回 Group 的 ctx
func (g *Group) Context() context.Context {
	return g.ctx
}
