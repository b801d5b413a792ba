package xlog

import (
	"context"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync/atomic"
	"time"
)

var _ LoggerWithLevel = (*xlogger)(nil)

// state 由同一次 Build 派生出的 logger 共享
type state struct {
	level     *slog.LevelVar
	addSource bool
	onError   func(error)
	reporting atomic.Bool
}

type xlogger struct {
	h slog.Handler
	*state
}

func newXLogger(h slog.Handler, level *slog.LevelVar, addSource bool, onError func(error)) *xlogger {
	return &xlogger{h: h, state: &state{level: level, addSource: addSource, onError: onError}}
}

// callerSkip 跳过 runtime.Callers、log 与导出方法本身
const callerSkip = 3

// log 的 skip 是导出方法与业务代码之间额外的帧数
//
//go:noinline
func (l *xlogger) log(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr, skip int) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.h.Enabled(ctx, level) {
		return
	}
	var pc uintptr
	if l.addSource {
		var pcs [1]uintptr
		runtime.Callers(callerSkip+skip, pcs[:])
		pc = pcs[0]
	}
	r := slog.NewRecord(time.Now(), level, msg, pc)
	r.AddAttrs(attrs...)
	if err := l.h.Handle(ctx, r); err != nil {
		l.report(err)
	}
}

// stack 只应被 Stack 直接调用
//
//go:noinline
func (l *xlogger) stack(ctx context.Context, msg string, attrs []slog.Attr) {
	if ctx != nil && !l.h.Enabled(ctx, slog.LevelError) {
		return
	}
	attrs = append(attrs[:len(attrs):len(attrs)], slog.String(KeyStack, string(debug.Stack())))
	l.log(ctx, slog.LevelError, msg, attrs, 1)
}

// report 写日志失败时回调 onError，回调里再失败不会递归
func (l *xlogger) report(err error) {
	if l.onError == nil || !l.reporting.CompareAndSwap(false, true) {
		return
	}
	defer l.reporting.Store(false)
	defer func() { _ = recover() }()
	l.onError(err)
}

func (l *xlogger) Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelDebug, msg, attrs, 0)
}

func (l *xlogger) Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelInfo, msg, attrs, 0)
}

func (l *xlogger) Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelWarn, msg, attrs, 0)
}

func (l *xlogger) Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelError, msg, attrs, 0)
}

func (l *xlogger) Stack(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.stack(ctx, msg, attrs)
}

func (l *xlogger) With(attrs ...slog.Attr) Logger {
	if len(attrs) == 0 {
		return l
	}
	return &xlogger{h: l.h.WithAttrs(attrs), state: l.state}
}

func (l *xlogger) WithGroup(name string) Logger {
	if name == "" {
		return l
	}
	return &xlogger{h: l.h.WithGroup(name), state: l.state}
}

func (l *xlogger) SetLevel(level Level) { l.level.Set(slog.Level(level)) }

func (l *xlogger) GetLevel() Level { return Level(l.level.Level()) }

func (l *xlogger) Enabled(ctx context.Context, level Level) bool {
	return l.h.Enabled(ctx, slog.Level(level))
}
