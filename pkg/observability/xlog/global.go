package xlog

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

// 全局 Logger 供命令行入口和测试使用，库代码通过 Option 注入
var global atomic.Pointer[LoggerWithLevel]

// Default 返回全局 Logger，未设置时懒加载 stderr/Info/text 的默认实现
func Default() LoggerWithLevel {
	if l := global.Load(); l != nil {
		return *l
	}
	logger, _, err := New().Build()
	if err != nil {
		lv := new(slog.LevelVar)
		logger = newXLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lv}), lv, true, nil)
	}
	global.CompareAndSwap(nil, &logger)
	return *global.Load()
}

// SetDefault 替换全局 Logger，nil 被忽略
func SetDefault(l LoggerWithLevel) {
	if l != nil {
		global.Store(&l)
	}
}

// ResetDefault 恢复未初始化状态，仅用于测试
func ResetDefault() {
	global.Store(nil)
}

// logGlobal 比实例方法多一层调用，source 需要多跳过一帧
func logGlobal(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	l := Default()
	if xl, ok := l.(*xlogger); ok {
		xl.log(ctx, level, msg, attrs, 1)
		return
	}
	switch level {
	case slog.LevelDebug:
		l.Debug(ctx, msg, attrs...)
	case slog.LevelInfo:
		l.Info(ctx, msg, attrs...)
	case slog.LevelWarn:
		l.Warn(ctx, msg, attrs...)
	default:
		l.Error(ctx, msg, attrs...)
	}
}

func Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	logGlobal(ctx, slog.LevelDebug, msg, attrs)
}

func Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	logGlobal(ctx, slog.LevelInfo, msg, attrs)
}

func Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	logGlobal(ctx, slog.LevelWarn, msg, attrs)
}

func Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	logGlobal(ctx, slog.LevelError, msg, attrs)
}

// Stack 使用全局 Logger 记录带堆栈的错误日志
func Stack(ctx context.Context, msg string, attrs ...slog.Attr) {
	l := Default()
	if xl, ok := l.(*xlogger); ok {
		xl.stack(ctx, msg, attrs)
		return
	}
	l.Stack(ctx, msg, attrs...)
}
