package xlog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Logger 所有方法强制传入 ctx，属性只接受 slog.Attr
type Logger interface {
	Debug(ctx context.Context, msg string, attrs ...slog.Attr)
	Info(ctx context.Context, msg string, attrs ...slog.Attr)
	Warn(ctx context.Context, msg string, attrs ...slog.Attr)
	Error(ctx context.Context, msg string, attrs ...slog.Attr)

	// Stack 以 Error 级别记录，附带当前 goroutine 的堆栈
	Stack(ctx context.Context, msg string, attrs ...slog.Attr)

	// With 派生的 Logger 与父级共享动态级别
	With(attrs ...slog.Attr) Logger
	WithGroup(name string) Logger
}

// LoggerWithLevel 是 Build 的返回类型，可在运行时调整级别
type LoggerWithLevel interface {
	Logger
	SetLevel(level Level)
	GetLevel() Level
	Enabled(ctx context.Context, level Level) bool
}

// Level 即 slog.Level，文本形式支持 "warning" 别名
type Level slog.Level

const (
	LevelDebug = Level(slog.LevelDebug)
	LevelInfo  = Level(slog.LevelInfo)
	LevelWarn  = Level(slog.LevelWarn)
	LevelError = Level(slog.LevelError)
)

func (l Level) String() string { return slog.Level(l).String() }

func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *Level) UnmarshalText(data []byte) error {
	parsed, err := ParseLevel(string(data))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel 大小写不敏感，也接受 slog 的偏移写法如 "info+2"
func ParseLevel(s string) (Level, error) {
	text := strings.TrimSpace(s)
	if strings.EqualFold(text, "warning") {
		return LevelWarn, nil
	}
	var l slog.Level
	if text == "" || l.UnmarshalText([]byte(text)) != nil {
		return LevelInfo, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
	}
	return Level(l), nil
}
