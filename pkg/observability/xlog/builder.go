package xlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/omeyang/xstore/pkg/observability/xrotate"
)

// 输出格式
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Builder 链式配置 Logger，第一个配置错误在 Build 时返回
type Builder struct {
	output    io.Writer
	rotator   xrotate.Rotator
	levelVar  *slog.LevelVar
	format    string
	addSource bool
	enrich    bool
	onError   func(error)
	err       error
}

// New 默认 stderr、Info、text，启用 trace 注入
func New() *Builder {
	return &Builder{
		output:   os.Stderr,
		levelVar: new(slog.LevelVar),
		format:   FormatText,
		enrich:   true,
	}
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

func (b *Builder) SetOutput(w io.Writer) *Builder {
	if w == nil {
		return b.fail(ErrNilOutput)
	}
	b.output = w
	return b
}

func (b *Builder) SetLevel(level Level) *Builder {
	b.levelVar.Set(slog.Level(level))
	return b
}

// SetLevelString 解析规则见 ParseLevel
func (b *Builder) SetLevelString(s string) *Builder {
	level, err := ParseLevel(s)
	if err != nil {
		return b.fail(err)
	}
	return b.SetLevel(level)
}

// SetFormat text 或 json，空值视为 text
func (b *Builder) SetFormat(format string) *Builder {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "":
		b.format = FormatText
	case FormatText, FormatJSON:
		b.format = f
	default:
		return b.fail(fmt.Errorf("xlog: unknown format %q", format))
	}
	return b
}

// SetAddSource 记录调用位置
func (b *Builder) SetAddSource(enable bool) *Builder {
	b.addSource = enable
	return b
}

// SetEnrich 是否从 ctx 注入 trace_id/span_id
func (b *Builder) SetEnrich(enable bool) *Builder {
	b.enrich = enable
	return b
}

// SetRotation 写入按大小轮转的文件，取代 SetOutput
func (b *Builder) SetRotation(filename string, opts ...xrotate.Option) *Builder {
	rotator, err := xrotate.NewLumberjack(filename, opts...)
	if err != nil {
		return b.fail(err)
	}
	b.rotator = rotator
	b.output = rotator
	return b
}

// SetOnError 写日志失败（磁盘满等）时同步回调，回调内的日志错误不再递归上报
func (b *Builder) SetOnError(fn func(error)) *Builder {
	b.onError = fn
	return b
}

// Build 返回的 cleanup 关闭轮转文件，可重复调用
func (b *Builder) Build() (LoggerWithLevel, func() error, error) {
	if b.err != nil {
		if b.rotator != nil {
			_ = b.rotator.Close()
		}
		return nil, nil, b.err
	}

	cleanup := func() error { return nil }
	if r := b.rotator; r != nil {
		cleanup = sync.OnceValue(r.Close)
	}
	return newXLogger(b.handler(), b.levelVar, b.addSource, b.onError), cleanup, nil
}

func (b *Builder) handler() slog.Handler {
	opts := &slog.HandlerOptions{Level: b.levelVar, AddSource: b.addSource}
	var h slog.Handler
	if b.format == FormatJSON {
		h = slog.NewJSONHandler(b.output, opts)
	} else {
		h = slog.NewTextHandler(b.output, opts)
	}
	if !b.enrich {
		return h
	}
	return traceHandler{h}
}
