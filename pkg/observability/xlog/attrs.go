package xlog

import (
	"log/slog"
	"time"
)

// 常用字段名，与 xmetrics 的属性键保持一致。
const (
	KeyError     = "error"
	KeyStack     = "stack"
	KeyDuration  = "duration"
	KeyCount     = "count"
	KeyComponent = "component"
	KeyOperation = "operation"
	KeyModelID   = "model.id"
	KeyChannel   = "messaging.channel"
	KeyServer    = "server"
	KeyTraceID   = "trace_id"
	KeySpanID    = "span_id"
)

// Err 创建错误属性，err 为 nil 时返回空属性（slog 会忽略）
//
//	if err != nil {
//	    logger.Error(ctx, "save failed", xlog.Err(err))
//	}
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Duration 创建耗时属性
func Duration(d time.Duration) slog.Attr {
	return slog.Duration(KeyDuration, d)
}

// Count 创建计数属性
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// Component 创建组件名属性
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Operation 创建操作名属性
func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

// ModelID 创建模型 ID 属性，id 为空时返回空属性
func ModelID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String(KeyModelID, id)
}

// Channel 创建消息频道属性
func Channel(name string) slog.Attr {
	return slog.String(KeyChannel, name)
}

// Server 创建服务器名属性
func Server(name string) slog.Attr {
	return slog.String(KeyServer, name)
}
