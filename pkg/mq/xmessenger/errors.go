package xmessenger

import "errors"

var (
	// ErrNilClient 未提供 Redis 客户端
	ErrNilClient = errors.New("xmessenger: nil redis client")

	// ErrEmptyChannel 父频道或子频道名为空
	ErrEmptyChannel = errors.New("xmessenger: empty channel name")

	// ErrChannelTypeMismatch 同名子频道已用其他消息类型注册
	ErrChannelTypeMismatch = errors.New("xmessenger: channel type mismatch")

	// ErrClosed Messenger 已关闭
	ErrClosed = errors.New("xmessenger: closed")

	// ErrEmptyTarget SendTo 的目标服务器为空
	ErrEmptyTarget = errors.New("xmessenger: empty target server")
)
