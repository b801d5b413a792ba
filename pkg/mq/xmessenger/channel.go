package xmessenger

import (
	"context"
	"reflect"
	"sync"

	"github.com/omeyang/xstore/pkg/codec/xcodec"
	"github.com/omeyang/xstore/pkg/observability/xlog"
)

// Message 收到的一条子频道消息
type Message[T any] struct {
	Channel string
	// Server 发送方的服务器 id
	Server string
	// Target 定向发送时为本实例的 id，广播时为空
	Target  string
	Payload T
}

// Listener 消息回调，在 dispatch worker 上执行
type Listener[T any] func(ctx context.Context, msg Message[T])

// Channel 带类型的子频道，由 Register 创建
type Channel[T any] struct {
	m    *Messenger
	name string
	typ  reflect.Type
	ser  xcodec.Serializer[T, []byte]
	de   xcodec.Deserializer[T, []byte]

	mu        sync.RWMutex
	listeners []Listener[T]
}

// Name 返回子频道名
func (c *Channel[T]) Name() string { return c.name }

func (c *Channel[T]) messageType() reflect.Type { return c.typ }

// AddListener 追加监听器，nil 被忽略
func (c *Channel[T]) AddListener(l Listener[T]) *Channel[T] {
	if l == nil {
		return c
	}
	c.mu.Lock()
	c.listeners = append(c.listeners, l)
	c.mu.Unlock()
	return c
}

// Send 广播给其他所有实例
func (c *Channel[T]) Send(ctx context.Context, msg T) error {
	return c.send(ctx, msg, "")
}

// SendTo 只发给 target 实例
func (c *Channel[T]) SendTo(ctx context.Context, msg T, target string) error {
	if target == "" {
		return ErrEmptyTarget
	}
	return c.send(ctx, msg, target)
}

func (c *Channel[T]) send(ctx context.Context, msg T, target string) error {
	payload, err := c.ser(msg)
	if err != nil {
		return err
	}
	return c.m.publish(ctx, envelope{
		Channel: c.name,
		Server:  c.m.serverID,
		Target:  target,
		Message: payload,
	})
}

func (c *Channel[T]) deliver(ctx context.Context, env envelope) {
	payload, err := c.de(env.Message)
	if err != nil {
		c.m.logger.Warn(ctx, "drop undecodable message",
			xlog.Channel(c.name), xlog.Server(env.Server), xlog.Err(err))
		return
	}
	msg := Message[T]{Channel: c.name, Server: env.Server, Target: env.Target, Payload: payload}

	c.mu.RLock()
	listeners := append([]Listener[T](nil), c.listeners...)
	c.mu.RUnlock()
	for _, l := range listeners {
		c.m.dispatch(ctx, c.name, func() { l(ctx, msg) })
	}
}
