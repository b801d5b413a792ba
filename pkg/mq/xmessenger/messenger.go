package xmessenger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/omeyang/xstore/pkg/codec/xjsoncodec"
	"github.com/omeyang/xstore/pkg/observability/xlog"
	"github.com/omeyang/xstore/pkg/resilience/xretry"
	"github.com/omeyang/xstore/pkg/util/xpool"
)

const component = "xmessenger"

// envelope 在父频道上传输的消息外壳
type envelope struct {
	Channel string          `json:"channel"`
	Server  string          `json:"server"`
	Target  string          `json:"targetServer,omitempty"`
	Message json.RawMessage `json:"message"`
}

var (
	errIncomplete = errors.New("envelope without channel or server")

	encodeEnvelope = xjsoncodec.Marshal[envelope]()
	decodeEnvelope = xjsoncodec.Unmarshal[envelope]()
)

// handle 屏蔽 Channel 的类型参数
type handle interface {
	messageType() reflect.Type
	deliver(ctx context.Context, env envelope)
}

// Messenger 在一个 Redis 父频道上复用多个带类型的子频道
//
// 每条消息携带发送方的服务器 id，自己发出的消息不会回调本地监听器。
type Messenger struct {
	client   redis.UniversalClient
	parent   string
	serverID string
	opts     options
	logger   xlog.Logger

	mu       sync.RWMutex
	channels map[string]handle

	pubsub *redis.PubSub
	pool   *xpool.Pool[func()]
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	closed atomic.Bool
}

// New 订阅父频道并开始接收，serverID 为空时生成随机 UUID
//
// ctx 只控制订阅确认，不影响之后的接收循环。
func New(ctx context.Context, client redis.UniversalClient, parentChannel, serverID string, opts ...Option) (*Messenger, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if parentChannel == "" {
		return nil, ErrEmptyChannel
	}
	if serverID == "" {
		serverID = uuid.NewString()
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = xlog.Default()
	}

	m := &Messenger{
		client:   client,
		parent:   parentChannel,
		serverID: serverID,
		opts:     o,
		logger:   o.logger.With(xlog.Component(component), xlog.Server(serverID)),
		channels: make(map[string]handle),
		done:     make(chan struct{}),
	}

	pool, err := xpool.New(o.workers, o.queue, func(task func()) { task() },
		xpool.WithName(component), xpool.WithLogger(o.logger))
	if err != nil {
		return nil, fmt.Errorf("xmessenger: dispatch pool: %w", err)
	}

	pubsub := client.Subscribe(ctx, parentChannel)
	// 等待订阅确认，失败时按 xretry 的默认策略重试
	err = xretry.Do(ctx, func() error {
		_, err := pubsub.Receive(ctx)
		return err
	})
	if err != nil {
		_ = pubsub.Close()
		_ = pool.Close()
		return nil, fmt.Errorf("xmessenger: subscribe %s: %w", parentChannel, err)
	}

	m.pool = pool
	m.pubsub = pubsub
	m.ctx, m.cancel = context.WithCancel(context.WithoutCancel(ctx))
	go m.loop(pubsub.Channel())
	return m, nil
}

// ServerID 返回本实例的服务器 id
func (m *Messenger) ServerID() string { return m.serverID }

// ParentChannel 返回父频道名
func (m *Messenger) ParentChannel() string { return m.parent }

// loop 连接断开后由 go-redis 重连并重新订阅，Close 后 ch 关闭
func (m *Messenger) loop(ch <-chan *redis.Message) {
	defer close(m.done)
	for msg := range ch {
		m.receive(msg)
	}
}

func (m *Messenger) receive(msg *redis.Message) {
	if msg.Channel != m.parent {
		return
	}
	env, err := decodeEnvelope([]byte(msg.Payload))
	if err != nil || env.Channel == "" || env.Server == "" {
		if err == nil {
			err = errIncomplete
		}
		m.logger.Warn(m.ctx, "drop malformed message", xlog.Err(err))
		return
	}
	if env.Server == m.serverID {
		return
	}
	if env.Target != "" && env.Target != m.serverID {
		return
	}

	m.mu.RLock()
	h, ok := m.channels[env.Channel]
	m.mu.RUnlock()
	if !ok {
		m.logger.Debug(m.ctx, "no channel registered", xlog.Channel(env.Channel))
		return
	}
	h.deliver(m.ctx, env)
}

// dispatch 把一次监听器回调交给 worker pool，监听器 panic 只记录日志
func (m *Messenger) dispatch(ctx context.Context, channel string, fn func()) {
	task := func() {
		defer func() {
			if r := recover(); r != nil {
				m.logger.Stack(ctx, "listener panic recovered",
					xlog.Channel(channel), xlog.Err(fmt.Errorf("panic: %v", r)))
			}
		}()
		fn()
	}
	if err := m.pool.Submit(task); err != nil {
		m.logger.Warn(ctx, "drop message", xlog.Channel(channel), xlog.Err(err))
	}
}

// publish 发布到父频道，瞬时错误按 WithPublishRetry 重试
func (m *Messenger) publish(ctx context.Context, env envelope) error {
	if m.closed.Load() {
		return ErrClosed
	}
	data, err := encodeEnvelope(env)
	if err != nil {
		return fmt.Errorf("xmessenger: encode %s: %w", env.Channel, err)
	}
	err = xretry.Do(ctx, func() error {
		err := m.client.Publish(ctx, m.parent, data).Err()
		if errors.Is(err, redis.ErrClosed) {
			return xretry.Permanent(err)
		}
		return err
	},
		xretry.Attempts(m.opts.publishAttempts),
		xretry.Delay(m.opts.publishDelay),
		xretry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("xmessenger: publish %s/%s: %w", m.parent, env.Channel, err)
	}
	return nil
}

// Close 取消订阅，取消监听器 ctx 并等待已提交的回调执行完，可重复调用
func (m *Messenger) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := m.pubsub.Close()
	<-m.done
	// 先取消监听器的 ctx，阻塞在 ctx 上的回调才能退出
	m.cancel()
	if perr := m.pool.Close(); perr != nil && !errors.Is(perr, xpool.ErrPoolStopped) {
		err = errors.Join(err, perr)
	}

	m.mu.Lock()
	clear(m.channels)
	m.mu.Unlock()
	if err != nil {
		return fmt.Errorf("xmessenger: close: %w", err)
	}
	return nil
}

// Register 返回名为 name、消息类型为 T 的子频道，已存在时复用
//
// 同名子频道已用其他类型注册时返回 ErrChannelTypeMismatch。
func Register[T any](m *Messenger, name string) (*Channel[T], error) {
	if name == "" {
		return nil, ErrEmptyChannel
	}
	if m.closed.Load() {
		return nil, ErrClosed
	}
	typ := reflect.TypeFor[T]()

	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.channels[name]; ok {
		if h.messageType() != typ {
			return nil, fmt.Errorf("%w: %s registered as %s, requested %s", ErrChannelTypeMismatch, name, h.messageType(), typ)
		}
		return h.(*Channel[T]), nil
	}
	c := &Channel[T]{
		m:    m,
		name: name,
		typ:  typ,
		ser:  xjsoncodec.Marshal[T](),
		de:   xjsoncodec.Unmarshal[T](),
	}
	m.channels[name] = c
	return c, nil
}
