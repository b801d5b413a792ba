package xcache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Unlocker 释放 Lock 取得的锁
type Unlocker func(ctx context.Context) error

// Redis 给 go-redis 客户端加上分布式锁，其余命令通过 Client 直接调用
type Redis interface {
	// Lock 以 SET NX PX 占用 key，ttl 到期后锁自动失效
	Lock(ctx context.Context, key string, ttl time.Duration) (Unlocker, error)
	Client() redis.UniversalClient
	// Close 只让后续 Lock 失败，不关闭 Client
	Close() error
}

// 值仍是自己的 token 才删除，防止误删过期后被别人拿到的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisOptions struct {
	prefix     string
	retryEvery time.Duration
	retries    int
}

// RedisOption 配置 NewRedis
type RedisOption func(*redisOptions)

// WithLockKeyPrefix 锁 key 的前缀，默认 "lock:"
func WithLockKeyPrefix(prefix string) RedisOption {
	return func(o *redisOptions) { o.prefix = prefix }
}

// WithLockRetry 锁被占用时每隔 every 再试一次，最多 retries 次
func WithLockRetry(every time.Duration, retries int) RedisOption {
	return func(o *redisOptions) {
		o.retryEvery = every
		o.retries = retries
	}
}

type redisLocker struct {
	client redis.UniversalClient
	opts   redisOptions
	closed atomic.Bool
}

// NewRedis 包装 client，client 由调用方关闭
func NewRedis(client redis.UniversalClient, opts ...RedisOption) (Redis, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	r := &redisLocker{client: client, opts: redisOptions{prefix: "lock:"}}
	for _, opt := range opts {
		if opt != nil {
			opt(&r.opts)
		}
	}
	return r, nil
}

func (r *redisLocker) Lock(ctx context.Context, key string, ttl time.Duration) (Unlocker, error) {
	switch {
	case r.closed.Load():
		return nil, ErrClosed
	case key == "":
		return nil, ErrEmptyKey
	case ttl <= 0:
		return nil, ErrInvalidLockTTL
	}

	lockKey, token := r.opts.prefix+key, uuid.NewString()
	if err := r.acquire(ctx, lockKey, token, ttl); err != nil {
		return nil, err
	}
	return func(ctx context.Context) error {
		n, err := releaseScript.Run(ctx, r.client, []string{lockKey}, token).Int64()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrLockExpired
		}
		return nil
	}, nil
}

func (r *redisLocker) acquire(ctx context.Context, key, token string, ttl time.Duration) error {
	for attempt := 0; ; attempt++ {
		ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
		switch {
		case err != nil:
			return err
		case ok:
			return nil
		case r.opts.retryEvery <= 0 || attempt >= r.opts.retries:
			return fmt.Errorf("%w: %s", ErrLockFailed, key)
		}

		t := time.NewTimer(r.opts.retryEvery)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (r *redisLocker) Client() redis.UniversalClient { return r.client }

func (r *redisLocker) Close() error {
	if r.closed.Swap(true) {
		return ErrClosed
	}
	return nil
}
