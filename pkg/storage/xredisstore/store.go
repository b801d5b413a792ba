package xredisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/omeyang/xstore/pkg/codec/xcodec"
	"github.com/omeyang/xstore/pkg/codec/xjsoncodec"
	"github.com/omeyang/xstore/pkg/model/xmodel"
	"github.com/omeyang/xstore/pkg/storage/xcache"
)

const component = "xredisstore"

var (
	_ xmodel.Repository[xmodel.Model] = (*Store[xmodel.Model])(nil)
	_ xmodel.Describer                = (*Store[xmodel.Model])(nil)
	_ xmodel.HealthChecker            = (*Store[xmodel.Model])(nil)
)

// Store 以 Redis 哈希保存模型，key 为 <table>:<id>
//
// 模型先序列化为 JSON 对象，每个顶层成员对应哈希的一个字段，字段值是该成员的
// 原始 JSON 文本。读取时按字段名排序重新组装对象。
type Store[T xmodel.Model] struct {
	cache  xcache.Redis
	client redis.UniversalClient
	table  string
	prefix string
	ser    xcodec.Serializer[T, []byte]
	de     xcodec.Deserializer[T, []byte]
	opts   options
	in     *xmodel.Instrument

	// nearGen 每次写入 Redis 后递增，读取期间发生过写入则不回填近端缓存
	nearMu  sync.Mutex
	nearGen uint64
}

// New 创建仓库，cache 提供 client 与 Update 使用的分布式锁
func New[T xmodel.Model](cache xcache.Redis, table string, ser xcodec.Serializer[T, []byte], de xcodec.Deserializer[T, []byte], opts ...Option) (*Store[T], error) {
	switch {
	case cache == nil:
		return nil, ErrNilCache
	case table == "":
		return nil, ErrEmptyTable
	case strings.Contains(table, ":"):
		// 表 a 的 SCAN 模式 a:* 会匹配到表 a:b 的 key
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, table)
	case ser == nil || de == nil:
		return nil, ErrNilCodec
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	s := &Store[T]{
		cache:  cache,
		client: cache.Client(),
		table:  table,
		prefix: table + ":",
		ser:    ser,
		de:     de,
		opts:   o,
	}
	in, err := xmodel.NewInstrument(component, s.Describe(), o.instrument...)
	if err != nil {
		return nil, fmt.Errorf("xredisstore: %w", err)
	}
	s.in = in
	return s, nil
}

// Describe 实现 xmodel.Describer
func (s *Store[T]) Describe() xmodel.Description {
	return xmodel.Description{System: "redis", Collection: s.table}
}

// Stats 返回观测计数
func (s *Store[T]) Stats() xmodel.Stats { return s.in.Stats() }

// Health 向 Redis 发送 PING
func (s *Store[T]) Health(ctx context.Context) error {
	return s.in.Ping(ctx, func(ctx context.Context) error {
		return s.client.Ping(ctx).Err()
	})
}

// Close 释放观测资源，不关闭 Redis 连接与近端缓存
func (s *Store[T]) Close() error {
	s.in.Close()
	return nil
}

// Key 返回模型对应的 Redis key
func (s *Store[T]) Key(id string) string { return s.prefix + id }

func (s *Store[T]) idOf(key string) string { return strings.TrimPrefix(key, s.prefix) }

func (s *Store[T]) match() string { return escapeGlob(s.prefix) + "*" }

// encode 把模型拆成哈希字段
func (s *Store[T]) encode(model T) ([]byte, map[string]any, error) {
	doc, err := s.ser(model)
	if err != nil {
		return nil, nil, fmt.Errorf("xredisstore: encode %s: %w", model.ID(), err)
	}
	fields := make(map[string]any)
	for k, v := range xjsoncodec.Fields(doc) {
		fields[k] = string(v)
	}
	if len(fields) == 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrEmptyDocument, model.ID())
	}
	return doc, fields, nil
}

// decode 空哈希视为不存在
func (s *Store[T]) decode(id string, fields map[string]string) (T, []byte, error) {
	if len(fields) == 0 {
		return xmodel.Zero[T](), nil, xmodel.NotFound(id)
	}
	doc, err := xjsoncodec.Compose(fields)
	if err != nil {
		return xmodel.Zero[T](), nil, fmt.Errorf("xredisstore: decode %s: %w", id, err)
	}
	m, err := s.de(doc)
	if err != nil {
		return xmodel.Zero[T](), nil, fmt.Errorf("xredisstore: decode %s: %w", id, err)
	}
	return m, doc, nil
}

func (s *Store[T]) nearGet(key string) ([]byte, bool) {
	if s.opts.near == nil {
		return nil, false
	}
	return s.opts.near.Get(key)
}

// nearVersion 在读取或写入 Redis 之前取得当前写入代数
func (s *Store[T]) nearVersion() uint64 {
	if s.opts.near == nil {
		return 0
	}
	s.nearMu.Lock()
	defer s.nearMu.Unlock()
	return s.nearGen
}

// nearFill 读取期间没有写入时才回填，读到的旧文档不会覆盖并发写入的结果
func (s *Store[T]) nearFill(key string, doc []byte, gen uint64) {
	if s.opts.near == nil || doc == nil {
		return
	}
	s.nearMu.Lock()
	defer s.nearMu.Unlock()
	if s.nearGen == gen {
		s.opts.near.Set(key, doc)
	}
}

// nearWritten 在写入 Redis 之后调用
//
// 写入期间没有其他写入时缓存 doc，否则（或 doc 为 nil）删除该 key，
// 并发写入的先后顺序无法确定时宁可不缓存。
func (s *Store[T]) nearWritten(key string, doc []byte, gen uint64) {
	if s.opts.near == nil {
		return
	}
	s.nearMu.Lock()
	defer s.nearMu.Unlock()
	fresh := s.nearGen == gen
	s.nearGen++
	if fresh && doc != nil {
		s.opts.near.Set(key, doc)
		return
	}
	s.opts.near.Delete(key)
}

func (s *Store[T]) nearDelete(key string) {
	if s.opts.near != nil {
		s.opts.near.Delete(key)
	}
}

func (s *Store[T]) Find(ctx context.Context, id string) (_ T, err error) {
	if err := xmodel.CheckID(id); err != nil {
		return xmodel.Zero[T](), err
	}
	ctx, end := s.in.Begin(ctx, "find", id)
	defer func() { end(err) }()
	return s.find(ctx, id)
}

func (s *Store[T]) find(ctx context.Context, id string) (T, error) {
	key := s.Key(id)
	if doc, ok := s.nearGet(key); ok {
		m, err := s.de(doc)
		if err == nil {
			return m, nil
		}
		s.nearDelete(key)
	}

	gen := s.nearVersion()
	var get *redis.MapStringStringCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.HGetAll(ctx, key)
		if s.opts.expireAfterAccess > 0 {
			pipe.Expire(ctx, key, s.opts.expireAfterAccess)
		}
		return nil
	})
	if err != nil {
		return xmodel.Zero[T](), fmt.Errorf("xredisstore: find %s: %w", key, err)
	}
	m, doc, err := s.decode(id, get.Val())
	if err != nil {
		return xmodel.Zero[T](), err
	}
	s.nearFill(key, doc, gen)
	return m, nil
}

func (s *Store[T]) Exists(ctx context.Context, id string) (_ bool, err error) {
	if err := xmodel.CheckID(id); err != nil {
		return false, err
	}
	ctx, end := s.in.Begin(ctx, "exists", id)
	defer func() { end(err) }()

	n, err := s.client.Exists(ctx, s.Key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("xredisstore: exists %s: %w", s.Key(id), err)
	}
	return n > 0, nil
}

// Save 在一个事务内 DEL + HSET (+ EXPIRE)，旧哈希中多余的字段不会残留
func (s *Store[T]) Save(ctx context.Context, model T) (_ T, err error) {
	if err := xmodel.CheckModel(model); err != nil {
		return xmodel.Zero[T](), err
	}
	id := model.ID()
	ctx, end := s.in.Begin(ctx, "save", id)
	defer func() { end(err) }()

	if err := s.save(ctx, model); err != nil {
		return xmodel.Zero[T](), err
	}
	return model, nil
}

func (s *Store[T]) save(ctx context.Context, model T) error {
	key := s.Key(model.ID())
	doc, fields, err := s.encode(model)
	if err != nil {
		return err
	}
	s.nearDelete(key)
	gen := s.nearVersion()
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, fields)
		if s.opts.expireAfterSave > 0 {
			pipe.Expire(ctx, key, s.opts.expireAfterSave)
		}
		return nil
	})
	if err != nil {
		// 事务可能已在服务端执行
		s.nearWritten(key, nil, gen)
		return fmt.Errorf("xredisstore: save %s: %w", key, err)
	}
	s.nearWritten(key, doc, gen)
	return nil
}

func (s *Store[T]) Delete(ctx context.Context, id string) (_ bool, err error) {
	if err := xmodel.CheckID(id); err != nil {
		return false, err
	}
	ctx, end := s.in.Begin(ctx, "delete", id)
	defer func() { end(err) }()

	key := s.Key(id)
	s.nearDelete(key)
	n, err := s.client.Del(ctx, key).Result()
	s.nearWritten(key, nil, 0)
	if err != nil {
		return false, fmt.Errorf("xredisstore: delete %s: %w", key, err)
	}
	return n > 0, nil
}

// DeleteAndRetrieve 在一个事务内 HGETALL + DEL
func (s *Store[T]) DeleteAndRetrieve(ctx context.Context, id string) (_ T, err error) {
	if err := xmodel.CheckID(id); err != nil {
		return xmodel.Zero[T](), err
	}
	ctx, end := s.in.Begin(ctx, "delete_and_retrieve", id)
	defer func() { end(err) }()

	key := s.Key(id)
	s.nearDelete(key)
	var get *redis.MapStringStringCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.HGetAll(ctx, key)
		pipe.Del(ctx, key)
		return nil
	})
	s.nearWritten(key, nil, 0)
	if err != nil {
		return xmodel.Zero[T](), fmt.Errorf("xredisstore: delete %s: %w", key, err)
	}
	m, _, err := s.decode(id, get.Val())
	return m, err
}

// DeleteAll 用 SCAN 分批删除本表的 key
func (s *Store[T]) DeleteAll(ctx context.Context) (err error) {
	ctx, end := s.in.Begin(ctx, "delete_all", "")
	defer func() { end(err) }()

	if s.opts.near != nil {
		s.opts.near.Clear()
	}
	err = scan(ctx, s.client, s.match(), s.opts.scanCount, func(keys []string) error {
		// 逐个 DEL，集群模式下跨 slot 的多 key DEL 会被拒绝
		_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, k := range keys {
				pipe.Del(ctx, k)
			}
			return nil
		})
		return err
	})
	if s.opts.near != nil {
		s.nearMu.Lock()
		s.nearGen++
		s.opts.near.Clear()
		s.nearMu.Unlock()
	}
	if err != nil {
		return fmt.Errorf("xredisstore: delete all %s: %w", s.table, err)
	}
	return nil
}

func (s *Store[T]) FindAll(ctx context.Context, postLoad func(T)) (_ []T, err error) {
	ctx, end := s.in.Begin(ctx, "find_all", "")
	defer func() { end(err) }()

	out := []T{}
	err = s.forEach(ctx, func(m T) error {
		if postLoad != nil {
			postLoad(m)
		}
		out = append(out, m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store[T]) FindIDs(ctx context.Context) (_ []string, err error) {
	ctx, end := s.in.Begin(ctx, "find_ids", "")
	defer func() { end(err) }()

	ids := []string{}
	err = s.forEachID(ctx, func(id string) error {
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ForEach 每批 key 用一次 pipeline 读取，遍历期间被删除的模型跳过
func (s *Store[T]) ForEach(ctx context.Context, fn func(T) error) (err error) {
	ctx, end := s.in.Begin(ctx, "for_each", "")
	defer func() { end(err) }()
	return s.forEach(ctx, fn)
}

func (s *Store[T]) forEach(ctx context.Context, fn func(T) error) error {
	errStop := errors.New("stop")
	var fnErr error
	err := scan(ctx, s.client, s.match(), s.opts.scanCount, func(keys []string) error {
		cmds := make([]*redis.MapStringStringCmd, len(keys))
		_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			for i, k := range keys {
				cmds[i] = pipe.HGetAll(ctx, k)
				if s.opts.expireAfterAccess > 0 {
					pipe.Expire(ctx, k, s.opts.expireAfterAccess)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		for i, cmd := range cmds {
			m, _, err := s.decode(s.idOf(keys[i]), cmd.Val())
			if xmodel.IsNotFound(err) {
				continue
			}
			if err != nil {
				return err
			}
			if err := fn(m); err != nil {
				fnErr = err
				return errStop
			}
		}
		return nil
	})
	if errors.Is(err, errStop) {
		return fnErr
	}
	if err != nil {
		return fmt.Errorf("xredisstore: scan %s: %w", s.table, err)
	}
	return nil
}

func (s *Store[T]) ForEachID(ctx context.Context, fn func(string) error) (err error) {
	ctx, end := s.in.Begin(ctx, "for_each_id", "")
	defer func() { end(err) }()
	return s.forEachID(ctx, fn)
}

func (s *Store[T]) forEachID(ctx context.Context, fn func(string) error) error {
	errStop := errors.New("stop")
	var fnErr error
	err := scan(ctx, s.client, s.match(), s.opts.scanCount, func(keys []string) error {
		for _, k := range keys {
			if err := fn(s.idOf(k)); err != nil {
				fnErr = err
				return errStop
			}
		}
		return nil
	})
	if errors.Is(err, errStop) {
		return fnErr
	}
	if err != nil {
		return fmt.Errorf("xredisstore: scan %s: %w", s.table, err)
	}
	return nil
}

// Update 在分布式锁内读取、修改并保存模型
//
// 模型不存在时返回 ErrNotFound，不调用 fn。fn 返回错误时不保存。
// 锁在 WithLockTTL 后自动过期，fn 不应执行耗时操作。
func (s *Store[T]) Update(ctx context.Context, id string, fn func(T) (T, error)) (_ T, err error) {
	if err := xmodel.CheckID(id); err != nil {
		return xmodel.Zero[T](), err
	}
	if fn == nil {
		return xmodel.Zero[T](), ErrNilUpdate
	}
	ctx, end := s.in.Begin(ctx, "update", id)
	defer func() { end(err) }()

	unlock, err := s.cache.Lock(ctx, s.Key(id), s.opts.lockTTL)
	if err != nil {
		return xmodel.Zero[T](), fmt.Errorf("xredisstore: lock %s: %w", s.Key(id), err)
	}
	defer func() {
		// 锁已过期说明期间可能有其他写入，向调用方报告
		if uerr := unlock(context.WithoutCancel(ctx)); uerr != nil && err == nil {
			err = fmt.Errorf("xredisstore: unlock %s: %w", s.Key(id), uerr)
		}
	}()

	// 绕过近端缓存，读取最新值
	s.nearDelete(s.Key(id))
	current, err := s.find(ctx, id)
	if err != nil {
		return xmodel.Zero[T](), err
	}
	updated, err := fn(current)
	if err != nil {
		return xmodel.Zero[T](), err
	}
	if err := xmodel.CheckModel(updated); err != nil {
		return xmodel.Zero[T](), err
	}
	if updated.ID() != id {
		return xmodel.Zero[T](), fmt.Errorf("xredisstore: update %s: id changed to %q", id, updated.ID())
	}
	if err := s.save(ctx, updated); err != nil {
		return xmodel.Zero[T](), err
	}
	return updated, nil
}

// TTL 返回模型剩余的过期时间，未设置过期返回 -1，不存在返回 ErrNotFound
func (s *Store[T]) TTL(ctx context.Context, id string) (time.Duration, error) {
	if err := xmodel.CheckID(id); err != nil {
		return 0, err
	}
	d, err := s.client.TTL(ctx, s.Key(id)).Result()
	if err != nil {
		return 0, fmt.Errorf("xredisstore: ttl %s: %w", s.Key(id), err)
	}
	// go-redis 把 -2（key 不存在）与 -1（无过期）原样返回为纳秒
	if d == -2 {
		return 0, xmodel.NotFound(id)
	}
	if d < 0 {
		return -1, nil
	}
	return d, nil
}
