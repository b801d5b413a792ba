package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	mopts "go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/omeyang/xstore/pkg/model/xmodel"
	"github.com/omeyang/xstore/pkg/observability/xlog"
	"github.com/omeyang/xstore/pkg/resilience/xbreaker"
	"github.com/omeyang/xstore/pkg/storage/xboltstore"
	"github.com/omeyang/xstore/pkg/storage/xcache"
	"github.com/omeyang/xstore/pkg/storage/xfilestore"
	"github.com/omeyang/xstore/pkg/storage/xmemstore"
	"github.com/omeyang/xstore/pkg/storage/xmongostore"
	"github.com/omeyang/xstore/pkg/storage/xredisstore"
)

// backend 一个已打开的仓库及其需要释放的资源
type backend struct {
	name    string
	repo    xmodel.Repository[*Record]
	closers []func() error
}

func (b *backend) onClose(fn func() error) { b.closers = append(b.closers, fn) }

// Close 逆序释放资源
func (b *backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

// health 沿装饰链找到实现 HealthChecker 的仓库，本地后端返回 false
func (b *backend) health(ctx context.Context) (bool, error) {
	repo := b.repo
	for repo != nil {
		if hc, ok := repo.(xmodel.HealthChecker); ok {
			return true, hc.Health(ctx)
		}
		u, ok := repo.(interface{ Unwrap() xmodel.Repository[*Record] })
		if !ok {
			break
		}
		repo = u.Unwrap()
	}
	return false, nil
}

// openBackend 按名称打开仓库，name 为空时使用配置中的后端
func openBackend(ctx context.Context, cfg Config, name string, logger xlog.Logger) (*backend, error) {
	if name == "" {
		name = cfg.Backend
	}
	b := &backend{name: name}
	instrument := []xmodel.InstrumentOption{
		xmodel.WithLogger(logger),
		xmodel.WithSlowThreshold(cfg.SlowThreshold),
	}

	var err error
	switch name {
	case backendMemory:
		err = b.openMemory(cfg, instrument)
	case backendFile:
		err = b.openFile(cfg, logger, instrument)
	case backendBolt:
		err = b.openBolt(cfg, instrument)
	case backendRedis:
		err = b.openRedis(ctx, cfg, instrument)
		if err == nil {
			err = b.protect(ctx, cfg, logger)
		}
	case backendMongo:
		err = b.openMongo(ctx, cfg, instrument)
		if err == nil {
			err = b.protect(ctx, cfg, logger)
		}
	default:
		return nil, &usageError{msg: fmt.Sprintf("unknown backend %q", name)}
	}
	if err != nil {
		return nil, errors.Join(fmt.Errorf("open %s backend: %w", name, err), b.Close())
	}
	return b, nil
}

// observe 为自身不带观测的仓库加上 xmodel.Observe
func (b *backend) observe(repo xmodel.Repository[*Record], opts []xmodel.InstrumentOption) error {
	o, err := xmodel.Observe(repo, "xstorectl", opts...)
	if err != nil {
		return err
	}
	b.repo = o
	b.onClose(func() error {
		o.Close()
		return nil
	})
	return nil
}

// protect 为远程后端加上熔断，后端不可用时后续调用快速失败
func (b *backend) protect(ctx context.Context, cfg Config, logger xlog.Logger) error {
	if cfg.Breaker.Failures == 0 {
		return nil
	}
	breaker := xbreaker.New(b.name+":"+cfg.Table,
		xbreaker.WithTripPolicy(xbreaker.NewConsecutiveFailures(cfg.Breaker.Failures)),
		xbreaker.WithTimeout(cfg.Breaker.Timeout),
		xbreaker.WithOnStateChange(func(name string, from, to xbreaker.State) {
			logger.Warn(ctx, "breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		}),
	)
	repo, err := xbreaker.Protect(b.repo, breaker)
	if err != nil {
		return err
	}
	b.repo = repo
	return nil
}

func (b *backend) openMemory(cfg Config, opts []xmodel.InstrumentOption) error {
	store, err := xmemstore.New(
		xmemstore.WithSize[*Record](cfg.Memory.Size),
		xmemstore.WithTTL[*Record](cfg.Memory.TTL),
		xmemstore.WithName[*Record](cfg.Table),
	)
	if err != nil {
		return err
	}
	b.onClose(store.Close)
	return b.observe(store, opts)
}

func (b *backend) openFile(cfg Config, logger xlog.Logger, opts []xmodel.InstrumentOption) error {
	store, err := xfilestore.New(cfg.File.Dir, serializeJSON, deserializeJSON,
		xfilestore.WithPrettyPrinting(cfg.File.Pretty),
		xfilestore.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	b.onClose(store.Close)
	return b.observe(store, opts)
}

func (b *backend) openBolt(cfg Config, opts []xmodel.InstrumentOption) error {
	db, err := xboltstore.Open(cfg.Bolt.Path)
	if err != nil {
		return err
	}
	b.onClose(db.Close)
	store, err := xboltstore.New(db, cfg.Table, serializeJSON, deserializeJSON)
	if err != nil {
		return err
	}
	return b.observe(store, opts)
}

func (b *backend) openRedis(ctx context.Context, cfg Config, opts []xmodel.InstrumentOption) error {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	b.onClose(client.Close)
	if err := client.Ping(ctx).Err(); err != nil {
		return err
	}
	cache, err := xcache.NewRedis(client)
	if err != nil {
		return err
	}
	b.onClose(cache.Close)
	store, err := xredisstore.New(cache, cfg.Table, serializeJSON, deserializeJSON,
		xredisstore.WithExpireAfterSave(cfg.Redis.ExpireAfterSave),
		xredisstore.WithExpireAfterAccess(cfg.Redis.ExpireAfterAccess),
		xredisstore.WithInstrument(opts...),
	)
	if err != nil {
		return err
	}
	b.onClose(store.Close)
	b.repo = store
	return nil
}

// openMongo 与 redis 一致，打开时 ping 一次，连不上立即失败
func (b *backend) openMongo(ctx context.Context, cfg Config, opts []xmodel.InstrumentOption) error {
	client, err := mongo.Connect(mopts.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return err
	}
	b.onClose(func() error { return client.Disconnect(context.WithoutCancel(ctx)) })
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return err
	}

	name := cfg.Mongo.Collection
	if name == "" {
		name = cfg.Table
	}
	coll := client.Database(cfg.Mongo.Database).Collection(name)
	store, err := xmongostore.New(coll, serializeBSON, deserializeBSON, xmongostore.WithInstrument(opts...))
	if err != nil {
		return err
	}
	b.onClose(store.Close)
	b.repo = store
	return nil
}

// redisClient 为 publish/listen 创建客户端
func redisClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Join(fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err), client.Close())
	}
	return client, nil
}
