package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/omeyang/xstore/pkg/config/xconf"
	"github.com/omeyang/xstore/pkg/observability/xlog"
	"github.com/omeyang/xstore/pkg/observability/xrotate"
	"github.com/omeyang/xstore/pkg/resilience/xbreaker"
	"github.com/omeyang/xstore/pkg/storage/xmemstore"
)

// 支持的后端
const (
	backendMemory = "memory"
	backendFile   = "file"
	backendBolt   = "bolt"
	backendRedis  = "redis"
	backendMongo  = "mongo"
)

// Config 是 xstorectl 的配置文件结构
type Config struct {
	Backend string `koanf:"backend"`
	// Table 表名，redis 用作 key 前缀，bolt 用作桶名，mongo 未配置集合时用作集合名
	Table string `koanf:"table"`

	Log struct {
		Level  string `koanf:"level"`
		Format string `koanf:"format"`
		// File 非空时输出到文件并按大小轮转
		File       string `koanf:"file"`
		MaxSizeMB  int    `koanf:"max_size_mb"`
		MaxBackups int    `koanf:"max_backups"`
	} `koanf:"log"`

	Memory struct {
		Size int           `koanf:"size"`
		TTL  time.Duration `koanf:"ttl"`
	} `koanf:"memory"`

	File struct {
		Dir    string `koanf:"dir"`
		Pretty bool   `koanf:"pretty"`
	} `koanf:"file"`

	Bolt struct {
		Path string `koanf:"path"`
	} `koanf:"bolt"`

	Redis struct {
		Addr              string        `koanf:"addr"`
		Password          string        `koanf:"password"`
		DB                int           `koanf:"db"`
		ExpireAfterSave   time.Duration `koanf:"expire_after_save"`
		ExpireAfterAccess time.Duration `koanf:"expire_after_access"`
	} `koanf:"redis"`

	Mongo struct {
		URI        string `koanf:"uri"`
		Database   string `koanf:"database"`
		Collection string `koanf:"collection"`
	} `koanf:"mongo"`

	// Breaker 保护 redis 与 mongo 后端，Failures 为 0 时不启用
	Breaker struct {
		Failures uint32        `koanf:"failures"`
		Timeout  time.Duration `koanf:"timeout"`
	} `koanf:"breaker"`

	Messenger struct {
		Channel  string `koanf:"channel"`
		ServerID string `koanf:"server_id"`
	} `koanf:"messenger"`

	SlowThreshold time.Duration `koanf:"slow_threshold"`
}

func defaultConfig() Config {
	var c Config
	c.Backend = backendMemory
	c.Table = "records"
	c.Log.Level = "info"
	c.Log.Format = "text"
	c.Log.MaxSizeMB = xrotate.DefaultMaxSizeMB
	c.Log.MaxBackups = xrotate.DefaultMaxBackups
	c.Memory.Size = xmemstore.DefaultSize
	c.File.Dir = "data"
	c.File.Pretty = true
	c.Bolt.Path = "xstore.db"
	c.Redis.Addr = "localhost:6379"
	c.Mongo.URI = "mongodb://localhost:27017"
	c.Mongo.Database = "xstore"
	c.Breaker.Failures = xbreaker.DefaultFailures
	c.Breaker.Timeout = xbreaker.DefaultTimeout
	c.Messenger.Channel = "xstore"
	c.SlowThreshold = 200 * time.Millisecond
	return c
}

// envPrefix 环境变量覆盖配置，例如 XSTORE_REDIS__ADDR
const envPrefix = "XSTORE_"

// loadConfig 默认值之上依次叠加配置文件与环境变量
//
// 未显式指定且默认路径不存在时不读文件，返回的 xconf.Config 为 nil。
func loadConfig(path string, explicit bool) (Config, xconf.Config, error) {
	cfg := defaultConfig()
	fromFile := path != ""
	if fromFile && !explicit {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			fromFile = false
		}
	}

	var (
		raw xconf.Config
		err error
	)
	if fromFile {
		raw, err = xconf.New(path, xconf.WithEnvPrefix(envPrefix))
	} else {
		raw, err = xconf.NewFromBytes(nil, xconf.FormatYAML, xconf.WithEnvPrefix(envPrefix))
	}
	if err != nil {
		return cfg, nil, err
	}
	if err := raw.Unmarshal("", &cfg); err != nil {
		return cfg, nil, err
	}
	if err := cfg.validate(); err != nil {
		return cfg, nil, err
	}
	if !fromFile {
		return cfg, nil, nil
	}
	return cfg, raw, nil
}

func (c Config) validate() error {
	switch c.Backend {
	case backendMemory, backendFile, backendBolt, backendRedis, backendMongo:
	default:
		return &usageError{msg: fmt.Sprintf("unknown backend %q", c.Backend)}
	}
	if c.Table == "" {
		return &usageError{msg: "table must not be empty"}
	}
	return nil
}

// buildLogger 按配置构建日志，stderr 为默认输出
func buildLogger(c Config, stderr io.Writer) (xlog.LoggerWithLevel, func() error, error) {
	b := xlog.New().SetLevelString(c.Log.Level).SetFormat(c.Log.Format)
	if c.Log.File != "" {
		b = b.SetRotation(c.Log.File,
			xrotate.WithMaxSize(c.Log.MaxSizeMB),
			xrotate.WithMaxBackups(c.Log.MaxBackups),
		)
	} else {
		b = b.SetOutput(stderr)
	}
	return b.Build()
}

// watchLogLevel 配置文件变化时更新日志级别，其他字段需要重启生效
func watchLogLevel(ctx context.Context, raw xconf.Config, logger xlog.LoggerWithLevel) (*xconf.Watcher, error) {
	return xconf.Watch(raw, func(cfg xconf.Config, err error) {
		if err != nil {
			logger.Warn(ctx, "config reload failed", xlog.Err(err))
			return
		}
		level, err := xlog.ParseLevel(cfg.Client().String("log.level"))
		if err != nil {
			logger.Warn(ctx, "ignore invalid log level", xlog.Err(err))
			return
		}
		logger.SetLevel(level)
		logger.Info(ctx, "log level reloaded", slog.String("level", level.String()))
	})
}
