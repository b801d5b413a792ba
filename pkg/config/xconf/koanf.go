package xconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

var parsers = map[Format]func() koanf.Parser{
	FormatYAML: func() koanf.Parser { return yaml.Parser() },
	FormatJSON: func() koanf.Parser { return json.Parser() },
}

var extensions = map[string]Format{
	".yaml": FormatYAML,
	".yml":  FormatYAML,
	".json": FormatJSON,
}

// koanfConfig path 为空表示来自字节，不能重载
type koanfConfig struct {
	path   string
	format Format
	opts   *Options

	mu sync.RWMutex
	k  *koanf.Koanf
}

// New 读取 .yaml、.yml 或 .json 文件
func New(path string, opts ...Option) (Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	ext := strings.ToLower(filepath.Ext(path))
	format, ok := extensions[ext]
	if !ok {
		return nil, fmt.Errorf("%w: extension %q", ErrUnsupportedFormat, ext)
	}
	c := &koanfConfig{path: path, format: format, opts: newOptions(opts)}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewFromBytes 解析内存中的配置，data 为空得到空配置
func NewFromBytes(data []byte, format Format, opts ...Option) (Config, error) {
	if _, ok := parsers[format]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	c := &koanfConfig{format: format, opts: newOptions(opts)}
	k, err := c.parse(data)
	if err != nil {
		return nil, err
	}
	c.k = k
	return c, nil
}

// parse 先加载 data，再叠加环境变量
func (c *koanfConfig) parse(data []byte) (*koanf.Koanf, error) {
	k := koanf.New(c.opts.Delim)
	if len(data) > 0 {
		if err := k.Load(rawbytes.Provider(data), parsers[c.format]()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
		}
	}
	if c.opts.EnvPrefix != "" {
		if err := k.Load(c.envProvider(), nil); err != nil {
			return nil, fmt.Errorf("%w: env: %w", ErrParseFailed, err)
		}
	}
	return k, nil
}

// envProvider 把 PREFIX_REDIS__ADDR 映射为 redis.addr
func (c *koanfConfig) envProvider() *env.Env {
	prefix, delim := c.opts.EnvPrefix, c.opts.Delim
	return env.Provider(delim, env.Opt{
		Prefix: prefix,
		TransformFunc: func(k, v string) (string, any) {
			key := strings.ToLower(strings.TrimPrefix(k, prefix))
			return strings.ReplaceAll(key, "__", delim), v
		},
		EnvironFunc: c.opts.environ,
	})
}

func (c *koanfConfig) Client() *koanf.Koanf {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.k
}

func (c *koanfConfig) Unmarshal(path string, target any) error {
	k := c.Client()
	if err := k.UnmarshalWithConf(path, target, koanf.UnmarshalConf{Tag: c.opts.Tag}); err != nil {
		return fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	return nil
}

// Reload 新内容解析失败时保留旧配置
func (c *koanfConfig) Reload() error {
	if c.path == "" {
		return ErrNotReloadable
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	k, err := c.parse(data)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.k = k
	c.mu.Unlock()
	return nil
}

func (c *koanfConfig) Path() string   { return c.path }
func (c *koanfConfig) Format() Format { return c.format }
