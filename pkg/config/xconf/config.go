package xconf

import "github.com/knadh/koanf/v2"

// Format 配置文件格式
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Config 配置接口，常规读取直接使用 Client() 返回的 koanf 实例
type Config interface {
	Client() *koanf.Koanf

	// Unmarshal 把 path 下的配置解到 target，path 为空表示整个配置
	Unmarshal(path string, target any) error

	// Reload 重新读取文件，并发安全。从字节创建的 Config 返回 ErrNotReloadable。
	Reload() error

	// Path 从字节创建时为空
	Path() string

	Format() Format
}

// Options 加载选项
type Options struct {
	// Delim 键分隔符，默认 "."
	Delim string
	// Tag Unmarshal 使用的结构体标签，默认 "koanf"
	Tag string
	// EnvPrefix 非空时用该前缀的环境变量覆盖文件内容，"__" 表示层级
	EnvPrefix string

	environ func() []string
}

// Option 配置加载选项
type Option func(*Options)

func newOptions(opts []Option) *Options {
	o := &Options{Delim: ".", Tag: "koanf"}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

func WithDelim(delim string) Option {
	return func(o *Options) {
		if delim != "" {
			o.Delim = delim
		}
	}
}

func WithTag(tag string) Option {
	return func(o *Options) {
		if tag != "" {
			o.Tag = tag
		}
	}
}

// WithEnvPrefix 例如前缀 "XSTORE_" 时 XSTORE_REDIS__ADDR 覆盖 redis.addr
func WithEnvPrefix(prefix string) Option {
	return func(o *Options) { o.EnvPrefix = prefix }
}

// Load 从文件读取配置并解到 T，适合启动时一次性加载
func Load[T any](path string, opts ...Option) (T, Config, error) {
	var out T
	cfg, err := New(path, opts...)
	if err != nil {
		return out, nil, err
	}
	if err := cfg.Unmarshal("", &out); err != nil {
		return out, nil, err
	}
	return out, cfg, nil
}
