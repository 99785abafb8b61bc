package xconf

import "github.com/knadh/koanf/v2"

// Format 配置格式
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Config 配置接口，基础读取直接使用 Client() 返回的 koanf 实例
type Config interface {
	// Client 返回当前的 koanf 实例，Reload 后会替换为新实例
	Client() *koanf.Koanf

	// Unmarshal 将 path 下的配置反序列化到 target，path 为空表示整个配置
	Unmarshal(path string, target any) error

	// Set 设置覆盖值，Reload 后保留
	Set(key string, value any) error

	// Reload 重新读取配置文件，并发安全
	Reload() error

	// Path 配置文件路径，字节数据创建的配置返回空
	Path() string

	Format() Format
}

// Options 加载选项
type Options struct {
	// Delim 键分隔符，默认 "."
	Delim string
	// Tag 结构体标签，默认 "koanf"
	Tag string
}

// Option 加载选项函数
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{Delim: ".", Tag: "koanf"}
}

// WithDelim 设置键分隔符
func WithDelim(delim string) Option {
	return func(o *Options) {
		if delim != "" {
			o.Delim = delim
		}
	}
}

// WithTag 设置结构体标签
func WithTag(tag string) Option {
	return func(o *Options) {
		if tag != "" {
			o.Tag = tag
		}
	}
}
