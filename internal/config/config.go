// Package config 定义 tidepool 的运行配置：默认值、文件加载、环境变量覆盖和校验。
//
// 优先级从高到低：命令行参数 > 环境变量 > 配置文件 > 默认值。
// 环境变量和命令行参数通过 xconf.Config.Set 写入，配置文件热重载后仍然生效。
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/omeyang/tidepool/pkg/config/xconf"
	"github.com/omeyang/tidepool/pkg/observability/xlog"
)

// ErrInvalid 配置校验失败
var ErrInvalid = errors.New("config: invalid")

// 与 xpool 的上限一致
const (
	maxWorkers   = 1 << 16
	maxQueueSize = 1 << 24
)

// Config 完整配置
type Config struct {
	Server ServerConfig `koanf:"server"`
	Pool   PoolConfig   `koanf:"pool"`
	Static StaticConfig `koanf:"static"`
	Log    LogConfig    `koanf:"log"`
}

// ServerConfig 监听与连接参数
type ServerConfig struct {
	Host string `koanf:"host"`
	// Port 0 表示由系统分配
	Port int `koanf:"port"`

	// ReadTimeout 读取请求的截止时间，0 表示不限制
	ReadTimeout time.Duration `koanf:"read_timeout"`
	// WriteTimeout 写出响应的截止时间，0 表示不限制
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// BindRetryInterval 绑定失败后的重试间隔
	BindRetryInterval time.Duration `koanf:"bind_retry_interval"`
	// BindTimeout 绑定重试的总时长
	BindTimeout time.Duration `koanf:"bind_timeout"`
}

// PoolConfig worker pool 参数
type PoolConfig struct {
	Workers   int `koanf:"workers"`
	QueueSize int `koanf:"queue_size"`
}

// StaticConfig 静态文件参数
type StaticConfig struct {
	Root string `koanf:"root"`
	// Sleep /sleep 路由的等待时长
	Sleep time.Duration `koanf:"sleep"`
	Cache CacheConfig   `koanf:"cache"`
}

// CacheConfig 文件缓存参数
type CacheConfig struct {
	Enabled     bool          `koanf:"enabled"`
	MaxEntries  int           `koanf:"max_entries"`
	MaxFileSize int64         `koanf:"max_file_size"`
	TTL         time.Duration `koanf:"ttl"`
	// Watch 监听静态目录变化并失效缓存
	Watch bool `koanf:"watch"`
}

// LogConfig 日志参数
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	// File 非空时写入文件并按 lumberjack 规则轮转
	File string `koanf:"file"`
	// AccessSampleRate 访问日志采样率 [0,1]，5xx 不受影响
	AccessSampleRate float64 `koanf:"access_sample_rate"`
}

// Default 返回默认配置
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:              "127.0.0.1",
			Port:              7878,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			BindRetryInterval: 300 * time.Millisecond,
			BindTimeout:       5 * time.Second,
		},
		Pool: PoolConfig{
			Workers:   4,
			QueueSize: 1024,
		},
		Static: StaticConfig{
			Root:  "public",
			Sleep: 5 * time.Second,
			Cache: CacheConfig{
				Enabled:     true,
				MaxEntries:  256,
				MaxFileSize: 1 << 20,
				TTL:         time.Minute,
				Watch:       true,
			},
		},
		Log: LogConfig{
			Level:            "info",
			Format:           "text",
			AccessSampleRate: 1,
		},
	}
}

// Addr 监听地址 host:port
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// Validate 校验配置，错误包装 ErrInvalid
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(c.Server.Host != "", "server.host is empty")
	check(c.Server.Port >= 0 && c.Server.Port <= 65535, "server.port %d out of range 0~65535", c.Server.Port)
	check(c.Server.ReadTimeout >= 0, "server.read_timeout is negative")
	check(c.Server.WriteTimeout >= 0, "server.write_timeout is negative")
	check(c.Server.BindRetryInterval > 0, "server.bind_retry_interval must be positive")
	check(c.Server.BindTimeout >= 0, "server.bind_timeout is negative")

	check(c.Pool.Workers >= 1 && c.Pool.Workers <= maxWorkers,
		"pool.workers %d out of range 1~%d", c.Pool.Workers, maxWorkers)
	check(c.Pool.QueueSize >= 1 && c.Pool.QueueSize <= maxQueueSize,
		"pool.queue_size %d out of range 1~%d", c.Pool.QueueSize, maxQueueSize)

	check(c.Static.Root != "", "static.root is empty")
	check(c.Static.Sleep >= 0, "static.sleep is negative")
	if c.Static.Cache.Enabled {
		check(c.Static.Cache.MaxEntries > 0, "static.cache.max_entries must be positive")
		check(c.Static.Cache.MaxFileSize > 0, "static.cache.max_file_size must be positive")
		check(c.Static.Cache.TTL >= 0, "static.cache.ttl is negative")
	}

	if _, err := xlog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("%w: log.level: %w", ErrInvalid, err))
	}
	check(c.Log.Format == "text" || c.Log.Format == "json", "log.format %q, want text or json", c.Log.Format)
	check(c.Log.AccessSampleRate >= 0 && c.Log.AccessSampleRate <= 1,
		"log.access_sample_rate %v out of range 0~1", c.Log.AccessSampleRate)

	return errors.Join(errs...)
}

// NewSource 创建配置源。path 为空时得到空的可写配置，只承载覆盖值。
func NewSource(path string) (xconf.Config, error) {
	if path == "" {
		return xconf.NewFromBytes(nil, xconf.FormatYAML)
	}
	src, err := xconf.New(path)
	if err != nil {
		return nil, fmt.Errorf("config: load %s: %w", path, err)
	}
	return src, nil
}

// FromSource 在默认值之上叠加 src 中的配置并校验
func FromSource(src xconf.Config) (Config, error) {
	cfg := Default()
	if err := src.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load 读取配置文件并应用进程环境变量
func Load(path string) (Config, xconf.Config, error) {
	src, err := NewSource(path)
	if err != nil {
		return Config{}, nil, err
	}
	if err := ApplyEnv(src, os.LookupEnv); err != nil {
		return Config{}, nil, err
	}
	cfg, err := FromSource(src)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, src, nil
}
