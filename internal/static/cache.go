package static

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/omeyang/tidepool/pkg/util/xlru"
)

// ErrInvalidCacheConfig 缓存配置无效
var ErrInvalidCacheConfig = errors.New("static: invalid cache config")

// CacheConfig 文件缓存配置
type CacheConfig struct {
	// MaxEntries 最大文件数
	MaxEntries int
	// MaxFileSize 超过此大小（字节）的文件不缓存
	MaxFileSize int64
	// TTL 条目过期时间，0 表示不过期
	TTL time.Duration
}

// file 一份已读取的文件内容
type file struct {
	data        []byte
	contentType string
}

// CacheStats 缓存命中统计
type CacheStats struct {
	Hits   uint64
	Misses uint64
	Len    int
}

// Cache 以解析后的绝对路径为键的文件内容缓存
type Cache struct {
	lru         *xlru.Cache[string, file]
	maxFileSize int64
	hits        atomic.Uint64
	misses      atomic.Uint64

	// gen 每次失效递增；读文件期间发生过失效则放弃写入
	mu  sync.RWMutex
	gen uint64
}

// NewCache 创建缓存
func NewCache(cfg CacheConfig) (*Cache, error) {
	if cfg.MaxFileSize <= 0 {
		return nil, ErrInvalidCacheConfig
	}
	lru, err := xlru.New[string, file](xlru.Config{Size: cfg.MaxEntries, TTL: cfg.TTL})
	if err != nil {
		return nil, errors.Join(ErrInvalidCacheConfig, err)
	}
	return &Cache{lru: lru, maxFileSize: cfg.MaxFileSize}, nil
}

func (c *Cache) get(path string) (file, bool) {
	f, ok := c.lru.Get(path)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return f, ok
}

// generation 读文件之前取得，随 put 传回
func (c *Cache) generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// put 写入缓存。超过大小上限，或 gen 之后发生过失效时忽略。
func (c *Cache) put(path string, f file, gen uint64) bool {
	if int64(len(f.data)) > c.maxFileSize {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.gen != gen {
		return false
	}
	c.lru.Set(path, f)
	return true
}

// Invalidate 删除 path 本身及其下所有条目，返回删除数量
func (c *Cache) Invalidate(path string) int {
	path = filepath.Clean(path)
	prefix := path + string(filepath.Separator)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	return c.lru.DeleteFunc(func(k string) bool {
		return k == path || strings.HasPrefix(k, prefix)
	})
}

// Purge 清空缓存
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.lru.Clear()
}

// Stats 命中统计
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Len:    c.lru.Len(),
	}
}

// Close 释放缓存的后台清理 goroutine
func (c *Cache) Close() {
	c.lru.Close()
}
