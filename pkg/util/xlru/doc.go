// Package xlru 提供带 TTL 的并发安全 LRU 缓存。
//
// 基于 github.com/hashicorp/golang-lru/v2/expirable 封装：
//
//	c, err := xlru.New[string, []byte](xlru.Config{Size: 256, TTL: time.Minute})
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
// 静态文件缓存用它保存小文件内容，文件变化时由 fsnotify 监听器调用
// Delete / DeleteFunc 失效。
//
// TTL > 0 时底层库会启动后台清理 goroutine，必须调用 Close 结束它。
package xlru
