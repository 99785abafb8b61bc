package static

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher 监听静态目录树，文件变化时失效对应的缓存条目
type Watcher struct {
	fsw    *fsnotify.Watcher
	cache  *Cache
	logger *slog.Logger
}

// NewWatcher 递归监听 root 下的所有目录。调用 Run 开始处理事件。
func NewWatcher(root string, cache *Cache, logger *slog.Logger) (*Watcher, error) {
	if cache == nil {
		return nil, ErrNilCache
	}
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("static: create watcher: %w", err)
	}
	w := &Watcher{fsw: fsw, cache: cache, logger: logger}
	if err := w.addTree(root); err != nil {
		return nil, errors.Join(err, fsw.Close())
	}
	return w, nil
}

// addTree fsnotify 不递归，逐个添加目录
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("static: watch %s: %w", path, err)
		}
		return nil
	})
}

// Run 处理文件事件直到 ctx 结束，返回时监听已关闭
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close() //nolint:errcheck // 退出路径只需释放

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			// 事件溢出时无法得知哪些文件变化，整体清空
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.cache.Purge()
			}
			w.logger.Warn("static: watch error", slog.Any("error", err))
		}
	}
}

// Close 释放监听，未调用 Run 时使用
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) {
		return
	}
	n := w.cache.Invalidate(ev.Name)
	if n > 0 {
		w.logger.Debug("static: cache invalidated",
			slog.String("path", ev.Name),
			slog.Int("count", n),
		)
	}
	// 新建的子目录需要加入监听
	if ev.Has(fsnotify.Create) {
		if err := w.addTree(ev.Name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			w.logger.Warn("static: watch new path failed",
				slog.String("path", ev.Name),
				slog.Any("error", err),
			)
		}
	}
}
