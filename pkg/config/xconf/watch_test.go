package xconf

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.yaml", "log:\n  level: info\n")

	cfg, err := New(path)
	require.NoError(t, err)

	var level atomic.Value
	level.Store("info")
	w, err := Watch(cfg, func(c Config, err error) {
		if err == nil {
			level.Store(c.Client().String("log.level"))
		}
	}, WithDebounce(20*time.Millisecond), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// 写其他文件不触发
	writeFile(t, dir, "other.yaml", "x: 1\n")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o600))

	assert.Eventually(t, func() bool {
		return level.Load() == "debug"
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	require.NoError(t, w.Stop())
}

func TestWatch_StopBeforeRun(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.json", `{}`)
	cfg, err := New(path)
	require.NoError(t, err)

	w, err := Watch(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, w.Stop())

	// fsnotify 关闭后 Events 通道关闭，Run 立即返回
	assert.NoError(t, w.Run(context.Background()))
}

func TestWatch_MissingDir(t *testing.T) {
	cfg := &koanfConfig{path: filepath.Join(t.TempDir(), "nope", "app.yaml"), opts: defaultOptions()}
	_, err := Watch(cfg, nil)
	assert.Error(t, err)
}
