package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "127.0.0.1:7878", cfg.Addr())
	assert.Equal(t, 4, cfg.Pool.Workers)
	assert.Equal(t, 1024, cfg.Pool.QueueSize)
	assert.Equal(t, "public", cfg.Static.Root)
	assert.Equal(t, 5*time.Second, cfg.Static.Sleep)
	assert.Equal(t, 300*time.Millisecond, cfg.Server.BindRetryInterval)
	assert.Equal(t, 5*time.Second, cfg.Server.BindTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty host", func(c *Config) { c.Server.Host = "" }},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
		{"negative port", func(c *Config) { c.Server.Port = -1 }},
		{"zero workers", func(c *Config) { c.Pool.Workers = 0 }},
		{"too many workers", func(c *Config) { c.Pool.Workers = maxWorkers + 1 }},
		{"zero queue", func(c *Config) { c.Pool.QueueSize = 0 }},
		{"empty root", func(c *Config) { c.Static.Root = "" }},
		{"negative sleep", func(c *Config) { c.Static.Sleep = -time.Second }},
		{"negative read timeout", func(c *Config) { c.Server.ReadTimeout = -1 }},
		{"zero bind interval", func(c *Config) { c.Server.BindRetryInterval = 0 }},
		{"cache without entries", func(c *Config) { c.Static.Cache.MaxEntries = 0 }},
		{"bad level", func(c *Config) { c.Log.Level = "verbose" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
		{"sample rate above one", func(c *Config) { c.Log.AccessSampleRate = 1.5 }},
		{"negative sample rate", func(c *Config) { c.Log.AccessSampleRate = -0.1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestValidate_DisabledCacheSkipsCacheChecks(t *testing.T) {
	cfg := Default()
	cfg.Static.Cache = CacheConfig{Enabled: false}
	assert.NoError(t, cfg.Validate())
}

func TestValidate_ReportsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Server.Host = ""
	cfg.Pool.Workers = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.host")
	assert.Contains(t, err.Error(), "pool.workers")
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFromSource_FileOverridesDefaults(t *testing.T) {
	path := writeFile(t, "tidepool.yaml", `
server:
  port: 9090
  read_timeout: 2s
pool:
  workers: 8
static:
  root: /srv/www
  sleep: 250ms
  cache:
    enabled: false
log:
  level: debug
  format: json
  access_sample_rate: 0.25
`)
	src, err := NewSource(path)
	require.NoError(t, err)

	cfg, err := FromSource(src)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 8, cfg.Pool.Workers)
	assert.Equal(t, 1024, cfg.Pool.QueueSize)
	assert.Equal(t, "/srv/www", cfg.Static.Root)
	assert.Equal(t, 250*time.Millisecond, cfg.Static.Sleep)
	assert.False(t, cfg.Static.Cache.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.InDelta(t, 0.25, cfg.Log.AccessSampleRate, 1e-9)
}

func TestFromSource_JSON(t *testing.T) {
	path := writeFile(t, "tidepool.json", `{"pool": {"workers": 2, "queue_size": 16}}`)
	src, err := NewSource(path)
	require.NoError(t, err)

	cfg, err := FromSource(src)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Pool.Workers)
	assert.Equal(t, 16, cfg.Pool.QueueSize)
}

func TestFromSource_InvalidFileValue(t *testing.T) {
	path := writeFile(t, "tidepool.yaml", "pool:\n  workers: 0\n")
	src, err := NewSource(path)
	require.NoError(t, err)

	_, err = FromSource(src)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestNewSource_MissingFile(t *testing.T) {
	_, err := NewSource(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewSource_EmptyPath(t *testing.T) {
	src, err := NewSource("")
	require.NoError(t, err)

	cfg, err := FromSource(src)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestApplyEnv(t *testing.T) {
	path := writeFile(t, "tidepool.yaml", "server:\n  port: 9090\npool:\n  workers: 8\n")
	src, err := NewSource(path)
	require.NoError(t, err)

	env := map[string]string{
		"TIDEPOOL_HOST":    "0.0.0.0",
		"TIDEPOOL_PORT":    "8081",
		"TIDEPOOL_WORKERS": "",
		"TIDEPOOL_ROOT":    "/var/www",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	require.NoError(t, ApplyEnv(src, lookup))

	cfg, err := FromSource(src)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8081, cfg.Server.Port)
	// 空值不覆盖文件
	assert.Equal(t, 8, cfg.Pool.Workers)
	assert.Equal(t, "/var/www", cfg.Static.Root)
}

func TestApplyEnv_SurvivesReload(t *testing.T) {
	path := writeFile(t, "tidepool.yaml", "server:\n  port: 9090\n")
	src, err := NewSource(path)
	require.NoError(t, err)
	require.NoError(t, ApplyEnv(src, func(k string) (string, bool) {
		if k == "TIDEPOOL_PORT" {
			return "8082", true
		}
		return "", false
	}))

	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9191\nlog:\n  level: warn\n"), 0o600))
	require.NoError(t, src.Reload())

	cfg, err := FromSource(src)
	require.NoError(t, err)
	assert.Equal(t, 8082, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad(t *testing.T) {
	t.Setenv("TIDEPOOL_WORKERS", "3")

	cfg, src, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, src)
	assert.Equal(t, 3, cfg.Pool.Workers)
}
