package config

import (
	"fmt"

	"github.com/omeyang/tidepool/pkg/config/xconf"
)

// EnvPrefix 环境变量前缀
const EnvPrefix = "TIDEPOOL_"

// envKeys 环境变量到配置键的映射
var envKeys = []struct {
	env string
	key string
}{
	{EnvPrefix + "HOST", "server.host"},
	{EnvPrefix + "PORT", "server.port"},
	{EnvPrefix + "WORKERS", "pool.workers"},
	{EnvPrefix + "ROOT", "static.root"},
}

// ApplyEnv 将已设置且非空的 TIDEPOOL_* 变量写入 src
//
// 值以字符串写入，类型转换在 Unmarshal 时完成。
func ApplyEnv(src xconf.Config, lookup func(string) (string, bool)) error {
	for _, e := range envKeys {
		v, ok := lookup(e.env)
		if !ok || v == "" {
			continue
		}
		if err := src.Set(e.key, v); err != nil {
			return fmt.Errorf("config: apply %s: %w", e.env, err)
		}
	}
	return nil
}
