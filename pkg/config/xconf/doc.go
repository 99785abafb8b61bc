// Package xconf 基于 koanf 的配置加载。
//
// 支持 YAML 与 JSON，从文件（按扩展名识别格式）或字节数据加载：
//
//	cfg, err := xconf.New("/etc/tidepool/tidepool.yaml")
//	if err != nil {
//	    return err
//	}
//	var pool PoolConfig
//	if err := cfg.Unmarshal("pool", &pool); err != nil {
//	    return err
//	}
//
// Set 写入的覆盖值（命令行、环境变量）在 Reload 后会重新应用。
//
// # 热更新
//
// Watch 通过 fsnotify 监视配置文件所在目录，防抖后 Reload 并回调：
//
//	w, err := xconf.Watch(cfg, func(c xconf.Config, err error) { ... })
//	go w.Run(ctx)
//
// 监视目录而非文件本身，编辑器"写临时文件再 rename"的保存方式也能被捕获。
package xconf
