package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/tidepool/internal/config"
	"github.com/omeyang/tidepool/internal/server"
	"github.com/omeyang/tidepool/internal/static"
	"github.com/omeyang/tidepool/pkg/config/xconf"
	"github.com/omeyang/tidepool/pkg/context/xctx"
	"github.com/omeyang/tidepool/pkg/lifecycle/xrun"
	"github.com/omeyang/tidepool/pkg/observability/xlog"
	"github.com/omeyang/tidepool/pkg/observability/xsampling"
	"github.com/omeyang/tidepool/pkg/util/xsys"
)

const instrumentationName = "github.com/omeyang/tidepool"

// flagKeys 命令行参数到配置键的映射
var flagKeys = []struct {
	flag string
	key  string
}{
	{"host", "server.host"},
	{"port", "server.port"},
	{"workers", "pool.workers"},
	{"queue-size", "pool.queue_size"},
	{"root", "static.root"},
	{"sleep", "static.sleep"},
	{"log-level", "log.level"},
	{"log-format", "log.format"},
	{"log-file", "log.file"},
	{"log-sample-rate", "log.access_sample_rate"},
}

func serveAction(e *env) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		if cmd.NArg() > 0 {
			return &usageError{err: fmt.Errorf("unexpected argument %q", cmd.Args().First())}
		}

		src, err := config.NewSource(cmd.String("config"))
		if err != nil {
			return err
		}
		if err := config.ApplyEnv(src, e.lookupEnv); err != nil {
			return err
		}
		if err := applyFlags(cmd, src); err != nil {
			return err
		}
		cfg, err := config.FromSource(src)
		if err != nil {
			return err
		}
		return serve(ctx, cfg, src, e)
	}
}

// applyFlags 将显式设置的参数写入配置源，重载后仍然生效
func applyFlags(cmd *cli.Command, src xconf.Config) error {
	for _, f := range flagKeys {
		if !cmd.IsSet(f.flag) {
			continue
		}
		if err := src.Set(f.key, cmd.Value(f.flag)); err != nil {
			return fmt.Errorf("tidepool: apply --%s: %w", f.flag, err)
		}
	}
	if cmd.Bool("no-cache") {
		if err := src.Set("static.cache.enabled", false); err != nil {
			return fmt.Errorf("tidepool: apply --no-cache: %w", err)
		}
	}
	return nil
}

func newLogger(cfg config.LogConfig, e *env) (xlog.LoggerWithLevel, func() error, error) {
	b := xlog.New().
		SetOutput(e.stderr).
		SetLevelString(cfg.Level).
		SetFormat(cfg.Format)
	if cfg.File != "" {
		b.SetRotation(cfg.File)
	}
	return b.Build()
}

// serve 组装各组件并运行到收到信号或 ctx 结束
func serve(ctx context.Context, cfg config.Config, src xconf.Config, e *env) (err error) {
	logger, closeLog, err := newLogger(cfg.Log, e)
	if err != nil {
		return fmt.Errorf("tidepool: build logger: %w", err)
	}
	defer func() { err = errors.Join(err, closeLog()) }()
	xlog.SetDefault(logger)

	raiseFileLimit(ctx, logger)

	tel, err := newTelemetry()
	if err != nil {
		return err
	}
	defer func() {
		// 退出时 ctx 可能已取消
		sctx := context.WithoutCancel(ctx)
		if totals, terr := tel.totals(sctx); terr == nil {
			logger.Info(sctx, "tidepool: operation totals", totals...)
		}
		err = errors.Join(err, tel.Shutdown(sctx))
	}()
	observer := tel.observer

	access, err := xsampling.New(cfg.Log.AccessSampleRate, accessKey)
	if err != nil {
		return fmt.Errorf("tidepool: create access sampler: %w", err)
	}

	handlerOpts := []static.Option{
		static.WithSleep(cfg.Static.Sleep),
		static.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		static.WithLogger(logger),
		static.WithObserver(observer),
		static.WithAccessSampler(access),
	}
	var cache *static.Cache
	if cfg.Static.Cache.Enabled {
		cache, err = static.NewCache(static.CacheConfig{
			MaxEntries:  cfg.Static.Cache.MaxEntries,
			MaxFileSize: cfg.Static.Cache.MaxFileSize,
			TTL:         cfg.Static.Cache.TTL,
		})
		if err != nil {
			return err
		}
		defer cache.Close()
		handlerOpts = append(handlerOpts, static.WithCache(cache))
	}
	handler, err := static.New(cfg.Static.Root, handlerOpts...)
	if err != nil {
		return err
	}

	ln, err := server.Bind(ctx, cfg.Addr(), server.BindConfig{
		Interval: cfg.Server.BindRetryInterval,
		Timeout:  cfg.Server.BindTimeout,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	coord := xrun.NewCoordinator()
	srv, err := server.New(ln, handler, server.Config{
		Workers:   cfg.Pool.Workers,
		QueueSize: cfg.Pool.QueueSize,
	},
		server.WithLogger(logger),
		server.WithCoordinator(coord),
		server.WithObserver(observer),
	)
	if err != nil {
		return err
	}

	// 进入 xrun 之前失败时，逆序释放已创建的组件
	undo := []func(){func() {
		_ = srv.Close()
		_ = srv.Shutdown(context.WithoutCancel(ctx))
	}}
	started := false
	defer func() {
		if started {
			return
		}
		for _, f := range slices.Backward(undo) {
			f()
		}
	}()

	services := []xrun.Service{srv}
	if cache != nil && cfg.Static.Cache.Watch {
		w, err := static.NewWatcher(handler.Root(), cache, xlog.Slog(logger))
		if err != nil {
			return err
		}
		undo = append(undo, func() { _ = w.Close() })
		services = append(services, xrun.ServiceFunc(w.Run))
	}
	if src.Path() != "" {
		cw, err := xconf.Watch(src, reloadLogLevel(logger))
		if err != nil {
			return err
		}
		undo = append(undo, func() { _ = cw.Stop() })
		services = append(services, xrun.ServiceFunc(cw.Run))
	}

	logger.Info(ctx, "tidepool: listening",
		xlog.Addr(srv.Addr()),
		slog.Int("workers", cfg.Pool.Workers),
		slog.Int("queue_size", cfg.Pool.QueueSize),
		slog.String("root", handler.Root()),
		slog.Bool("cache", cache != nil),
	)
	if e.ready != nil {
		e.ready(srv.Addr())
	}

	started = true
	opts := append([]xrun.Option{
		xrun.WithName("tidepool"),
		xrun.WithLogger(xlog.Slog(logger)),
		xrun.WithCoordinator(coord),
	}, e.runOpts...)
	err = xrun.RunServicesWithOptions(ctx, opts, services...)

	var sigErr *xrun.SignalError
	switch {
	case errors.As(err, &sigErr):
		logger.Info(ctx, "tidepool: shutdown complete", slog.String("signal", sigErr.Error()))
		return nil
	case err != nil:
		return err
	}
	logger.Info(ctx, "tidepool: shutdown complete")
	return nil
}

// accessKey 同一条链路的请求采样结果一致，无追踪信息时按连接
func accessKey(ctx context.Context) string {
	if id := xctx.TraceID(ctx); id != "" {
		return id
	}
	return xctx.ConnID(ctx)
}

// raiseFileLimit 尽力提升文件描述符软限制，失败只记录
func raiseFileLimit(ctx context.Context, logger xlog.Logger) {
	before, after, err := xsys.RaiseFileLimit(0)
	if err != nil {
		logger.Warn(ctx, "tidepool: raise file limit failed", xlog.Err(err))
		return
	}
	if after != before {
		logger.Debug(ctx, "tidepool: file limit raised",
			slog.Uint64("before", before),
			slog.Uint64("after", after),
		)
	}
}

// reloadLogLevel 配置文件变更后重新应用日志级别，其余字段需重启生效
func reloadLogLevel(logger xlog.LoggerWithLevel) xconf.WatchCallback {
	return func(cfg xconf.Config, err error) {
		ctx := context.Background()
		if err != nil {
			logger.Warn(ctx, "tidepool: config reload failed", xlog.Err(err))
			return
		}
		lc := config.Default().Log
		if err := cfg.Unmarshal("log", &lc); err != nil {
			logger.Warn(ctx, "tidepool: config reload failed", xlog.Err(err))
			return
		}
		level, err := xlog.ParseLevel(lc.Level)
		if err != nil {
			logger.Warn(ctx, "tidepool: invalid log level in config", xlog.Err(err))
			return
		}
		if level != logger.GetLevel() {
			logger.SetLevel(level)
			logger.Info(ctx, "tidepool: log level changed", slog.String("level", level.String()))
		}
	}
}
