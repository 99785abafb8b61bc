package xrun

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"

	"golang.org/x/sync/errgroup"
)

// Group 基于 errgroup + context 管理多个服务的并发运行和协调关闭。
//
// 当任一服务返回错误或 context 被取消时，所有服务都会收到取消信号。
// Go、GoWithName、Cancel 可并发调用，Wait 只应调用一次。
//
//	g, ctx := xrun.NewGroup(ctx)
//	g.Go(func(ctx context.Context) error {
//	    return srv.Serve(ctx)
//	})
//	if err := g.Wait(); err != nil {
//	    log.Fatal(err)
//	}
type Group struct {
	eg       *errgroup.Group
	ctx      context.Context
	causeCtx context.Context
	cancel   context.CancelCauseFunc
	coord    *Coordinator
	opts     *groupOptions
}

// NewGroup 创建新的 Group，返回的 context 在任一服务出错或 Cancel 时取消。
func NewGroup(ctx context.Context, opts ...Option) (*Group, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	options := defaultOptions()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(options)
	}
	coord := options.coordinator
	if coord == nil {
		coord = NewCoordinator()
	}

	causeCtx, cancel := context.WithCancelCause(ctx)
	eg, egCtx := errgroup.WithContext(causeCtx)

	return &Group{
		eg:       eg,
		ctx:      egCtx,
		causeCtx: causeCtx,
		cancel:   cancel,
		coord:    coord,
		opts:     options,
	}, egCtx
}

// Go 启动一个 goroutine 执行 fn，fn 应监听 ctx.Done()。
// fn 返回非 nil 错误时取消其余服务。
func (g *Group) Go(fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		return fn(g.ctx)
	})
}

// GoWithName 与 Go 相同，但会在日志中记录服务名。
func (g *Group) GoWithName(name string, fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		g.opts.logger.Debug("xrun: service starting",
			slog.String("group", g.opts.name),
			slog.String("service", name),
		)
		err := fn(g.ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			g.opts.logger.Warn("xrun: service exited with error",
				slog.String("group", g.opts.name),
				slog.String("service", name),
				slog.Any("error", err),
			)
		} else {
			g.opts.logger.Debug("xrun: service stopped",
				slog.String("group", g.opts.name),
				slog.String("service", name),
			)
		}
		return err
	})
}

// Wait 等待所有 goroutine 完成。
//
// 返回第一个非 nil 错误。错误为 context.Canceled 且取消来自 Group 本身时，
// 返回 Cancel 传入的原因（如 *SignalError），没有显式原因则返回 nil。
// 所有服务返回 nil 时，显式的取消原因同样会被返回。
func (g *Group) Wait() error {
	defer g.cancel(nil)

	err := g.eg.Wait()

	g.opts.logger.Debug("xrun: all services stopped",
		slog.String("group", g.opts.name),
	)

	if errors.Is(err, context.Canceled) {
		if g.causeCtx.Err() != nil {
			return g.explicitCause()
		}
		// 取消来自服务内部
		return err
	}
	if err == nil && g.causeCtx.Err() != nil {
		return g.explicitCause()
	}
	return err
}

func (g *Group) explicitCause() error {
	if cause := context.Cause(g.causeCtx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	return nil
}

// Cancel 进入 Draining 并取消所有 goroutine。
//
// cause 同时作为协调器的关闭原因和 context 的取消原因，Wait 会返回它。
// cause 不应包装 context.Canceled，否则会被当作普通取消过滤掉。
func (g *Group) Cancel(cause error) {
	g.coord.Drain(cause)
	g.cancel(cause)
}

// Context 返回 Group 的 context。
func (g *Group) Context() context.Context {
	return g.ctx
}

// Coordinator 返回 Group 使用的关闭协调器。
func (g *Group) Coordinator() *Coordinator {
	return g.coord
}

// watchSignals 在独立 goroutine 中监听信号，直到 stop 关闭。
//
// 第一个信号进入 Draining 并取消 Group；之后的信号只记录日志。
// 监听持续到所有服务退出，排空期间再次按 Ctrl-C 不会触发默认的进程终止。
func (g *Group) watchSignals(testc <-chan os.Signal, signals []os.Signal, stop <-chan struct{}) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, signals...)
	defer signal.Stop(sigCh)

	for {
		var sig os.Signal
		select {
		case sig = <-testc:
		case sig = <-sigCh:
		case <-stop:
			return
		}

		sigErr := &SignalError{Signal: sig}
		if !g.coord.Drain(sigErr) {
			g.opts.logger.Info("xrun: signal ignored, shutdown in progress",
				slog.String("group", g.opts.name),
				slog.String("signal", sig.String()),
			)
			continue
		}
		g.opts.logger.Info("xrun: received signal, draining",
			slog.String("group", g.opts.name),
			slog.String("signal", sig.String()),
		)
		g.cancel(sigErr)
	}
}

// runGroup 是 Run/RunWithOptions/RunServices/RunServicesWithOptions 的共享实现。
//
// 默认监听 DefaultSignals；WithSignals 自定义，WithoutSignalHandler 禁用。
// 所有服务退出后协调器进入 Terminated。
func runGroup(ctx context.Context, opts []Option, setup func(g *Group)) error {
	g, _ := NewGroup(ctx, opts...)

	stop := make(chan struct{})
	watcherDone := make(chan struct{})
	if g.opts.noSignalHandler {
		close(watcherDone)
	} else {
		signals := g.opts.signals
		// signal.Notify 不带参数会订阅所有信号，空列表按默认处理
		if len(signals) == 0 {
			signals = DefaultSignals()
		}
		go func() {
			defer close(watcherDone)
			g.watchSignals(testSigChan(ctx), signals, stop)
		}()
	}

	setup(g)
	err := g.Wait()

	close(stop)
	<-watcherDone
	g.coord.Terminate()
	return err
}

// Run 监听信号并运行服务。收到信号时 ctx 被取消，Run 返回 *SignalError。
//
//	err := xrun.Run(context.Background(), srv.Serve)
//	if errors.Is(err, xrun.ErrSignal) {
//	    log.Println("shut down by signal")
//	}
func Run(ctx context.Context, services ...func(ctx context.Context) error) error {
	return RunWithOptions(ctx, nil, services...)
}

// RunWithOptions 与 Run 相同，但支持配置选项。
func RunWithOptions(ctx context.Context, opts []Option, services ...func(ctx context.Context) error) error {
	return runGroup(ctx, opts, func(g *Group) {
		for _, svc := range services {
			g.Go(svc)
		}
	})
}

// Service 可由 RunServices 统一管理的服务。
type Service interface {
	// Run 阻塞直到 ctx 被取消或发生错误，ctx 取消时应优雅关闭并返回。
	Run(ctx context.Context) error
}

// ServiceFunc 将函数适配为 Service。
type ServiceFunc func(ctx context.Context) error

// Run 实现 Service 接口。
func (f ServiceFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// RunServices 运行多个 Service，监听信号并协调关闭。
func RunServices(ctx context.Context, services ...Service) error {
	return RunServicesWithOptions(ctx, nil, services...)
}

// RunServicesWithOptions 与 RunServices 相同，但支持配置选项。
func RunServicesWithOptions(ctx context.Context, opts []Option, services ...Service) error {
	return runGroup(ctx, opts, func(g *Group) {
		for _, svc := range services {
			if svc == nil {
				g.Go(func(context.Context) error { return ErrNilService })
				continue
			}
			g.Go(svc.Run)
		}
	})
}
