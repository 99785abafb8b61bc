// Package xrun 提供基于 errgroup + context 的进程生命周期管理。
//
// # 概述
//
//   - Group：多服务并发运行，任一出错即协调关闭
//   - 信号处理：默认监听 SIGHUP、SIGINT、SIGTERM、SIGQUIT
//   - Coordinator：一次性的关闭信号，状态 Running → Draining → Terminated
//
// # 快速开始
//
//	err := xrun.Run(context.Background(), srv.Serve)
//	if err != nil && !errors.Is(err, xrun.ErrSignal) {
//	    log.Fatal(err)
//	}
//
// # 关闭协调
//
// 第一个信号使协调器进入 Draining 并取消 Group 的 context，之后的信号只记录日志，
// 不会再次触发关闭，也不会强制退出进程。监听在所有服务返回前一直有效。
// 服务全部返回后协调器进入 Terminated：
//
//	coord := xrun.NewCoordinator()
//	err := xrun.RunWithOptions(ctx, []xrun.Option{
//	    xrun.WithCoordinator(coord),
//	}, func(ctx context.Context) error {
//	    <-ctx.Done()
//	    return pool.Close()
//	})
//	// coord.State() == xrun.StateTerminated
//
// # 错误处理
//
// 信号退出时返回 *SignalError，可用 errors.Is(err, ErrSignal) 判断。
// Wait 会过滤由 Group 自身取消产生的 context.Canceled，保留显式的取消原因。
package xrun
