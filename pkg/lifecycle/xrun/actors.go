package xrun

import (
	"context"
	"os"
	"syscall"
)

// DefaultSignals 返回默认监听的系统信号：SIGHUP、SIGINT、SIGTERM、SIGQUIT。
//
// 每次调用返回新的切片，调用者可安全修改。
func DefaultSignals() []os.Signal {
	return []os.Signal{
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	}
}

// testSigChanKey 用于在测试中通过 context 注入信号通道，避免发送真实信号。
type testSigChanKey struct{}

// testSigChan 从 context 中获取测试信号通道，生产环境返回 nil。
func testSigChan(ctx context.Context) <-chan os.Signal {
	c, ok := ctx.Value(testSigChanKey{}).(<-chan os.Signal)
	if !ok {
		return nil
	}
	return c
}

// withTestSigChan 在 context 中注入测试信号通道。
func withTestSigChan(ctx context.Context, c <-chan os.Signal) context.Context {
	return context.WithValue(ctx, testSigChanKey{}, c)
}

// WaitForDone 返回阻塞到 ctx 取消的服务函数，用于让 Group 保持运行。
func WaitForDone() func(ctx context.Context) error {
	return func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
}
