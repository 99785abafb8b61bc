package xrun

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	// signal.Notify 启动的运行时 goroutine 不会退出
	goleak.VerifyTestMain(m, goleak.IgnoreAnyFunction("os/signal.loop"))
}
