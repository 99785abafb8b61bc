//go:build unix

package main

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sleepResult struct {
	status int
	body   string
	err    error
}

// TestRun_InterruptDrainsInFlight 中断信号到达时 /sleep 正在处理，
// 进程等它完成后以 0 退出，第二个信号只记录日志。
func TestRun_InterruptDrainsInFlight(t *testing.T) {
	const delay = time.Second

	// 进程自己也订阅 SIGINT，xrun 尚未注册时信号不会终止测试进程
	guard := make(chan os.Signal, 8)
	signal.Notify(guard, syscall.SIGINT)
	defer signal.Stop(guard)

	e, _, stderr := newEnv(map[string]string{"TIDEPOOL_ROOT": newRoot(t)})
	e.runOpts = nil
	addrc := make(chan net.Addr, 1)
	e.ready = func(a net.Addr) { addrc <- a }

	codec := make(chan int, 1)
	go func() {
		codec <- run(context.Background(), []string{"tidepool", "-p", "0", "--sleep", delay.String()}, e)
	}()

	var addr net.Addr
	select {
	case addr = <-addrc:
	case code := <-codec:
		t.Fatalf("exited early with %d: %s", code, stderr.String())
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	start := time.Now()
	resc := make(chan sleepResult, 1)
	go func() {
		conn, err := net.Dial("tcp", addr.String())
		if err != nil {
			resc <- sleepResult{err: err}
			return
		}
		defer conn.Close()
		if _, err := io.WriteString(conn, "GET /sleep HTTP/1.1\r\n\r\n"); err != nil {
			resc <- sleepResult{err: err}
			return
		}
		resp, err := http.ReadResponse(bufio.NewReader(conn), nil)
		if err != nil {
			resc <- sleepResult{err: err}
			return
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		resc <- sleepResult{status: resp.StatusCode, body: string(b), err: err}
	}()

	time.Sleep(150 * time.Millisecond)
	interrupt := func() { _ = syscall.Kill(os.Getpid(), syscall.SIGINT) }

	// 信号处理在后台注册，重发直到开始排空
	interrupt()
	require.Eventually(t, func() bool {
		if strings.Contains(stderr.String(), "xrun: received signal, draining") {
			return true
		}
		interrupt()
		return false
	}, delay/2, 50*time.Millisecond)

	interrupt()
	require.Eventually(t, func() bool {
		return strings.Contains(stderr.String(), "xrun: signal ignored, shutdown in progress")
	}, delay/2, 10*time.Millisecond)

	select {
	case code := <-codec:
		assert.Equal(t, exitOK, code, stderr.String())
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.GreaterOrEqual(t, time.Since(start), delay, "exit waits for the in-flight request")

	res := <-resc
	require.NoError(t, res.err)
	assert.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "<h1>Hello!</h1>", res.body)
	assert.Contains(t, stderr.String(), "tidepool: shutdown complete")
}
