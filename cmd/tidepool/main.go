// tidepool 是一个基于固定 worker pool 的 HTTP/1.1 静态文件服务。
//
// 用法:
//
//	tidepool [选项] [serve]
//	tidepool version
//
// 选项:
//
//	-c, --config      配置文件（YAML/JSON，可选）
//	    --host        监听地址 (默认: 127.0.0.1)
//	-p, --port        监听端口 (默认: 7878)
//	-w, --workers     worker 数量 (默认: 4)
//	    --queue-size  连接队列容量 (默认: 1024)
//	-r, --root        静态文件目录 (默认: public)
//	    --sleep       /sleep 路由的等待时长 (默认: 5s)
//	    --log-level   debug|info|warn|error
//	    --log-format  text|json
//	    --log-file    日志文件，按大小轮转
//	    --log-sample-rate 访问日志采样率 0~1，5xx 总是记录 (默认: 1)
//	    --no-cache    关闭文件缓存
//
// 优先级：命令行 > TIDEPOOL_* 环境变量 > 配置文件 > 默认值。
//
// 退出码:
//
//	0: 正常退出（包括收到 SIGINT/SIGTERM 后排空退出）
//	1: 启动或运行失败（配置无效、静态目录不存在、端口绑定失败等）
//	2: 参数错误
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/tidepool/pkg/lifecycle/xrun"
)

// 版本信息，可通过 -ldflags "-X main.Version=..." 注入
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// usageError 参数错误，退出码 2
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// env 进程环境，测试时替换
type env struct {
	stdout    io.Writer
	stderr    io.Writer
	lookupEnv func(string) (string, bool)
	// runOpts 追加到 xrun 的选项
	runOpts []xrun.Option
	// ready 监听成功后回调
	ready func(addr net.Addr)
}

func main() {
	e := &env{stdout: os.Stdout, stderr: os.Stderr, lookupEnv: os.LookupEnv}
	os.Exit(run(context.Background(), os.Args, e))
}

func run(ctx context.Context, args []string, e *env) int {
	err := newApp(e).Run(ctx, args)
	if err == nil {
		return exitOK
	}
	var ue *usageError
	if errors.As(err, &ue) {
		fmt.Fprintf(e.stderr, "usage error: %v\n", ue)
		return exitUsage
	}
	fmt.Fprintf(e.stderr, "error: %v\n", err)
	return exitFailure
}

func newApp(e *env) *cli.Command {
	return &cli.Command{
		Name:      "tidepool",
		Usage:     "static file server backed by a fixed worker pool",
		Version:   fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Writer:    e.stdout,
		ErrWriter: e.stderr,
		Flags:     serveFlags(),
		Action:    serveAction(e),
		Commands: []*cli.Command{
			{
				Name:         "serve",
				Usage:        "run the server (default)",
				Flags:        serveFlags(),
				Action:       serveAction(e),
				OnUsageError: onUsageError,
			},
			{
				Name:  "version",
				Usage: "print version information",
				Action: func(_ context.Context, cmd *cli.Command) error {
					_, err := fmt.Fprintf(e.stdout, "tidepool %s\n", cmd.Root().Version)
					return err
				},
			},
		},
		OnUsageError: onUsageError,
		// 退出码由 run 统一映射，不让 cli 调用 os.Exit
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
}

func onUsageError(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return &usageError{err: err}
}

// serveFlags 每个命令需要独立的 flag 实例
func serveFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "config file (yaml or json)"},
		&cli.StringFlag{Name: "host", Usage: "listen host"},
		&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "listen port, 0 picks a free port"},
		&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "number of workers"},
		&cli.IntFlag{Name: "queue-size", Usage: "connection queue capacity"},
		&cli.StringFlag{Name: "root", Aliases: []string{"r"}, Usage: "static file root"},
		&cli.DurationFlag{Name: "sleep", Usage: "delay of the /sleep route"},
		&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
		&cli.StringFlag{Name: "log-format", Usage: "text or json"},
		&cli.StringFlag{Name: "log-file", Usage: "write logs to a rotated file"},
		&cli.FloatFlag{Name: "log-sample-rate", Usage: "fraction of successful requests written to the access log"},
		&cli.BoolFlag{Name: "no-cache", Usage: "disable the in-memory file cache"},
	}
}
