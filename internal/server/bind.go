package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/omeyang/tidepool/pkg/observability/xlog"
	"github.com/omeyang/tidepool/pkg/resilience/xretry"
)

// BindConfig 绑定重试参数
type BindConfig struct {
	// Interval 两次尝试的间隔，默认 300ms
	Interval time.Duration
	// Timeout 重试总时长，<=0 表示只尝试一次
	Timeout time.Duration
	Logger  xlog.Logger
}

// Bind 在 addr 上监听 TCP，失败时按固定间隔重试直到超出总时长。
// 常见于上一个进程刚退出、端口尚未释放的情况。
func Bind(ctx context.Context, addr string, cfg BindConfig) (net.Listener, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = 300 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = xlog.Default()
	}

	var lc net.ListenConfig
	if cfg.Timeout <= 0 {
		ln, err := lc.Listen(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("%w %s: %w", ErrBind, addr, err)
		}
		return ln, nil
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	var lastErr error
	ln, err := xretry.DoWithData(ctx, func() (net.Listener, error) {
		ln, err := lc.Listen(ctx, "tcp", addr)
		lastErr = err
		return ln, err
	},
		xretry.Attempts(0),
		xretry.Delay(cfg.Interval),
		xretry.DelayType(xretry.FixedDelay),
		xretry.LastErrorOnly(true),
		xretry.WrapContextErrorWithLastError(true),
		xretry.OnRetry(func(n uint, err error) {
			logger.Warn(ctx, "server: bind failed, retrying",
				xlog.Count(int64(n)+1),
				xlog.Duration(cfg.Interval),
				xlog.Err(err),
			)
		}),
	)
	if err != nil {
		if lastErr != nil && !errors.Is(err, lastErr) {
			err = errors.Join(lastErr, err)
		}
		return nil, fmt.Errorf("%w %s: %w", ErrBind, addr, err)
	}
	return ln, nil
}
