// Package server 接受 TCP 连接并交给固定大小的 worker pool 处理。
//
// 连接的所有权依次转移：监听循环 → 队列 → worker。
// 入队成功后由 worker 在处理结束时关闭连接；入队失败（正在关闭）时由监听循环
// 回复 503 并关闭。
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/omeyang/tidepool/internal/httpwire"
	"github.com/omeyang/tidepool/pkg/context/xctx"
	"github.com/omeyang/tidepool/pkg/lifecycle/xrun"
	"github.com/omeyang/tidepool/pkg/observability/xlog"
	"github.com/omeyang/tidepool/pkg/observability/xmetrics"
	"github.com/omeyang/tidepool/pkg/resilience/xretry"
	"github.com/omeyang/tidepool/pkg/util/xpool"
)

// rejectTimeout 回复 503 的写超时
const rejectTimeout = time.Second

//go:generate mockgen -source=server.go -destination=mock_handler_test.go -package=server ConnHandler

// ConnHandler 处理一条已接受的连接，不负责关闭连接
type ConnHandler interface {
	ServeConn(ctx context.Context, conn net.Conn) error
}

// ConnHandlerFunc 函数适配为 ConnHandler
type ConnHandlerFunc func(ctx context.Context, conn net.Conn) error

// ServeConn 实现 ConnHandler
func (f ConnHandlerFunc) ServeConn(ctx context.Context, conn net.Conn) error {
	return f(ctx, conn)
}

// connTask 队列中的任务，持有一条连接
type connTask struct {
	id       string
	conn     net.Conn
	accepted time.Time
}

// String 只输出连接 id 和对端地址
func (t connTask) String() string {
	return t.id + "@" + remoteAddr(t.conn)
}

// Config 服务参数
type Config struct {
	Workers   int
	QueueSize int
}

// Option 服务选项
type Option func(*Server)

// WithLogger 设置日志记录器，nil 忽略
func WithLogger(l xlog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCoordinator 进入 Draining 时停止接受新连接
func WithCoordinator(c *xrun.Coordinator) Option {
	return func(s *Server) {
		s.coord = c
	}
}

// WithObserver 观测每个连接任务，nil 忽略
func WithObserver(o xmetrics.Observer) Option {
	return func(s *Server) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithAcceptBackoff 设置临时性 accept 错误的退避策略
func WithAcceptBackoff(b xretry.BackoffPolicy) Option {
	return func(s *Server) {
		if b != nil {
			s.backoff = b
		}
	}
}

// Server 监听循环加 worker pool
type Server struct {
	ln       net.Listener
	handler  ConnHandler
	pool     *xpool.Pool[connTask]
	coord    *xrun.Coordinator
	logger   xlog.Logger
	observer xmetrics.Observer
	backoff  xretry.BackoffPolicy

	closeOnce sync.Once
	closing   chan struct{}
	closeErr  error
}

// New 创建服务并立即启动 worker，ln 的所有权转移给 Server。
func New(ln net.Listener, handler ConnHandler, cfg Config, opts ...Option) (*Server, error) {
	if ln == nil {
		return nil, ErrNilListener
	}
	if handler == nil {
		return nil, ErrNilHandler
	}

	s := &Server{
		ln:      ln,
		handler: handler,
		logger:  xlog.Default(),
		// net/http 的做法：5ms 起，翻倍，1s 封顶
		backoff: xretry.NewExponentialBackoff(
			xretry.WithInitialDelay(5*time.Millisecond),
			xretry.WithMaxDelay(time.Second),
			xretry.WithMultiplier(2),
			xretry.WithJitter(0),
		),
		closing: make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	poolOpts := []xpool.Option{
		xpool.WithLogger(xlog.Slog(s.logger)),
		xpool.WithName("conn"),
	}
	if s.observer != nil {
		poolOpts = append(poolOpts, xpool.WithObserver(s.observer))
	}
	pool, err := xpool.New(cfg.Workers, cfg.QueueSize, s.handle, poolOpts...)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("server: create pool: %w", err), ln.Close())
	}
	s.pool = pool
	return s, nil
}

// Addr 实际监听地址
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Stats worker pool 快照
func (s *Server) Stats() xpool.Stats {
	return s.pool.Stats()
}

// Serve 运行监听循环，直到 ctx 结束、协调器进入 Draining 或 Close。
// 正常关闭返回 nil，不等待已入队的连接，等待请调用 Shutdown。
func (s *Server) Serve(ctx context.Context) error {
	// 关闭开始后，队列满时阻塞的入队也要放弃
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stop := make(chan struct{})
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		select {
		case <-ctx.Done():
		case <-s.draining():
		case <-s.closing:
		case <-stop:
			return
		}
		s.closeListener()
		cancel()
	}()
	defer func() {
		close(stop)
		<-watchDone
	}()

	s.logger.Info(ctx, "server: accepting connections", xlog.Addr(s.ln.Addr()))

	attempt := 0
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if s.isClosing() {
				s.logger.Info(ctx, "server: listener closed, no longer accepting")
				return nil
			}
			if !isTemporary(err) {
				return fmt.Errorf("server: accept: %w", err)
			}
			attempt++
			delay := s.backoff.NextDelay(attempt)
			s.logger.Warn(ctx, "server: accept error, retrying", xlog.Err(err), xlog.Duration(delay))
			if !s.sleep(delay) {
				return nil
			}
			continue
		}
		attempt = 0
		s.dispatch(ctx, conn)
	}
}

// dispatch 将连接入队，入队失败时回复 503 并关闭
func (s *Server) dispatch(ctx context.Context, conn net.Conn) {
	task := connTask{id: uuid.NewString(), conn: conn, accepted: time.Now()}
	s.logger.Debug(ctx, "server: connection accepted",
		xlog.ConnID(task.id),
		xlog.RemoteAddr(conn.RemoteAddr()),
	)

	err := s.pool.Submit(ctx, task)
	if err == nil {
		return
	}
	s.logger.Warn(ctx, "server: connection rejected",
		xlog.ConnID(task.id),
		xlog.RemoteAddr(conn.RemoteAddr()),
		xlog.Err(err),
	)
	s.reject(conn)
}

// reject 尽力回复 503 后关闭连接
func (s *Server) reject(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetWriteDeadline(time.Now().Add(rejectTimeout))
	resp := &httpwire.Response{
		Status:      http.StatusServiceUnavailable,
		ContentType: "text/plain; charset=utf-8",
		Body:        []byte("503 Service Unavailable\n"),
	}
	_, _ = resp.Write(conn)
}

// handle worker 执行的任务，结束时关闭连接
func (s *Server) handle(ctx context.Context, t connTask) error {
	defer t.conn.Close()

	ctx, _ = xctx.WithConnID(ctx, t.id)
	ctx, _ = xctx.WithRemoteAddr(ctx, remoteAddr(t.conn))
	s.logger.Debug(ctx, "server: connection dequeued", xlog.Duration(time.Since(t.accepted)))

	if err := s.handler.ServeConn(ctx, t.conn); err != nil {
		return fmt.Errorf("server: conn %s: %w", t.id, err)
	}
	return nil
}

// Close 停止接受新连接，幂等
func (s *Server) Close() error {
	s.closeListener()
	return s.closeErr
}

// Shutdown 停止接受新连接并等待已入队的连接全部处理完。
// ctx 到期时返回 ctx 错误，剩余连接仍在后台处理。
func (s *Server) Shutdown(ctx context.Context) error {
	s.closeListener()
	if err := s.pool.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	st := s.pool.Stats()
	s.logger.Info(ctx, "server: drained", xlog.Count(int64(st.Completed)))
	return nil
}

// Run 实现 xrun.Service：Serve 结束后等待所有连接处理完
func (s *Server) Run(ctx context.Context) error {
	serveErr := s.Serve(ctx)
	// 已接受的连接必须处理完，不受 ctx 约束
	shutdownErr := s.Shutdown(context.WithoutCancel(ctx))
	return errors.Join(serveErr, shutdownErr)
}

// Done 所有 worker 退出后关闭
func (s *Server) Done() <-chan struct{} {
	return s.pool.Done()
}

func (s *Server) closeListener() {
	s.closeOnce.Do(func() {
		close(s.closing)
		if err := s.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.closeErr = err
		}
	})
}

func remoteAddr(conn net.Conn) string {
	if a := conn.RemoteAddr(); a != nil {
		return a.String()
	}
	return ""
}

func (s *Server) isClosing() bool {
	select {
	case <-s.closing:
		return true
	default:
		return false
	}
}

func (s *Server) draining() <-chan struct{} {
	if s.coord == nil {
		return nil
	}
	return s.coord.Draining()
}

// sleep 等待 d，期间关闭则返回 false
func (s *Server) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-s.closing:
		return false
	}
}

// isTemporary accept 可恢复的错误：超时、连接被对端中止、文件描述符或内存耗尽
func isTemporary(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	for _, errno := range []syscall.Errno{
		syscall.ECONNABORTED,
		syscall.ECONNRESET,
		syscall.EMFILE,
		syscall.ENFILE,
		syscall.ENOBUFS,
		syscall.ENOMEM,
	} {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}
