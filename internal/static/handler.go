// Package static 在一条连接上读取一个请求，并从静态目录返回文件。
//
// 路由：
//   - GET|HEAD /sleep：等待配置的时长后返回首页
//   - GET|HEAD /：返回 index.html
//   - GET|HEAD 其他路径：返回静态目录下的文件，目录返回其 index.html
//   - 其他方法：405，Allow: GET, HEAD
//
// 文件不存在或路径越界返回 404（优先使用目录下的 404.html），读取失败返回 500。
package static

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/omeyang/tidepool/internal/httpwire"
	"github.com/omeyang/tidepool/pkg/context/xctx"
	"github.com/omeyang/tidepool/pkg/observability/xlog"
	"github.com/omeyang/tidepool/pkg/observability/xmetrics"
	"github.com/omeyang/tidepool/pkg/observability/xsampling"
	"github.com/omeyang/tidepool/pkg/observability/xtrace"
	"github.com/omeyang/tidepool/pkg/util/xfile"
)

const (
	indexFile    = "index.html"
	notFoundFile = "404.html"
	sleepPath    = "/sleep"

	defaultContentType = "application/octet-stream"
	textContentType    = "text/plain; charset=utf-8"
	htmlContentType    = "text/html; charset=utf-8"
)

var builtinNotFound = []byte("<!DOCTYPE html>\n<html lang=\"en\">\n<head><meta charset=\"utf-8\"><title>404 Not Found</title></head>\n" +
	"<body><h1>404 Not Found</h1><p>The requested resource does not exist.</p></body>\n</html>\n")

// Handler 静态文件处理器，并发安全
type Handler struct {
	root         string
	sleep        time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
	cache        *Cache
	logger       xlog.Logger
	observer     xmetrics.Observer
	access       xsampling.Sampler
}

// Option 处理器选项
type Option func(*Handler)

// WithSleep 设置 /sleep 的等待时长，负值忽略
func WithSleep(d time.Duration) Option {
	return func(h *Handler) {
		if d >= 0 {
			h.sleep = d
		}
	}
}

// WithTimeouts 设置读请求和写响应的截止时长，0 表示不限制
func WithTimeouts(read, write time.Duration) Option {
	return func(h *Handler) {
		h.readTimeout = max(read, 0)
		h.writeTimeout = max(write, 0)
	}
}

// WithCache 启用文件缓存
func WithCache(c *Cache) Option {
	return func(h *Handler) {
		h.cache = c
	}
}

// WithLogger 设置日志记录器，nil 忽略
func WithLogger(l xlog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithObserver 每个请求开启一次观测跨度，nil 忽略
func WithObserver(o xmetrics.Observer) Option {
	return func(h *Handler) {
		if o != nil {
			h.observer = o
		}
	}
}

// WithAccessSampler 对成功请求的访问日志采样，5xx 总是记录。nil 忽略。
func WithAccessSampler(sm xsampling.Sampler) Option {
	return func(h *Handler) {
		if sm != nil {
			h.access = sm
		}
	}
}

// New 创建处理器，root 必须是已存在的目录
func New(root string, opts ...Option) (*Handler, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("static: resolve root %q: %w", root, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRootNotFound, abs)
		}
		return nil, fmt.Errorf("static: resolve root %q: %w", root, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("static: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrRootNotDir, resolved)
	}

	h := &Handler{
		root:     resolved,
		sleep:    5 * time.Second,
		logger:   xlog.Default(),
		observer: xmetrics.NoopObserver{},
		access:   xsampling.Always(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h, nil
}

// Root 解析后的静态目录绝对路径
func (h *Handler) Root() string {
	return h.root
}

// ServeConn 在 conn 上读取一个请求并写出响应，不关闭 conn。
//
// 格式错误、文件不存在等情况以响应状态码表达，返回 nil；
// 只有连接本身的读写失败才返回错误。对端未发送任何数据就关闭时返回 nil。
func (h *Handler) ServeConn(ctx context.Context, conn net.Conn) error {
	if conn == nil {
		return ErrNilConn
	}
	start := time.Now()

	req, err := h.readRequest(conn)
	var resp *httpwire.Response
	switch {
	case err == nil:
	case errors.Is(err, httpwire.ErrMalformedRequest):
		h.logger.Debug(ctx, "static: malformed request", xlog.Err(err))
		resp = textResponse(http.StatusBadRequest)
	case errors.Is(err, io.EOF):
		return nil
	default:
		return err
	}

	var attrs []xmetrics.Attr
	if req != nil {
		// 上游的追踪信息作为本次请求跨度的父级
		ctx = xtrace.ContextWith(ctx, xtrace.Extract(req.Header))
		attrs = append(attrs, xmetrics.String("method", req.Method), xmetrics.String("path", req.Path))
	}
	ctx, span := xmetrics.Start(ctx, h.observer, xmetrics.SpanOptions{
		Component: "static",
		Operation: "request",
		Kind:      xmetrics.KindServer,
		Attrs:     attrs,
	})

	if resp == nil {
		resp = h.respond(ctx, req)
	}
	err = h.writeResponse(ctx, conn, req, resp, start)
	span.End(xmetrics.Result{
		Err:   err,
		Attrs: []xmetrics.Attr{xmetrics.Int("status_code", resp.Status)},
	})
	return err
}

func (h *Handler) readRequest(conn net.Conn) (*httpwire.Request, error) {
	if h.readTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(h.readTimeout)); err != nil {
			return nil, fmt.Errorf("static: set read deadline: %w", err)
		}
	}
	req, err := httpwire.ReadRequest(bufio.NewReader(conn))
	if err != nil && !errors.Is(err, httpwire.ErrMalformedRequest) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("static: read request: %w", err)
	}
	return req, err
}

func (h *Handler) writeResponse(ctx context.Context, conn net.Conn, req *httpwire.Request, resp *httpwire.Response, start time.Time) error {
	if id := xctx.TraceID(ctx); id != "" {
		resp.Fields = append(resp.Fields, httpwire.Field{Name: xtrace.HeaderTraceID, Value: id})
	}
	if h.writeTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(h.writeTimeout)); err != nil {
			return fmt.Errorf("static: set write deadline: %w", err)
		}
	}
	n, err := resp.Write(conn)
	if err != nil {
		return fmt.Errorf("static: write response: %w", err)
	}

	if resp.Status < http.StatusInternalServerError && !h.access.ShouldSample(ctx) {
		return nil
	}
	attrs := []slog.Attr{
		xlog.StatusCode(resp.Status),
		xlog.Bytes(n),
		xlog.Duration(time.Since(start)),
	}
	if req != nil {
		attrs = append(attrs, xlog.Method(req.Method), xlog.Path(req.Target))
	}
	h.logger.Info(ctx, "static: request served", attrs...)
	return nil
}

// respond 根据请求生成响应
func (h *Handler) respond(ctx context.Context, req *httpwire.Request) *httpwire.Response {
	head := req.Method == http.MethodHead
	if req.Method != http.MethodGet && !head {
		resp := textResponse(http.StatusMethodNotAllowed)
		resp.Fields = append(resp.Fields, httpwire.Field{Name: "Allow", Value: "GET, HEAD"})
		return resp
	}

	var resp *httpwire.Response
	switch req.Path {
	case sleepPath:
		h.wait(ctx)
		resp = h.sleepPage(ctx)
	case "/":
		resp = h.serveFile(ctx, indexFile)
	default:
		resp = h.serveFile(ctx, strings.TrimPrefix(req.Path, "/"))
	}
	resp.HeadOnly = head
	return resp
}

// wait 演示用的慢请求，不作为超时使用
func (h *Handler) wait(ctx context.Context) {
	if h.sleep <= 0 {
		return
	}
	t := time.NewTimer(h.sleep)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func (h *Handler) sleepPage(ctx context.Context) *httpwire.Response {
	f, err := h.open(indexFile)
	if err != nil {
		if !errors.Is(err, errNotFound) {
			h.logger.Warn(ctx, "static: read index failed", xlog.Err(err))
		}
		return &httpwire.Response{
			Status:      http.StatusOK,
			ContentType: textContentType,
			Body:        []byte("slept " + h.sleep.String() + "\n"),
		}
	}
	return &httpwire.Response{Status: http.StatusOK, ContentType: f.contentType, Body: f.data}
}

func (h *Handler) serveFile(ctx context.Context, rel string) *httpwire.Response {
	f, err := h.open(rel)
	switch {
	case err == nil:
		return &httpwire.Response{Status: http.StatusOK, ContentType: f.contentType, Body: f.data}
	case errors.Is(err, errNotFound):
		return h.notFound(ctx)
	default:
		h.logger.Error(ctx, "static: read file failed", xlog.Path(rel), xlog.Err(err))
		return textResponse(http.StatusInternalServerError)
	}
}

func (h *Handler) notFound(ctx context.Context) *httpwire.Response {
	f, err := h.open(notFoundFile)
	if err != nil {
		if !errors.Is(err, errNotFound) {
			h.logger.Warn(ctx, "static: read 404 page failed", xlog.Err(err))
		}
		return &httpwire.Response{Status: http.StatusNotFound, ContentType: htmlContentType, Body: builtinNotFound}
	}
	return &httpwire.Response{Status: http.StatusNotFound, ContentType: f.contentType, Body: f.data}
}

// open 读取 root 下的 rel，目录解析为其 index.html。
// 越界、不存在、不是普通文件都返回 errNotFound。
func (h *Handler) open(rel string) (file, error) {
	if rel == "" {
		rel = "."
	}
	name, err := xfile.SafeJoinWithOptions(h.root, rel, xfile.SafeJoinOptions{ResolveSymlinks: true})
	if err != nil {
		return file{}, errNotFound
	}

	var gen uint64
	if h.cache != nil {
		if f, ok := h.cache.get(name); ok {
			return f, nil
		}
		gen = h.cache.generation()
	}

	info, err := os.Stat(name)
	if err != nil {
		return file{}, statError(err)
	}
	if info.IsDir() {
		name = filepath.Join(name, indexFile)
		if h.cache != nil {
			if f, ok := h.cache.get(name); ok {
				return f, nil
			}
		}
		if info, err = os.Stat(name); err != nil {
			return file{}, statError(err)
		}
	}
	if !info.Mode().IsRegular() {
		return file{}, errNotFound
	}

	data, err := os.ReadFile(name)
	if err != nil {
		return file{}, statError(err)
	}
	f := file{data: data, contentType: contentType(name)}
	if h.cache != nil {
		h.cache.put(name, f, gen)
	}
	return f, nil
}

func statError(err error) error {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
		return errNotFound
	}
	return err
}

func contentType(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return defaultContentType
}

func textResponse(status int) *httpwire.Response {
	return &httpwire.Response{
		Status:      status,
		ContentType: textContentType,
		Body:        fmt.Appendf(nil, "%d %s\n", status, httpwire.StatusText(status)),
	}
}
