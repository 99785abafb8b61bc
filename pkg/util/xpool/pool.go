package xpool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/omeyang/tidepool/pkg/context/xctx"
	"github.com/omeyang/tidepool/pkg/observability/xmetrics"
)

const (
	maxWorkers   = 1 << 16
	maxQueueSize = 1 << 24
)

var _ io.Closer = (*Pool[struct{}])(nil)

// WorkerState worker 的生命周期状态
type WorkerState int32

const (
	// StateIdle 等待任务
	StateIdle WorkerState = iota
	// StateRunning 正在执行任务
	StateRunning
	// StateShuttingDown 收到队列结束信号，正在退出
	StateShuttingDown
	// StateTerminated 已退出
	StateTerminated
)

// String 返回状态名称
func (s WorkerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("WorkerState(%d)", int32(s))
	}
}

// Stats pool 的运行快照
type Stats struct {
	Workers   int
	QueueLen  int
	QueueCap  int
	Submitted uint64
	// Completed 已执行完的任务数，包含失败和 panic 的任务
	Completed uint64
	Failed    uint64
	Panicked  uint64
	States    []WorkerState
}

// PanicError handler panic 被 worker 捕获后转换成的错误
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("xpool: task panicked: %v", e.Value)
}

// Pool 固定大小的泛型 worker pool
type Pool[T any] struct {
	workers int
	handler func(context.Context, T) error
	opts    options

	// mu 读锁由发送方持有，写锁只在关闭 queue 时获取
	mu       sync.RWMutex
	queue    chan T
	stopping chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	wg       sync.WaitGroup

	states    []atomic.Int32
	submitted atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
	panicked  atomic.Uint64
}

// New 创建并立即启动 worker pool
//
// workers 取值 [1, 65536]，queueSize 取值 [1, 16777216]，handler 不能为 nil。
func New[T any](workers, queueSize int, handler func(context.Context, T) error, opts ...Option) (*Pool[T], error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	if workers < 1 || workers > maxWorkers {
		return nil, fmt.Errorf("%w: %d, want 1~%d", ErrInvalidWorkers, workers, maxWorkers)
	}
	if queueSize < 1 || queueSize > maxQueueSize {
		return nil, fmt.Errorf("%w: %d, want 1~%d", ErrInvalidQueueSize, queueSize, maxQueueSize)
	}

	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	p := &Pool[T]{
		workers:  workers,
		handler:  handler,
		opts:     o,
		queue:    make(chan T, queueSize),
		stopping: make(chan struct{}),
		done:     make(chan struct{}),
		states:   make([]atomic.Int32, workers),
	}
	if o.name != "" {
		p.opts.logger = o.logger.With(slog.String("pool", o.name))
	}

	p.wg.Add(workers)
	for id := range workers {
		go p.worker(id)
	}
	return p, nil
}

// Submit 提交任务，队列满时阻塞
//
// 返回 ErrPoolStopped（关闭已开始）、ctx.Err()（等待期间 ctx 结束）或 nil。
// 返回错误时任务未入队，所有权仍归调用方。
func (p *Pool[T]) Submit(ctx context.Context, task T) error {
	if ctx == nil {
		return ErrNilContext
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	// 关闭优先：队列有空位时也不能再接收
	select {
	case <-p.stopping:
		return ErrPoolStopped
	default:
	}

	select {
	case p.queue <- task:
		p.submitted.Add(1)
		return nil
	case <-p.stopping:
		return ErrPoolStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySubmit 非阻塞提交，队列满返回 ErrQueueFull
func (p *Pool[T]) TrySubmit(task T) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	select {
	case <-p.stopping:
		return ErrPoolStopped
	default:
	}

	select {
	case p.queue <- task:
		p.submitted.Add(1)
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown 停止接收任务并等待队列清空、全部 worker 退出
//
// ctx 到期返回 ctx.Err()，worker 在后台继续执行剩余任务。
func (p *Pool[T]) Shutdown(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}

	p.stopOnce.Do(func() {
		p.opts.logger.Debug("xpool: shutting down",
			slog.Int("queued", len(p.queue)))
		close(p.stopping)

		// 阻塞中的 Submit 会因 stopping 返回并释放读锁
		p.mu.Lock()
		close(p.queue)
		p.mu.Unlock()

		go func() {
			p.wg.Wait()
			close(p.done)
		}()
	})

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close 等价于 Shutdown(context.Background())
func (p *Pool[T]) Close() error {
	return p.Shutdown(context.Background())
}

// Done 全部 worker 退出后关闭
func (p *Pool[T]) Done() <-chan struct{} {
	return p.done
}

// Stopping 关闭开始后关闭
func (p *Pool[T]) Stopping() <-chan struct{} {
	return p.stopping
}

// Workers 返回 worker 数量
func (p *Pool[T]) Workers() int {
	return p.workers
}

// QueueSize 返回队列容量
func (p *Pool[T]) QueueSize() int {
	return cap(p.queue)
}

// Stats 返回当前快照，各字段分别原子读取，彼此之间不保证一致
func (p *Pool[T]) Stats() Stats {
	states := make([]WorkerState, p.workers)
	for i := range p.states {
		states[i] = WorkerState(p.states[i].Load())
	}
	return Stats{
		Workers:   p.workers,
		QueueLen:  len(p.queue),
		QueueCap:  cap(p.queue),
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Panicked:  p.panicked.Load(),
		States:    states,
	}
}

func (p *Pool[T]) setState(id int, s WorkerState) {
	p.states[id].Store(int32(s))
}

func (p *Pool[T]) worker(id int) {
	defer p.wg.Done()

	logger := p.opts.logger.With(slog.Int("worker", id))
	// handler 拿到的 ctx 带 worker 编号，不随关闭取消：任务总是执行到结束
	taskCtx, _ := xctx.WithWorker(context.Background(), id)

	logger.Debug("xpool: worker started")
	for task := range p.queue {
		p.setState(id, StateRunning)
		logger.Debug("xpool: worker got a task")
		p.run(taskCtx, logger, id, task)
		p.setState(id, StateIdle)
	}

	p.setState(id, StateShuttingDown)
	logger.Debug("xpool: worker shutting down")
	p.setState(id, StateTerminated)
}

func (p *Pool[T]) run(ctx context.Context, logger *slog.Logger, id int, task T) {
	start := time.Now()
	ctx, span := xmetrics.Start(ctx, p.opts.observer, xmetrics.SpanOptions{
		Component: p.component(),
		Operation: "task",
		Kind:      xmetrics.KindInternal,
		Attrs:     []xmetrics.Attr{xmetrics.Int("worker", id)},
	})

	err := p.invoke(ctx, task)
	span.End(xmetrics.Result{Err: err})
	p.completed.Add(1)
	if err == nil {
		return
	}

	attrs := []any{
		slog.String("error", err.Error()),
		slog.Duration("duration", time.Since(start)),
		p.taskAttr(task),
	}
	var pe *PanicError
	if errors.As(err, &pe) {
		p.panicked.Add(1)
		attrs = append(attrs, slog.String("stack", string(pe.Stack)))
		logger.Error("xpool: task panic recovered", attrs...)
		return
	}
	p.failed.Add(1)
	logger.Warn("xpool: task failed", attrs...)
}

func (p *Pool[T]) invoke(ctx context.Context, task T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return p.handler(ctx, task)
}

func (p *Pool[T]) taskAttr(task T) slog.Attr {
	if p.opts.logTaskValue {
		return slog.Any("task", task)
	}
	return slog.String("task_type", fmt.Sprintf("%T", task))
}

func (p *Pool[T]) component() string {
	if p.opts.name != "" {
		return p.opts.name
	}
	return "xpool"
}
