package xpool

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/tidepool/pkg/context/xctx"
	"github.com/omeyang/tidepool/pkg/observability/xmetrics"
)

func noop(context.Context, int) error { return nil }

// blocker 让 handler 在 release 关闭前阻塞，started 报告开始执行的任务
type blocker struct {
	started chan int
	release chan struct{}
}

func newBlocker() *blocker {
	return &blocker{started: make(chan int, 64), release: make(chan struct{})}
}

func (b *blocker) handle(_ context.Context, v int) error {
	b.started <- v
	<-b.release
	return nil
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name      string
		workers   int
		queueSize int
		handler   func(context.Context, int) error
		want      error
	}{
		{"nil handler", 1, 1, nil, ErrNilHandler},
		{"zero workers", 0, 1, noop, ErrInvalidWorkers},
		{"too many workers", maxWorkers + 1, 1, noop, ErrInvalidWorkers},
		{"zero queue", 1, 0, noop, ErrInvalidQueueSize},
		{"huge queue", 1, maxQueueSize + 1, noop, ErrInvalidQueueSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.workers, tt.queueSize, tt.handler)
			assert.Nil(t, p)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPool_ExactlyOnce(t *testing.T) {
	const tasks = 2000
	var counts [tasks]atomic.Int32

	p, err := New(8, 64, func(_ context.Context, v int) error {
		counts[v].Add(1)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 8, p.Workers())
	assert.Equal(t, 64, p.QueueSize())

	ctx := context.Background()
	var wg sync.WaitGroup
	for producer := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := producer; i < tasks; i += 4 {
				assert.NoError(t, p.Submit(ctx, i))
			}
		}()
	}
	wg.Wait()
	require.NoError(t, p.Close())

	for i := range counts {
		assert.Equal(t, int32(1), counts[i].Load(), "task %d", i)
	}
	st := p.Stats()
	assert.Equal(t, uint64(tasks), st.Submitted)
	assert.Equal(t, uint64(tasks), st.Completed)
	assert.Zero(t, st.Failed)
	assert.Zero(t, st.Panicked)
}

func TestPool_FIFOSingleWorker(t *testing.T) {
	var mu sync.Mutex
	var got []int
	p, err := New(1, 16, func(_ context.Context, v int) error {
		mu.Lock()
		got = append(got, v)
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)

	for i := range 10 {
		require.NoError(t, p.Submit(context.Background(), i))
	}
	require.NoError(t, p.Close())
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestPool_PanicAndErrorIsolation(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	var ran atomic.Int32
	p, err := New(1, 8, func(_ context.Context, v int) error {
		switch v {
		case 0:
			panic("boom")
		case 1:
			return errors.New("bad task")
		}
		ran.Add(1)
		return nil
	}, WithLogger(logger), WithName("conn"))
	require.NoError(t, err)

	ctx := context.Background()
	for i := range 4 {
		require.NoError(t, p.Submit(ctx, i))
	}
	require.NoError(t, p.Close())

	assert.Equal(t, int32(2), ran.Load())
	st := p.Stats()
	assert.Equal(t, uint64(4), st.Completed)
	assert.Equal(t, uint64(1), st.Failed)
	assert.Equal(t, uint64(1), st.Panicked)

	out := buf.String()
	assert.Contains(t, out, "xpool: task panic recovered")
	assert.Contains(t, out, "stack=")
	assert.Contains(t, out, "xpool: task failed")
	assert.Contains(t, out, "pool=conn")
	assert.Contains(t, out, "task_type=int")
	assert.NotContains(t, out, "task=1")
}

func TestPool_LogTaskValue(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	p, err := New(1, 1, func(context.Context, int) error {
		return errors.New("bad")
	}, WithLogger(logger), WithLogTaskValue())
	require.NoError(t, err)

	require.NoError(t, p.Submit(context.Background(), 42))
	require.NoError(t, p.Close())
	assert.Contains(t, buf.String(), "task=42")
}

func TestPool_HandlerContextCarriesWorker(t *testing.T) {
	seen := make(chan int, 1)
	p, err := New(1, 1, func(ctx context.Context, _ int) error {
		id, ok := xctx.Worker(ctx)
		if ok {
			seen <- id
		}
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, p.Submit(context.Background(), 1))
	require.NoError(t, p.Close())
	assert.Equal(t, 0, <-seen)
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	p, err := New(2, 4, noop)
	require.NoError(t, err)
	require.NoError(t, p.Close())

	assert.ErrorIs(t, p.Submit(context.Background(), 1), ErrPoolStopped)
	assert.ErrorIs(t, p.TrySubmit(1), ErrPoolStopped)
	assert.ErrorIs(t, p.Submit(nil, 1), ErrNilContext) //nolint:staticcheck // nil ctx 校验
	assert.ErrorIs(t, p.Shutdown(nil), ErrNilContext)  //nolint:staticcheck // nil ctx 校验
}

func TestPool_TrySubmitQueueFull(t *testing.T) {
	b := newBlocker()
	p, err := New(1, 1, b.handle)
	require.NoError(t, err)

	require.NoError(t, p.TrySubmit(1))
	<-b.started
	require.NoError(t, p.TrySubmit(2))
	assert.ErrorIs(t, p.TrySubmit(3), ErrQueueFull)

	st := p.Stats()
	assert.Equal(t, 1, st.QueueLen)
	assert.Equal(t, []WorkerState{StateRunning}, st.States)

	close(b.release)
	require.NoError(t, p.Close())
	assert.Equal(t, uint64(2), p.Stats().Completed)
}

func TestPool_SubmitBlocksUntilContextDone(t *testing.T) {
	b := newBlocker()
	p, err := New(1, 1, b.handle)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, p.Submit(ctx, 1))
	<-b.started
	require.NoError(t, p.Submit(ctx, 2))

	tctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Submit(tctx, 3), context.DeadlineExceeded)

	close(b.release)
	require.NoError(t, p.Close())
}

func TestPool_ShutdownUnblocksSubmitters(t *testing.T) {
	b := newBlocker()
	p, err := New(1, 1, b.handle)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, p.Submit(ctx, 1))
	<-b.started
	require.NoError(t, p.Submit(ctx, 2))

	submitErr := make(chan error, 1)
	go func() { submitErr <- p.Submit(ctx, 3) }()

	// worker 仍阻塞，Shutdown 超时返回
	sctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Shutdown(sctx), context.DeadlineExceeded)
	assert.ErrorIs(t, <-submitErr, ErrPoolStopped)

	select {
	case <-p.Stopping():
	default:
		t.Fatal("Stopping() not closed")
	}

	close(b.release)
	<-p.Done()

	// 已入队的任务在关闭后仍被执行
	assert.Equal(t, uint64(2), p.Stats().Completed)
	for _, s := range p.Stats().States {
		assert.Equal(t, StateTerminated, s)
	}
}

func TestPool_ConcurrentShutdown(t *testing.T) {
	b := newBlocker()
	p, err := New(4, 16, b.handle)
	require.NoError(t, err)

	for i := range 8 {
		require.NoError(t, p.Submit(context.Background(), i))
	}

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- p.Close()
		}()
	}
	close(b.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, uint64(8), p.Stats().Completed)
	require.NoError(t, p.Close())
}

type recordingObserver struct {
	mu    sync.Mutex
	spans []xmetrics.SpanOptions
	errs  []error
}

func (o *recordingObserver) Start(ctx context.Context, opts xmetrics.SpanOptions) (context.Context, xmetrics.Span) {
	o.mu.Lock()
	o.spans = append(o.spans, opts)
	o.mu.Unlock()
	return ctx, recordingSpan{o}
}

type recordingSpan struct{ o *recordingObserver }

func (s recordingSpan) End(r xmetrics.Result) {
	s.o.mu.Lock()
	s.o.errs = append(s.o.errs, r.Err)
	s.o.mu.Unlock()
}

func TestPool_Observer(t *testing.T) {
	obs := &recordingObserver{}
	p, err := New(1, 4, func(_ context.Context, v int) error {
		if v == 1 {
			return errors.New("bad")
		}
		return nil
	}, WithObserver(obs), WithObserver(nil), WithName("conn"))
	require.NoError(t, err)

	require.NoError(t, p.Submit(context.Background(), 0))
	require.NoError(t, p.Submit(context.Background(), 1))
	require.NoError(t, p.Close())

	require.Len(t, obs.spans, 2)
	assert.Equal(t, "conn", obs.spans[0].Component)
	assert.Equal(t, "task", obs.spans[0].Operation)
	assert.NoError(t, obs.errs[0])
	assert.Error(t, obs.errs[1])
}

func TestWorkerState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "shutting_down", StateShuttingDown.String())
	assert.Equal(t, "terminated", StateTerminated.String())
	assert.Equal(t, "WorkerState(9)", WorkerState(9).String())
}

func TestPanicError(t *testing.T) {
	err := error(&PanicError{Value: "x"})
	assert.Equal(t, "xpool: task panicked: x", err.Error())
}
