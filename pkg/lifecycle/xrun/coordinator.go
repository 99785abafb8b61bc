package xrun

import (
	"sync"
	"sync/atomic"
)

// State 关闭协调器的状态
type State int32

const (
	// StateRunning 正常运行
	StateRunning State = iota
	// StateDraining 已触发关闭，正在排空
	StateDraining
	// StateTerminated 排空完成
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Coordinator 一次性的关闭信号。
//
// 状态只会单向推进：Running → Draining → Terminated。
// 无论 Drain 被调用多少次、从多少个 goroutine 调用，只有第一次生效，
// 因此重复的中断信号只会触发一次关闭流程。
//
// 所有方法并发安全，零值不可用，请使用 NewCoordinator。
type Coordinator struct {
	state      atomic.Int32
	drainOnce  sync.Once
	termOnce   sync.Once
	draining   chan struct{}
	terminated chan struct{}

	mu    sync.Mutex
	cause error
}

// NewCoordinator 创建处于 Running 状态的协调器
func NewCoordinator() *Coordinator {
	return &Coordinator{
		draining:   make(chan struct{}),
		terminated: make(chan struct{}),
	}
}

// Drain 将状态从 Running 推进到 Draining，返回本次调用是否生效。
// 只有第一次调用会记录 cause 并关闭 Draining 通道。
func (c *Coordinator) Drain(cause error) bool {
	won := false
	c.drainOnce.Do(func() {
		c.mu.Lock()
		c.cause = cause
		c.mu.Unlock()
		c.state.Store(int32(StateDraining))
		close(c.draining)
		won = true
	})
	return won
}

// Terminate 标记排空完成。尚未 Drain 时隐式以 nil 原因进入 Draining。
func (c *Coordinator) Terminate() {
	c.Drain(nil)
	c.termOnce.Do(func() {
		c.state.Store(int32(StateTerminated))
		close(c.terminated)
	})
}

// Draining 在进入 Draining 时关闭
func (c *Coordinator) Draining() <-chan struct{} {
	return c.draining
}

// Terminated 在 Terminate 后关闭
func (c *Coordinator) Terminated() <-chan struct{} {
	return c.terminated
}

// State 当前状态
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Cause 返回第一次 Drain 传入的原因，未 Drain 时为 nil
func (c *Coordinator) Cause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cause
}
