package xpool

import "errors"

var (
	// ErrNilHandler handler 参数为 nil
	ErrNilHandler = errors.New("xpool: handler cannot be nil")

	// ErrPoolStopped pool 已开始关闭，不再接收任务
	ErrPoolStopped = errors.New("xpool: pool is stopped")

	// ErrQueueFull 队列已满（仅 TrySubmit 返回）
	ErrQueueFull = errors.New("xpool: queue is full")

	// ErrInvalidWorkers worker 数量超出 [1, 65536]
	ErrInvalidWorkers = errors.New("xpool: invalid worker count")

	// ErrInvalidQueueSize 队列大小超出 [1, 16777216]
	ErrInvalidQueueSize = errors.New("xpool: invalid queue size")

	// ErrNilContext context 参数为 nil
	ErrNilContext = errors.New("xpool: nil context")
)
