// Package xpool 提供固定大小的泛型 worker pool。
//
// New 创建 pool 时立即启动全部 worker，worker 从一个有界 FIFO 队列取任务并同步执行。
//
//   - Submit(ctx, task) 在队列满时阻塞，直到有空位、ctx 结束或 pool 开始关闭
//   - TrySubmit(task) 不阻塞，队列满返回 ErrQueueFull
//   - 关闭开始后两者都返回 ErrPoolStopped，不会出现 send on closed channel
//   - 每个任务恰好被一个 worker 执行一次
//   - handler 返回的错误和 panic 在 worker 边界被捕获、记录、计数，worker 继续工作
//
// # 关闭
//
// Shutdown(ctx) 停止接收任务，队列中已有的任务全部执行完后 worker 退出。
// ctx 到期时 Shutdown 返回 ctx 错误，worker 在后台继续清空队列，可通过 Done() 等待。
// Close 等价于 Shutdown(context.Background())。两者幂等，可并发调用。
//
// 不可在 handler 内调用 Close/Shutdown，否则会死锁。
//
// # 观测
//
// Stats() 返回队列深度、计数器和每个 worker 的状态快照。
// WithObserver 为每个任务开启一次 xmetrics 跨度。
package xpool
