package xrotate

import "io"

var _ io.WriteCloser = (Rotator)(nil)

// Rotator 日志轮转器接口
//
// 约定：
//   - Write 并发安全，达到大小上限时自动轮转
//   - Close 后调用 Write 或 Rotate 返回 [ErrClosed]，重复 Close 也返回 [ErrClosed]
//   - Rotate 可在任意时刻调用
type Rotator interface {
	Write(p []byte) (n int, err error)
	Close() error

	// Rotate 关闭当前文件，重命名为备份文件，创建新的日志文件
	Rotate() error
}
