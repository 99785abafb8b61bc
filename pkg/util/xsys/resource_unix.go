//go:build unix

package xsys

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// 测试中替换以覆盖错误路径，替换它们的测试不能并行
var (
	getrlimit = unix.Getrlimit
	setrlimit = unix.Setrlimit
)

// fileLimitMu 保护 getrlimit→setrlimit 读改写序列
var fileLimitMu sync.Mutex

// SetFileLimit 设置 RLIMIT_NOFILE 软限制，硬限制不足时一并提升（需要 CAP_SYS_RESOURCE）
//
// 硬限制只升不降，非特权进程降低后无法恢复。
func SetFileLimit(limit uint64) error {
	if limit == 0 {
		return ErrInvalidFileLimit
	}

	fileLimitMu.Lock()
	defer fileLimitMu.Unlock()

	var rl unix.Rlimit
	if err := getrlimit(unix.RLIMIT_NOFILE, &rl); err != nil {
		return fmt.Errorf("xsys: getrlimit RLIMIT_NOFILE: %w", err)
	}
	rl.Cur = limit
	rl.Max = max(rl.Max, limit)
	if err := setrlimit(unix.RLIMIT_NOFILE, &rl); err != nil {
		return fmt.Errorf("xsys: setrlimit RLIMIT_NOFILE: %w", err)
	}
	return nil
}

// RaiseFileLimit 把软限制提升到 min(want, 硬限制)，want 为 0 表示提升到硬限制
//
// 软限制已经足够时不做修改。返回调整前后的软限制。
func RaiseFileLimit(want uint64) (before, after uint64, err error) {
	fileLimitMu.Lock()
	defer fileLimitMu.Unlock()

	var rl unix.Rlimit
	if err := getrlimit(unix.RLIMIT_NOFILE, &rl); err != nil {
		return 0, 0, fmt.Errorf("xsys: getrlimit RLIMIT_NOFILE: %w", err)
	}
	before = rl.Cur

	target := rl.Max
	if want > 0 {
		target = min(want, rl.Max)
	}
	if target <= rl.Cur {
		return before, before, nil
	}

	rl.Cur = target
	if err := setrlimit(unix.RLIMIT_NOFILE, &rl); err != nil {
		return before, before, fmt.Errorf("xsys: setrlimit RLIMIT_NOFILE: %w", err)
	}
	return before, target, nil
}

// GetFileLimit 返回 RLIMIT_NOFILE 的软/硬限制
func GetFileLimit() (soft, hard uint64, err error) {
	var rl unix.Rlimit
	if err := getrlimit(unix.RLIMIT_NOFILE, &rl); err != nil {
		return 0, 0, fmt.Errorf("xsys: getrlimit RLIMIT_NOFILE: %w", err)
	}
	return rl.Cur, rl.Max, nil
}
