package xretry

import (
	"context"

	retry "github.com/avast/retry-go/v5"
)

// retry-go 的类型与选项别名，调用方无需直接引入 retry-go
type (
	// Option retry-go 配置选项
	Option = retry.Option

	// OnRetryFunc 重试回调，attempt 从 0 开始
	OnRetryFunc = retry.OnRetryFunc

	// Error 重试过程中收集的错误列表
	Error = retry.Error
)

var (
	// Attempts 总尝试次数（含首次），0 表示无限
	Attempts = retry.Attempts

	// Delay 重试间隔
	Delay = retry.Delay

	// MaxDelay 最大重试间隔
	MaxDelay = retry.MaxDelay

	// DelayType 延迟类型
	DelayType = retry.DelayType

	// OnRetry 重试回调
	OnRetry = retry.OnRetry

	// RetryIf 自定义重试条件，会覆盖内置的永久错误判断
	RetryIf = retry.RetryIf

	// LastErrorOnly 只返回最后一次的错误
	LastErrorOnly = retry.LastErrorOnly

	// WrapContextErrorWithLastError ctx 结束时同时返回 ctx 错误与最后一次的错误
	WrapContextErrorWithLastError = retry.WrapContextErrorWithLastError

	// FixedDelay 固定延迟
	FixedDelay = retry.FixedDelay

	// BackOffDelay 指数退避延迟
	BackOffDelay = retry.BackOffDelay

	// Unrecoverable 标记错误为不可恢复
	Unrecoverable = retry.Unrecoverable

	// IsRecoverable 检查错误是否可恢复
	IsRecoverable = retry.IsRecoverable
)

// Do 执行带重试的操作，ctx 结束时停止重试
func Do(ctx context.Context, fn func() error, opts ...Option) error {
	return retry.New(defaultOpts(ctx, opts)...).Do(fn)
}

// DoWithData 执行带重试且有返回值的操作
func DoWithData[T any](ctx context.Context, fn func() (T, error), opts ...Option) (T, error) {
	return retry.NewWithData[T](defaultOpts(ctx, opts)...).Do(fn)
}

// defaultOpts 内置 Context 与永久错误判断，调用方选项追加在后可以覆盖
func defaultOpts(ctx context.Context, opts []Option) []Option {
	all := make([]Option, 0, len(opts)+2)
	all = append(all,
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			return IsRecoverable(err) && IsRetryable(err)
		}),
	)
	return append(all, opts...)
}
