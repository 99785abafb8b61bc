// Package xretry 提供重试执行与退避策略。
//
// 重试执行基于 [avast/retry-go/v5]：
//
//	ln, err := xretry.DoWithData(ctx, func() (net.Listener, error) {
//	    return net.Listen("tcp", addr)
//	}, xretry.Attempts(17), xretry.Delay(300*time.Millisecond), xretry.DelayType(xretry.FixedDelay))
//
// 返回 [NewPermanentError] 或 [Unrecoverable] 包装的错误会立即停止重试。
//
// 退避策略 [ExponentialBackoff] 用于调用方自行控制节奏的循环（如 accept 循环遇到临时错误）。
//
// [avast/retry-go/v5]: https://github.com/avast/retry-go
package xretry
