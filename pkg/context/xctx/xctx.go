package xctx

import "errors"

// contextKey 包私有 key 类型，避免与其他包的 context key 冲突。
type contextKey string

var (
	// ErrNilContext 表示传入的 context 为 nil。
	ErrNilContext = errors.New("xctx: nil context")

	// ErrMissingConnID conn_id 缺失
	ErrMissingConnID = errors.New("xctx: missing conn_id")

	// ErrMissingTraceID trace_id 缺失
	ErrMissingTraceID = errors.New("xctx: missing trace_id")

	// ErrInvalidWorker worker 序号无效
	ErrInvalidWorker = errors.New("xctx: worker index must not be negative")
)
