package xretry

import "errors"

// RetryableError 自带可重试判断的错误
type RetryableError interface {
	error
	Retryable() bool
}

// PermanentError 永久性错误，不再重试
type PermanentError struct {
	Err error
}

// NewPermanentError 包装为永久性错误
func NewPermanentError(err error) *PermanentError {
	return &PermanentError{Err: err}
}

func (e *PermanentError) Error() string {
	if e.Err == nil {
		return "permanent error"
	}
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error { return e.Err }

// Retryable 始终返回 false
func (e *PermanentError) Retryable() bool { return false }

// IsRetryable nil 返回 false；实现 RetryableError 的按其判断；其余错误视为可重试
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var re RetryableError
	if errors.As(err, &re) {
		return re.Retryable()
	}
	return true
}
