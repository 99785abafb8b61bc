package xsys

import "errors"

var (
	// ErrInvalidFileLimit 文件限制必须大于 0
	ErrInvalidFileLimit = errors.New("xsys: file limit must be greater than 0")

	// ErrUnsupportedPlatform 当前平台不支持
	ErrUnsupportedPlatform = errors.New("xsys: unsupported platform")
)
