package static

import "errors"

var (
	// ErrRootNotFound 静态目录不存在
	ErrRootNotFound = errors.New("static: root not found")
	// ErrRootNotDir 静态目录不是目录
	ErrRootNotDir = errors.New("static: root is not a directory")
	// ErrNilCache 缓存为 nil
	ErrNilCache = errors.New("static: nil cache")
	// ErrNilConn 连接为 nil
	ErrNilConn = errors.New("static: nil conn")

	// errNotFound 请求的文件不存在或不可访问，应答 404
	errNotFound = errors.New("static: not found")
)
