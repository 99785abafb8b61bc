package server

import "errors"

var (
	// ErrBind 绑定监听地址失败
	ErrBind = errors.New("server: bind")
	// ErrNilListener 监听器为 nil
	ErrNilListener = errors.New("server: nil listener")
	// ErrNilHandler 连接处理器为 nil
	ErrNilHandler = errors.New("server: nil handler")
)
