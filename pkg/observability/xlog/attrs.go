package xlog

import (
	"log/slog"
	"net"
	"time"
)

// 标准属性键
const (
	KeyError      = "error"
	KeyStack      = "stack"
	KeyDuration   = "duration"
	KeyComponent  = "component"
	KeyOperation  = "operation"
	KeyCount      = "count"
	KeyStatusCode = "status_code"
	KeyMethod     = "method"
	KeyPath       = "path"
	KeyWorker     = "worker"
	KeyConnID     = "conn_id"
	KeyBytes      = "bytes"
	KeyAddr       = "addr"
	KeyRemoteAddr = "remote_addr"
)

// Err 错误属性，nil 时返回 error=<nil>
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "<nil>")
	}
	return slog.String(KeyError, err.Error())
}

// Duration 耗时属性
func Duration(d time.Duration) slog.Attr {
	return slog.Duration(KeyDuration, d)
}

// Component 组件名
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Operation 操作名
func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

// Count 计数
func Count(n int64) slog.Attr {
	return slog.Int64(KeyCount, n)
}

// StatusCode HTTP 状态码
func StatusCode(code int) slog.Attr {
	return slog.Int(KeyStatusCode, code)
}

// Method 请求方法
func Method(m string) slog.Attr {
	return slog.String(KeyMethod, m)
}

// Path 请求路径
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Worker 工作协程编号
func Worker(id int) slog.Attr {
	return slog.Int(KeyWorker, id)
}

// ConnID 连接 ID
func ConnID(id string) slog.Attr {
	return slog.String(KeyConnID, id)
}

// Bytes 字节数
func Bytes(n int64) slog.Attr {
	return slog.Int64(KeyBytes, n)
}

// Addr 监听地址，nil 时为空字符串
func Addr(a net.Addr) slog.Attr {
	if a == nil {
		return slog.String(KeyAddr, "")
	}
	return slog.String(KeyAddr, a.String())
}

// RemoteAddr 对端地址
func RemoteAddr(a net.Addr) slog.Attr {
	if a == nil {
		return slog.String(KeyRemoteAddr, "")
	}
	return slog.String(KeyRemoteAddr, a.String())
}
