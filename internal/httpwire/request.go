// Package httpwire 读写 HTTP/1.1 报文的最小子集：请求行、头部和带 Content-Length 的响应。
//
// 每行最长 MaxLineBytes，头部最多 MaxHeaders 个，超出视为格式错误。
package httpwire

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"net/url"
	"strings"
)

const (
	// MaxLineBytes 请求行或单个头部行的最大长度（含 CRLF）
	MaxLineBytes = 8 << 10
	// MaxHeaders 最大头部数量
	MaxHeaders = 100
)

// ErrMalformedRequest 请求报文格式错误，应答 400
var ErrMalformedRequest = errors.New("httpwire: malformed request")

// Request 解析后的请求
type Request struct {
	Method string
	// Target 原始请求目标，如 "/a%20b.html?x=1"
	Target string
	// Path 解码后的路径，不含查询串
	Path   string
	Proto  string
	Header textproto.MIMEHeader
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedRequest, fmt.Sprintf(format, args...))
}

// ReadRequest 从 r 读取请求行和头部，不读取请求体。
//
// 对端在发送任何字节前关闭连接时返回 io.EOF；报文不完整或不合法时返回包装了
// ErrMalformedRequest 的错误；其余为底层读取错误。
func ReadRequest(r *bufio.Reader) (*Request, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, err
	}

	req, err := parseRequestLine(line)
	if err != nil {
		return nil, err
	}

	for n := 0; ; n++ {
		line, err := readLine(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, malformed("unexpected EOF in headers")
			}
			return nil, err
		}
		if line == "" {
			return req, nil
		}
		if n >= MaxHeaders {
			return nil, malformed("more than %d headers", MaxHeaders)
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok || name == "" || strings.ContainsAny(name, " \t") {
			return nil, malformed("invalid header line %q", line)
		}
		req.Header.Add(name, strings.TrimSpace(value))
	}
}

func parseRequestLine(line string) (*Request, error) {
	method, rest, ok1 := strings.Cut(line, " ")
	target, proto, ok2 := strings.Cut(rest, " ")
	if !ok1 || !ok2 {
		return nil, malformed("invalid request line %q", line)
	}
	if !isToken(method) {
		return nil, malformed("invalid method %q", method)
	}
	if _, _, ok := parseProto(proto); !ok {
		return nil, malformed("invalid protocol %q", proto)
	}
	if !strings.HasPrefix(target, "/") {
		return nil, malformed("invalid target %q", target)
	}

	rawPath, _, _ := strings.Cut(target, "?")
	path, err := url.PathUnescape(rawPath)
	if err != nil {
		return nil, malformed("invalid target %q", target)
	}

	return &Request{
		Method: method,
		Target: target,
		Path:   path,
		Proto:  proto,
		Header: make(textproto.MIMEHeader),
	}, nil
}

// readLine 读取一行并去掉行尾 CRLF 或 LF
func readLine(r *bufio.Reader) (string, error) {
	var line []byte
	for {
		chunk, err := r.ReadSlice('\n')
		if len(line)+len(chunk) > MaxLineBytes {
			return "", malformed("line exceeds %d bytes", MaxLineBytes)
		}
		line = append(line, chunk...)
		switch {
		case err == nil:
			line = bytes.TrimSuffix(line, []byte("\n"))
			line = bytes.TrimSuffix(line, []byte("\r"))
			return string(line), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF) && len(line) > 0:
			return "", malformed("unexpected EOF")
		default:
			return "", err
		}
	}
}

// parseProto 解析 "HTTP/x.y"
func parseProto(proto string) (major, minor int, ok bool) {
	v, found := strings.CutPrefix(proto, "HTTP/")
	if !found || len(v) != 3 || v[1] != '.' {
		return 0, 0, false
	}
	if !isDigit(v[0]) || !isDigit(v[2]) {
		return 0, 0, false
	}
	return int(v[0] - '0'), int(v[2] - '0'), true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// isToken 方法名只允许 RFC 9110 token 字符
func isToken(s string) bool {
	if s == "" {
		return false
	}
	for i := range len(s) {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', isDigit(c):
		case strings.IndexByte("!#$%&'*+-.^_`|~", c) >= 0:
		default:
			return false
		}
	}
	return true
}
