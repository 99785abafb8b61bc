package httpwire

import (
	"bufio"
	"io"
	"net/http"
	"strconv"
)

// ServerName Server 头部的值
const ServerName = "tidepool"

// Field 额外的响应头部
type Field struct {
	Name  string
	Value string
}

// Response 一次完整的响应。连接总是在响应后关闭，头部固定包含 Connection: close。
type Response struct {
	Status      int
	ContentType string
	Fields      []Field
	Body        []byte
	// HeadOnly 只写头部，Content-Length 仍为 Body 的长度
	HeadOnly bool
}

// StatusText 状态码的原因短语，未知状态码返回 "Unknown"
func StatusText(code int) string {
	if s := http.StatusText(code); s != "" {
		return s
	}
	return "Unknown"
}

// Write 将响应写入 w，返回写出的字节数
func (r *Response) Write(w io.Writer) (int64, error) {
	cw := &countWriter{w: w}
	bw := bufio.NewWriter(cw)

	bw.WriteString("HTTP/1.1 ")
	bw.WriteString(strconv.Itoa(r.Status))
	bw.WriteByte(' ')
	bw.WriteString(StatusText(r.Status))
	bw.WriteString("\r\n")

	if r.ContentType != "" {
		writeField(bw, "Content-Type", r.ContentType)
	}
	writeField(bw, "Content-Length", strconv.Itoa(len(r.Body)))
	for _, f := range r.Fields {
		writeField(bw, f.Name, f.Value)
	}
	writeField(bw, "Connection", "close")
	writeField(bw, "Server", ServerName)
	bw.WriteString("\r\n")

	if !r.HeadOnly {
		bw.Write(r.Body)
	}
	// bufio.Writer 会保留第一个写错误，Flush 统一返回
	err := bw.Flush()
	return cw.n, err
}

func writeField(bw *bufio.Writer, name, value string) {
	bw.WriteString(name)
	bw.WriteString(": ")
	bw.WriteString(value)
	bw.WriteString("\r\n")
}

type countWriter struct {
	w io.Writer
	n int64
}

func (c *countWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
