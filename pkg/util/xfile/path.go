package xfile

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// hasDotDotSegment 判断 ".." 是否作为独立路径段出现，"/" 与 "\" 都视为分隔符。
// "app..log"、"..config" 这类文件名不受影响。
func hasDotDotSegment(path string) bool {
	for seg := range strings.FieldsFuncSeq(path, isSeparator) {
		if seg == ".." {
			return true
		}
	}
	return false
}

func isSeparator(r rune) bool {
	return r == '/' || r == '\\'
}

// isWindowsAbsPath 识别 "C:..."、"\..." 和 "\\server\..." 形式，非 Windows 平台上
// filepath.IsAbs 不认识它们。
func isWindowsAbsPath(path string) bool {
	if len(path) >= 2 && path[1] == ':' {
		c := path[0]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') {
			return true
		}
	}
	return strings.HasPrefix(path, `\`)
}

// SanitizePath 规范化文件路径
//
// 接受绝对路径；只拒绝格式问题：空路径、空字节、尾随分隔符（目录）、
// 规范化后仍含 ".." 段的相对路径。需要限定目录时用 [SafeJoin]。
func SanitizePath(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename is required: %w", ErrEmptyPath)
	}
	if strings.ContainsRune(filename, 0) {
		return "", fmt.Errorf("filename contains null byte: %w", ErrNullByte)
	}
	// Clean 会去掉尾随分隔符，必须先检查
	if strings.HasSuffix(filename, "/") || strings.HasSuffix(filename, `\`) {
		return "", fmt.Errorf("path is a directory: %w", ErrInvalidPath)
	}

	cleaned := filepath.Clean(filename)
	if hasDotDotSegment(cleaned) {
		return "", fmt.Errorf("path traversal in filename: %w", ErrPathTraversal)
	}
	if base := filepath.Base(cleaned); base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("no file name specified: %w", ErrInvalidPath)
	}
	return cleaned, nil
}

// SafeJoinOptions 安全拼接选项
type SafeJoinOptions struct {
	// ResolveSymlinks 解析符号链接后再检查结果是否仍在 base 内。
	// 要求 base 存在；目标不存在时只解析其已存在的最深祖先。
	ResolveSymlinks bool
}

// SafeJoin 将相对路径拼接到绝对基准目录，结果保证位于 base 内
//
//	SafeJoin("/srv/public", "css/site.css")  // "/srv/public/css/site.css", nil
//	SafeJoin("/srv/public", "../etc/passwd") // ErrPathTraversal
//	SafeJoin("/srv/public", "/etc/passwd")   // ErrInvalidPath
//
// 不解析符号链接，base 内指向外部的链接会被跟随；需要时使用 [SafeJoinWithOptions]。
func SafeJoin(base, path string) (string, error) {
	return SafeJoinWithOptions(base, path, SafeJoinOptions{})
}

// SafeJoinWithOptions 带选项的安全拼接
func SafeJoinWithOptions(base, path string, opts SafeJoinOptions) (string, error) {
	if base == "" {
		return "", fmt.Errorf("base directory is required: %w", ErrEmptyPath)
	}
	if path == "" {
		return "", fmt.Errorf("path is required: %w", ErrEmptyPath)
	}
	if strings.ContainsRune(base, 0) || strings.ContainsRune(path, 0) {
		return "", ErrNullByte
	}

	cleanBase := filepath.Clean(base)
	if !filepath.IsAbs(cleanBase) {
		return "", fmt.Errorf("base must be an absolute path: %w", ErrInvalidPath)
	}
	if filepath.IsAbs(path) || isWindowsAbsPath(path) {
		return "", fmt.Errorf("path must be relative: %w", ErrInvalidPath)
	}
	cleanPath := filepath.Clean(path)
	if hasDotDotSegment(cleanPath) {
		return "", fmt.Errorf("path traversal in path: %w", ErrPathTraversal)
	}

	joined := filepath.Join(cleanBase, cleanPath)
	if err := within(cleanBase, joined); err != nil {
		return "", err
	}
	if !opts.ResolveSymlinks {
		return joined, nil
	}

	realBase, err := filepath.EvalSymlinks(cleanBase)
	if err != nil {
		return "", fmt.Errorf("xfile: resolve base: %w", err)
	}
	realJoined, err := resolveExisting(joined)
	if err != nil {
		return "", fmt.Errorf("xfile: resolve path: %w", err)
	}
	if err := within(realBase, realJoined); err != nil {
		return "", err
	}
	return realJoined, nil
}

func within(base, target string) error {
	rel, err := filepath.Rel(base, target)
	if err != nil || hasDotDotSegment(rel) {
		return ErrPathEscaped
	}
	return nil
}

// resolveExisting 解析 path 中已存在的最深祖先的符号链接，再接回不存在的尾部
func resolveExisting(path string) (string, error) {
	var trail []string
	current := path
	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			for i := len(trail) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, trail[i])
			}
			return resolved, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", err
		}
		trail = append(trail, filepath.Base(current))
		current = parent
	}
}
