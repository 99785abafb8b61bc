package xfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{"relative", "logs/app.log", "logs/app.log", nil},
		{"absolute", "/var/log/../tmp/app.log", "/var/tmp/app.log", nil},
		{"dots in name", "app..2026.log", "app..2026.log", nil},
		{"empty", "", "", ErrEmptyPath},
		{"null byte", "a\x00b", "", ErrNullByte},
		{"trailing slash", "logs/", "", ErrInvalidPath},
		{"traversal", "../etc/passwd", "", ErrPathTraversal},
		{"root", "/", "", ErrInvalidPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizePath(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSafeJoin(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		path    string
		want    string
		wantErr error
	}{
		{"file", "/srv/public", "index.html", "/srv/public/index.html", nil},
		{"nested", "/srv/public", "css/./site.css", "/srv/public/css/site.css", nil},
		{"dot", "/srv/public", ".", "/srv/public", nil},
		{"dotdot prefix name", "/srv/public", "..hidden", "/srv/public/..hidden", nil},
		{"traversal", "/srv/public", "../etc/passwd", "", ErrPathTraversal},
		{"inner traversal", "/srv/public", "a/../../b", "", ErrPathTraversal},
		{"absolute", "/srv/public", "/etc/passwd", "", ErrInvalidPath},
		{"windows drive", "/srv/public", `C:\x`, "", ErrInvalidPath},
		{"backslash root", "/srv/public", `\x`, "", ErrInvalidPath},
		{"relative base", "public", "a", "", ErrInvalidPath},
		{"empty base", "", "a", "", ErrEmptyPath},
		{"empty path", "/srv", "", "", ErrEmptyPath},
		{"null byte", "/srv", "a\x00", "", ErrNullByte},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SafeJoin(tt.base, tt.path)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSafeJoinWithOptions_Symlinks(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret"), []byte("x"), 0o600))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "escape")))
	require.NoError(t, os.WriteFile(filepath.Join(root, "ok.txt"), []byte("y"), 0o600))

	opts := SafeJoinOptions{ResolveSymlinks: true}

	_, err := SafeJoinWithOptions(root, "escape/secret", opts)
	assert.ErrorIs(t, err, ErrPathEscaped)

	got, err := SafeJoinWithOptions(root, "ok.txt", opts)
	require.NoError(t, err)
	realRoot, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(realRoot, "ok.txt"), got)

	got, err = SafeJoinWithOptions(root, "missing/deep.txt", opts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(realRoot, "missing", "deep.txt"), got)

	// 不解析时链接被跟随
	got, err = SafeJoin(root, "escape/secret")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "escape", "secret"), got)
}

func TestEnsureDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a", "b", "app.log")

	require.NoError(t, EnsureDir(file))
	info, err := os.Stat(filepath.Dir(file))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	assert.NoError(t, EnsureDir("app.log"))
	assert.ErrorIs(t, EnsureDir(""), ErrEmptyPath)
	assert.ErrorIs(t, EnsureDir("a\x00b"), ErrNullByte)
	assert.ErrorIs(t, EnsureDirWithPerm(file, 0o600), ErrInvalidPerm)
}
