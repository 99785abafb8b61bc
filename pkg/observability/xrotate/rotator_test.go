package xrotate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLumberjack_Validation(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "app.log")

	tests := []struct {
		name string
		file string
		opts []Option
		want error
	}{
		{"empty filename", "", nil, ErrEmptyFilename},
		{"zero size", file, []Option{WithMaxSize(0)}, ErrInvalidMaxSize},
		{"huge size", file, []Option{WithMaxSize(maxSizeMB + 1)}, ErrInvalidMaxSize},
		{"negative backups", file, []Option{WithMaxBackups(-1)}, ErrInvalidMaxBackups},
		{"negative age", file, []Option{WithMaxAge(-1)}, ErrInvalidMaxAge},
		{"no cleanup", file, []Option{WithMaxBackups(0), WithMaxAge(0)}, ErrNoCleanupPolicy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLumberjack(tt.file, tt.opts...)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLumberjack_WriteRotateClose(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "logs", "app.log")

	r, err := NewLumberjack(file, WithMaxBackups(2), WithCompress(false), WithLocalTime(false), nil)
	require.NoError(t, err)

	n, err := r.Write([]byte("first line\n"))
	require.NoError(t, err)
	assert.Equal(t, 11, n)

	require.NoError(t, r.Rotate())
	_, err = r.Write([]byte("second line\n"))
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Dir(file))
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "second line\n", string(data))

	require.NoError(t, r.Close())
	assert.ErrorIs(t, r.Close(), ErrClosed)
	_, err = r.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, r.Rotate(), ErrClosed)
}
