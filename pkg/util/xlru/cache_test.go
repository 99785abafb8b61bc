package xlru

import (
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNew_Validation(t *testing.T) {
	_, err := New[string, int](Config{Size: 0})
	assert.ErrorIs(t, err, ErrInvalidSize)
	_, err = New[string, int](Config{Size: maxSize + 1})
	assert.ErrorIs(t, err, ErrSizeExceedsMax)
	_, err = New[string, int](Config{Size: 1, TTL: -time.Second})
	assert.ErrorIs(t, err, ErrInvalidTTL)
}

func TestCache_Basic(t *testing.T) {
	var evicted []string
	c, err := New(Config{Size: 2, TTL: time.Minute},
		WithOnEvicted(func(k string, _ int) { evicted = append(evicted, k) }),
		nil)
	require.NoError(t, err)
	defer c.Close()

	assert.False(t, c.Set("a", 1))
	assert.False(t, c.Set("b", 2))
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	// b 最久未访问
	assert.True(t, c.Set("c", 3))
	_, ok = c.Get("b")
	assert.False(t, ok)
	assert.Equal(t, []string{"b"}, evicted)

	assert.True(t, c.Delete("a"))
	assert.False(t, c.Delete("a"))
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Zero(t, c.Len())
}

func TestCache_DeleteFunc(t *testing.T) {
	c, err := New[string, int](Config{Size: 10})
	require.NoError(t, err)
	defer c.Close()

	c.Set("/srv/a/1.html", 1)
	c.Set("/srv/a/2.html", 2)
	c.Set("/srv/b.html", 3)

	n := c.DeleteFunc(func(k string) bool { return strings.HasPrefix(k, "/srv/a/") })
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, c.Len())
	assert.Zero(t, c.DeleteFunc(nil))
}

func TestCache_TTL(t *testing.T) {
	c, err := New[string, int](Config{Size: 4, TTL: 20 * time.Millisecond})
	require.NoError(t, err)
	defer c.Close()

	c.Set("k", 1)
	assert.Eventually(t, func() bool {
		_, ok := c.Get("k")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestCache_Close(t *testing.T) {
	c, err := New[string, int](Config{Size: 4, TTL: time.Minute})
	require.NoError(t, err)
	c.Set("k", 1)

	c.Close()
	c.Close()

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.False(t, c.Set("k", 2))
	assert.False(t, c.Delete("k"))
	assert.Zero(t, c.DeleteFunc(func(string) bool { return true }))
	assert.Zero(t, c.Len())
	c.Clear()
}

func TestStopCleanupGoroutine(t *testing.T) {
	assert.False(t, stopCleanupGoroutine(nil))
	assert.False(t, stopCleanupGoroutine(struct{}{}))

	lru := expirable.NewLRU[string, int](1, nil, time.Minute)
	assert.True(t, stopCleanupGoroutine(lru))
	// 重复关闭被 recover
	assert.False(t, stopCleanupGoroutine(lru))
}
