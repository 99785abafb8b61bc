package xretry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	var retried []uint
	err := Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	}, Attempts(5), Delay(time.Millisecond), DelayType(FixedDelay), OnRetry(func(n uint, _ error) {
		retried = append(retried, n)
	}))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, retried, 2)
}

func TestDo_PermanentStops(t *testing.T) {
	calls := 0
	base := errors.New("bad address")
	err := Do(context.Background(), func() error {
		calls++
		return NewPermanentError(base)
	}, Attempts(5), Delay(time.Millisecond), LastErrorOnly(true))

	assert.ErrorIs(t, err, base)
	assert.Equal(t, 1, calls)

	calls = 0
	err = Do(context.Background(), func() error {
		calls++
		return Unrecoverable(base)
	}, Attempts(5), Delay(time.Millisecond), LastErrorOnly(true))
	assert.ErrorIs(t, err, base)
	assert.Equal(t, 1, calls)
}

func TestDoWithData_ExhaustsAttempts(t *testing.T) {
	calls := 0
	v, err := DoWithData(context.Background(), func() (int, error) {
		calls++
		return 0, errors.New("busy")
	}, Attempts(3), Delay(time.Millisecond), DelayType(FixedDelay), LastErrorOnly(true))

	require.Error(t, err)
	assert.Equal(t, "busy", err.Error())
	assert.Zero(t, v)
	assert.Equal(t, 3, calls)
}

func TestDo_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := Do(ctx, func() error {
		return errors.New("busy")
	}, Attempts(0), Delay(10*time.Millisecond), DelayType(FixedDelay))

	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.True(t, IsRetryable(errors.New("x")))
	assert.False(t, IsRetryable(NewPermanentError(errors.New("x"))))
	assert.Equal(t, "permanent error", NewPermanentError(nil).Error())
}

func TestExponentialBackoff(t *testing.T) {
	b := NewExponentialBackoff(
		WithInitialDelay(5*time.Millisecond),
		WithMaxDelay(time.Second),
		WithMultiplier(2),
		WithJitter(0),
	)

	assert.Equal(t, 5*time.Millisecond, b.NextDelay(0))
	assert.Equal(t, 5*time.Millisecond, b.NextDelay(1))
	assert.Equal(t, 10*time.Millisecond, b.NextDelay(2))
	assert.Equal(t, 640*time.Millisecond, b.NextDelay(8))
	assert.Equal(t, time.Second, b.NextDelay(9))
	assert.Equal(t, time.Second, b.NextDelay(5000))
}

func TestExponentialBackoff_Jitter(t *testing.T) {
	b := NewExponentialBackoff(WithInitialDelay(100*time.Millisecond), WithJitter(5))
	for range 50 {
		d := b.NextDelay(1)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 200*time.Millisecond)
	}

	// maxDelay 不小于 initialDelay
	b = NewExponentialBackoff(WithInitialDelay(time.Minute), WithMaxDelay(time.Second), WithMultiplier(0.5))
	assert.Equal(t, time.Minute, b.NextDelay(3))
}
