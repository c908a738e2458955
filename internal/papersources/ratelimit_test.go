package papersources

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRateLimiter(t *testing.T) {
	t.Run("allows requests within burst", func(t *testing.T) {
		rl := NewRateLimiter(10, 5)

		require.NotNil(t, rl)
		for i := 0; i < 5; i++ {
			assert.True(t, rl.Allow(), "should allow request %d within burst", i+1)
		}
	})

	t.Run("denies requests beyond burst", func(t *testing.T) {
		rl := NewRateLimiter(3, 3)

		for i := 0; i < 3; i++ {
			assert.True(t, rl.Allow())
		}
		assert.False(t, rl.Allow())
	})
}

func TestNewIntervalLimiter(t *testing.T) {
	t.Run("admits one request then blocks", func(t *testing.T) {
		rl := NewIntervalLimiter(time.Hour)

		assert.True(t, rl.Allow())
		assert.False(t, rl.Allow())
	})

	t.Run("spaces waiting callers by the interval", func(t *testing.T) {
		interval := 50 * time.Millisecond
		rl := NewIntervalLimiter(interval)

		var mu sync.Mutex
		var stamps []time.Time
		var wg sync.WaitGroup
		for i := 0; i < 3; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				require.NoError(t, rl.Wait(context.Background()))
				mu.Lock()
				stamps = append(stamps, time.Now())
				mu.Unlock()
			}()
		}
		wg.Wait()

		require.Len(t, stamps, 3)
		first, last := stamps[0], stamps[0]
		for _, s := range stamps {
			if s.Before(first) {
				first = s
			}
			if s.After(last) {
				last = s
			}
		}
		assert.GreaterOrEqual(t, last.Sub(first), 2*interval-10*time.Millisecond)
	})
}

func TestRateLimiter_WaitRespectsContext(t *testing.T) {
	rl := NewIntervalLimiter(time.Hour)
	require.True(t, rl.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := rl.Wait(ctx)
	assert.Error(t, err)
}
