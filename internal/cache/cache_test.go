package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetGetClear(t *testing.T) {
	c := New[string]("authors", 0)

	c.Set("Andrew Ng", "123")
	c.SetMissing("Nobody")

	entry, ok := c.Get("Andrew Ng")
	require.True(t, ok)
	assert.Equal(t, "123", entry.Value)
	assert.False(t, entry.Missing)

	entry, ok = c.Get("Nobody")
	require.True(t, ok)
	assert.True(t, entry.Missing)

	_, ok = c.Get("andrew ng")
	assert.False(t, ok, "keys are case-sensitive")

	assert.Equal(t, 2, c.Len())
	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, "authors", c.Name())
}

func TestCache_TTL(t *testing.T) {
	c := New[int]("ranking", 20*time.Millisecond)
	c.Set("k", 1)

	_, ok := c.Get("k")
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		_, ok := c.Get("k")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestCache_GetOrLoad(t *testing.T) {
	t.Run("found values are cached", func(t *testing.T) {
		c := New[string]("authors", 0)
		var calls int

		load := func(context.Context) (string, Outcome, error) {
			calls++
			return "v", Found, nil
		}

		v, found, err := c.GetOrLoad(context.Background(), "k", load)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "v", v)

		v, found, err = c.GetOrLoad(context.Background(), "k", load)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "v", v)
		assert.Equal(t, 1, calls)
	})

	t.Run("missing is cached", func(t *testing.T) {
		c := New[string]("authors", 0)
		var calls int

		load := func(context.Context) (string, Outcome, error) {
			calls++
			return "", Missing, nil
		}

		for i := 0; i < 3; i++ {
			_, found, err := c.GetOrLoad(context.Background(), "k", load)
			require.NoError(t, err)
			assert.False(t, found)
		}
		assert.Equal(t, 1, calls)
	})

	t.Run("transient results are not cached", func(t *testing.T) {
		c := New[string]("authors", 0)
		var calls int

		load := func(context.Context) (string, Outcome, error) {
			calls++
			return "", Transient, nil
		}

		_, found, _ := c.GetOrLoad(context.Background(), "k", load)
		assert.False(t, found)
		_, _, _ = c.GetOrLoad(context.Background(), "k", load)
		assert.Equal(t, 2, calls)
		assert.Equal(t, 0, c.Len())
	})

	t.Run("errors are returned and not cached", func(t *testing.T) {
		c := New[string]("authors", 0)
		boom := errors.New("boom")

		_, _, err := c.GetOrLoad(context.Background(), "k", func(context.Context) (string, Outcome, error) {
			return "", Found, boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 0, c.Len())
	})

	t.Run("lookup hook sees hits and misses", func(t *testing.T) {
		var hits, misses int
		c := New[string]("authors", 0, WithLookupHook(func(hit bool) {
			if hit {
				hits++
			} else {
				misses++
			}
		}))

		load := func(context.Context) (string, Outcome, error) { return "v", Found, nil }
		_, _, _ = c.GetOrLoad(context.Background(), "k", load)
		_, _, _ = c.GetOrLoad(context.Background(), "k", load)

		assert.Equal(t, 1, hits)
		assert.Equal(t, 1, misses)
	})
}

func TestCache_GetOrLoad_Coalesces(t *testing.T) {
	c := New[int]("authors", 0)
	var calls atomic.Int32
	release := make(chan struct{})

	load := func(context.Context) (int, Outcome, error) {
		calls.Add(1)
		<-release
		return 7, Found, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _, _ := c.GetOrLoad(context.Background(), "k", load)
			results[i] = v
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, 7, v)
	}
}

func TestCache_GetOrLoad_CanceledCallerDoesNotFailOthers(t *testing.T) {
	c := New[int]("authors", 0)
	started := make(chan struct{})
	release := make(chan struct{})
	var loadErr atomic.Value

	load := func(ctx context.Context) (int, Outcome, error) {
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			loadErr.Store(err)
		}
		return 7, Found, nil
	}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, _, err := c.GetOrLoad(firstCtx, "k", load)
		firstErr <- err
	}()
	<-started

	type result struct {
		value int
		found bool
		err   error
	}
	second := make(chan result, 1)
	go func() {
		v, found, err := c.GetOrLoad(context.Background(), "k", load)
		second <- result{v, found, err}
	}()

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	r := <-second
	require.NoError(t, r.err)
	assert.True(t, r.found)
	assert.Equal(t, 7, r.value)
	assert.Nil(t, loadErr.Load(), "load context must outlive the first caller")

	v, found, err := c.GetOrLoad(context.Background(), "k", load)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 7, v)
}

func TestCache_GetOrLoad_CanceledBeforeLoad(t *testing.T) {
	c := New[int]("authors", 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int
	_, _, err := c.GetOrLoad(ctx, "k", func(context.Context) (int, Outcome, error) {
		calls++
		return 1, Found, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}
