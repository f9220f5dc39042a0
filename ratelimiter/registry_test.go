package ratelimiter

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_SharesLimiterPerKey(t *testing.T) {
	calls := 0
	reg := NewRegistry(func(key string) Limiter {
		calls++
		return New(60, 1)
	})

	first := reg.Get("gemini")
	require.NotNil(t, first)
	assert.Same(t, first, reg.Get("gemini"))
	assert.Equal(t, 1, calls)

	assert.True(t, first.TryConsume(1))
	assert.False(t, reg.Get("gemini").TryConsume(1), "budget is shared")

	assert.NotSame(t, first, reg.Get("openai"))
	assert.Equal(t, 2, calls)
}

func TestRegistry_Set(t *testing.T) {
	reg := NewRegistry(nil)
	assert.Nil(t, reg.Get("gemini"))

	l := New(10, 1)
	reg.Set("gemini", l)
	assert.Same(t, l, reg.Get("gemini"))
}

func TestRegistry_ConcurrentGet(t *testing.T) {
	reg := NewRegistry(func(string) Limiter { return New(60, 1) })

	var wg sync.WaitGroup
	got := make([]Limiter, 16)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = reg.Get("gemini")
		}(i)
	}
	wg.Wait()

	for _, l := range got {
		assert.Same(t, got[0], l)
	}
}
