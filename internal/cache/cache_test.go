package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapshot_LoadStore(t *testing.T) {
	var s Snapshot[map[string]int]
	v, ok := s.Load()
	assert.False(t, ok)
	assert.Nil(t, v)

	s.Store(map[string]int{"a": 1})
	v, ok = s.Load()
	assert.True(t, ok)
	assert.Equal(t, 1, v["a"])
}

func TestSnapshot_ConcurrentReaders(t *testing.T) {
	var s Snapshot[int]
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) { defer wg.Done(); s.Store(n) }(i)
		go func() { defer wg.Done(); _, _ = s.Load() }()
	}
	wg.Wait()
	_, ok := s.Load()
	assert.True(t, ok)
}
