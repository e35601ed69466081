package idgen

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextIDUnique(t *testing.T) {
	const n = 10000
	seen := make(map[int64]struct{}, n)
	for i := 0; i < n; i++ {
		id := NextID()
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %d", id)
		seen[id] = struct{}{}
	}
}

func TestNextIDConcurrent(t *testing.T) {
	const goroutines = 8
	const perGoroutine = 1000

	var mu sync.Mutex
	seen := make(map[int64]struct{}, goroutines*perGoroutine)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids := make([]int64, 0, perGoroutine)
			for i := 0; i < perGoroutine; i++ {
				ids = append(ids, NextID())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range ids {
				_, dup := seen[id]
				assert.False(t, dup, "duplicate id %d", id)
				seen[id] = struct{}{}
			}
		}()
	}
	wg.Wait()
}

func TestGenerateTranID(t *testing.T) {
	a := GenerateTranID()
	b := GenerateTranID()

	assert.True(t, strings.HasPrefix(a, "SSL"))
	// SSL + 14 digit timestamp + 8 digit suffix
	assert.Len(t, a, 25)
	assert.NotEqual(t, a, b)
}

func TestGenerateReceiptNo(t *testing.T) {
	r := GenerateReceiptNo()
	assert.True(t, strings.HasPrefix(r, "RCP"))
	assert.Len(t, r, 25)
}
