package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequenceGenerator_Sequence(t *testing.T) {
	gen := NewSequenceGenerator("h")

	assert.Equal(t, "h-0001", gen.Generate())
	assert.Equal(t, "h-0002", gen.Generate())
	assert.Equal(t, "h-0003", gen.Generate())
}

func TestSequenceGenerator_DefaultPrefix(t *testing.T) {
	gen := NewSequenceGenerator("")
	assert.Equal(t, "entry-0001", gen.Generate())
}

func TestSequenceGenerator_ThreadSafe(t *testing.T) {
	gen := NewSequenceGenerator("")

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := gen.Generate()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 1000)
}
