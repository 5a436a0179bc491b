package generic

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAtomicValue_GetSetSwap(t *testing.T) {
	a := NewAtomicValue(1.5)
	assert.Equal(t, 1.5, a.Get())
	assert.Equal(t, uint64(1), a.Version())

	a.Set(-2)
	assert.Equal(t, -2.0, a.Get())
	assert.Equal(t, uint64(2), a.Version())

	assert.Equal(t, -2.0, a.Swap(0))
	assert.Equal(t, 0.0, a.Get())
	assert.Equal(t, uint64(3), a.Version())
}

func TestAtomicValue_Concurrent(t *testing.T) {
	a := NewAtomicValue("idle")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				a.Set("left")
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Contains(t, []string{"idle", "left"}, a.Get())
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(801), a.Version())
}
