package generic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scratch struct {
	items []int
}

func TestPool_GetGenerates(t *testing.T) {
	calls := 0
	p := NewPool(func() *scratch {
		calls++
		return &scratch{items: make([]int, 0, 4)}
	})

	s := p.Get()
	require.NotNil(t, s)
	assert.Equal(t, 4, cap(s.items))
	assert.GreaterOrEqual(t, calls, 1)
}

func TestPool_ResetsOnPut(t *testing.T) {
	p := NewPool(
		func() *scratch { return &scratch{} },
		WithReset(func(s *scratch) { s.items = s.items[:0] }),
	)

	s := p.Get()
	s.items = append(s.items, 1, 2, 3)
	p.Put(s)

	assert.Empty(t, s.items)
	assert.Equal(t, 3, cap(s.items))
}

func TestPool_Prefilled(t *testing.T) {
	calls := 0
	p := NewPool(func() *scratch {
		calls++
		return &scratch{}
	}, WithPrefill[*scratch](3))

	assert.Equal(t, 3, calls)
	assert.NotNil(t, p.Get())
}
