package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Bingo/internal/domain"
)

func TestDrawNextExhaustsPoolWithoutRepeats(t *testing.T) {
	draws := domain.NewRandomDraws(domain.NewSource(7))
	var called []int
	seen := map[int]bool{}
	for range domain.PoolSize {
		n, err := draws.DrawNext(called)
		require.NoError(t, err)
		require.False(t, seen[n], "repeated %d", n)
		require.GreaterOrEqual(t, n, 1)
		require.LessOrEqual(t, n, domain.PoolSize)
		seen[n] = true
		called = append(called, n)
	}
	_, err := draws.DrawNext(called)
	assert.ErrorIs(t, err, domain.ErrPoolExhausted)
	assert.Equal(t, domain.KindPoolExhausted, domain.KindOf(err))
}

func TestRemaining(t *testing.T) {
	rest := domain.Remaining([]int{1, 75, 40})
	assert.Len(t, rest, 72)
	assert.NotContains(t, rest, 1)
	assert.NotContains(t, rest, 40)
	assert.Equal(t, 2, rest[0])
}
