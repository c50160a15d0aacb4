package balance

import (
	"testing"

	"github.com/stretchr/testify/require"

	"sudosos.org/internal/money"
)

func TestCacheGetComputesOnce(t *testing.T) {
	c := NewCache()
	calls := 0
	compute := func() (money.Money, error) {
		calls++
		return money.New(100), nil
	}

	v, err := c.Get(1, compute)
	require.NoError(t, err)
	require.Equal(t, int64(100), v.Amount)

	v, err = c.Get(1, compute)
	require.NoError(t, err)
	require.Equal(t, int64(100), v.Amount)
	require.Equal(t, 1, calls)
}

func TestCacheInvalidate(t *testing.T) {
	c := NewCache()
	value := int64(100)
	compute := func() (money.Money, error) {
		return money.New(value), nil
	}

	_, err := c.Get(1, compute)
	require.NoError(t, err)

	// After invalidation the stale value must not come back.
	value = 40
	c.Invalidate([]int{1})
	v, err := c.Get(1, compute)
	require.NoError(t, err)
	require.Equal(t, int64(40), v.Amount)
}

func TestCacheInvalidateColdKeyIsNoop(t *testing.T) {
	c := NewCache()
	c.Invalidate([]int{1, 2, 3})
	c.Invalidate([]int{1, 2, 3})

	v, err := c.Get(1, func() (money.Money, error) { return money.New(7), nil })
	require.NoError(t, err)
	require.Equal(t, int64(7), v.Amount)
}

func TestCacheErrorNotCached(t *testing.T) {
	c := NewCache()
	failing := true
	compute := func() (money.Money, error) {
		if failing {
			return money.Money{}, errBoom
		}
		return money.New(1), nil
	}

	_, err := c.Get(1, compute)
	require.ErrorIs(t, err, errBoom)

	failing = false
	v, err := c.Get(1, compute)
	require.NoError(t, err)
	require.Equal(t, int64(1), v.Amount)
}
