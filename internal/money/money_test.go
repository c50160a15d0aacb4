package money

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToStorage(t *testing.T) {
	v, err := ToStorage(New(363))
	require.NoError(t, err)
	require.Equal(t, int64(363), v)

	_, err = ToStorage(Money{Amount: 100, Currency: "USD", Precision: 2})
	require.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = ToStorage(Money{Amount: 100, Currency: DefaultCurrency, Precision: 4})
	require.ErrorIs(t, err, ErrPrecisionMismatch)
}

func TestFromStorage(t *testing.T) {
	require.Equal(t, Zero(), FromStorage(nil))

	v := int64(-250)
	got := FromStorage(&v)
	require.Equal(t, int64(-250), got.Amount)
	require.Equal(t, DefaultCurrency, got.Currency)
	require.Equal(t, DefaultPrecision, got.Precision)
}

func TestAdd(t *testing.T) {
	sum, err := New(100).Add(New(21))
	require.NoError(t, err)
	require.Equal(t, New(121), sum)

	_, err = New(1).Add(Money{Amount: 1, Currency: "USD", Precision: 2})
	require.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = New(1).Add(Money{Amount: 1, Currency: DefaultCurrency, Precision: 0})
	require.ErrorIs(t, err, ErrPrecisionMismatch)
}

func TestArithmetic(t *testing.T) {
	require.Equal(t, New(363), New(121).Times(3))
	require.Equal(t, New(-121), New(121).Negate())
	require.True(t, New(1).IsPositive())
	require.True(t, New(-1).IsNegative())
	require.True(t, Zero().IsZero())
	require.True(t, New(5).Equals(New(5)))
	require.False(t, New(5).Equals(Money{Amount: 5, Currency: "USD", Precision: 2}))
}
