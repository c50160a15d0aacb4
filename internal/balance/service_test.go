package balance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

type fakeSource struct {
	debit    int64
	credit   int64
	fines    int64
	lastSeen *time.Time
	calls    int
}

func (f *fakeSource) TransactionDebit(_ context.Context, _ int, until *time.Time) (int64, error) {
	f.calls++
	f.lastSeen = until
	return f.debit, nil
}

func (f *fakeSource) TransferCredit(_ context.Context, _ int, _ *time.Time) (int64, error) {
	return f.credit, nil
}

func (f *fakeSource) FineDebit(_ context.Context, _ int, _ *time.Time) (int64, error) {
	return f.fines, nil
}

func TestBalanceDerivation(t *testing.T) {
	src := &fakeSource{debit: 300, credit: 1000, fines: 50}
	svc := NewService(NewCache(), src)

	bal, err := svc.Balance(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, int64(650), bal.Amount)
	require.Nil(t, src.lastSeen)
}

func TestBalanceCachedUntilInvalidated(t *testing.T) {
	src := &fakeSource{credit: 100}
	svc := NewService(NewCache(), src)

	_, err := svc.Balance(context.Background(), 1)
	require.NoError(t, err)
	_, err = svc.Balance(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 1, src.calls)

	src.debit = 40
	svc.Invalidate([]int{1})
	bal, err := svc.Balance(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, int64(60), bal.Amount)
	require.Equal(t, 2, src.calls)
}

func TestBalanceAsOfBypassesCache(t *testing.T) {
	src := &fakeSource{credit: 100}
	svc := NewService(NewCache(), src)

	_, err := svc.Balance(context.Background(), 1)
	require.NoError(t, err)

	asOf := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err = svc.BalanceAsOf(context.Background(), 1, asOf)
	require.NoError(t, err)
	require.NotNil(t, src.lastSeen)
	require.Equal(t, asOf, *src.lastSeen)
	require.Equal(t, 2, src.calls)
}
