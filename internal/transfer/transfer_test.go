package transfer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"sudosos.org/internal/money"
)

type fakeRepo struct {
	transfers []Transfer
	fines     []Fine
}

func (r *fakeRepo) SaveTransfer(_ context.Context, t Transfer) (Transfer, error) {
	t.ID = len(r.transfers) + 1
	r.transfers = append(r.transfers, t)
	return t, nil
}

func (r *fakeRepo) ListTransfers(_ context.Context, userID int) ([]Transfer, error) {
	var out []Transfer
	for _, t := range r.transfers {
		if (t.From != nil && *t.From == userID) || (t.To != nil && *t.To == userID) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeRepo) SaveFine(_ context.Context, f Fine) (Fine, error) {
	f.ID = len(r.fines) + 1
	r.fines = append(r.fines, f)
	return f, nil
}

func (r *fakeRepo) ListFines(_ context.Context, userID int) ([]Fine, error) {
	var out []Fine
	for _, f := range r.fines {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}

type recordingInvalidator struct {
	users []int
}

func (r *recordingInvalidator) Invalidate(userIDs []int) {
	r.users = append(r.users, userIDs...)
}

func TestCreateTransfer(t *testing.T) {
	repo := &fakeRepo{}
	inv := &recordingInvalidator{}
	svc := NewService(repo, inv)
	one, two := 1, 2

	saved, err := svc.Create(context.Background(), Transfer{From: &one, To: &two, Amount: money.New(100)})
	require.NoError(t, err)
	require.Equal(t, 1, saved.ID)
	require.False(t, saved.CreatedAt.IsZero())
	require.ElementsMatch(t, []int{1, 2}, inv.users)
}

func TestCreateTransferValidation(t *testing.T) {
	svc := NewService(&fakeRepo{}, &recordingInvalidator{})
	one := 1

	_, err := svc.Create(context.Background(), Transfer{Amount: money.New(100)})
	require.ErrorIs(t, err, ErrInvalidTransfer)

	_, err = svc.Create(context.Background(), Transfer{To: &one, Amount: money.New(0)})
	require.ErrorIs(t, err, ErrInvalidTransfer)

	_, err = svc.Create(context.Background(), Transfer{To: &one, Amount: money.New(-5)})
	require.ErrorIs(t, err, ErrInvalidTransfer)

	_, err = svc.Create(context.Background(), Transfer{
		To:     &one,
		Amount: money.Money{Amount: 100, Currency: "USD", Precision: 2},
	})
	require.ErrorIs(t, err, money.ErrCurrencyMismatch)
}

func TestFine(t *testing.T) {
	repo := &fakeRepo{}
	inv := &recordingInvalidator{}
	svc := NewService(repo, inv)

	saved, err := svc.Fine(context.Background(), 3, money.New(50))
	require.NoError(t, err)
	require.Equal(t, 3, saved.UserID)
	require.Equal(t, []int{3}, inv.users)

	_, err = svc.Fine(context.Background(), 3, money.New(0))
	require.ErrorIs(t, err, ErrInvalidTransfer)

	fines, err := svc.Fines(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, fines, 1)
}
