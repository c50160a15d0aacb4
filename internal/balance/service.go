package balance

import (
	"context"
	"time"

	"sudosos.org/internal/money"
)

// Source provides the three inputs a balance is derived from, each as a
// minor-unit sum optionally bounded to a reference date.
type Source interface {
	// TransactionDebit is the total the user has spent as payer.
	TransactionDebit(ctx context.Context, userID int, until *time.Time) (int64, error)
	// TransferCredit is incoming minus outgoing transfer amounts.
	TransferCredit(ctx context.Context, userID int, until *time.Time) (int64, error)
	// FineDebit is the total of outstanding fines.
	FineDebit(ctx context.Context, userID int, until *time.Time) (int64, error)
}

// Service derives user balances. A balance is never written directly; every
// change is a side effect of a transaction, transfer or fine write followed
// by cache invalidation.
type Service struct {
	cache  *Cache
	source Source
}

func NewService(cache *Cache, source Source) *Service {
	return &Service{cache: cache, source: source}
}

// Balance returns the user's current balance, cached per user id.
func (s *Service) Balance(ctx context.Context, userID int) (money.Money, error) {
	return s.cache.Get(userID, func() (money.Money, error) {
		return s.compute(ctx, userID, nil)
	})
}

// BalanceAsOf returns a historical balance snapshot. Historical reads bypass
// the cache; only "now" is cached.
func (s *Service) BalanceAsOf(ctx context.Context, userID int, asOf time.Time) (money.Money, error) {
	return s.compute(ctx, userID, &asOf)
}

// Invalidate drops cached balances for the given users.
func (s *Service) Invalidate(userIDs []int) {
	s.cache.Invalidate(userIDs)
}

func (s *Service) compute(ctx context.Context, userID int, until *time.Time) (money.Money, error) {
	debit, err := s.source.TransactionDebit(ctx, userID, until)
	if err != nil {
		return money.Money{}, err
	}
	credit, err := s.source.TransferCredit(ctx, userID, until)
	if err != nil {
		return money.Money{}, err
	}
	fines, err := s.source.FineDebit(ctx, userID, until)
	if err != nil {
		return money.Money{}, err
	}
	return money.New(credit - debit - fines), nil
}
