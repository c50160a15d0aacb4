package transfer

import (
	"context"
	"errors"
	"time"

	"sudosos.org/internal/money"
)

var (
	ErrNotFound        = errors.New("transfer not found")
	ErrInvalidTransfer = errors.New("invalid transfer")
)

// Transfer moves value into or out of a user balance. Deposits have only a
// To side, payouts only a From side; internal moves have both.
type Transfer struct {
	ID          int         `json:"id"`
	From        *int        `json:"from,omitempty"`
	To          *int        `json:"to,omitempty"`
	Amount      money.Money `json:"amount"`
	Description string      `json:"description,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// Fine is an outstanding debit against a user balance.
type Fine struct {
	ID        int         `json:"id"`
	UserID    int         `json:"userId"`
	Amount    money.Money `json:"amount"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Users returns the balance-cache invalidation set of this transfer.
func (t Transfer) Users() []int {
	var out []int
	if t.From != nil {
		out = append(out, *t.From)
	}
	if t.To != nil {
		out = append(out, *t.To)
	}
	return out
}

type Repository interface {
	SaveTransfer(ctx context.Context, t Transfer) (Transfer, error)
	ListTransfers(ctx context.Context, userID int) ([]Transfer, error)
	SaveFine(ctx context.Context, f Fine) (Fine, error)
	ListFines(ctx context.Context, userID int) ([]Fine, error)
}

// Invalidator drops cached balances for the given users.
type Invalidator interface {
	Invalidate(userIDs []int)
}

type Service struct {
	repo  Repository
	cache Invalidator
}

func NewService(repo Repository, cache Invalidator) *Service {
	return &Service{repo: repo, cache: cache}
}

// Create persists a transfer and invalidates the touched balances.
func (s *Service) Create(ctx context.Context, t Transfer) (Transfer, error) {
	if t.From == nil && t.To == nil {
		return Transfer{}, ErrInvalidTransfer
	}
	if _, err := money.ToStorage(t.Amount); err != nil {
		return Transfer{}, err
	}
	if !t.Amount.IsPositive() {
		return Transfer{}, ErrInvalidTransfer
	}
	t.CreatedAt = time.Now().UTC()
	saved, err := s.repo.SaveTransfer(ctx, t)
	if err != nil {
		return Transfer{}, err
	}
	s.cache.Invalidate(saved.Users())
	return saved, nil
}

// Fine issues a fine against a user and invalidates their balance.
func (s *Service) Fine(ctx context.Context, userID int, amount money.Money) (Fine, error) {
	if _, err := money.ToStorage(amount); err != nil {
		return Fine{}, err
	}
	if !amount.IsPositive() {
		return Fine{}, ErrInvalidTransfer
	}
	saved, err := s.repo.SaveFine(ctx, Fine{UserID: userID, Amount: amount, CreatedAt: time.Now().UTC()})
	if err != nil {
		return Fine{}, err
	}
	s.cache.Invalidate([]int{userID})
	return saved, nil
}

func (s *Service) Transfers(ctx context.Context, userID int) ([]Transfer, error) {
	return s.repo.ListTransfers(ctx, userID)
}

func (s *Service) Fines(ctx context.Context, userID int) ([]Fine, error) {
	return s.repo.ListFines(ctx, userID)
}
