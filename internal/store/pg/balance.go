package pg

import (
	"context"
	"time"

	"sudosos.org/internal/balance"
)

var _ balance.Source = (*Store)(nil)

// TransactionDebit sums the revision price of every row the user paid for.
// Prices come from the pinned product revisions, so later catalog changes
// never move a historical debit.
func (s *Store) TransactionDebit(ctx context.Context, userID int, until *time.Time) (int64, error) {
	query := `
		select coalesce(sum(pr.price_incl_vat * r.amount), 0)
		from transactions t
		join sub_transactions st on st.transaction_id = t.id
		join sub_transaction_rows r on r.sub_transaction_id = st.id
		join product_revisions pr on pr.product_id = r.product_id and pr.revision = r.product_revision
		where t.from_id = $1`
	args := []any{userID}
	if until != nil {
		query += ` and t.created_at <= $2`
		args = append(args, *until)
	}
	var total int64
	if err := s.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) TransferCredit(ctx context.Context, userID int, until *time.Time) (int64, error) {
	query := `
		select coalesce(sum(case when to_id = $1 then amount else -amount end), 0)
		from transfers
		where (to_id = $1 or from_id = $1)`
	args := []any{userID}
	if until != nil {
		query += ` and created_at <= $2`
		args = append(args, *until)
	}
	var total int64
	if err := s.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) FineDebit(ctx context.Context, userID int, until *time.Time) (int64, error) {
	query := `
		select coalesce(sum(amount), 0)
		from fines
		where user_id = $1`
	args := []any{userID}
	if until != nil {
		query += ` and created_at <= $2`
		args = append(args, *until)
	}
	var total int64
	if err := s.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, err
	}
	return total, nil
}
