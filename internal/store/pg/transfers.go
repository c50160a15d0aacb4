package pg

import (
	"context"
	"database/sql"
	"time"

	"sudosos.org/internal/money"
	"sudosos.org/internal/transfer"
)

var _ transfer.Repository = (*Store)(nil)

type transferRow struct {
	ID          int           `db:"id"`
	FromID      sql.NullInt64 `db:"from_id"`
	ToID        sql.NullInt64 `db:"to_id"`
	Amount      int64         `db:"amount"`
	Description string        `db:"description"`
	CreatedAt   time.Time     `db:"created_at"`
}

func (r transferRow) toTransfer() transfer.Transfer {
	t := transfer.Transfer{
		ID:          r.ID,
		Amount:      money.New(r.Amount),
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
	}
	if r.FromID.Valid {
		v := int(r.FromID.Int64)
		t.From = &v
	}
	if r.ToID.Valid {
		v := int(r.ToID.Int64)
		t.To = &v
	}
	return t
}

func (s *Store) SaveTransfer(ctx context.Context, t transfer.Transfer) (transfer.Transfer, error) {
	var from, to sql.NullInt64
	if t.From != nil {
		from = sql.NullInt64{Int64: int64(*t.From), Valid: true}
	}
	if t.To != nil {
		to = sql.NullInt64{Int64: int64(*t.To), Valid: true}
	}
	amount, err := money.ToStorage(t.Amount)
	if err != nil {
		return transfer.Transfer{}, err
	}
	err = s.db.QueryRowContext(ctx, `
		insert into transfers(from_id, to_id, amount, description, created_at)
		values ($1, $2, $3, $4, $5)
		returning id
	`, from, to, amount, t.Description, t.CreatedAt).Scan(&t.ID)
	if err != nil {
		return transfer.Transfer{}, err
	}
	return t, nil
}

func (s *Store) ListTransfers(ctx context.Context, userID int) ([]transfer.Transfer, error) {
	var rows []transferRow
	err := s.db.SelectContext(ctx, &rows, `
		select id, from_id, to_id, amount, description, created_at
		from transfers
		where from_id = $1 or to_id = $1
		order by created_at desc, id desc
	`, userID)
	if err != nil {
		return nil, err
	}
	out := make([]transfer.Transfer, len(rows))
	for i, r := range rows {
		out[i] = r.toTransfer()
	}
	return out, nil
}

func (s *Store) SaveFine(ctx context.Context, f transfer.Fine) (transfer.Fine, error) {
	amount, err := money.ToStorage(f.Amount)
	if err != nil {
		return transfer.Fine{}, err
	}
	err = s.db.QueryRowContext(ctx, `
		insert into fines(user_id, amount, created_at)
		values ($1, $2, $3)
		returning id
	`, f.UserID, amount, f.CreatedAt).Scan(&f.ID)
	if err != nil {
		return transfer.Fine{}, err
	}
	return f, nil
}

func (s *Store) ListFines(ctx context.Context, userID int) ([]transfer.Fine, error) {
	var rows []struct {
		ID        int       `db:"id"`
		UserID    int       `db:"user_id"`
		Amount    int64     `db:"amount"`
		CreatedAt time.Time `db:"created_at"`
	}
	err := s.db.SelectContext(ctx, &rows, `
		select id, user_id, amount, created_at
		from fines
		where user_id = $1
		order by created_at desc, id desc
	`, userID)
	if err != nil {
		return nil, err
	}
	out := make([]transfer.Fine, len(rows))
	for i, r := range rows {
		out[i] = transfer.Fine{ID: r.ID, UserID: r.UserID, Amount: money.New(r.Amount), CreatedAt: r.CreatedAt}
	}
	return out, nil
}
