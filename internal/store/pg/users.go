package pg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"sudosos.org/internal/user"
)

var _ user.Directory = (*Store)(nil)

type userRow struct {
	ID          int    `db:"id"`
	FirstName   string `db:"first_name"`
	LastName    string `db:"last_name"`
	Active      bool   `db:"active"`
	Type        string `db:"type"`
	AcceptedToS string `db:"accepted_tos"`
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:          r.ID,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Active:      r.Active,
		Type:        user.Type(r.Type),
		AcceptedToS: user.TosStatus(r.AcceptedToS),
	}
}

func (s *Store) User(ctx context.Context, id int) (user.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `
		select id, first_name, last_name, active, type, accepted_tos
		from users
		where id = $1 and deleted = false
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, err
	}
	return row.toUser(), nil
}

func (s *Store) Users(ctx context.Context, ids []int) (map[int]user.User, error) {
	if len(ids) == 0 {
		return map[int]user.User{}, nil
	}
	query, args, err := sqlx.In(`
		select id, first_name, last_name, active, type, accepted_tos
		from users
		where deleted = false and id in (?)
	`, ids)
	if err != nil {
		return nil, err
	}
	var rows []userRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	out := make(map[int]user.User, len(rows))
	for _, r := range rows {
		out[r.ID] = r.toUser()
	}
	return out, nil
}
