package pg

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"sudosos.org/internal/catalog"
	"sudosos.org/internal/transaction"
)

var _ transaction.Repository = (*Store)(nil)

type txRow struct {
	ID          int       `db:"id"`
	FromID      int       `db:"from_id"`
	CreatedBy   int       `db:"created_by"`
	PosID       int       `db:"pos_id"`
	PosRevision int       `db:"pos_revision"`
	Version     int       `db:"version"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type subRow struct {
	ID                int `db:"id"`
	TransactionID     int `db:"transaction_id"`
	ToID              int `db:"to_id"`
	ContainerID       int `db:"container_id"`
	ContainerRevision int `db:"container_revision"`
}

type rowRow struct {
	ID               int           `db:"id"`
	SubTransactionID int           `db:"sub_transaction_id"`
	ProductID        int           `db:"product_id"`
	ProductRevision  int           `db:"product_revision"`
	Amount           int           `db:"amount"`
	InvoiceID        sql.NullInt64 `db:"invoice_id"`
}

const txColumns = `t.id, t.from_id, t.created_by, t.pos_id, t.pos_revision, t.version, t.created_at, t.updated_at`

func (r txRow) toTransaction() transaction.Transaction {
	return transaction.Transaction{
		ID:          r.ID,
		From:        r.FromID,
		CreatedBy:   r.CreatedBy,
		PointOfSale: catalog.Ref{ID: r.PosID, Revision: r.PosRevision},
		Version:     r.Version,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (s *Store) Get(ctx context.Context, id int) (transaction.Transaction, error) {
	var row txRow
	err := s.db.GetContext(ctx, &row, `select `+txColumns+` from transactions t where t.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return transaction.Transaction{}, transaction.ErrNotFound
	}
	if err != nil {
		return transaction.Transaction{}, err
	}
	txs, err := s.attachGraphs(ctx, []txRow{row})
	if err != nil {
		return transaction.Transaction{}, err
	}
	return txs[0], nil
}

func (s *Store) Save(ctx context.Context, t transaction.Transaction) (transaction.Transaction, error) {
	dbtx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return transaction.Transaction{}, err
	}
	defer func() { _ = dbtx.Rollback() }()

	err = dbtx.QueryRowContext(ctx, `
		insert into transactions(from_id, created_by, pos_id, pos_revision, version, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7)
		returning id
	`, t.From, t.CreatedBy, t.PointOfSale.ID, t.PointOfSale.Revision, t.Version, t.CreatedAt, t.UpdatedAt).Scan(&t.ID)
	if err != nil {
		return transaction.Transaction{}, err
	}
	if err := insertGraph(ctx, dbtx, &t); err != nil {
		return transaction.Transaction{}, err
	}
	if err := dbtx.Commit(); err != nil {
		return transaction.Transaction{}, err
	}
	return t, nil
}

// Replace deletes the stored graph and recreates it under the same id inside
// one database transaction, so a failure between the two steps cannot lose
// the transaction.
func (s *Store) Replace(ctx context.Context, id int, t transaction.Transaction) (transaction.Transaction, error) {
	dbtx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return transaction.Transaction{}, err
	}
	defer func() { _ = dbtx.Rollback() }()

	res, err := dbtx.ExecContext(ctx, `delete from transactions where id = $1`, id)
	if err != nil {
		return transaction.Transaction{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return transaction.Transaction{}, err
	} else if n == 0 {
		return transaction.Transaction{}, transaction.ErrNotFound
	}

	t.ID = id
	if _, err := dbtx.ExecContext(ctx, `
		insert into transactions(id, from_id, created_by, pos_id, pos_revision, version, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
	`, t.ID, t.From, t.CreatedBy, t.PointOfSale.ID, t.PointOfSale.Revision, t.Version, t.CreatedAt, t.UpdatedAt); err != nil {
		return transaction.Transaction{}, err
	}
	if err := insertGraph(ctx, dbtx, &t); err != nil {
		return transaction.Transaction{}, err
	}
	if err := dbtx.Commit(); err != nil {
		return transaction.Transaction{}, err
	}
	return t, nil
}

func (s *Store) Delete(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `delete from transactions where id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return transaction.ErrNotFound
	}
	return nil
}

// insertGraph writes the sub-transactions and rows of t and fills in their
// generated ids. Must run inside the caller's database transaction.
func insertGraph(ctx context.Context, dbtx *sqlx.Tx, t *transaction.Transaction) error {
	for i := range t.SubTransactions {
		sub := &t.SubTransactions[i]
		err := dbtx.QueryRowContext(ctx, `
			insert into sub_transactions(transaction_id, to_id, container_id, container_revision)
			values ($1, $2, $3, $4)
			returning id
		`, t.ID, sub.To, sub.Container.ID, sub.Container.Revision).Scan(&sub.ID)
		if err != nil {
			return err
		}
		for j := range sub.Rows {
			row := &sub.Rows[j]
			var invoiceID sql.NullInt64
			if row.InvoiceID != nil {
				invoiceID = sql.NullInt64{Int64: int64(*row.InvoiceID), Valid: true}
			}
			err := dbtx.QueryRowContext(ctx, `
				insert into sub_transaction_rows(sub_transaction_id, product_id, product_revision, amount, invoice_id)
				values ($1, $2, $3, $4, $5)
				returning id
			`, sub.ID, row.Product.ID, row.Product.Revision, row.Amount, invoiceID).Scan(&row.ID)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Store) List(ctx context.Context, f transaction.Filter, p transaction.Page) ([]transaction.Transaction, int, error) {
	if err := f.Validate(); err != nil {
		return nil, 0, err
	}
	where, args := buildWhere(f)

	var count int
	countQuery := s.db.Rebind(`select count(*) from transactions t` + where)
	if err := s.db.GetContext(ctx, &count, countQuery, args...); err != nil {
		return nil, 0, err
	}

	listQuery := s.db.Rebind(`select ` + txColumns + ` from transactions t` + where +
		` order by t.created_at desc, t.id desc limit ? offset ?`)
	var rows []txRow
	if err := s.db.SelectContext(ctx, &rows, listQuery, append(args, p.Take, p.Skip)...); err != nil {
		return nil, 0, err
	}
	txs, err := s.attachGraphs(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return txs, count, nil
}

// buildWhere translates a Filter into SQL conditions with ? placeholders.
func buildWhere(f transaction.Filter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, vals ...any) {
		conds = append(conds, cond)
		args = append(args, vals...)
	}

	if f.TransactionID != nil {
		add(`t.id = ?`, *f.TransactionID)
	}
	if f.FromID != nil {
		add(`t.from_id = ?`, *f.FromID)
	}
	if f.CreatedByID != nil {
		add(`t.created_by = ?`, *f.CreatedByID)
	}
	if f.ExcludeFromID != nil {
		add(`t.from_id <> ?`, *f.ExcludeFromID)
	}
	if f.ExcludeByID != nil {
		add(`t.created_by <> ?`, *f.ExcludeByID)
	}
	if f.PointOfSaleID != nil {
		add(`t.pos_id = ?`, *f.PointOfSaleID)
		if f.PointOfSaleRevision != nil {
			add(`t.pos_revision = ?`, *f.PointOfSaleRevision)
		}
	}
	if f.FromDate != nil {
		add(`t.created_at >= ?`, *f.FromDate)
	}
	if f.TillDate != nil {
		add(`t.created_at < ?`, *f.TillDate)
	}
	if f.ToID != nil {
		if f.ExclusiveToID {
			add(`t.id in (
				select st.transaction_id from sub_transactions st where st.to_id = ?
			)`, *f.ToID)
		} else {
			// Payer and recipient sets are computed separately and merged by
			// the union, instead of an OR across differently-indexed columns.
			add(`t.id in (
				select id from transactions where from_id = ?
				union
				select st.transaction_id from sub_transactions st where st.to_id = ?
			)`, *f.ToID, *f.ToID)
		}
	}
	if f.ContainerID != nil {
		cond := `exists (
			select 1 from sub_transactions st
			where st.transaction_id = t.id and st.container_id = ?`
		vals := []any{*f.ContainerID}
		if f.ContainerRevision != nil {
			cond += ` and st.container_revision = ?`
			vals = append(vals, *f.ContainerRevision)
		}
		add(cond+`)`, vals...)
	}
	if f.ProductID != nil {
		cond := `exists (
			select 1 from sub_transactions st
			join sub_transaction_rows r on r.sub_transaction_id = st.id
			where st.transaction_id = t.id and r.product_id = ?`
		vals := []any{*f.ProductID}
		if f.ProductRevision != nil {
			cond += ` and r.product_revision = ?`
			vals = append(vals, *f.ProductRevision)
		}
		add(cond+`)`, vals...)
	}
	if f.InvoiceID != nil {
		add(`exists (
			select 1 from sub_transactions st
			join sub_transaction_rows r on r.sub_transaction_id = st.id
			where st.transaction_id = t.id and r.invoice_id = ?
		)`, *f.InvoiceID)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " where " + strings.Join(conds, " and "), args
}

// attachGraphs loads the sub-transactions and rows for a page of transaction
// heads in two batched queries.
func (s *Store) attachGraphs(ctx context.Context, heads []txRow) ([]transaction.Transaction, error) {
	txs := make([]transaction.Transaction, len(heads))
	index := make(map[int]*transaction.Transaction, len(heads))
	ids := make([]int, len(heads))
	for i, h := range heads {
		txs[i] = h.toTransaction()
		index[h.ID] = &txs[i]
		ids[i] = h.ID
	}
	if len(ids) == 0 {
		return txs, nil
	}

	query, args, err := sqlx.In(`
		select id, transaction_id, to_id, container_id, container_revision
		from sub_transactions
		where transaction_id in (?)
		order by id
	`, ids)
	if err != nil {
		return nil, err
	}
	var subs []subRow
	if err := s.db.SelectContext(ctx, &subs, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	subIDs := make([]int, 0, len(subs))
	for _, sr := range subs {
		parent := index[sr.TransactionID]
		parent.SubTransactions = append(parent.SubTransactions, transaction.SubTransaction{
			ID:        sr.ID,
			To:        sr.ToID,
			Container: catalog.Ref{ID: sr.ContainerID, Revision: sr.ContainerRevision},
		})
		subIDs = append(subIDs, sr.ID)
	}
	if len(subIDs) == 0 {
		return txs, nil
	}
	// Index sub-transactions only after every slice has reached its final
	// size; earlier pointers would be invalidated by append growth.
	subIndex := make(map[int]*transaction.SubTransaction, len(subs))
	for i := range txs {
		for j := range txs[i].SubTransactions {
			sub := &txs[i].SubTransactions[j]
			subIndex[sub.ID] = sub
		}
	}

	query, args, err = sqlx.In(`
		select id, sub_transaction_id, product_id, product_revision, amount, invoice_id
		from sub_transaction_rows
		where sub_transaction_id in (?)
		order by id
	`, subIDs)
	if err != nil {
		return nil, err
	}
	var rows []rowRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, rr := range rows {
		parent := subIndex[rr.SubTransactionID]
		row := transaction.SubTransactionRow{
			ID:      rr.ID,
			Product: catalog.Ref{ID: rr.ProductID, Revision: rr.ProductRevision},
			Amount:  rr.Amount,
		}
		if rr.InvoiceID.Valid {
			v := int(rr.InvoiceID.Int64)
			row.InvoiceID = &v
		}
		parent.Rows = append(parent.Rows, row)
	}
	return txs, nil
}
