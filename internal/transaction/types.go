package transaction

import (
	"errors"
	"time"

	"sudosos.org/internal/catalog"
	"sudosos.org/internal/money"
)

var (
	ErrNotFound      = errors.New("transaction not found")
	ErrInvalidFilter = errors.New("invalid filter")
)

// Transaction is the persisted entity graph. Totals are never stored on the
// graph; projections recompute them from catalog prices.
type Transaction struct {
	ID              int              `json:"id"`
	From            int              `json:"from"`
	CreatedBy       int              `json:"createdBy"`
	PointOfSale     catalog.Ref      `json:"pointOfSale"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
	Version         int              `json:"version"`
	SubTransactions []SubTransaction `json:"subTransactions"`
}

// SubTransaction groups rows sold from one container to one recipient.
type SubTransaction struct {
	ID        int                 `json:"id"`
	To        int                 `json:"to"`
	Container catalog.Ref         `json:"container"`
	Rows      []SubTransactionRow `json:"subTransactionRows"`
}

// SubTransactionRow is one line item. InvoiceID links the row to an invoice
// once billed; reports use it to avoid double-billing.
type SubTransactionRow struct {
	ID        int         `json:"id"`
	Product   catalog.Ref `json:"product"`
	Amount    int         `json:"amount"`
	InvoiceID *int        `json:"invoiceId,omitempty"`
}

// Users returns the deduplicated set of users touched by this transaction:
// the payer plus every sub-transaction recipient. This is the balance-cache
// invalidation set for any write.
func (t Transaction) Users() []int {
	seen := map[int]bool{t.From: true}
	out := []int{t.From}
	for _, sub := range t.SubTransactions {
		if !seen[sub.To] {
			seen[sub.To] = true
			out = append(out, sub.To)
		}
	}
	return out
}

// Lines flattens the graph into costing lines.
func (t Transaction) Lines() []Line {
	var lines []Line
	for _, sub := range t.SubTransactions {
		for _, row := range sub.Rows {
			lines = append(lines, Line{Product: row.Product, Amount: row.Amount})
		}
	}
	return lines
}

// Request is a proposed transaction. Reference and price fields are pointers
// so the verifier can distinguish "absent" from zero values; the shape is
// validated upstream, the values are re-validated here.
type Request struct {
	From              int          `json:"from"`
	CreatedBy         int          `json:"createdBy"`
	PointOfSale       *catalog.Ref `json:"pointOfSale"`
	TotalPriceInclVat *money.Money `json:"totalPriceInclVat"`
	SubTransactions   []SubRequest `json:"subTransactions"`
}

type SubRequest struct {
	To                int          `json:"to"`
	Container         *catalog.Ref `json:"container"`
	TotalPriceInclVat *money.Money `json:"totalPriceInclVat"`
	Rows              []RowRequest `json:"subTransactionRows"`
}

type RowRequest struct {
	Product           *catalog.Ref `json:"product"`
	Amount            int          `json:"amount"`
	TotalPriceInclVat *money.Money `json:"totalPriceInclVat"`
}

// Lines flattens the request into costing lines. Rows without a product ref
// are skipped; the verifier rejects those separately.
func (r Request) Lines() []Line {
	var lines []Line
	for _, sub := range r.SubTransactions {
		for _, row := range sub.Rows {
			if row.Product == nil {
				continue
			}
			lines = append(lines, Line{Product: *row.Product, Amount: row.Amount})
		}
	}
	return lines
}

// Response is the full projection of a transaction with totals recomputed
// from catalog prices at read time.
type Response struct {
	ID                int           `json:"id"`
	From              int           `json:"from"`
	CreatedBy         int           `json:"createdBy"`
	PointOfSale       catalog.Ref   `json:"pointOfSale"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
	TotalPriceInclVat money.Money   `json:"totalPriceInclVat"`
	SubTransactions   []SubResponse `json:"subTransactions"`
}

type SubResponse struct {
	ID                int           `json:"id"`
	To                int           `json:"to"`
	Container         catalog.Ref   `json:"container"`
	TotalPriceInclVat money.Money   `json:"totalPriceInclVat"`
	Rows              []RowResponse `json:"subTransactionRows"`
}

type RowResponse struct {
	ID                int         `json:"id"`
	Product           catalog.Ref `json:"product"`
	Name              string      `json:"name"`
	UnitPriceInclVat  money.Money `json:"unitPriceInclVat"`
	Amount            int         `json:"amount"`
	TotalPriceInclVat money.Money `json:"totalPriceInclVat"`
}

// BaseResponse is the listing summary without nested rows.
type BaseResponse struct {
	ID                int         `json:"id"`
	From              int         `json:"from"`
	CreatedBy         int         `json:"createdBy"`
	PointOfSale       catalog.Ref `json:"pointOfSale"`
	CreatedAt         time.Time   `json:"createdAt"`
	TotalPriceInclVat money.Money `json:"totalPriceInclVat"`
}

// PageInfo echoes pagination inputs alongside the unpaginated total count.
type PageInfo struct {
	Take  int `json:"take"`
	Skip  int `json:"skip"`
	Count int `json:"count"`
}

// Paged is the paginated listing wrapper.
type Paged struct {
	Pagination PageInfo       `json:"_pagination"`
	Records    []BaseResponse `json:"records"`
}
