package transaction

import (
	"context"
	"time"

	"sudosos.org/internal/catalog"
	"sudosos.org/internal/money"
	"sudosos.org/internal/obs"
)

// Repository persists transaction graphs. Implementations must make Replace
// atomic: the delete and the recreate commit together or not at all.
type Repository interface {
	Get(ctx context.Context, id int) (Transaction, error)
	Save(ctx context.Context, tx Transaction) (Transaction, error)
	Replace(ctx context.Context, id int, tx Transaction) (Transaction, error)
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, f Filter, p Page) ([]Transaction, int, error)
}

// Invalidator drops cached balances for the given users.
type Invalidator interface {
	Invalidate(userIDs []int)
}

// Service maps validated requests to persisted graphs and back. Verification
// is the caller's responsibility; Create and Update assume the request has
// already been accepted by the Verifier.
//
// Two concurrent updates to the same id remain last-write-wins: Replace is
// atomic so no torn graph can be observed, but no version conflict is
// detected.
type Service struct {
	repo    Repository
	catalog catalog.Catalog
	cache   Invalidator
}

func NewService(repo Repository, cat catalog.Catalog, cache Invalidator) *Service {
	return &Service{repo: repo, catalog: cat, cache: cache}
}

// toEntity builds the persisted graph from a request. When existing is
// given, the new graph keeps its identity and creation time but bumps the
// version and refreshes the update timestamp; it fully replaces the prior
// graph rather than patching it.
func toEntity(req Request, existing *Transaction) Transaction {
	now := time.Now().UTC()
	tx := Transaction{
		From:        req.From,
		CreatedBy:   req.CreatedBy,
		PointOfSale: *req.PointOfSale,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}
	if existing != nil {
		tx.ID = existing.ID
		tx.CreatedAt = existing.CreatedAt
		tx.Version = existing.Version + 1
	}
	for _, sub := range req.SubTransactions {
		st := SubTransaction{To: sub.To, Container: *sub.Container}
		for _, row := range sub.Rows {
			st.Rows = append(st.Rows, SubTransactionRow{Product: *row.Product, Amount: row.Amount})
		}
		tx.SubTransactions = append(tx.SubTransactions, st)
	}
	return tx
}

// Create persists the graph and invalidates the balances of every user it
// touches.
func (s *Service) Create(ctx context.Context, req Request) (Response, error) {
	saved, err := s.repo.Save(ctx, toEntity(req, nil))
	if err != nil {
		return Response{}, err
	}
	s.cache.Invalidate(saved.Users())
	obs.TransactionCreated()
	return s.Project(ctx, saved)
}

// Update replaces the stored graph under the same id. The cache is
// invalidated for both the pre-update and post-update user sets.
func (s *Service) Update(ctx context.Context, id int, req Request) (Response, error) {
	old, err := s.repo.Get(ctx, id)
	if err != nil {
		return Response{}, err
	}
	saved, err := s.repo.Replace(ctx, id, toEntity(req, &old))
	if err != nil {
		return Response{}, err
	}
	s.cache.Invalidate(old.Users())
	s.cache.Invalidate(saved.Users())
	return s.Project(ctx, saved)
}

// Delete removes the transaction and returns its final projection.
func (s *Service) Delete(ctx context.Context, id int) (Response, error) {
	old, err := s.repo.Get(ctx, id)
	if err != nil {
		return Response{}, err
	}
	resp, err := s.Project(ctx, old)
	if err != nil {
		return Response{}, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return Response{}, err
	}
	s.cache.Invalidate(old.Users())
	return resp, nil
}

// Get returns the projection of a single transaction.
func (s *Service) Get(ctx context.Context, id int) (Response, error) {
	tx, err := s.repo.Get(ctx, id)
	if err != nil {
		return Response{}, err
	}
	return s.Project(ctx, tx)
}

// List returns a filtered page of listing summaries plus the total count.
func (s *Service) List(ctx context.Context, f Filter, p Page) (Paged, error) {
	if err := f.Validate(); err != nil {
		return Paged{}, err
	}
	p = p.Normalize()
	txs, count, err := s.repo.List(ctx, f, p)
	if err != nil {
		return Paged{}, err
	}
	records := make([]BaseResponse, 0, len(txs))
	for _, tx := range txs {
		total, err := TotalCost(ctx, s.catalog, tx.Lines())
		if err != nil {
			return Paged{}, err
		}
		records = append(records, BaseResponse{
			ID:                tx.ID,
			From:              tx.From,
			CreatedBy:         tx.CreatedBy,
			PointOfSale:       tx.PointOfSale,
			CreatedAt:         tx.CreatedAt,
			TotalPriceInclVat: total,
		})
	}
	return Paged{
		Pagination: PageInfo{Take: p.Take, Skip: p.Skip, Count: count},
		Records:    records,
	}, nil
}

// Project maps a persisted graph to its response DTO. Stored totals are
// never trusted; every level is recomputed from revision prices so the
// response reflects computed truth.
func (s *Service) Project(ctx context.Context, tx Transaction) (Response, error) {
	resp := Response{
		ID:                tx.ID,
		From:              tx.From,
		CreatedBy:         tx.CreatedBy,
		PointOfSale:       tx.PointOfSale,
		CreatedAt:         tx.CreatedAt,
		UpdatedAt:         tx.UpdatedAt,
		TotalPriceInclVat: money.Zero(),
	}
	for _, sub := range tx.SubTransactions {
		sr := SubResponse{
			ID:                sub.ID,
			To:                sub.To,
			Container:         sub.Container,
			TotalPriceInclVat: money.Zero(),
		}
		for _, row := range sub.Rows {
			prod, err := s.catalog.Product(ctx, row.Product, catalog.AllowDeleted())
			if err != nil {
				return Response{}, err
			}
			rowTotal := prod.PriceInclVat.Times(int64(row.Amount))
			sr.Rows = append(sr.Rows, RowResponse{
				ID:                row.ID,
				Product:           row.Product,
				Name:              prod.Name,
				UnitPriceInclVat:  prod.PriceInclVat,
				Amount:            row.Amount,
				TotalPriceInclVat: rowTotal,
			})
			if sr.TotalPriceInclVat, err = sr.TotalPriceInclVat.Add(rowTotal); err != nil {
				return Response{}, err
			}
		}
		var err error
		if resp.TotalPriceInclVat, err = resp.TotalPriceInclVat.Add(sr.TotalPriceInclVat); err != nil {
			return Response{}, err
		}
		resp.SubTransactions = append(resp.SubTransactions, sr)
	}
	return resp, nil
}
