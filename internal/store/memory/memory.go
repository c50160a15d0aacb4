package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"sudosos.org/internal/balance"
	"sudosos.org/internal/catalog"
	"sudosos.org/internal/transaction"
	"sudosos.org/internal/transfer"
	"sudosos.org/internal/user"
)

// Store is an in-process implementation of every repository interface,
// guarded by a single RWMutex. Used by tests and the smoke binary; the
// durable implementation lives in store/pg.
type Store struct {
	mu           sync.RWMutex
	products     map[catalog.Ref]catalog.ProductRevision
	containers   map[catalog.Ref]catalog.ContainerRevision
	pointsOfSale map[catalog.Ref]catalog.PointOfSaleRevision
	users        map[int]user.User

	txSeq        int
	subSeq       int
	rowSeq       int
	transactions map[int]transaction.Transaction

	transferSeq int
	transfers   []transfer.Transfer
	fineSeq     int
	fines       []transfer.Fine
}

var (
	_ catalog.Catalog        = (*Store)(nil)
	_ user.Directory         = (*Store)(nil)
	_ transaction.Repository = (*Store)(nil)
	_ balance.Source         = (*Store)(nil)
	_ transfer.Repository    = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{
		products:     make(map[catalog.Ref]catalog.ProductRevision),
		containers:   make(map[catalog.Ref]catalog.ContainerRevision),
		pointsOfSale: make(map[catalog.Ref]catalog.PointOfSaleRevision),
		users:        make(map[int]user.User),
		transactions: make(map[int]transaction.Transaction),
	}
}

// --- seeding ---

func (s *Store) PutProduct(p catalog.ProductRevision) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.Ref] = p
}

func (s *Store) PutContainer(c catalog.ContainerRevision) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.containers[c.Ref] = c
}

func (s *Store) PutPointOfSale(p catalog.PointOfSaleRevision) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pointsOfSale[p.Ref] = p
}

func (s *Store) PutUser(u user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// --- catalog.Catalog ---

func (s *Store) Product(ctx context.Context, ref catalog.Ref, opts ...catalog.Option) (catalog.ProductRevision, error) {
	o := catalog.Collect(opts...)
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[ref]
	if !ok || (p.Deleted && !o.AllowDeleted) {
		return catalog.ProductRevision{}, catalog.ErrNotFound
	}
	return p, nil
}

func (s *Store) Container(ctx context.Context, ref catalog.Ref, opts ...catalog.Option) (catalog.ContainerRevision, error) {
	o := catalog.Collect(opts...)
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.containers[ref]
	if !ok || (c.Deleted && !o.AllowDeleted) {
		return catalog.ContainerRevision{}, catalog.ErrNotFound
	}
	out := c
	out.Products = append([]catalog.Ref(nil), c.Products...)
	return out, nil
}

func (s *Store) PointOfSale(ctx context.Context, ref catalog.Ref, opts ...catalog.Option) (catalog.PointOfSaleRevision, error) {
	o := catalog.Collect(opts...)
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pointsOfSale[ref]
	if !ok || (p.Deleted && !o.AllowDeleted) {
		return catalog.PointOfSaleRevision{}, catalog.ErrNotFound
	}
	out := p
	out.Containers = append([]catalog.Ref(nil), p.Containers...)
	return out, nil
}

// --- user.Directory ---

func (s *Store) User(ctx context.Context, id int) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok || u.Deleted {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (s *Store) Users(ctx context.Context, ids []int) (map[int]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int]user.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok && !u.Deleted {
			out[id] = u
		}
	}
	return out, nil
}

// --- transaction.Repository ---

func (s *Store) Get(ctx context.Context, id int) (transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.transactions[id]
	if !ok {
		return transaction.Transaction{}, transaction.ErrNotFound
	}
	return cloneTx(tx), nil
}

func (s *Store) Save(ctx context.Context, tx transaction.Transaction) (transaction.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txSeq++
	tx.ID = s.txSeq
	s.assignIDs(&tx)
	s.transactions[tx.ID] = cloneTx(tx)
	return tx, nil
}

func (s *Store) Replace(ctx context.Context, id int, tx transaction.Transaction) (transaction.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[id]; !ok {
		return transaction.Transaction{}, transaction.ErrNotFound
	}
	tx.ID = id
	s.assignIDs(&tx)
	s.transactions[id] = cloneTx(tx)
	return tx, nil
}

func (s *Store) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[id]; !ok {
		return transaction.ErrNotFound
	}
	delete(s.transactions, id)
	return nil
}

// assignIDs gives fresh ids to sub-transactions and rows; called with the
// write lock held.
func (s *Store) assignIDs(tx *transaction.Transaction) {
	for i := range tx.SubTransactions {
		s.subSeq++
		tx.SubTransactions[i].ID = s.subSeq
		for j := range tx.SubTransactions[i].Rows {
			s.rowSeq++
			tx.SubTransactions[i].Rows[j].ID = s.rowSeq
		}
	}
}

func (s *Store) List(ctx context.Context, f transaction.Filter, p transaction.Page) ([]transaction.Transaction, int, error) {
	if err := f.Validate(); err != nil {
		return nil, 0, err
	}
	s.mu.RLock()
	var matched []transaction.Transaction
	for _, tx := range s.transactions {
		if matches(tx, f) {
			matched = append(matched, cloneTx(tx))
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	count := len(matched)
	if p.Skip >= count {
		return nil, count, nil
	}
	matched = matched[p.Skip:]
	if p.Take > 0 && len(matched) > p.Take {
		matched = matched[:p.Take]
	}
	return matched, count, nil
}

func matches(tx transaction.Transaction, f transaction.Filter) bool {
	if f.TransactionID != nil && tx.ID != *f.TransactionID {
		return false
	}
	if f.FromID != nil && tx.From != *f.FromID {
		return false
	}
	if f.CreatedByID != nil && tx.CreatedBy != *f.CreatedByID {
		return false
	}
	if f.ExcludeFromID != nil && tx.From == *f.ExcludeFromID {
		return false
	}
	if f.ExcludeByID != nil && tx.CreatedBy == *f.ExcludeByID {
		return false
	}
	if f.PointOfSaleID != nil {
		if tx.PointOfSale.ID != *f.PointOfSaleID {
			return false
		}
		if f.PointOfSaleRevision != nil && tx.PointOfSale.Revision != *f.PointOfSaleRevision {
			return false
		}
	}
	if f.FromDate != nil && tx.CreatedAt.Before(*f.FromDate) {
		return false
	}
	if f.TillDate != nil && !tx.CreatedAt.Before(*f.TillDate) {
		return false
	}
	if f.ToID != nil {
		// "Involving" semantics: payer or any recipient matches. With
		// ExclusiveToID only the recipient side counts.
		involved := !f.ExclusiveToID && tx.From == *f.ToID
		for _, sub := range tx.SubTransactions {
			if sub.To == *f.ToID {
				involved = true
			}
		}
		if !involved {
			return false
		}
	}
	if f.ContainerID != nil {
		found := false
		for _, sub := range tx.SubTransactions {
			if sub.Container.ID != *f.ContainerID {
				continue
			}
			if f.ContainerRevision != nil && sub.Container.Revision != *f.ContainerRevision {
				continue
			}
			found = true
		}
		if !found {
			return false
		}
	}
	if f.ProductID != nil || f.InvoiceID != nil {
		found := false
		for _, sub := range tx.SubTransactions {
			for _, row := range sub.Rows {
				if f.ProductID != nil {
					if row.Product.ID != *f.ProductID {
						continue
					}
					if f.ProductRevision != nil && row.Product.Revision != *f.ProductRevision {
						continue
					}
				}
				if f.InvoiceID != nil && (row.InvoiceID == nil || *row.InvoiceID != *f.InvoiceID) {
					continue
				}
				found = true
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func cloneTx(tx transaction.Transaction) transaction.Transaction {
	out := tx
	out.SubTransactions = make([]transaction.SubTransaction, len(tx.SubTransactions))
	for i, sub := range tx.SubTransactions {
		cp := sub
		cp.Rows = append([]transaction.SubTransactionRow(nil), sub.Rows...)
		out.SubTransactions[i] = cp
	}
	return out
}

// --- balance.Source ---

func (s *Store) TransactionDebit(ctx context.Context, userID int, until *time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	for _, tx := range s.transactions {
		if tx.From != userID {
			continue
		}
		if until != nil && tx.CreatedAt.After(*until) {
			continue
		}
		for _, sub := range tx.SubTransactions {
			for _, row := range sub.Rows {
				p, ok := s.products[row.Product]
				if !ok {
					return 0, catalog.ErrNotFound
				}
				total += p.PriceInclVat.Amount * int64(row.Amount)
			}
		}
	}
	return total, nil
}

func (s *Store) TransferCredit(ctx context.Context, userID int, until *time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	for _, t := range s.transfers {
		if until != nil && t.CreatedAt.After(*until) {
			continue
		}
		if t.To != nil && *t.To == userID {
			total += t.Amount.Amount
		}
		if t.From != nil && *t.From == userID {
			total -= t.Amount.Amount
		}
	}
	return total, nil
}

func (s *Store) FineDebit(ctx context.Context, userID int, until *time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	for _, f := range s.fines {
		if f.UserID != userID {
			continue
		}
		if until != nil && f.CreatedAt.After(*until) {
			continue
		}
		total += f.Amount.Amount
	}
	return total, nil
}

// --- transfer.Repository ---

func (s *Store) SaveTransfer(ctx context.Context, t transfer.Transfer) (transfer.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transferSeq++
	t.ID = s.transferSeq
	s.transfers = append(s.transfers, t)
	return t, nil
}

func (s *Store) ListTransfers(ctx context.Context, userID int) ([]transfer.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []transfer.Transfer
	for _, t := range s.transfers {
		if (t.From != nil && *t.From == userID) || (t.To != nil && *t.To == userID) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) SaveFine(ctx context.Context, f transfer.Fine) (transfer.Fine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fineSeq++
	f.ID = s.fineSeq
	s.fines = append(s.fines, f)
	return f, nil
}

func (s *Store) ListFines(ctx context.Context, userID int) ([]transfer.Fine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []transfer.Fine
	for _, f := range s.fines {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}
