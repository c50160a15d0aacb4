package transaction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"sudosos.org/internal/money"
)

type fakeRepo struct {
	txs      map[int]Transaction
	nextID   int
	lastPage Page
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{txs: make(map[int]Transaction), nextID: 1}
}

func (r *fakeRepo) Get(_ context.Context, id int) (Transaction, error) {
	tx, ok := r.txs[id]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	return tx, nil
}

func (r *fakeRepo) Save(_ context.Context, tx Transaction) (Transaction, error) {
	tx.ID = r.nextID
	r.nextID++
	r.txs[tx.ID] = tx
	return tx, nil
}

func (r *fakeRepo) Replace(_ context.Context, id int, tx Transaction) (Transaction, error) {
	if _, ok := r.txs[id]; !ok {
		return Transaction{}, ErrNotFound
	}
	tx.ID = id
	r.txs[id] = tx
	return tx, nil
}

func (r *fakeRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.txs[id]; !ok {
		return ErrNotFound
	}
	delete(r.txs, id)
	return nil
}

func (r *fakeRepo) List(_ context.Context, _ Filter, p Page) ([]Transaction, int, error) {
	r.lastPage = p
	var out []Transaction
	for _, tx := range r.txs {
		out = append(out, tx)
	}
	return out, len(out), nil
}

type recordingInvalidator struct {
	calls [][]int
}

func (r *recordingInvalidator) Invalidate(userIDs []int) {
	r.calls = append(r.calls, userIDs)
}

func (r *recordingInvalidator) all() []int {
	var out []int
	for _, call := range r.calls {
		out = append(out, call...)
	}
	return out
}

func TestServiceCreate(t *testing.T) {
	cat, _ := testWorld()
	repo := newFakeRepo()
	inv := &recordingInvalidator{}
	svc := NewService(repo, cat, inv)

	resp, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	require.Equal(t, 1, resp.ID)
	require.Equal(t, int64(300), resp.TotalPriceInclVat.Amount)
	require.Len(t, resp.SubTransactions, 1)
	require.Equal(t, int64(300), resp.SubTransactions[0].TotalPriceInclVat.Amount)
	require.Equal(t, int64(100), resp.SubTransactions[0].Rows[0].UnitPriceInclVat.Amount)

	require.ElementsMatch(t, []int{1, 2}, inv.all())

	stored := repo.txs[1]
	require.Equal(t, 1, stored.Version)
	require.False(t, stored.CreatedAt.IsZero())
}

func TestServiceUpdateReplacesGraph(t *testing.T) {
	cat, _ := testWorld()
	repo := newFakeRepo()
	inv := &recordingInvalidator{}
	svc := NewService(repo, cat, inv)

	created, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	inv.calls = nil

	// Redirect the sub-transaction to user 5 and double the quantity.
	req := validRequest()
	req.SubTransactions[0].To = 5
	req.SubTransactions[0].Rows[0].Amount = 6
	req.SubTransactions[0].Rows[0].TotalPriceInclVat = ptr(money.New(600))
	req.SubTransactions[0].TotalPriceInclVat = ptr(money.New(600))
	req.TotalPriceInclVat = ptr(money.New(600))

	resp, err := svc.Update(context.Background(), created.ID, req)
	require.NoError(t, err)
	require.Equal(t, created.ID, resp.ID)
	require.Equal(t, int64(600), resp.TotalPriceInclVat.Amount)
	require.Equal(t, 5, resp.SubTransactions[0].To)

	// Both the old and the new recipient set are invalidated.
	require.ElementsMatch(t, []int{1, 2, 1, 5}, inv.all())

	stored := repo.txs[created.ID]
	require.Equal(t, 2, stored.Version)
	require.Equal(t, created.CreatedAt, stored.CreatedAt)
}

func TestServiceUpdateNotFound(t *testing.T) {
	cat, _ := testWorld()
	svc := NewService(newFakeRepo(), cat, &recordingInvalidator{})

	_, err := svc.Update(context.Background(), 42, validRequest())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestServiceDelete(t *testing.T) {
	cat, _ := testWorld()
	repo := newFakeRepo()
	inv := &recordingInvalidator{}
	svc := NewService(repo, cat, inv)

	created, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	inv.calls = nil

	resp, err := svc.Delete(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, resp.ID)
	require.Empty(t, repo.txs)
	require.ElementsMatch(t, []int{1, 2}, inv.all())

	_, err = svc.Delete(context.Background(), created.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestServiceListRecomputesTotals(t *testing.T) {
	cat, _ := testWorld()
	repo := newFakeRepo()
	svc := NewService(repo, cat, &recordingInvalidator{})

	_, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	paged, err := svc.List(context.Background(), Filter{}, Page{})
	require.NoError(t, err)
	require.Equal(t, 1, paged.Pagination.Count)
	require.Len(t, paged.Records, 1)
	require.Equal(t, int64(300), paged.Records[0].TotalPriceInclVat.Amount)

	// Pagination defaults are applied before the repository sees the page.
	require.Equal(t, 50, repo.lastPage.Take)
}

func TestServiceListInvalidFilter(t *testing.T) {
	cat, _ := testWorld()
	svc := NewService(newFakeRepo(), cat, &recordingInvalidator{})

	rev := 2
	_, err := svc.List(context.Background(), Filter{ProductRevision: &rev}, Page{})
	require.ErrorIs(t, err, ErrInvalidFilter)
}
