package report

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"sudosos.org/internal/catalog"
	"sudosos.org/internal/money"
	"sudosos.org/internal/transaction"
)

type stubCatalog map[catalog.Ref]catalog.ProductRevision

func (s stubCatalog) Product(_ context.Context, ref catalog.Ref, _ ...catalog.Option) (catalog.ProductRevision, error) {
	p, ok := s[ref]
	if !ok {
		return catalog.ProductRevision{}, catalog.ErrNotFound
	}
	return p, nil
}

func (s stubCatalog) Container(context.Context, catalog.Ref, ...catalog.Option) (catalog.ContainerRevision, error) {
	return catalog.ContainerRevision{}, catalog.ErrNotFound
}

func (s stubCatalog) PointOfSale(context.Context, catalog.Ref, ...catalog.Option) (catalog.PointOfSaleRevision, error) {
	return catalog.PointOfSaleRevision{}, catalog.ErrNotFound
}

func ref(id, rev int) catalog.Ref { return catalog.Ref{ID: id, Revision: rev} }

func fixtureCatalog() stubCatalog {
	beer := catalog.Category{ID: 1, Name: "Beer"}
	soda := catalog.Category{ID: 2, Name: "Soda"}
	high := catalog.VatRate{ID: 1, Percentage: 21}
	low := catalog.VatRate{ID: 2, Percentage: 9}
	return stubCatalog{
		ref(1, 1): {Ref: ref(1, 1), Name: "Pale Ale", PriceInclVat: money.New(121), Vat: high, Category: beer},
		ref(2, 1): {Ref: ref(2, 1), Name: "Cola", PriceInclVat: money.New(109), Vat: low, Category: soda},
	}
}

func tx(subs ...transaction.SubTransaction) transaction.Transaction {
	return transaction.Transaction{From: 1, SubTransactions: subs}
}

func sub(to int, rows ...transaction.SubTransactionRow) transaction.SubTransaction {
	return transaction.SubTransaction{To: to, Rows: rows}
}

func row(r catalog.Ref, amount int) transaction.SubTransactionRow {
	return transaction.SubTransactionRow{Product: r, Amount: amount}
}

func TestBuildVatExtraction(t *testing.T) {
	b := NewBuilder(fixtureCatalog())

	// 121 incl at 21% rounds to exactly 100 excl per line.
	rep, err := b.Build(context.Background(), []transaction.Transaction{
		tx(sub(2, row(ref(1, 1), 1))),
	}, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, int64(121), rep.TotalInclVat.Amount)
	require.Equal(t, int64(100), rep.TotalExclVat.Amount)
}

func TestBuildGroupings(t *testing.T) {
	b := NewBuilder(fixtureCatalog())

	rep, err := b.Build(context.Background(), []transaction.Transaction{
		tx(sub(2, row(ref(1, 1), 2), row(ref(2, 1), 3))),
		tx(sub(2, row(ref(1, 1), 1))),
	}, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, rep.Products, 2)
	require.Len(t, rep.Categories, 2)
	require.Len(t, rep.Vat, 2)

	// Sorted by product id, so Pale Ale comes first.
	require.Equal(t, "Pale Ale", rep.Products[0].Product.Name)
	require.Equal(t, 3, rep.Products[0].Count)
	require.Equal(t, int64(363), rep.Products[0].TotalInclVat.Amount)
	require.Equal(t, "Cola", rep.Products[1].Product.Name)
	require.Equal(t, 3, rep.Products[1].Count)
	require.Equal(t, int64(327), rep.Products[1].TotalInclVat.Amount)

	require.Equal(t, "Beer", rep.Categories[0].Category.Name)
	require.Equal(t, int64(363), rep.Categories[0].TotalInclVat.Amount)

	require.Equal(t, float64(21), rep.Vat[0].Vat.Percentage)
	require.Equal(t, int64(363), rep.Vat[0].TotalInclVat.Amount)
	require.Equal(t, float64(9), rep.Vat[1].Vat.Percentage)
	require.Equal(t, int64(327), rep.Vat[1].TotalInclVat.Amount)

	require.Equal(t, int64(690), rep.TotalInclVat.Amount)
}

func TestBuildDistinctRevisionsAreDistinctGroups(t *testing.T) {
	cat := fixtureCatalog()
	cat[ref(1, 2)] = catalog.ProductRevision{
		Ref: ref(1, 2), Name: "Pale Ale", PriceInclVat: money.New(142),
		Vat: catalog.VatRate{ID: 1, Percentage: 21}, Category: catalog.Category{ID: 1, Name: "Beer"},
	}
	b := NewBuilder(cat)

	rep, err := b.Build(context.Background(), []transaction.Transaction{
		tx(sub(2, row(ref(1, 1), 1), row(ref(1, 2), 1))),
	}, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, rep.Products, 2)
	// Same product id, same category: two product groups but one category
	// group and one VAT group.
	require.Len(t, rep.Categories, 1)
	require.Len(t, rep.Vat, 1)
	require.Equal(t, 2, rep.Categories[0].Count)
}

func TestBuildExclusiveTo(t *testing.T) {
	b := NewBuilder(fixtureCatalog())
	other := 9

	rep, err := b.Build(context.Background(), []transaction.Transaction{
		tx(sub(2, row(ref(1, 1), 1)), sub(other, row(ref(2, 1), 5))),
	}, Options{ExclusiveTo: &other, DropInvoiced: true})
	require.NoError(t, err)

	require.Len(t, rep.Products, 1)
	require.Equal(t, "Cola", rep.Products[0].Product.Name)
	require.Equal(t, int64(545), rep.TotalInclVat.Amount)
}

func TestBuildDropInvoiced(t *testing.T) {
	b := NewBuilder(fixtureCatalog())
	invoice := 77
	invoiced := row(ref(1, 1), 4)
	invoiced.InvoiceID = &invoice

	txs := []transaction.Transaction{
		tx(sub(2, invoiced, row(ref(2, 1), 1))),
	}

	rep, err := b.Build(context.Background(), txs, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, rep.Products, 1)
	require.Equal(t, int64(109), rep.TotalInclVat.Amount)

	rep, err = b.Build(context.Background(), txs, Options{DropInvoiced: false})
	require.NoError(t, err)
	require.Len(t, rep.Products, 2)
	require.Equal(t, int64(484+109), rep.TotalInclVat.Amount)
}

func TestBuildEmpty(t *testing.T) {
	b := NewBuilder(fixtureCatalog())
	rep, err := b.Build(context.Background(), nil, DefaultOptions())
	require.NoError(t, err)
	require.Empty(t, rep.Products)
	require.True(t, rep.TotalInclVat.IsZero())
	require.True(t, rep.TotalExclVat.IsZero())
}
