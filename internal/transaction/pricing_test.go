package transaction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"sudosos.org/internal/catalog"
	"sudosos.org/internal/money"
)

func TestTotalCostEmpty(t *testing.T) {
	cat, _ := testWorld()
	total, err := TotalCost(context.Background(), cat, nil)
	require.NoError(t, err)
	require.Equal(t, money.Zero(), total)
}

func TestTotalCostOrderIndependent(t *testing.T) {
	cat, _ := testWorld()
	cat.products[ref(2, 1)] = catalog.ProductRevision{
		Ref:          ref(2, 1),
		Name:         "Cola",
		PriceInclVat: money.New(150),
	}

	lines := []Line{
		{Product: ref(1, 1), Amount: 2},
		{Product: ref(2, 1), Amount: 1},
	}
	reversed := []Line{lines[1], lines[0]}

	a, err := TotalCost(context.Background(), cat, lines)
	require.NoError(t, err)
	b, err := TotalCost(context.Background(), cat, reversed)
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Equal(t, int64(350), a.Amount)
}

func TestTotalCostPinsRevision(t *testing.T) {
	cat, _ := testWorld()
	// A newer revision doubles the price; lines pinned to revision 1 must not
	// see it.
	cat.products[ref(1, 2)] = catalog.ProductRevision{
		Ref:          ref(1, 2),
		Name:         "Pale Ale",
		PriceInclVat: money.New(200),
	}

	total, err := TotalCost(context.Background(), cat, []Line{{Product: ref(1, 1), Amount: 1}})
	require.NoError(t, err)
	require.Equal(t, int64(100), total.Amount)

	total, err = TotalCost(context.Background(), cat, []Line{{Product: ref(1, 2), Amount: 1}})
	require.NoError(t, err)
	require.Equal(t, int64(200), total.Amount)
}

func TestTotalCostResolvesDeletedProducts(t *testing.T) {
	cat, _ := testWorld()
	p := cat.products[ref(1, 1)]
	p.Deleted = true
	cat.products[ref(1, 1)] = p

	total, err := TotalCost(context.Background(), cat, []Line{{Product: ref(1, 1), Amount: 2}})
	require.NoError(t, err)
	require.Equal(t, int64(200), total.Amount)
}

func TestTotalCostUnknownProduct(t *testing.T) {
	cat, _ := testWorld()
	_, err := TotalCost(context.Background(), cat, []Line{{Product: ref(9, 9), Amount: 1}})
	require.ErrorIs(t, err, catalog.ErrNotFound)
}
