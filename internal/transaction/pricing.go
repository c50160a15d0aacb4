package transaction

import (
	"context"

	"sudosos.org/internal/catalog"
	"sudosos.org/internal/money"
)

// Line is one costing input: a pinned product revision and a quantity.
type Line struct {
	Product catalog.Ref
	Amount  int
}

// TotalCost sums VAT-inclusive revision prices over the given lines. The
// reduction starts from the zero value, so an empty line list costs zero.
// Deleted products still resolve: historical transactions must keep costing
// after their products leave the catalog.
func TotalCost(ctx context.Context, cat catalog.Catalog, lines []Line) (money.Money, error) {
	total := money.Zero()
	for _, line := range lines {
		prod, err := cat.Product(ctx, line.Product, catalog.AllowDeleted())
		if err != nil {
			return money.Money{}, err
		}
		total, err = total.Add(prod.PriceInclVat.Times(int64(line.Amount)))
		if err != nil {
			return money.Money{}, err
		}
	}
	return total, nil
}
