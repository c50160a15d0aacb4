package report

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"sudosos.org/internal/catalog"
	"sudosos.org/internal/money"
	"sudosos.org/internal/transaction"
)

// Options scope a report run.
type Options struct {
	// ExclusiveTo drops rows whose sub-transaction recipient is not this
	// user before aggregation.
	ExclusiveTo *int
	// DropInvoiced excludes rows already attached to an invoice so they are
	// not billed twice.
	DropInvoiced bool
}

// DefaultOptions drops invoiced rows; callers that want them must opt in.
func DefaultOptions() Options {
	return Options{DropInvoiced: true}
}

// Totals is a running aggregate for one group.
type Totals struct {
	Count        int         `json:"count"`
	TotalExclVat money.Money `json:"totalExclVat"`
	TotalInclVat money.Money `json:"totalInclVat"`
}

type ProductGroup struct {
	Product catalog.ProductRevision `json:"product"`
	Totals
}

type CategoryGroup struct {
	Category catalog.Category `json:"category"`
	Totals
}

type VatGroup struct {
	Vat catalog.VatRate `json:"vat"`
	Totals
}

// Report is an ephemeral aggregation over a filtered transaction set,
// grouped three ways in parallel.
type Report struct {
	Products     []ProductGroup  `json:"products"`
	Categories   []CategoryGroup `json:"categories"`
	Vat          []VatGroup      `json:"vat"`
	TotalExclVat money.Money     `json:"totalExclVat"`
	TotalInclVat money.Money     `json:"totalInclVat"`
}

// Builder aggregates transactions into financial reports.
type Builder struct {
	catalog catalog.Catalog
}

func NewBuilder(cat catalog.Catalog) *Builder {
	return &Builder{catalog: cat}
}

// Build makes a single pass over every row of the given transactions and
// accumulates product, category and VAT groups.
func (b *Builder) Build(ctx context.Context, txs []transaction.Transaction, opts Options) (Report, error) {
	byProduct := make(map[catalog.Ref]*ProductGroup)
	byCategory := make(map[int]*CategoryGroup)
	byVat := make(map[int]*VatGroup)
	grand := Totals{TotalExclVat: money.Zero(), TotalInclVat: money.Zero()}

	for _, tx := range txs {
		for _, sub := range tx.SubTransactions {
			if opts.ExclusiveTo != nil && sub.To != *opts.ExclusiveTo {
				continue
			}
			for _, row := range sub.Rows {
				if opts.DropInvoiced && row.InvoiceID != nil {
					continue
				}
				prod, err := b.catalog.Product(ctx, row.Product, catalog.AllowDeleted())
				if err != nil {
					return Report{}, err
				}
				incl := prod.PriceInclVat.Times(int64(row.Amount))
				excl := money.New(exclVat(incl.Amount, prod.Vat.Percentage))

				pg, ok := byProduct[row.Product]
				if !ok {
					pg = &ProductGroup{Product: prod, Totals: zeroTotals()}
					byProduct[row.Product] = pg
				}
				cg, ok := byCategory[prod.Category.ID]
				if !ok {
					cg = &CategoryGroup{Category: prod.Category, Totals: zeroTotals()}
					byCategory[prod.Category.ID] = cg
				}
				vg, ok := byVat[prod.Vat.ID]
				if !ok {
					vg = &VatGroup{Vat: prod.Vat, Totals: zeroTotals()}
					byVat[prod.Vat.ID] = vg
				}
				for _, tot := range []*Totals{&pg.Totals, &cg.Totals, &vg.Totals, &grand} {
					if err := tot.accumulate(row.Amount, excl, incl); err != nil {
						return Report{}, err
					}
				}
			}
		}
	}

	report := Report{
		TotalExclVat: grand.TotalExclVat,
		TotalInclVat: grand.TotalInclVat,
	}
	for _, g := range byProduct {
		report.Products = append(report.Products, *g)
	}
	for _, g := range byCategory {
		report.Categories = append(report.Categories, *g)
	}
	for _, g := range byVat {
		report.Vat = append(report.Vat, *g)
	}
	sort.Slice(report.Products, func(i, j int) bool {
		a, b := report.Products[i].Product, report.Products[j].Product
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		return a.Revision < b.Revision
	})
	sort.Slice(report.Categories, func(i, j int) bool {
		return report.Categories[i].Category.ID < report.Categories[j].Category.ID
	})
	sort.Slice(report.Vat, func(i, j int) bool {
		return report.Vat[i].Vat.ID < report.Vat[j].Vat.ID
	})
	return report, nil
}

func zeroTotals() Totals {
	return Totals{TotalExclVat: money.Zero(), TotalInclVat: money.Zero()}
}

func (t *Totals) accumulate(count int, excl, incl money.Money) error {
	var err error
	t.Count += count
	if t.TotalExclVat, err = t.TotalExclVat.Add(excl); err != nil {
		return err
	}
	t.TotalInclVat, err = t.TotalInclVat.Add(incl)
	return err
}

// exclVat derives the excl-VAT amount from an incl-VAT minor-unit amount.
// Rounded to the nearest minor unit per line, not once at the end, matching
// invoice-style rounding.
func exclVat(incl int64, vatPercentage float64) int64 {
	divisor := decimal.NewFromInt(1).Add(decimal.NewFromFloat(vatPercentage).Div(decimal.NewFromInt(100)))
	return decimal.NewFromInt(incl).Div(divisor).Round(0).IntPart()
}
