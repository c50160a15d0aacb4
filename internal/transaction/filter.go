package transaction

import (
	"fmt"
	"time"
)

// Filter narrows a transaction listing. A revision filter is only meaningful
// pinned to its parent id; a revision without the id is a request error.
type Filter struct {
	TransactionID       *int
	FromID              *int
	CreatedByID         *int
	ToID                *int
	ExclusiveToID       bool
	PointOfSaleID       *int
	PointOfSaleRevision *int
	ContainerID         *int
	ContainerRevision   *int
	ProductID           *int
	ProductRevision     *int
	FromDate            *time.Time
	TillDate            *time.Time
	InvoiceID           *int
	ExcludeByID         *int
	ExcludeFromID       *int
}

func (f Filter) Validate() error {
	if f.PointOfSaleRevision != nil && f.PointOfSaleID == nil {
		return fmt.Errorf("%w: pointOfSaleRevision requires pointOfSaleId", ErrInvalidFilter)
	}
	if f.ContainerRevision != nil && f.ContainerID == nil {
		return fmt.Errorf("%w: containerRevision requires containerId", ErrInvalidFilter)
	}
	if f.ProductRevision != nil && f.ProductID == nil {
		return fmt.Errorf("%w: productRevision requires productId", ErrInvalidFilter)
	}
	return nil
}

const (
	defaultTake = 50
	maxTake     = 500
)

// Page is take/skip pagination.
type Page struct {
	Take int
	Skip int
}

// Normalize clamps pagination to sane bounds.
func (p Page) Normalize() Page {
	if p.Take <= 0 || p.Take > maxTake {
		p.Take = defaultTake
	}
	if p.Skip < 0 {
		p.Skip = 0
	}
	return p
}
