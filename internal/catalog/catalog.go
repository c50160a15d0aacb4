package catalog

import (
	"context"
	"errors"

	"sudosos.org/internal/money"
)

var ErrNotFound = errors.New("catalog entry not found")

// Ref addresses one immutable revision of a catalog entity. A transaction
// pins refs at creation time so later catalog changes never reprice it.
type Ref struct {
	ID       int `json:"id"`
	Revision int `json:"revision"`
}

// VatRate is the VAT bracket attached to a product revision.
type VatRate struct {
	ID         int     `json:"id"`
	Percentage float64 `json:"percentage"`
}

// Category groups products for reporting.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ProductRevision is an immutable snapshot of a product. Deleted reflects a
// soft delete of the parent product, not of the revision itself.
type ProductRevision struct {
	Ref
	Name         string      `json:"name"`
	PriceInclVat money.Money `json:"priceInclVat"`
	Vat          VatRate     `json:"vat"`
	Category     Category    `json:"category"`
	Deleted      bool        `json:"-"`
}

// ContainerRevision is an immutable snapshot of a container and the product
// revisions it offered at that point in time.
type ContainerRevision struct {
	Ref
	Name     string `json:"name"`
	Products []Ref  `json:"products"`
	Deleted  bool   `json:"-"`
}

// PointOfSaleRevision is an immutable snapshot of a point of sale and the
// container revisions it exposed.
type PointOfSaleRevision struct {
	Ref
	Name       string `json:"name"`
	Containers []Ref  `json:"containers"`
	Deleted    bool   `json:"-"`
}

// Contains reports whether the given product revision was a member of this
// container snapshot. Membership is checked against the snapshot's stored
// list, never against current membership.
func (c ContainerRevision) Contains(p Ref) bool {
	for _, ref := range c.Products {
		if ref == p {
			return true
		}
	}
	return false
}

// Contains reports whether the given container revision was a member of this
// point-of-sale snapshot.
func (p PointOfSaleRevision) Contains(c Ref) bool {
	for _, ref := range p.Containers {
		if ref == c {
			return true
		}
	}
	return false
}

// Options control revision resolution.
type Options struct {
	// AllowDeleted includes revisions whose parent entity was soft-deleted.
	// Needed when costing historical transactions.
	AllowDeleted bool
}

type Option func(*Options)

// AllowDeleted resolves revisions of soft-deleted entities as well.
func AllowDeleted() Option {
	return func(o *Options) { o.AllowDeleted = true }
}

// Collect folds options into a resolved Options value for implementations.
func Collect(opts ...Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Catalog resolves (id, revision) pairs to immutable snapshots.
type Catalog interface {
	Product(ctx context.Context, ref Ref, opts ...Option) (ProductRevision, error)
	Container(ctx context.Context, ref Ref, opts ...Option) (ContainerRevision, error)
	PointOfSale(ctx context.Context, ref Ref, opts ...Option) (PointOfSaleRevision, error)
}
