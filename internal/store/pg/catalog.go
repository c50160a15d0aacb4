package pg

import (
	"context"
	"database/sql"
	"errors"

	"sudosos.org/internal/catalog"
	"sudosos.org/internal/money"
)

var _ catalog.Catalog = (*Store)(nil)

type productRow struct {
	ProductID    int     `db:"product_id"`
	Revision     int     `db:"revision"`
	Name         string  `db:"name"`
	PriceInclVat int64   `db:"price_incl_vat"`
	VatID        int     `db:"vat_id"`
	VatPct       float64 `db:"vat_percentage"`
	CategoryID   int     `db:"category_id"`
	CategoryName string  `db:"category_name"`
	Deleted      bool    `db:"deleted"`
}

func (s *Store) Product(ctx context.Context, ref catalog.Ref, opts ...catalog.Option) (catalog.ProductRevision, error) {
	o := catalog.Collect(opts...)
	var row productRow
	err := s.db.GetContext(ctx, &row, `
		select pr.product_id, pr.revision, pr.name, pr.price_incl_vat,
		       v.id as vat_id, v.percentage as vat_percentage,
		       c.id as category_id, c.name as category_name,
		       p.deleted
		from product_revisions pr
		join products p on p.id = pr.product_id
		join vat_rates v on v.id = pr.vat_id
		join categories c on c.id = pr.category_id
		where pr.product_id = $1 and pr.revision = $2
	`, ref.ID, ref.Revision)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.ProductRevision{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.ProductRevision{}, err
	}
	if row.Deleted && !o.AllowDeleted {
		return catalog.ProductRevision{}, catalog.ErrNotFound
	}
	return catalog.ProductRevision{
		Ref:          catalog.Ref{ID: row.ProductID, Revision: row.Revision},
		Name:         row.Name,
		PriceInclVat: money.New(row.PriceInclVat),
		Vat:          catalog.VatRate{ID: row.VatID, Percentage: row.VatPct},
		Category:     catalog.Category{ID: row.CategoryID, Name: row.CategoryName},
		Deleted:      row.Deleted,
	}, nil
}

func (s *Store) Container(ctx context.Context, ref catalog.Ref, opts ...catalog.Option) (catalog.ContainerRevision, error) {
	o := catalog.Collect(opts...)
	var head struct {
		Name    string `db:"name"`
		Deleted bool   `db:"deleted"`
	}
	err := s.db.GetContext(ctx, &head, `
		select cr.name, c.deleted
		from container_revisions cr
		join containers c on c.id = cr.container_id
		where cr.container_id = $1 and cr.revision = $2
	`, ref.ID, ref.Revision)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.ContainerRevision{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.ContainerRevision{}, err
	}
	if head.Deleted && !o.AllowDeleted {
		return catalog.ContainerRevision{}, catalog.ErrNotFound
	}

	var members []catalog.Ref
	err = s.db.SelectContext(ctx, &members, `
		select product_id as id, product_revision as revision
		from container_products
		where container_id = $1 and container_revision = $2
		order by product_id
	`, ref.ID, ref.Revision)
	if err != nil {
		return catalog.ContainerRevision{}, err
	}
	return catalog.ContainerRevision{
		Ref:      ref,
		Name:     head.Name,
		Products: members,
		Deleted:  head.Deleted,
	}, nil
}

func (s *Store) PointOfSale(ctx context.Context, ref catalog.Ref, opts ...catalog.Option) (catalog.PointOfSaleRevision, error) {
	o := catalog.Collect(opts...)
	var head struct {
		Name    string `db:"name"`
		Deleted bool   `db:"deleted"`
	}
	err := s.db.GetContext(ctx, &head, `
		select pr.name, p.deleted
		from pos_revisions pr
		join points_of_sale p on p.id = pr.pos_id
		where pr.pos_id = $1 and pr.revision = $2
	`, ref.ID, ref.Revision)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.PointOfSaleRevision{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.PointOfSaleRevision{}, err
	}
	if head.Deleted && !o.AllowDeleted {
		return catalog.PointOfSaleRevision{}, catalog.ErrNotFound
	}

	var members []catalog.Ref
	err = s.db.SelectContext(ctx, &members, `
		select container_id as id, container_revision as revision
		from pos_containers
		where pos_id = $1 and pos_revision = $2
		order by container_id
	`, ref.ID, ref.Revision)
	if err != nil {
		return catalog.PointOfSaleRevision{}, err
	}
	return catalog.PointOfSaleRevision{
		Ref:        ref,
		Name:       head.Name,
		Containers: members,
		Deleted:    head.Deleted,
	}, nil
}
