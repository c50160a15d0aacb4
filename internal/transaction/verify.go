package transaction

import (
	"context"
	"errors"

	"sudosos.org/internal/catalog"
	"sudosos.org/internal/money"
	"sudosos.org/internal/user"
)

// Reason explains why verification rejected a request.
type Reason string

const (
	ReasonMissingField              Reason = "missing required field"
	ReasonInvalidAmount             Reason = "amount must be a positive integer"
	ReasonPriceMismatch             Reason = "declared total does not match computed total"
	ReasonProductNotInContainer     Reason = "product is not in the container revision"
	ReasonContainerNotInPointOfSale Reason = "container is not in the point-of-sale revision"
	ReasonUnknownProduct            Reason = "product revision not found"
	ReasonUnknownContainer          Reason = "container revision not found"
	ReasonUnknownPointOfSale        Reason = "point-of-sale revision not found"
	ReasonUnknownUser               Reason = "user not found"
	ReasonInactiveUser              Reason = "user is not active"
	ReasonTosNotAccepted            Reason = "user has not accepted the terms of service"
	ReasonOrganPayer                Reason = "organ accounts cannot be the paying user"
	ReasonInsufficientBalance       Reason = "insufficient balance"
)

// Result is the outcome of a verification layer: accepted, or rejected with
// a reason. Verification never has partial-success state; the first failing
// check wins.
type Result struct {
	reason Reason
	ok     bool
}

func Accepted() Result         { return Result{ok: true} }
func Rejected(r Reason) Result { return Result{reason: r} }

func (r Result) Ok() bool       { return r.ok }
func (r Result) Reason() Reason { return r.reason }

// BalanceReader is the current-balance view the verifier consults for the
// sufficiency check.
type BalanceReader interface {
	Balance(ctx context.Context, userID int) (money.Money, error)
}

// Verifier validates proposed transactions against the catalog and the user
// directory. It is read-only; it performs no writes.
type Verifier struct {
	catalog  catalog.Catalog
	users    user.Directory
	balances BalanceReader
}

func NewVerifier(cat catalog.Catalog, users user.Directory, balances BalanceReader) *Verifier {
	return &Verifier{catalog: cat, users: users, balances: balances}
}

// Verify runs the full three-layer validation. isUpdate relaxes the checks
// that only apply to fresh transactions (user activity, ToS, deleted
// products), since an update replays references pinned in the past.
func (v *Verifier) Verify(ctx context.Context, req Request, isUpdate bool) (Result, error) {
	if req.From == 0 || req.CreatedBy == 0 || req.PointOfSale == nil ||
		req.TotalPriceInclVat == nil || len(req.SubTransactions) == 0 {
		return Rejected(ReasonMissingField), nil
	}

	users, err := v.users.Users(ctx, []int{req.From, req.CreatedBy})
	if err != nil {
		return Result{}, err
	}
	from, ok := users[req.From]
	if !ok {
		return Rejected(ReasonUnknownUser), nil
	}
	createdBy, ok := users[req.CreatedBy]
	if !ok {
		return Rejected(ReasonUnknownUser), nil
	}
	if !isUpdate {
		if !from.Active || !createdBy.Active {
			return Rejected(ReasonInactiveUser), nil
		}
		if from.AcceptedToS == user.TosNotAccepted || createdBy.AcceptedToS == user.TosNotAccepted {
			return Rejected(ReasonTosNotAccepted), nil
		}
	}
	if from.Type == user.TypeOrgan {
		return Rejected(ReasonOrganPayer), nil
	}

	pos, err := v.catalog.PointOfSale(ctx, *req.PointOfSale)
	if errors.Is(err, catalog.ErrNotFound) {
		return Rejected(ReasonUnknownPointOfSale), nil
	}
	if err != nil {
		return Result{}, err
	}

	total := money.Zero()
	for _, sub := range req.SubTransactions {
		res, cost, err := v.verifySub(ctx, sub, pos, isUpdate)
		if err != nil || !res.Ok() {
			return res, err
		}
		if total, err = total.Add(cost); err != nil {
			return Result{}, err
		}
	}
	if !req.TotalPriceInclVat.Equals(total) {
		return Rejected(ReasonPriceMismatch), nil
	}
	return Accepted(), nil
}

// verifySub validates one sub-transaction and returns its computed cost.
func (v *Verifier) verifySub(ctx context.Context, sub SubRequest, pos catalog.PointOfSaleRevision, isUpdate bool) (Result, money.Money, error) {
	if sub.To == 0 || sub.Container == nil || sub.TotalPriceInclVat == nil || len(sub.Rows) == 0 {
		return Rejected(ReasonMissingField), money.Money{}, nil
	}
	if !pos.Contains(*sub.Container) {
		return Rejected(ReasonContainerNotInPointOfSale), money.Money{}, nil
	}

	var opts []catalog.Option
	if isUpdate {
		opts = append(opts, catalog.AllowDeleted())
	}
	container, err := v.catalog.Container(ctx, *sub.Container, opts...)
	if errors.Is(err, catalog.ErrNotFound) {
		return Rejected(ReasonUnknownContainer), money.Money{}, nil
	}
	if err != nil {
		return Result{}, money.Money{}, err
	}

	to, err := v.users.User(ctx, sub.To)
	if errors.Is(err, user.ErrNotFound) {
		return Rejected(ReasonUnknownUser), money.Money{}, nil
	}
	if err != nil {
		return Result{}, money.Money{}, err
	}
	if !isUpdate && !to.Active {
		return Rejected(ReasonInactiveUser), money.Money{}, nil
	}

	total := money.Zero()
	for _, row := range sub.Rows {
		res, cost, err := v.verifyRow(ctx, row, container, isUpdate)
		if err != nil || !res.Ok() {
			return res, money.Money{}, err
		}
		if total, err = total.Add(cost); err != nil {
			return Result{}, money.Money{}, err
		}
	}
	if !sub.TotalPriceInclVat.Equals(total) {
		return Rejected(ReasonPriceMismatch), money.Money{}, nil
	}
	return Accepted(), total, nil
}

// verifyRow validates one row against the container snapshot it claims to be
// sold from, and returns its computed cost.
func (v *Verifier) verifyRow(ctx context.Context, row RowRequest, container catalog.ContainerRevision, isUpdate bool) (Result, money.Money, error) {
	if row.Product == nil || row.TotalPriceInclVat == nil {
		return Rejected(ReasonMissingField), money.Money{}, nil
	}
	if row.Amount <= 0 {
		return Rejected(ReasonInvalidAmount), money.Money{}, nil
	}
	if !container.Contains(*row.Product) {
		return Rejected(ReasonProductNotInContainer), money.Money{}, nil
	}

	var opts []catalog.Option
	if isUpdate {
		opts = append(opts, catalog.AllowDeleted())
	}
	prod, err := v.catalog.Product(ctx, *row.Product, opts...)
	if errors.Is(err, catalog.ErrNotFound) {
		return Rejected(ReasonUnknownProduct), money.Money{}, nil
	}
	if err != nil {
		return Result{}, money.Money{}, err
	}

	cost := prod.PriceInclVat.Times(int64(row.Amount))
	if !row.TotalPriceInclVat.Equals(cost) {
		return Rejected(ReasonPriceMismatch), money.Money{}, nil
	}
	return Accepted(), cost, nil
}

// VerifyBalance checks that the payer can afford the request. It is a
// separate concern from structural validity and only constrains users who
// cannot go into debt.
func (v *Verifier) VerifyBalance(ctx context.Context, req Request) (Result, error) {
	from, err := v.users.User(ctx, req.From)
	if errors.Is(err, user.ErrNotFound) {
		return Rejected(ReasonUnknownUser), nil
	}
	if err != nil {
		return Result{}, err
	}
	if from.CanGoIntoDebt() {
		return Accepted(), nil
	}

	cost, err := TotalCost(ctx, v.catalog, req.Lines())
	if err != nil {
		return Result{}, err
	}
	balance, err := v.balances.Balance(ctx, req.From)
	if err != nil {
		return Result{}, err
	}
	if balance.Amount < cost.Amount {
		return Rejected(ReasonInsufficientBalance), nil
	}
	return Accepted(), nil
}
