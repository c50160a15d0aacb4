package user

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("user not found")

type Type string

const (
	TypeMember      Type = "member"
	TypeOrgan       Type = "organ"
	TypeVoucher     Type = "voucher"
	TypeInvoice     Type = "invoice"
	TypePointOfSale Type = "pointOfSale"
)

// TosStatus is the terms-of-service acceptance gate. Users who have not
// accepted may not transact as payer or creator.
type TosStatus string

const (
	TosAccepted    TosStatus = "accepted"
	TosNotAccepted TosStatus = "notAccepted"
	TosNotRequired TosStatus = "notRequired"
)

type User struct {
	ID          int       `json:"id"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName,omitempty"`
	Active      bool      `json:"active"`
	Deleted     bool      `json:"-"`
	Type        Type      `json:"type"`
	AcceptedToS TosStatus `json:"acceptedToS"`
}

// CanGoIntoDebt reports whether a negative balance is tolerated for this
// user. Invoice and organ accounts settle out of band; members may not
// spend below zero.
func (u User) CanGoIntoDebt() bool {
	return u.Type == TypeInvoice || u.Type == TypeOrgan
}

// Directory looks up users by id. Implementations exclude deleted users.
type Directory interface {
	User(ctx context.Context, id int) (User, error)
	Users(ctx context.Context, ids []int) (map[int]User, error)
}
