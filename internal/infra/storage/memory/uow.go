package memory

import (
	"context"
	"errors"

	"staymarket/internal/app/uow"
	domainauth "staymarket/internal/domain/auth"
	domainbooking "staymarket/internal/domain/booking"
	domainlistings "staymarket/internal/domain/listings"
	domainpayment "staymarket/internal/domain/payment"
	domainuser "staymarket/internal/domain/user"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	ListingsRepo domainlistings.Repository
	BookingRepo  domainbooking.Repository
	PaymentRepo  domainpayment.Repository
	UserRepo     domainuser.Repository
	Sessions     domainauth.SessionStore
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin starts a lightweight transaction boundary. No isolation is provided
// but the abstraction matches the application ports; the booking repository's
// save-time overlap check stands in for transactional availability.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.ListingsRepo == nil || f.BookingRepo == nil || f.PaymentRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		listings: f.ListingsRepo,
		bookings: f.BookingRepo,
		payments: f.PaymentRepo,
		users:    f.UserRepo,
		sessions: f.Sessions,
	}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	listings domainlistings.Repository
	bookings domainbooking.Repository
	payments domainpayment.Repository
	users    domainuser.Repository
	sessions domainauth.SessionStore
}

func (u *Unit) Listings() domainlistings.Repository { return u.listings }

func (u *Unit) Bookings() domainbooking.Repository { return u.bookings }

func (u *Unit) Payments() domainpayment.Repository { return u.payments }

func (u *Unit) Users() domainuser.Repository { return u.users }

func (u *Unit) Sessions() domainauth.SessionStore { return u.sessions }

func (u *Unit) Commit(ctx context.Context) error { return nil }

func (u *Unit) Rollback(ctx context.Context) error { return nil }
