package payments

import (
	"context"
	"errors"
	"strings"

	"staymarket/internal/app/dto"
	handlersupport "staymarket/internal/app/handlers/support"
	"staymarket/internal/app/queries"
	"staymarket/internal/app/uow"
	domainbooking "staymarket/internal/domain/booking"
	domainlistings "staymarket/internal/domain/listings"
)

const getBookingPaymentKey = "payments.booking.get"

var ErrPermissionDenied = errors.New("payments: requester is not a party to this booking")

type GetBookingPaymentQuery struct {
	BookingID   string
	RequestedBy string
}

func (q GetBookingPaymentQuery) Key() string { return getBookingPaymentKey }

type GetBookingPaymentHandler struct {
	UoWFactory uow.UoWFactory
}

// Handle returns the payment attached to a booking. Only the guest or the
// host of the booking may see it.
func (h *GetBookingPaymentHandler) Handle(ctx context.Context, q GetBookingPaymentQuery) (dto.PaymentDTO, error) {
	requester := strings.TrimSpace(q.RequestedBy)
	if requester == "" {
		return dto.PaymentDTO{}, errors.New("requester id is required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.PaymentDTO{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	booking, err := unit.Bookings().ByID(execCtx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return dto.PaymentDTO{}, err
	}
	if booking.GuestID != requester && booking.HostID != domainlistings.HostID(requester) {
		return dto.PaymentDTO{}, ErrPermissionDenied
	}

	pay, err := unit.Payments().ByBooking(execCtx, booking.ID)
	if err != nil {
		return dto.PaymentDTO{}, err
	}
	return dto.MapPayment(pay), nil
}

var _ queries.Handler[GetBookingPaymentQuery, dto.PaymentDTO] = (*GetBookingPaymentHandler)(nil)
