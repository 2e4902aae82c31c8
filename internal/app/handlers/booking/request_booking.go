package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"staymarket/internal/app/commands"
	"staymarket/internal/app/dto"
	"staymarket/internal/app/guard"
	"staymarket/internal/app/middleware"
	"staymarket/internal/app/outbox"
	"staymarket/internal/app/policies"
	"staymarket/internal/app/uow"
	domainbooking "staymarket/internal/domain/booking"
	domainlistings "staymarket/internal/domain/listings"
	domainpayment "staymarket/internal/domain/payment"
	domainrange "staymarket/internal/domain/shared/daterange"
)

const requestBookingKey = "booking.request"

// defaultGatewayTimeout bounds provider calls so a stalled gateway cannot
// hold the booking transaction open.
const defaultGatewayTimeout = 10 * time.Second

type RequestBookingCommand struct {
	CommandID       string
	ListingID       string
	GuestID         string
	CheckIn         time.Time
	CheckOut        time.Time
	Guests          int
	PaymentMethod   string
	PaymentDetails  map[string]string
	IdempotencyKeyV string
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestBookingCommand) ResultPrototype() any { return &RequestBookingResult{} }

type RequestBookingResult struct {
	BookingID     string                `json:"booking_id"`
	Status        string                `json:"status"`
	Price         dto.PriceBreakdownDTO `json:"price"`
	PaymentID     string                `json:"payment_id"`
	PaymentStatus string                `json:"payment_status"`
	PaymentError  string                `json:"payment_error,omitempty"`
}

type RequestBookingHandler struct {
	UoWFactory     uow.UoWFactory
	Guard          *guard.ListingGuard
	Gateway        policies.PaymentGateway
	GatewayTimeout time.Duration
	Notifier       policies.Notifier
	Outbox         outbox.Outbox
	Encoder        outbox.EventEncoder
	Now            func() time.Time
}

// Handle creates a pending reservation request and charges the guest. The
// availability check and the insert run under the per-listing guard inside
// one unit of work; the repository overlap constraint backstops the guard.
// A declined charge still records the booking with a failed payment so the
// guest can retry, but the host cannot confirm it.
func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*RequestBookingResult, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	dr, err := domainrange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, err
	}
	now := h.now()
	if err := domainbooking.ValidateCheckIn(dr, now); err != nil {
		return nil, err
	}

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	if listing.State != domainlistings.ListingActive {
		return nil, ErrListingNotBookable
	}
	if cmd.Guests > listing.GuestsLimit {
		return nil, ErrGuestsExceedLimit
	}

	if h.Guard != nil {
		h.Guard.Lock(cmd.ListingID)
		defer h.Guard.Unlock(cmd.ListingID)
	}

	available, err := domainbooking.CheckAvailability(ctx, unit.Bookings(), listing.ID, dr)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, ErrListingUnavailable
	}

	price, err := domainbooking.Quote(listing, dr)
	if err != nil {
		return nil, err
	}

	booking, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        domainbooking.BookingID(cmd.CommandID),
		ListingID: listing.ID,
		GuestID:   cmd.GuestID,
		HostID:    listing.Host,
		Range:     dr,
		Guests:    cmd.Guests,
		Price:     price,
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	if err := unit.Bookings().Save(ctx, booking); err != nil {
		if errors.Is(err, domainbooking.ErrDateRangeConflict) {
			return nil, ErrListingUnavailable
		}
		return nil, err
	}

	pay, err := domainpayment.New(domainpayment.CreateParams{
		ID:        domainpayment.PaymentID("pay-" + cmd.CommandID),
		BookingID: booking.ID,
		UserID:    cmd.GuestID,
		Amount:    price.Total,
		Method:    domainpayment.Method(cmd.PaymentMethod),
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}
	if err := pay.MarkProcessing(now); err != nil {
		return nil, err
	}

	chargeCtx, cancel := context.WithTimeout(ctx, h.gatewayTimeout())
	res, chargeErr := h.Gateway.Charge(chargeCtx, policies.ChargeRequest{
		BookingID: string(booking.ID),
		Method:    pay.Method,
		Amount:    pay.Amount,
		Details:   cmd.PaymentDetails,
	})
	cancel()

	result := &RequestBookingResult{
		BookingID: string(booking.ID),
		Status:    string(booking.Status),
		Price:     dto.MapPriceBreakdown(price),
		PaymentID: string(pay.ID),
	}
	switch {
	case chargeErr != nil:
		if err := pay.MarkFailed(now); err != nil {
			return nil, err
		}
		booking.AttachPayment(string(pay.ID), domainbooking.PaymentFailed, now)
		result.PaymentError = chargeErr.Error()
	case !res.Success:
		if err := pay.MarkFailed(now); err != nil {
			return nil, err
		}
		booking.AttachPayment(string(pay.ID), domainbooking.PaymentFailed, now)
		result.PaymentError = res.FailureReason
	default:
		if err := pay.MarkSucceeded(res.TransactionID, now); err != nil {
			return nil, err
		}
		booking.AttachPayment(string(pay.ID), domainbooking.PaymentPaid, now)
	}
	result.PaymentStatus = string(pay.Status)

	if err := unit.Payments().Save(ctx, pay); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, booking); err != nil {
		return nil, err
	}

	pending := booking.PendingEvents()
	booking.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	h.notifyHost(ctx, booking, listing)

	return result, nil
}

func (h *RequestBookingHandler) notifyHost(ctx context.Context, b *domainbooking.Booking, l *domainlistings.Listing) {
	if h.Notifier == nil {
		return
	}
	_ = h.Notifier.Notify(ctx, policies.Notification{
		UserID:  string(b.HostID),
		Subject: "New booking request",
		Body: fmt.Sprintf("You have a new booking request for %s from %s to %s.",
			l.Title, b.Range.CheckIn.Format("2006-01-02"), b.Range.CheckOut.Format("2006-01-02")),
	})
}

func (h *RequestBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *RequestBookingHandler) gatewayTimeout() time.Duration {
	if h.GatewayTimeout > 0 {
		return h.GatewayTimeout
	}
	return defaultGatewayTimeout
}

func (h *RequestBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[RequestBookingCommand, *RequestBookingResult] = (*RequestBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*RequestBookingCommand)(nil)
