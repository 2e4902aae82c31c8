package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"staymarket/internal/app/commands"
	"staymarket/internal/app/middleware"
	"staymarket/internal/app/outbox"
	"staymarket/internal/app/policies"
	"staymarket/internal/app/uow"
	domainbooking "staymarket/internal/domain/booking"
	domainlistings "staymarket/internal/domain/listings"
)

const cancelBookingKey = "booking.cancel"

type CancelBookingCommand struct {
	BookingID       string
	RequestedBy     string
	Reason          string
	IdempotencyKeyV string
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

func (c CancelBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CancelBookingCommand) ResultPrototype() any { return &CancelBookingResult{} }

type CancelBookingResult struct {
	BookingID string        `json:"booking_id"`
	Status    string        `json:"status"`
	Refund    RefundOutcome `json:"refund"`
}

type CancelBookingHandler struct {
	Gateway        policies.PaymentGateway
	GatewayTimeout time.Duration
	Notifier       policies.Notifier
	Outbox         outbox.Outbox
	Encoder        outbox.EventEncoder
	Logger         *slog.Logger
	Now            func() time.Time
}

// Handle cancels a pending or confirmed booking on behalf of the guest, or
// a confirmed one on behalf of the host (pending requests take the decline
// path). The refund amount follows the tiered policy computed from the
// cancellation instant; the refund is applied at most once. When the
// gateway rejects the refund, the cancellation still commits and the
// payment is flagged for manual reconciliation, with the failure surfaced
// in the result.
func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*CancelBookingResult, error) {
	requester := strings.TrimSpace(cmd.RequestedBy)
	if requester == "" {
		return nil, errors.New("requester id is required")
	}
	bookingID := strings.TrimSpace(cmd.BookingID)
	if bookingID == "" {
		return nil, errors.New("booking id is required")
	}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	booking, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(bookingID))
	if err != nil {
		return nil, err
	}
	if booking.GuestID != requester && booking.HostID != domainlistings.HostID(requester) {
		return nil, ErrPermissionDenied
	}
	// A pending request the host no longer wants goes through the decline
	// path, which always refunds in full. Host cancellation only applies to
	// confirmed stays.
	if requester != booking.GuestID && booking.Status == domainbooking.StatusPending {
		return nil, ErrHostMustDecline
	}

	now := handlerNow(h.Now)
	if err := booking.Cancel(requester, cmd.Reason, now); err != nil {
		return nil, err
	}

	pay, err := paymentForBooking(ctx, unit, booking)
	if err != nil {
		return nil, err
	}
	quote := domainbooking.ComputeRefund(booking.Price.Total, booking.Range.CheckIn, now)
	outcome, err := settleRefund(ctx, unit, h.Gateway, h.gatewayTimeout(), booking, pay, quote, now)
	if err != nil {
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

	if h.Logger != nil {
		h.Logger.Info("booking cancelled",
			"booking_id", booking.ID, "cancelled_by", requester,
			"refund_percent", outcome.Percent, "reconciliation", outcome.PendingReconciliation)
	}
	h.notifyParties(ctx, booking, requester, outcome)

	return &CancelBookingResult{
		BookingID: string(booking.ID),
		Status:    string(booking.Status),
		Refund:    outcome,
	}, nil
}

func (h *CancelBookingHandler) notifyParties(ctx context.Context, b *domainbooking.Booking, requester string, outcome RefundOutcome) {
	if h.Notifier == nil {
		return
	}
	body := fmt.Sprintf("Booking %s was cancelled. A refund of %s (%d%%) applies: %s",
		b.ID, outcome.amountString(), outcome.Percent, outcome.Reason)
	if requester != b.GuestID {
		_ = h.Notifier.Notify(ctx, policies.Notification{UserID: b.GuestID, Subject: "Booking cancelled", Body: body})
	}
	if requester != string(b.HostID) {
		_ = h.Notifier.Notify(ctx, policies.Notification{UserID: string(b.HostID), Subject: "Booking cancelled", Body: body})
	}
}

func (h *CancelBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *CancelBookingHandler) gatewayTimeout() time.Duration {
	if h.GatewayTimeout > 0 {
		return h.GatewayTimeout
	}
	return defaultGatewayTimeout
}

var _ commands.Handler[CancelBookingCommand, *CancelBookingResult] = (*CancelBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*CancelBookingCommand)(nil)
