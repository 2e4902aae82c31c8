package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"staymarket/internal/app/commands"
	"staymarket/internal/app/outbox"
	"staymarket/internal/app/uow"
	domainbooking "staymarket/internal/domain/booking"
	domainlistings "staymarket/internal/domain/listings"
)

const completeBookingKey = "booking.complete"

type CompleteBookingCommand struct {
	BookingID   string
	RequestedBy string
}

func (c CompleteBookingCommand) Key() string { return completeBookingKey }

type CompleteBookingResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

type CompleteBookingHandler struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
	Now     func() time.Time
}

// Handle marks a confirmed stay as completed once checkout has passed.
// Either party may trigger it; nothing schedules this automatically.
func (h *CompleteBookingHandler) Handle(ctx context.Context, cmd CompleteBookingCommand) (*CompleteBookingResult, error) {
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

	now := handlerNow(h.Now)
	if err := booking.Complete(now); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, booking); err != nil {
		return nil, err
	}

	pending := booking.PendingEvents()
	booking.ClearEvents()
	encoder := h.Encoder
	if encoder == nil {
		encoder = outbox.JSONEventEncoder{}
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, encoder, pending); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("booking completed", "booking_id", booking.ID, "requested_by", requester)
	}

	return &CompleteBookingResult{BookingID: string(booking.ID), Status: string(booking.Status)}, nil
}

var _ commands.Handler[CompleteBookingCommand, *CompleteBookingResult] = (*CompleteBookingHandler)(nil)
