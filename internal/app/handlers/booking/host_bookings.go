package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"staymarket/internal/app/commands"
	"staymarket/internal/app/dto"
	handlersupport "staymarket/internal/app/handlers/support"
	"staymarket/internal/app/outbox"
	"staymarket/internal/app/policies"
	"staymarket/internal/app/queries"
	"staymarket/internal/app/uow"
	domainbooking "staymarket/internal/domain/booking"
	domainlistings "staymarket/internal/domain/listings"
)

const (
	listHostBookingsKey    = "host.bookings.list"
	confirmHostBookingKey  = "host.bookings.confirm"
	declineHostBookingKey  = "host.bookings.decline"
	allStatusesFilterValue = "all"
)

type ListHostBookingsQuery struct {
	HostID string
	Status string
}

func (q ListHostBookingsQuery) Key() string { return listHostBookingsKey }

type ListHostBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListHostBookingsHandler) Handle(ctx context.Context, q ListHostBookingsQuery) (dto.HostBookingCollection, error) {
	hostID := strings.TrimSpace(q.HostID)
	if hostID == "" {
		return dto.HostBookingCollection{}, errors.New("host id is required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.HostBookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	hostListings, err := unit.Listings().ByHost(execCtx, domainlistings.HostID(hostID))
	if err != nil {
		return dto.HostBookingCollection{}, err
	}

	statusFilter := strings.ToLower(strings.TrimSpace(q.Status))
	if statusFilter == "" {
		statusFilter = string(domainbooking.StatusPending)
	}
	allStatuses := statusFilter == allStatusesFilterValue

	items := make([]dto.HostBookingSummary, 0)
	for _, listing := range hostListings {
		bookings, err := unit.Bookings().ListByListing(execCtx, listing.ID)
		if err != nil {
			return dto.HostBookingCollection{}, err
		}
		for _, booking := range bookings {
			if !allStatuses && string(booking.Status) != statusFilter {
				continue
			}
			items = append(items, dto.MapHostBookingSummary(booking, listing))
		}
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	if h.Logger != nil {
		h.Logger.Debug("host bookings listed", "host_id", hostID, "count", len(items), "status", statusFilter)
	}

	return dto.HostBookingCollection{Items: items}, nil
}

type ConfirmHostBookingCommand struct {
	HostID      string
	BookingID   string
	HostMessage string
}

func (c ConfirmHostBookingCommand) Key() string { return confirmHostBookingKey }

type DeclineHostBookingCommand struct {
	HostID    string
	BookingID string
	Reason    string
}

func (c DeclineHostBookingCommand) Key() string { return declineHostBookingKey }

type HostBookingActionResult struct {
	BookingID string         `json:"booking_id"`
	Status    string         `json:"status"`
	Refund    *RefundOutcome `json:"refund,omitempty"`
}

type ConfirmHostBookingHandler struct {
	Notifier policies.Notifier
	Logger   *slog.Logger
	Now      func() time.Time
}

// Handle confirms a pending request. Only the listing owner may confirm, and
// only once the guest's charge has settled.
func (h *ConfirmHostBookingHandler) Handle(ctx context.Context, cmd ConfirmHostBookingCommand) (*HostBookingActionResult, error) {
	hostID := strings.TrimSpace(cmd.HostID)
	if hostID == "" {
		return nil, errors.New("host id is required")
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
	listing, err := unit.Listings().ByID(ctx, booking.ListingID)
	if err != nil {
		return nil, err
	}
	if !listing.OwnedBy(domainlistings.HostID(hostID)) {
		return nil, ErrPermissionDenied
	}
	if booking.PaymentStatus != domainbooking.PaymentPaid {
		return nil, ErrPaymentNotSettled
	}

	now := handlerNow(h.Now)
	if err := booking.Confirm(cmd.HostMessage, now); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, booking); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("host booking confirmed", "booking_id", booking.ID, "host_id", hostID, "listing_id", booking.ListingID)
	}
	if h.Notifier != nil {
		_ = h.Notifier.Notify(ctx, policies.Notification{
			UserID:  booking.GuestID,
			Subject: "Booking confirmed",
			Body:    fmt.Sprintf("Your booking for %s has been confirmed by the host.", listing.Title),
		})
	}

	return &HostBookingActionResult{BookingID: string(booking.ID), Status: string(booking.Status)}, nil
}

type DeclineHostBookingHandler struct {
	Gateway        policies.PaymentGateway
	GatewayTimeout time.Duration
	Notifier       policies.Notifier
	Outbox         outbox.Outbox
	Encoder        outbox.EventEncoder
	Logger         *slog.Logger
	Now            func() time.Time
}

// Handle declines a pending request. A settled charge is refunded in full
// regardless of how close check-in is; a gateway failure flags the payment
// for reconciliation and still commits the decline.
func (h *DeclineHostBookingHandler) Handle(ctx context.Context, cmd DeclineHostBookingCommand) (*HostBookingActionResult, error) {
	hostID := strings.TrimSpace(cmd.HostID)
	if hostID == "" {
		return nil, errors.New("host id is required")
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
	listing, err := unit.Listings().ByID(ctx, booking.ListingID)
	if err != nil {
		return nil, err
	}
	if !listing.OwnedBy(domainlistings.HostID(hostID)) {
		return nil, ErrPermissionDenied
	}

	now := handlerNow(h.Now)
	if err := booking.Decline(cmd.Reason, now); err != nil {
		return nil, err
	}

	pay, err := paymentForBooking(ctx, unit, booking)
	if err != nil {
		return nil, err
	}
	quote := domainbooking.HostDeclineRefund(booking.Price.Total)
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
		h.Logger.Info("host booking declined",
			"booking_id", booking.ID, "host_id", hostID, "listing_id", booking.ListingID,
			"refund_percent", outcome.Percent, "reconciliation", outcome.PendingReconciliation)
	}
	if h.Notifier != nil {
		_ = h.Notifier.Notify(ctx, policies.Notification{
			UserID:  booking.GuestID,
			Subject: "Booking declined",
			Body: fmt.Sprintf("The host declined your request for %s. A refund of %s (%d%%) has been initiated.",
				listing.Title, outcome.amountString(), outcome.Percent),
		})
	}

	return &HostBookingActionResult{
		BookingID: string(booking.ID),
		Status:    string(booking.Status),
		Refund:    &outcome,
	}, nil
}

func (h *DeclineHostBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *DeclineHostBookingHandler) gatewayTimeout() time.Duration {
	if h.GatewayTimeout > 0 {
		return h.GatewayTimeout
	}
	return defaultGatewayTimeout
}

func handlerNow(now func() time.Time) time.Time {
	if now != nil {
		return now().UTC()
	}
	return time.Now().UTC()
}

var _ queries.Handler[ListHostBookingsQuery, dto.HostBookingCollection] = (*ListHostBookingsHandler)(nil)
var _ commands.Handler[ConfirmHostBookingCommand, *HostBookingActionResult] = (*ConfirmHostBookingHandler)(nil)
var _ commands.Handler[DeclineHostBookingCommand, *HostBookingActionResult] = (*DeclineHostBookingHandler)(nil)
