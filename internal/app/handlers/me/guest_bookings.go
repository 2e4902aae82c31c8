package me

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"staymarket/internal/app/dto"
	handlersupport "staymarket/internal/app/handlers/support"
	"staymarket/internal/app/queries"
	"staymarket/internal/app/uow"
	domainbooking "staymarket/internal/domain/booking"
	domainlistings "staymarket/internal/domain/listings"
)

const listGuestBookingsKey = "me.bookings.list"

type ListGuestBookingsQuery struct {
	GuestID string
}

func (q ListGuestBookingsQuery) Key() string { return listGuestBookingsKey }

type ListGuestBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
	Now        func() time.Time
}

// Handle returns the guest's bookings grouped the way trip pages show them:
// pending requests, upcoming confirmed stays, past stays, and cancellations
// (including declines).
func (h *ListGuestBookingsHandler) Handle(ctx context.Context, q ListGuestBookingsQuery) (dto.GuestBookingCollection, error) {
	guestID := strings.TrimSpace(q.GuestID)
	if guestID == "" {
		return dto.GuestBookingCollection{}, errors.New("guest id is required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.GuestBookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	bookings, err := unit.Bookings().ListByGuest(execCtx, guestID)
	if err != nil {
		return dto.GuestBookingCollection{}, err
	}
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].Range.CheckIn.Before(bookings[j].Range.CheckIn)
	})

	now := time.Now().UTC()
	if h.Now != nil {
		now = h.Now().UTC()
	}

	collection := dto.GuestBookingCollection{
		Upcoming:  make([]dto.GuestBookingSummary, 0),
		Pending:   make([]dto.GuestBookingSummary, 0),
		Past:      make([]dto.GuestBookingSummary, 0),
		Cancelled: make([]dto.GuestBookingSummary, 0),
	}
	for _, b := range bookings {
		var listing *domainlistings.Listing
		if l, err := unit.Listings().ByID(execCtx, b.ListingID); err == nil {
			listing = l
		}
		summary := dto.MapGuestBookingSummary(b, listing)
		switch {
		case b.Status == domainbooking.StatusCancelled || b.Status == domainbooking.StatusDeclined:
			collection.Cancelled = append(collection.Cancelled, summary)
		case b.Status == domainbooking.StatusPending:
			collection.Pending = append(collection.Pending, summary)
		case b.Status == domainbooking.StatusCompleted || !b.Range.CheckOut.After(now):
			collection.Past = append(collection.Past, summary)
		default:
			collection.Upcoming = append(collection.Upcoming, summary)
		}
	}

	if h.Logger != nil {
		h.Logger.Debug("guest bookings listed", "guest_id", guestID, "count", len(bookings))
	}

	return collection, nil
}

var _ queries.Handler[ListGuestBookingsQuery, dto.GuestBookingCollection] = (*ListGuestBookingsHandler)(nil)
