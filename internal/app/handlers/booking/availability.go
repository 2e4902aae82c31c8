package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	handlersupport "staymarket/internal/app/handlers/support"
	"staymarket/internal/app/queries"
	"staymarket/internal/app/uow"
	domainlistings "staymarket/internal/domain/listings"
	domainrange "staymarket/internal/domain/shared/daterange"
)

const (
	checkAvailabilityKey = "listing.availability.check"
	listingCalendarKey   = "listing.availability.calendar"
)

type CheckAvailabilityQuery struct {
	ListingID string
	CheckIn   time.Time
	CheckOut  time.Time
}

func (q CheckAvailabilityQuery) Key() string { return checkAvailabilityKey }

type CheckAvailabilityResult struct {
	Available bool      `json:"available"`
	Conflicts int       `json:"conflicts"`
	CheckIn   time.Time `json:"check_in"`
	CheckOut  time.Time `json:"check_out"`
	Nights    int       `json:"nights"`
}

type CheckAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
}

// Handle answers the advisory availability question. The result can go
// stale immediately; booking creation re-checks under the creation guard.
func (h *CheckAvailabilityHandler) Handle(ctx context.Context, q CheckAvailabilityQuery) (CheckAvailabilityResult, error) {
	dr, err := domainrange.New(q.CheckIn, q.CheckOut)
	if err != nil {
		return CheckAvailabilityResult{}, err
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return CheckAvailabilityResult{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	if _, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(q.ListingID)); err != nil {
		return CheckAvailabilityResult{}, err
	}
	occupying, err := unit.Bookings().ListOccupying(execCtx, domainlistings.ListingID(q.ListingID), dr)
	if err != nil {
		return CheckAvailabilityResult{}, err
	}
	return CheckAvailabilityResult{
		Available: len(occupying) == 0,
		Conflicts: len(occupying),
		CheckIn:   dr.CheckIn,
		CheckOut:  dr.CheckOut,
		Nights:    dr.Nights(),
	}, nil
}

type ListingCalendarQuery struct {
	ListingID string
	From      time.Time
	To        time.Time
}

func (q ListingCalendarQuery) Key() string { return listingCalendarKey }

type CalendarEntry struct {
	BookingID string    `json:"booking_id"`
	CheckIn   time.Time `json:"check_in"`
	CheckOut  time.Time `json:"check_out"`
	Status    string    `json:"status"`
}

type ListingCalendarResult struct {
	ListingID string          `json:"listing_id"`
	Entries   []CalendarEntry `json:"entries"`
}

type ListingCalendarHandler struct {
	UoWFactory uow.UoWFactory
}

// Handle lists the occupied spans of a listing inside a window, for hosts
// rendering their calendar.
func (h *ListingCalendarHandler) Handle(ctx context.Context, q ListingCalendarQuery) (ListingCalendarResult, error) {
	if strings.TrimSpace(q.ListingID) == "" {
		return ListingCalendarResult{}, errors.New("listing id is required")
	}
	dr, err := domainrange.New(q.From, q.To)
	if err != nil {
		return ListingCalendarResult{}, err
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return ListingCalendarResult{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	occupying, err := unit.Bookings().ListOccupying(execCtx, domainlistings.ListingID(q.ListingID), dr)
	if err != nil {
		return ListingCalendarResult{}, err
	}
	entries := make([]CalendarEntry, 0, len(occupying))
	for _, b := range occupying {
		entries = append(entries, CalendarEntry{
			BookingID: string(b.ID),
			CheckIn:   b.Range.CheckIn,
			CheckOut:  b.Range.CheckOut,
			Status:    string(b.Status),
		})
	}
	return ListingCalendarResult{ListingID: q.ListingID, Entries: entries}, nil
}

var _ queries.Handler[CheckAvailabilityQuery, CheckAvailabilityResult] = (*CheckAvailabilityHandler)(nil)
var _ queries.Handler[ListingCalendarQuery, ListingCalendarResult] = (*ListingCalendarHandler)(nil)
