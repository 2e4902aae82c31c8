package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"staymarket/internal/domain/listings"
	"staymarket/internal/domain/shared/daterange"
	"staymarket/internal/domain/shared/events"
)

var (
	ErrInvalidGuests      = errors.New("booking: guests count must be positive")
	ErrGuestRequired      = errors.New("booking: guest id required")
	ErrInvalidTransition  = errors.New("booking: invalid state transition")
	ErrCheckInInPast      = errors.New("booking: check-in date is in the past")
	ErrCheckInPassed      = errors.New("booking: check-in date has already passed")
	ErrCheckOutNotReached = errors.New("booking: stay has not ended yet")
	ErrNotFound           = errors.New("booking: not found")
	ErrDateRangeConflict  = errors.New("booking: date range conflicts with an existing booking")
)

type BookingID string

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusDeclined  Status = "declined"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Terminal reports whether no further status change is permitted.
func (s Status) Terminal() bool {
	switch s {
	case StatusDeclined, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Occupying reports whether the status holds its date range against new
// reservations. Everything except cancelled and declined blocks; pending
// requests hold the slot until the host responds.
func (s Status) Occupying() bool {
	return s != StatusCancelled && s != StatusDeclined
}

// PaymentStatus mirrors the linked payment's outcome on the booking itself
// so list views do not need a join.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Booking is a reservation agreement for a listing over a half-open date
// interval. Price components are snapshotted at creation time.
type Booking struct {
	ID            BookingID
	ListingID     listings.ListingID
	GuestID       string
	HostID        listings.HostID
	Range         daterange.DateRange
	Guests        int
	Price         Breakdown
	Status        Status
	PaymentStatus PaymentStatus
	PaymentID     string

	CancelledAt        *time.Time
	CancelledBy        string
	CancellationReason string

	RespondedAt *time.Time
	HostMessage string

	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
	events.EventRecorder
}

// Nights returns the stay length derived from the date range.
func (b *Booking) Nights() int { return b.Range.Nights() }

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	// Save persists the aggregate. For new pending bookings implementations
	// must enforce the no-overlap constraint and return ErrDateRangeConflict
	// when another occupying booking holds an intersecting range.
	Save(ctx context.Context, booking *Booking) error
	ListByGuest(ctx context.Context, guestID string) ([]*Booking, error)
	ListByListing(ctx context.Context, listingID listings.ListingID) ([]*Booking, error)
	// ListOccupying returns occupying bookings of the listing whose ranges
	// intersect dr.
	ListOccupying(ctx context.Context, listingID listings.ListingID, dr daterange.DateRange) ([]*Booking, error)
}

type CreateParams struct {
	ID        BookingID
	ListingID listings.ListingID
	GuestID   string
	HostID    listings.HostID
	Range     daterange.DateRange
	Guests    int
	Price     Breakdown
	CreatedAt time.Time
}

// NewBooking creates a pending reservation request. Date-range ordering is
// validated by daterange.New; past check-in is rejected here.
func NewBooking(params CreateParams) (*Booking, error) {
	if params.Guests <= 0 {
		return nil, ErrInvalidGuests
	}
	if strings.TrimSpace(params.GuestID) == "" {
		return nil, ErrGuestRequired
	}
	now := params.CreatedAt.UTC()
	if err := ValidateCheckIn(params.Range, now); err != nil {
		return nil, err
	}
	if err := params.Price.Validate(); err != nil {
		return nil, err
	}
	b := &Booking{
		ID:            params.ID,
		ListingID:     params.ListingID,
		GuestID:       params.GuestID,
		HostID:        params.HostID,
		Range:         params.Range,
		Guests:        params.Guests,
		Price:         params.Price,
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	b.Record(BookingRequested{BookingID: b.ID, ListingID: b.ListingID, GuestID: b.GuestID, Range: b.Range, Guests: b.Guests, Total: b.Price.Total, At: now})
	return b, nil
}

// ValidateCheckIn rejects check-in days before today (UTC, day granularity).
func ValidateCheckIn(dr daterange.DateRange, now time.Time) error {
	if dr.CheckIn.Before(daterange.Midnight(now)) {
		return ErrCheckInInPast
	}
	return nil
}

// AttachPayment links the charge outcome to the booking.
func (b *Booking) AttachPayment(paymentID string, status PaymentStatus, now time.Time) {
	b.PaymentID = paymentID
	b.PaymentStatus = status
	b.UpdatedAt = now.UTC()
}

// Confirm moves a pending request to confirmed; only the host may drive
// this, which callers enforce.
func (b *Booking) Confirm(hostMessage string, now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidTransition
	}
	at := now.UTC()
	b.Status = StatusConfirmed
	b.HostMessage = strings.TrimSpace(hostMessage)
	b.RespondedAt = &at
	b.UpdatedAt = at
	b.Record(BookingConfirmed{BookingID: b.ID, ListingID: b.ListingID, Range: b.Range, Total: b.Price.Total, At: at})
	return nil
}

// Decline rejects a pending request. The caller runs the full-refund path
// when a successful payment is linked.
func (b *Booking) Decline(hostMessage string, now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidTransition
	}
	at := now.UTC()
	b.Status = StatusDeclined
	b.HostMessage = strings.TrimSpace(hostMessage)
	b.RespondedAt = &at
	b.UpdatedAt = at
	b.Record(BookingDeclined{BookingID: b.ID, ListingID: b.ListingID, At: at})
	return nil
}

// Cancel withdraws a pending request or cancels a confirmed stay. Rejected
// once check-in has passed; the refund itself is the caller's concern.
func (b *Booking) Cancel(cancelledBy, reason string, now time.Time) error {
	switch b.Status {
	case StatusPending, StatusConfirmed:
	default:
		return ErrInvalidTransition
	}
	at := now.UTC()
	if !b.Range.CheckIn.After(at) {
		return ErrCheckInPassed
	}
	b.Status = StatusCancelled
	b.CancelledAt = &at
	b.CancelledBy = cancelledBy
	b.CancellationReason = strings.TrimSpace(reason)
	b.UpdatedAt = at
	b.Record(BookingCancelled{BookingID: b.ID, ListingID: b.ListingID, CancelledBy: cancelledBy, Reason: b.CancellationReason, At: at})
	return nil
}

// Complete marks a confirmed stay as finished once checkout has passed.
// Nothing schedules this; it is an administrative/derived transition.
func (b *Booking) Complete(now time.Time) error {
	if b.Status != StatusConfirmed {
		return ErrInvalidTransition
	}
	at := now.UTC()
	if b.Range.CheckOut.After(at) {
		return ErrCheckOutNotReached
	}
	b.Status = StatusCompleted
	b.UpdatedAt = at
	b.Record(BookingCompleted{BookingID: b.ID, ListingID: b.ListingID, At: at})
	return nil
}

// MarkRefunded records the refund outcome on the booking side.
func (b *Booking) MarkRefunded(now time.Time) {
	b.PaymentStatus = PaymentRefunded
	b.UpdatedAt = now.UTC()
}
