package listings

import (
	"context"
	"errors"
	"strings"
	"time"

	"staymarket/internal/domain/shared/events"
	"staymarket/internal/domain/shared/money"
)

var (
	ErrIDRequired    = errors.New("listings: id is required")
	ErrHostRequired  = errors.New("listings: host is required")
	ErrTitleRequired = errors.New("listings: title is required")
	ErrGuestsLimit   = errors.New("listings: guests limit must be at least 1")
	ErrNightlyRate   = errors.New("listings: nightly rate must be non-negative")
	ErrInvalidState  = errors.New("listings: invalid state transition")
	ErrNotFound      = errors.New("listings: not found")
)

type ListingID string
type HostID string

type ListingState string

const (
	ListingDraft     ListingState = "draft"
	ListingActive    ListingState = "active"
	ListingSuspended ListingState = "suspended"
)

// Listing is a rentable unit owned by a host. Rate changes never touch
// existing bookings; every booking snapshots its own price breakdown.
type Listing struct {
	ID          ListingID
	Host        HostID
	Title       string
	Description string
	City        string
	Country     string
	NightlyRate money.Money
	CleaningFee money.Money
	GuestsLimit int
	State       ListingState
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	ByHost(ctx context.Context, host HostID) ([]*Listing, error)
	Save(ctx context.Context, listing *Listing) error
}

type CreateParams struct {
	ID          ListingID
	Host        HostID
	Title       string
	Description string
	City        string
	Country     string
	NightlyRate money.Money
	CleaningFee money.Money
	GuestsLimit int
	Now         time.Time
}

func NewListing(params CreateParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.Host)) == "" {
		return nil, ErrHostRequired
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if params.GuestsLimit < 1 {
		return nil, ErrGuestsLimit
	}
	if params.NightlyRate.IsNegative() || params.CleaningFee.IsNegative() {
		return nil, ErrNightlyRate
	}
	now := params.Now.UTC()
	l := &Listing{
		ID:          params.ID,
		Host:        params.Host,
		Title:       strings.TrimSpace(params.Title),
		Description: strings.TrimSpace(params.Description),
		City:        strings.TrimSpace(params.City),
		Country:     strings.TrimSpace(params.Country),
		NightlyRate: params.NightlyRate,
		CleaningFee: params.CleaningFee,
		GuestsLimit: params.GuestsLimit,
		State:       ListingDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	l.Record(ListingCreatedEvent{ListingID: l.ID, HostID: l.Host, At: now})
	return l, nil
}

func (l *Listing) Activate(now time.Time) error {
	if l.State == ListingActive {
		return nil
	}
	if l.GuestsLimit < 1 {
		return ErrGuestsLimit
	}
	l.State = ListingActive
	l.UpdatedAt = now.UTC()
	l.Record(ListingActivatedEvent{ListingID: l.ID, HostID: l.Host, At: l.UpdatedAt})
	return nil
}

func (l *Listing) Suspend(reason string, now time.Time) error {
	if l.State != ListingActive {
		return ErrInvalidState
	}
	l.State = ListingSuspended
	l.UpdatedAt = now.UTC()
	l.Record(ListingSuspendedEvent{ListingID: l.ID, Reason: reason, At: l.UpdatedAt})
	return nil
}

// SetNightlyRate changes the rate for future quotes only.
func (l *Listing) SetNightlyRate(rate money.Money, now time.Time) error {
	if rate.IsNegative() {
		return ErrNightlyRate
	}
	l.NightlyRate = rate
	l.UpdatedAt = now.UTC()
	return nil
}

// OwnedBy reports whether the given host owns this listing.
func (l *Listing) OwnedBy(host HostID) bool {
	return l.Host == host
}
