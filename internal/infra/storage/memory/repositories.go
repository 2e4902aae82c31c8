package memory

import (
	"context"
	"sync"

	domainbooking "staymarket/internal/domain/booking"
	domainlistings "staymarket/internal/domain/listings"
	domainpayment "staymarket/internal/domain/payment"
	"staymarket/internal/domain/shared/daterange"
)

// ListingRepository is an in-memory implementation for tests and local runs.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[domainlistings.ListingID]*domainlistings.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{
		items: make(map[domainlistings.ListingID]*domainlistings.Listing),
	}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	listing, ok := r.items[id]
	if !ok {
		return nil, domainlistings.ErrNotFound
	}
	return listing, nil
}

func (r *ListingRepository) ByHost(ctx context.Context, host domainlistings.HostID) ([]*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var owned []*domainlistings.Listing
	for _, listing := range r.items {
		if listing.Host == host {
			owned = append(owned, listing)
		}
	}
	return owned, nil
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	listing.Version++
	r.items[listing.ID] = listing
	return nil
}

// BookingRepository keeps bookings in memory and enforces the no-overlap
// constraint on save, mirroring what the mongo implementation does inside a
// session transaction.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{
		items: make(map[domainbooking.BookingID]*domainbooking.Booking),
	}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	booking, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrNotFound
	}
	return booking, nil
}

func (r *BookingRepository) Save(ctx context.Context, booking *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if booking.Status.Occupying() {
		for _, existing := range r.items {
			if existing.ID == booking.ID || existing.ListingID != booking.ListingID {
				continue
			}
			if existing.Status.Occupying() && existing.Range.Overlaps(booking.Range) {
				return domainbooking.ErrDateRangeConflict
			}
		}
	}
	booking.Version++
	r.items[booking.ID] = booking
	return nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainbooking.Booking
	for _, booking := range r.items {
		if booking.GuestID == guestID {
			out = append(out, booking)
		}
	}
	return out, nil
}

func (r *BookingRepository) ListByListing(ctx context.Context, listingID domainlistings.ListingID) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainbooking.Booking
	for _, booking := range r.items {
		if booking.ListingID == listingID {
			out = append(out, booking)
		}
	}
	return out, nil
}

func (r *BookingRepository) ListOccupying(ctx context.Context, listingID domainlistings.ListingID, dr daterange.DateRange) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainbooking.Booking
	for _, booking := range r.items {
		if booking.ListingID != listingID {
			continue
		}
		if booking.Status.Occupying() && booking.Range.Overlaps(dr) {
			out = append(out, booking)
		}
	}
	return out, nil
}

// PaymentRepository is the in-memory payment store.
type PaymentRepository struct {
	mu        sync.RWMutex
	items     map[domainpayment.PaymentID]*domainpayment.Payment
	byBooking map[domainbooking.BookingID]domainpayment.PaymentID
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{
		items:     make(map[domainpayment.PaymentID]*domainpayment.Payment),
		byBooking: make(map[domainbooking.BookingID]domainpayment.PaymentID),
	}
}

func (r *PaymentRepository) ByID(ctx context.Context, id domainpayment.PaymentID) (*domainpayment.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	payment, ok := r.items[id]
	if !ok {
		return nil, domainpayment.ErrNotFound
	}
	return payment, nil
}

func (r *PaymentRepository) ByBooking(ctx context.Context, bookingID domainbooking.BookingID) (*domainpayment.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byBooking[bookingID]
	if !ok {
		return nil, domainpayment.ErrNotFound
	}
	payment, ok := r.items[id]
	if !ok {
		return nil, domainpayment.ErrNotFound
	}
	return payment, nil
}

func (r *PaymentRepository) Save(ctx context.Context, payment *domainpayment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	payment.Version++
	r.items[payment.ID] = payment
	r.byBooking[payment.BookingID] = payment.ID
	return nil
}
