package booking

import (
	"context"

	"staymarket/internal/domain/listings"
	"staymarket/internal/domain/shared/daterange"
)

// Conflicts filters the given bookings down to those that block the
// candidate range: occupying status and a strict half-open overlap. A stay
// ending exactly when another begins does not conflict.
func Conflicts(existing []*Booking, dr daterange.DateRange) []*Booking {
	var conflicts []*Booking
	for _, b := range existing {
		if !b.Status.Occupying() {
			continue
		}
		if b.Range.Overlaps(dr) {
			conflicts = append(conflicts, b)
		}
	}
	return conflicts
}

// CheckAvailability reports whether the range is free of occupying bookings
// for the listing. Callers creating a booking must hold the per-listing
// creation guard (or run inside a store transaction) so the check and the
// subsequent insert are a single atomic step.
func CheckAvailability(ctx context.Context, repo Repository, listingID listings.ListingID, dr daterange.DateRange) (bool, error) {
	occupying, err := repo.ListOccupying(ctx, listingID, dr)
	if err != nil {
		return false, err
	}
	return len(occupying) == 0, nil
}
