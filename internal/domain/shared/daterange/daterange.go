package daterange

import (
	"errors"
	"time"
)

var ErrInvalidRange = errors.New("daterange: check-out must be after check-in")

// DateRange is a half-open interval [CheckIn, CheckOut). Check-out day is
// exclusive so back-to-back stays sharing a boundary do not overlap.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// New validates ordering and normalizes both instants to midnight UTC.
// Time-of-day carries no meaning for calendar stays; normalizing here keeps
// comparisons immune to the caller's time zone.
func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: Midnight(checkIn), CheckOut: Midnight(checkOut)}
	if !dr.CheckOut.After(dr.CheckIn) {
		return DateRange{}, ErrInvalidRange
	}
	return dr, nil
}

// Overlaps reports whether two half-open intervals intersect:
// a.CheckIn < b.CheckOut && a.CheckOut > b.CheckIn.
func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && dr.CheckOut.After(other.CheckIn)
}

// Contains reports whether t falls inside the interval.
func (dr DateRange) Contains(t time.Time) bool {
	t = Midnight(t)
	return !t.Before(dr.CheckIn) && t.Before(dr.CheckOut)
}

// Nights returns the stay length in whole nights.
func (dr DateRange) Nights() int {
	return int(dr.CheckOut.Sub(dr.CheckIn) / (24 * time.Hour))
}

// Midnight truncates an instant to the start of its UTC day.
func Midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
