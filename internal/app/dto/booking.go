package dto

import (
	"time"

	domainbooking "staymarket/internal/domain/booking"
	domainlistings "staymarket/internal/domain/listings"
	"staymarket/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type BookingListingSnapshot struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	City    string `json:"city"`
	Country string `json:"country"`
}

type PriceBreakdownDTO struct {
	Base     MoneyDTO `json:"base"`
	Cleaning MoneyDTO `json:"cleaning"`
	Service  MoneyDTO `json:"service"`
	Taxes    MoneyDTO `json:"taxes"`
	Total    MoneyDTO `json:"total"`
}

type GuestBookingSummary struct {
	ID            string                 `json:"id"`
	Listing       BookingListingSnapshot `json:"listing"`
	CheckIn       time.Time              `json:"check_in"`
	CheckOut      time.Time              `json:"check_out"`
	Guests        int                    `json:"guests"`
	Nights        int                    `json:"nights"`
	Status        string                 `json:"status"`
	PaymentStatus string                 `json:"payment_status"`
	Total         MoneyDTO               `json:"total"`
	CreatedAt     time.Time              `json:"created_at"`
}

// GuestBookingCollection groups a guest's bookings by where they sit in the
// lifecycle, the way trip pages render them.
type GuestBookingCollection struct {
	Upcoming  []GuestBookingSummary `json:"upcoming"`
	Pending   []GuestBookingSummary `json:"pending"`
	Past      []GuestBookingSummary `json:"past"`
	Cancelled []GuestBookingSummary `json:"cancelled"`
}

type HostBookingSummary struct {
	ID            string                 `json:"id"`
	Listing       BookingListingSnapshot `json:"listing"`
	GuestID       string                 `json:"guest_id"`
	CheckIn       time.Time              `json:"check_in"`
	CheckOut      time.Time              `json:"check_out"`
	Guests        int                    `json:"guests"`
	Nights        int                    `json:"nights"`
	Status        string                 `json:"status"`
	PaymentStatus string                 `json:"payment_status"`
	Total         MoneyDTO               `json:"total"`
	CreatedAt     time.Time              `json:"created_at"`
}

type HostBookingCollection struct {
	Items []HostBookingSummary `json:"items"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{
		Amount:   value.Amount,
		Currency: value.Currency,
	}
}

func MapPriceBreakdown(price domainbooking.Breakdown) PriceBreakdownDTO {
	return PriceBreakdownDTO{
		Base:     MapMoney(price.Base),
		Cleaning: MapMoney(price.Cleaning),
		Service:  MapMoney(price.Service),
		Taxes:    MapMoney(price.Taxes),
		Total:    MapMoney(price.Total),
	}
}

func MapGuestBookingSummary(booking *domainbooking.Booking, listing *domainlistings.Listing) GuestBookingSummary {
	snapshot := BookingListingSnapshot{
		ID: string(booking.ListingID),
	}
	if listing != nil {
		snapshot.Title = listing.Title
		snapshot.City = listing.City
		snapshot.Country = listing.Country
	}
	return GuestBookingSummary{
		ID:            string(booking.ID),
		Listing:       snapshot,
		CheckIn:       booking.Range.CheckIn,
		CheckOut:      booking.Range.CheckOut,
		Guests:        booking.Guests,
		Nights:        booking.Nights(),
		Status:        string(booking.Status),
		PaymentStatus: string(booking.PaymentStatus),
		Total:         MapMoney(booking.Price.Total),
		CreatedAt:     booking.CreatedAt,
	}
}

func MapHostBookingSummary(booking *domainbooking.Booking, listing *domainlistings.Listing) HostBookingSummary {
	snapshot := BookingListingSnapshot{
		ID: string(booking.ListingID),
	}
	if listing != nil {
		snapshot.Title = listing.Title
		snapshot.City = listing.City
		snapshot.Country = listing.Country
	}
	return HostBookingSummary{
		ID:            string(booking.ID),
		Listing:       snapshot,
		GuestID:       booking.GuestID,
		CheckIn:       booking.Range.CheckIn,
		CheckOut:      booking.Range.CheckOut,
		Guests:        booking.Guests,
		Nights:        booking.Nights(),
		Status:        string(booking.Status),
		PaymentStatus: string(booking.PaymentStatus),
		Total:         MapMoney(booking.Price.Total),
		CreatedAt:     booking.CreatedAt,
	}
}
