package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	domainbooking "staymarket/internal/domain/booking"
	domainlistings "staymarket/internal/domain/listings"
	domainpayment "staymarket/internal/domain/payment"
	"staymarket/internal/domain/shared/daterange"
	"staymarket/internal/domain/shared/money"
)

var testNow = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func storedBooking(t *testing.T, id, listingID string, checkIn, checkOut time.Time) *domainbooking.Booking {
	t.Helper()
	dr, err := daterange.New(checkIn, checkOut)
	if err != nil {
		t.Fatalf("daterange.New: %v", err)
	}
	total := money.Must(10000, "USD")
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        domainbooking.BookingID(id),
		ListingID: domainlistings.ListingID(listingID),
		GuestID:   "guest-1",
		HostID:    "host-1",
		Range:     dr,
		Guests:    2,
		Price: domainbooking.Breakdown{
			Base:     total,
			Cleaning: money.Zero("USD"),
			Service:  money.Zero("USD"),
			Taxes:    money.Zero("USD"),
			Total:    total,
		},
		CreatedAt: testNow,
	})
	if err != nil {
		t.Fatalf("NewBooking: %v", err)
	}
	return b
}

func TestBookingSaveRejectsOverlap(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()

	first := storedBooking(t, "bkg-1", "lst-1", testNow.AddDate(0, 0, 10), testNow.AddDate(0, 0, 15))
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("save first: %v", err)
	}

	overlapping := storedBooking(t, "bkg-2", "lst-1", testNow.AddDate(0, 0, 12), testNow.AddDate(0, 0, 17))
	if err := repo.Save(ctx, overlapping); !errors.Is(err, domainbooking.ErrDateRangeConflict) {
		t.Fatalf("got %v, want ErrDateRangeConflict", err)
	}
	if _, err := repo.ByID(ctx, "bkg-2"); !errors.Is(err, domainbooking.ErrNotFound) {
		t.Fatal("conflicting booking was stored anyway")
	}

	otherListing := storedBooking(t, "bkg-3", "lst-2", testNow.AddDate(0, 0, 12), testNow.AddDate(0, 0, 17))
	if err := repo.Save(ctx, otherListing); err != nil {
		t.Fatalf("same dates on another listing must save: %v", err)
	}

	backToBack := storedBooking(t, "bkg-4", "lst-1", testNow.AddDate(0, 0, 15), testNow.AddDate(0, 0, 18))
	if err := repo.Save(ctx, backToBack); err != nil {
		t.Fatalf("back-to-back must save: %v", err)
	}
}

func TestBookingSaveAllowsSelfUpdate(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()

	b := storedBooking(t, "bkg-1", "lst-1", testNow.AddDate(0, 0, 10), testNow.AddDate(0, 0, 15))
	if err := repo.Save(ctx, b); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := b.Confirm("", testNow); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if err := repo.Save(ctx, b); err != nil {
		t.Fatalf("re-saving the same booking must not conflict with itself: %v", err)
	}
}

func TestBookingSaveAllowsDatesFreedByCancellation(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()

	b := storedBooking(t, "bkg-1", "lst-1", testNow.AddDate(0, 0, 10), testNow.AddDate(0, 0, 15))
	if err := repo.Save(ctx, b); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := b.Cancel("guest-1", "", testNow); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if err := repo.Save(ctx, b); err != nil {
		t.Fatalf("save cancelled: %v", err)
	}

	replacement := storedBooking(t, "bkg-2", "lst-1", testNow.AddDate(0, 0, 10), testNow.AddDate(0, 0, 15))
	if err := repo.Save(ctx, replacement); err != nil {
		t.Fatalf("cancelled booking still blocks the dates: %v", err)
	}
}

func TestListOccupying(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()

	inside := storedBooking(t, "bkg-1", "lst-1", testNow.AddDate(0, 0, 10), testNow.AddDate(0, 0, 15))
	if err := repo.Save(ctx, inside); err != nil {
		t.Fatalf("save: %v", err)
	}
	declined := storedBooking(t, "bkg-2", "lst-1", testNow.AddDate(0, 0, 16), testNow.AddDate(0, 0, 18))
	if err := declined.Decline("", testNow); err != nil {
		t.Fatalf("Decline: %v", err)
	}
	if err := repo.Save(ctx, declined); err != nil {
		t.Fatalf("save declined: %v", err)
	}
	elsewhere := storedBooking(t, "bkg-3", "lst-2", testNow.AddDate(0, 0, 10), testNow.AddDate(0, 0, 15))
	if err := repo.Save(ctx, elsewhere); err != nil {
		t.Fatalf("save elsewhere: %v", err)
	}

	window, err := daterange.New(testNow.AddDate(0, 0, 1), testNow.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("daterange.New: %v", err)
	}
	occupying, err := repo.ListOccupying(ctx, "lst-1", window)
	if err != nil {
		t.Fatalf("ListOccupying: %v", err)
	}
	if len(occupying) != 1 || occupying[0].ID != "bkg-1" {
		t.Fatalf("occupying = %+v, want only bkg-1", occupying)
	}
}

func TestPaymentRepositoryByBooking(t *testing.T) {
	repo := NewPaymentRepository()
	ctx := context.Background()

	pay, err := domainpayment.New(domainpayment.CreateParams{
		ID:        "pay-1",
		BookingID: "bkg-1",
		UserID:    "guest-1",
		Amount:    money.Must(10000, "USD"),
		Method:    domainpayment.MethodCard,
		CreatedAt: testNow,
	})
	if err != nil {
		t.Fatalf("payment.New: %v", err)
	}
	if err := repo.Save(ctx, pay); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.ByBooking(ctx, "bkg-1")
	if err != nil {
		t.Fatalf("ByBooking: %v", err)
	}
	if got.ID != "pay-1" {
		t.Fatalf("payment = %q", got.ID)
	}
	if _, err := repo.ByBooking(ctx, "bkg-9"); !errors.Is(err, domainpayment.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}
