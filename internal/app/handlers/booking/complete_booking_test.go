package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	domainbooking "staymarket/internal/domain/booking"
)

func confirmedBooking(t *testing.T, env *testEnv) *domainbooking.Booking {
	t.Helper()
	env.addListing(t, "lst-1", "host-1", true)
	env.request(t, "bkg-1", testNow.AddDate(0, 0, 1), testNow.AddDate(0, 0, 3))
	if _, err := env.confirmHandler().Handle(env.unitCtx(t), ConfirmHostBookingCommand{
		HostID: "host-1", BookingID: "bkg-1",
	}); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	booking, err := env.bookings.ByID(context.Background(), "bkg-1")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	return booking
}

func TestCompleteBookingAfterCheckout(t *testing.T) {
	env := newTestEnv(t)
	booking := confirmedBooking(t, env)

	h := &CompleteBookingHandler{
		Outbox: env.buffer,
		Now:    func() time.Time { return booking.Range.CheckOut.Add(2 * time.Hour) },
	}
	res, err := h.Handle(env.unitCtx(t), CompleteBookingCommand{
		BookingID:   "bkg-1",
		RequestedBy: "guest-1",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if res.Status != string(domainbooking.StatusCompleted) {
		t.Fatalf("status = %q, want completed", res.Status)
	}
}

func TestCompleteBookingBeforeCheckoutRejected(t *testing.T) {
	env := newTestEnv(t)
	booking := confirmedBooking(t, env)

	h := &CompleteBookingHandler{
		Outbox: env.buffer,
		Now:    func() time.Time { return booking.Range.CheckOut.Add(-time.Hour) },
	}
	_, err := h.Handle(env.unitCtx(t), CompleteBookingCommand{
		BookingID:   "bkg-1",
		RequestedBy: "host-1",
	})
	if !errors.Is(err, domainbooking.ErrCheckOutNotReached) {
		t.Fatalf("got %v, want ErrCheckOutNotReached", err)
	}
}

func TestCompleteBookingByStrangerDenied(t *testing.T) {
	env := newTestEnv(t)
	booking := confirmedBooking(t, env)

	h := &CompleteBookingHandler{
		Outbox: env.buffer,
		Now:    func() time.Time { return booking.Range.CheckOut.Add(time.Hour) },
	}
	_, err := h.Handle(env.unitCtx(t), CompleteBookingCommand{
		BookingID:   "bkg-1",
		RequestedBy: "someone-else",
	})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("got %v, want ErrPermissionDenied", err)
	}
}
