package booking

import (
	"context"
	"errors"
	"testing"

	domainbooking "staymarket/internal/domain/booking"
	domainpayment "staymarket/internal/domain/payment"
)

func TestConfirmHostBooking(t *testing.T) {
	env := newTestEnv(t)
	env.addListing(t, "lst-1", "host-1", true)
	env.request(t, "bkg-1", testNow.AddDate(0, 0, 10), testNow.AddDate(0, 0, 14))

	res, err := env.confirmHandler().Handle(env.unitCtx(t), ConfirmHostBookingCommand{
		HostID:      "host-1",
		BookingID:   "bkg-1",
		HostMessage: "see you soon",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if res.Status != string(domainbooking.StatusConfirmed) {
		t.Fatalf("status = %q, want confirmed", res.Status)
	}

	booking, err := env.bookings.ByID(context.Background(), "bkg-1")
	if err != nil {
		t.Fatalf("booking: %v", err)
	}
	if booking.Status != domainbooking.StatusConfirmed {
		t.Fatalf("persisted status = %q", booking.Status)
	}
}

func TestConfirmHostBookingRequiresSettledPayment(t *testing.T) {
	env := newTestEnv(t)
	env.addListing(t, "lst-1", "host-1", true)
	env.gateway.charge.Success = false
	env.gateway.charge.FailureReason = "card declined"
	env.request(t, "bkg-1", testNow.AddDate(0, 0, 10), testNow.AddDate(0, 0, 14))

	_, err := env.confirmHandler().Handle(env.unitCtx(t), ConfirmHostBookingCommand{
		HostID:    "host-1",
		BookingID: "bkg-1",
	})
	if !errors.Is(err, ErrPaymentNotSettled) {
		t.Fatalf("got %v, want ErrPaymentNotSettled", err)
	}
}

func TestConfirmHostBookingByNonOwnerDenied(t *testing.T) {
	env := newTestEnv(t)
	env.addListing(t, "lst-1", "host-1", true)
	env.request(t, "bkg-1", testNow.AddDate(0, 0, 10), testNow.AddDate(0, 0, 14))

	_, err := env.confirmHandler().Handle(env.unitCtx(t), ConfirmHostBookingCommand{
		HostID:    "host-2",
		BookingID: "bkg-1",
	})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("got %v, want ErrPermissionDenied", err)
	}
}

// A host decline refunds everything no matter how close check-in is; the
// tiered cancellation policy does not apply.
func TestDeclineHostBookingRefundsInFull(t *testing.T) {
	env := newTestEnv(t)
	env.addListing(t, "lst-1", "host-1", true)
	env.request(t, "bkg-1", testNow.AddDate(0, 0, 1), testNow.AddDate(0, 0, 5))

	res, err := env.declineHandler(testNow).Handle(env.unitCtx(t), DeclineHostBookingCommand{
		HostID:    "host-1",
		BookingID: "bkg-1",
		Reason:    "unit under repair",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if res.Status != string(domainbooking.StatusDeclined) {
		t.Fatalf("status = %q, want declined", res.Status)
	}
	if res.Refund == nil {
		t.Fatal("refund outcome missing")
	}
	if res.Refund.Percent != 100 || res.Refund.Amount.Amount != 48100 {
		t.Fatalf("refund = %d (%d%%), want full 48100", res.Refund.Amount.Amount, res.Refund.Percent)
	}
	if res.Refund.Reason != domainbooking.ReasonHostDeclined {
		t.Fatalf("reason = %q, want %q", res.Refund.Reason, domainbooking.ReasonHostDeclined)
	}

	pay, err := env.payments.ByID(context.Background(), "pay-bkg-1")
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	if pay.Status != domainpayment.StatusRefunded {
		t.Fatalf("payment status = %q, want refunded", pay.Status)
	}
	booking, err := env.bookings.ByID(context.Background(), "bkg-1")
	if err != nil {
		t.Fatalf("booking: %v", err)
	}
	if booking.PaymentStatus != domainbooking.PaymentRefunded {
		t.Fatalf("booking payment status = %q, want refunded", booking.PaymentStatus)
	}
}

func TestDeclineHostBookingGatewayFailureStillDeclines(t *testing.T) {
	env := newTestEnv(t)
	env.addListing(t, "lst-1", "host-1", true)
	env.request(t, "bkg-1", testNow.AddDate(0, 0, 10), testNow.AddDate(0, 0, 14))
	env.gateway.refundErr = errors.New("provider unreachable")

	res, err := env.declineHandler(testNow).Handle(env.unitCtx(t), DeclineHostBookingCommand{
		HostID:    "host-1",
		BookingID: "bkg-1",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if res.Status != string(domainbooking.StatusDeclined) {
		t.Fatalf("status = %q, want declined", res.Status)
	}
	if res.Refund == nil || !res.Refund.PendingReconciliation {
		t.Fatalf("outcome = %+v, want pending reconciliation", res.Refund)
	}

	pay, err := env.payments.ByID(context.Background(), "pay-bkg-1")
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	if !pay.NeedsReconciliation {
		t.Fatal("payment not flagged for reconciliation")
	}
}

func TestDeclineHostBookingByNonOwnerDenied(t *testing.T) {
	env := newTestEnv(t)
	env.addListing(t, "lst-1", "host-1", true)
	env.request(t, "bkg-1", testNow.AddDate(0, 0, 10), testNow.AddDate(0, 0, 14))

	_, err := env.declineHandler(testNow).Handle(env.unitCtx(t), DeclineHostBookingCommand{
		HostID:    "host-2",
		BookingID: "bkg-1",
	})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("got %v, want ErrPermissionDenied", err)
	}
}

func TestListHostBookingsFiltersByStatus(t *testing.T) {
	env := newTestEnv(t)
	env.addListing(t, "lst-1", "host-1", true)
	env.request(t, "bkg-1", testNow.AddDate(0, 0, 10), testNow.AddDate(0, 0, 14))
	env.request(t, "bkg-2", testNow.AddDate(0, 0, 20), testNow.AddDate(0, 0, 24))

	if _, err := env.confirmHandler().Handle(env.unitCtx(t), ConfirmHostBookingCommand{
		HostID: "host-1", BookingID: "bkg-2",
	}); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	h := &ListHostBookingsHandler{UoWFactory: env.factory}

	pending, err := h.Handle(context.Background(), ListHostBookingsQuery{HostID: "host-1"})
	if err != nil {
		t.Fatalf("default list: %v", err)
	}
	if len(pending.Items) != 1 || pending.Items[0].ID != "bkg-1" {
		t.Fatalf("default filter items = %+v, want only pending bkg-1", pending.Items)
	}

	all, err := h.Handle(context.Background(), ListHostBookingsQuery{HostID: "host-1", Status: "all"})
	if err != nil {
		t.Fatalf("all list: %v", err)
	}
	if len(all.Items) != 2 {
		t.Fatalf("all items = %d, want 2", len(all.Items))
	}

	confirmed, err := h.Handle(context.Background(), ListHostBookingsQuery{HostID: "host-1", Status: "confirmed"})
	if err != nil {
		t.Fatalf("confirmed list: %v", err)
	}
	if len(confirmed.Items) != 1 || confirmed.Items[0].ID != "bkg-2" {
		t.Fatalf("confirmed filter items = %+v, want only bkg-2", confirmed.Items)
	}

	other, err := h.Handle(context.Background(), ListHostBookingsQuery{HostID: "host-9", Status: "all"})
	if err != nil {
		t.Fatalf("other host: %v", err)
	}
	if len(other.Items) != 0 {
		t.Fatalf("foreign host sees %d bookings", len(other.Items))
	}
}
