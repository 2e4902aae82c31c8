package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"staymarket/internal/app/policies"
	"staymarket/internal/app/uow"
	domainbooking "staymarket/internal/domain/booking"
	domainpayment "staymarket/internal/domain/payment"
)

func TestCancelBookingRefundTiers(t *testing.T) {
	cases := []struct {
		name        string
		daysBefore  time.Duration
		wantAmount  int64
		wantPercent int
		wantRefund  bool
	}{
		{"more than seven days", 10 * 24 * time.Hour, 48100, 100, true},
		{"more than three days", 5 * 24 * time.Hour, 24050, 50, true},
		{"more than one day", 2 * 24 * time.Hour, 12025, 25, true},
		{"last day", 12 * time.Hour, 0, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.addListing(t, "lst-1", "host-1", true)
			env.request(t, "bkg-1", testNow.AddDate(0, 0, 20), testNow.AddDate(0, 0, 24))

			booking, err := env.bookings.ByID(context.Background(), "bkg-1")
			if err != nil {
				t.Fatalf("ByID: %v", err)
			}
			cancelAt := booking.Range.CheckIn.Add(-tc.daysBefore)

			res, err := env.cancelHandler(cancelAt).Handle(env.unitCtx(t), CancelBookingCommand{
				BookingID:   "bkg-1",
				RequestedBy: "guest-1",
				Reason:      "change of plans",
			})
			if err != nil {
				t.Fatalf("Handle: %v", err)
			}
			if res.Status != string(domainbooking.StatusCancelled) {
				t.Fatalf("status = %q, want cancelled", res.Status)
			}
			if res.Refund.Amount.Amount != tc.wantAmount || res.Refund.Percent != tc.wantPercent {
				t.Fatalf("refund = %d (%d%%), want %d (%d%%)",
					res.Refund.Amount.Amount, res.Refund.Percent, tc.wantAmount, tc.wantPercent)
			}

			pay, err := env.payments.ByID(context.Background(), "pay-bkg-1")
			if err != nil {
				t.Fatalf("payment: %v", err)
			}
			if tc.wantRefund {
				if res.Refund.RefundID == "" {
					t.Fatal("refund id missing")
				}
				if pay.Status != domainpayment.StatusRefunded {
					t.Fatalf("payment status = %q, want refunded", pay.Status)
				}
				if pay.Refund == nil || pay.Refund.Amount.Amount != tc.wantAmount {
					t.Fatalf("refund record = %+v, want amount %d", pay.Refund, tc.wantAmount)
				}
			} else {
				if env.gateway.refunds() != 0 {
					t.Fatal("zero refund must not reach the gateway")
				}
				if pay.Status != domainpayment.StatusSucceeded {
					t.Fatalf("payment status = %q, want untouched succeeded", pay.Status)
				}
			}
		})
	}
}

func TestCancelBookingByStrangerDenied(t *testing.T) {
	env := newTestEnv(t)
	env.addListing(t, "lst-1", "host-1", true)
	env.request(t, "bkg-1", testNow.AddDate(0, 0, 10), testNow.AddDate(0, 0, 14))

	_, err := env.cancelHandler(testNow).Handle(env.unitCtx(t), CancelBookingCommand{
		BookingID:   "bkg-1",
		RequestedBy: "someone-else",
	})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("got %v, want ErrPermissionDenied", err)
	}
	if env.gateway.refunds() != 0 {
		t.Fatal("denied cancel must not refund")
	}
}

func TestCancelBookingByHostAllowed(t *testing.T) {
	env := newTestEnv(t)
	env.addListing(t, "lst-1", "host-1", true)
	env.request(t, "bkg-1", testNow.AddDate(0, 0, 10), testNow.AddDate(0, 0, 14))
	if _, err := env.confirmHandler().Handle(env.unitCtx(t), ConfirmHostBookingCommand{
		HostID:    "host-1",
		BookingID: "bkg-1",
	}); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	res, err := env.cancelHandler(testNow).Handle(env.unitCtx(t), CancelBookingCommand{
		BookingID:   "bkg-1",
		RequestedBy: "host-1",
		Reason:      "maintenance",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if res.Status != string(domainbooking.StatusCancelled) {
		t.Fatalf("status = %q", res.Status)
	}
}

// A host backing out of a pending request must decline it, which always
// refunds in full; the tiered cancel path is closed to them.
func TestCancelPendingBookingByHostRejected(t *testing.T) {
	env := newTestEnv(t)
	env.addListing(t, "lst-1", "host-1", true)
	env.request(t, "bkg-1", testNow.AddDate(0, 0, 10), testNow.AddDate(0, 0, 14))

	_, err := env.cancelHandler(testNow).Handle(env.unitCtx(t), CancelBookingCommand{
		BookingID:   "bkg-1",
		RequestedBy: "host-1",
		Reason:      "maintenance",
	})
	if !errors.Is(err, ErrHostMustDecline) {
		t.Fatalf("got %v, want ErrHostMustDecline", err)
	}
	if env.gateway.refunds() != 0 {
		t.Fatal("rejected cancel must not refund")
	}
	booking, err := env.bookings.ByID(context.Background(), "bkg-1")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if booking.Status != domainbooking.StatusPending {
		t.Fatalf("status = %q, want still pending", booking.Status)
	}
}

// Cancelling a booking whose charge never settled yields no money movement,
// and the result must say so instead of reporting the quoted tier.
func TestCancelBookingFailedChargeReportsZeroRefund(t *testing.T) {
	env := newTestEnv(t)
	env.addListing(t, "lst-1", "host-1", true)
	env.gateway.charge = policies.ChargeResult{Success: false, FailureReason: "card declined"}
	env.request(t, "bkg-1", testNow.AddDate(0, 0, 20), testNow.AddDate(0, 0, 24))

	res, err := env.cancelHandler(testNow).Handle(env.unitCtx(t), CancelBookingCommand{
		BookingID:   "bkg-1",
		RequestedBy: "guest-1",
		Reason:      "change of plans",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if res.Status != string(domainbooking.StatusCancelled) {
		t.Fatalf("status = %q, want cancelled", res.Status)
	}
	if res.Refund.Amount.Amount != 0 || res.Refund.Percent != 0 {
		t.Fatalf("refund = %d (%d%%), want 0 (0%%)",
			res.Refund.Amount.Amount, res.Refund.Percent)
	}
	if res.Refund.Amount.Currency != "USD" {
		t.Fatalf("refund currency = %q", res.Refund.Amount.Currency)
	}
	if res.Refund.RefundID != "" {
		t.Fatalf("refund id = %q, want empty", res.Refund.RefundID)
	}
	if env.gateway.refunds() != 0 {
		t.Fatal("unsettled charge must not reach the gateway")
	}
}

func TestCancelBookingTwiceRefundsOnce(t *testing.T) {
	env := newTestEnv(t)
	env.addListing(t, "lst-1", "host-1", true)
	env.request(t, "bkg-1", testNow.AddDate(0, 0, 10), testNow.AddDate(0, 0, 14))

	h := env.cancelHandler(testNow)
	cmd := CancelBookingCommand{BookingID: "bkg-1", RequestedBy: "guest-1"}
	if _, err := h.Handle(env.unitCtx(t), cmd); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	if _, err := h.Handle(env.unitCtx(t), cmd); !errors.Is(err, domainbooking.ErrInvalidTransition) {
		t.Fatalf("second cancel: got %v, want ErrInvalidTransition", err)
	}
	if got := env.gateway.refunds(); got != 1 {
		t.Fatalf("gateway refunds = %d, want 1", got)
	}
}

// A refund the gateway rejects must not roll back the cancellation; the
// payment is parked for manual reconciliation instead.
func TestCancelBookingRefundGatewayFailure(t *testing.T) {
	env := newTestEnv(t)
	env.addListing(t, "lst-1", "host-1", true)
	env.request(t, "bkg-1", testNow.AddDate(0, 0, 10), testNow.AddDate(0, 0, 14))
	env.gateway.refundErr = errors.New("provider unreachable")

	res, err := env.cancelHandler(testNow).Handle(env.unitCtx(t), CancelBookingCommand{
		BookingID:   "bkg-1",
		RequestedBy: "guest-1",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if res.Status != string(domainbooking.StatusCancelled) {
		t.Fatalf("status = %q, want cancelled", res.Status)
	}
	if !res.Refund.PendingReconciliation {
		t.Fatal("outcome not flagged for reconciliation")
	}
	if res.Refund.GatewayError != "provider unreachable" {
		t.Fatalf("gateway error = %q", res.Refund.GatewayError)
	}
	if res.Refund.RefundID != "" {
		t.Fatalf("refund id = %q, want empty", res.Refund.RefundID)
	}

	booking, err := env.bookings.ByID(context.Background(), "bkg-1")
	if err != nil {
		t.Fatalf("booking: %v", err)
	}
	if booking.Status != domainbooking.StatusCancelled {
		t.Fatalf("persisted status = %q, want cancelled", booking.Status)
	}
	pay, err := env.payments.ByID(context.Background(), "pay-bkg-1")
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	if !pay.NeedsReconciliation {
		t.Fatal("payment not flagged for reconciliation")
	}
	if pay.Status != domainpayment.StatusSucceeded {
		t.Fatalf("payment status = %q, want still succeeded", pay.Status)
	}
}

func TestCancelBookingRequiresUnitOfWork(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.cancelHandler(testNow).Handle(context.Background(), CancelBookingCommand{
		BookingID:   "bkg-1",
		RequestedBy: "guest-1",
	})
	if !errors.Is(err, uow.ErrUnitOfWorkMissing) {
		t.Fatalf("got %v, want ErrUnitOfWorkMissing", err)
	}
}
