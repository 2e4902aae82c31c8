package booking

import (
	"testing"
	"time"

	"staymarket/internal/domain/shared/money"
)

var refundTotal = money.Must(40000, "USD")

func at(daysBefore float64, checkIn time.Time) time.Time {
	return checkIn.Add(-time.Duration(daysBefore * 24 * float64(time.Hour)))
}

func TestComputeRefundTiers(t *testing.T) {
	checkIn := time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name        string
		cancelAt    time.Time
		wantAmount  int64
		wantPercent int
		wantReason  string
	}{
		{"ten days out", at(10, checkIn), 40000, 100, ReasonFullRefund},
		{"five days out", at(5, checkIn), 20000, 50, ReasonHalfRefund},
		{"two days out", at(2, checkIn), 10000, 25, ReasonQuarterfund},
		{"twelve hours out", at(0.5, checkIn), 0, 0, ReasonNoRefund},
		{"after check-in", checkIn.Add(6 * time.Hour), 0, 0, ReasonNoRefund},
	}
	for _, tc := range cases {
		quote := ComputeRefund(refundTotal, checkIn, tc.cancelAt)
		if quote.Amount.Amount != tc.wantAmount {
			t.Errorf("%s: amount = %d, want %d", tc.name, quote.Amount.Amount, tc.wantAmount)
		}
		if quote.Percent != tc.wantPercent {
			t.Errorf("%s: percent = %d, want %d", tc.name, quote.Percent, tc.wantPercent)
		}
		if quote.Reason != tc.wantReason {
			t.Errorf("%s: reason = %q, want %q", tc.name, quote.Reason, tc.wantReason)
		}
		if quote.Amount.Currency != "USD" {
			t.Errorf("%s: currency = %q", tc.name, quote.Amount.Currency)
		}
	}
}

// Exactly 7, 3 and 1 whole days remaining fall into the lower tier: the
// policy reads "more than".
func TestComputeRefundBoundaries(t *testing.T) {
	checkIn := time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		days        float64
		wantPercent int
	}{
		{7, 50},
		{7.001, 100},
		{3, 25},
		{3.001, 50},
		{1, 0},
		{1.001, 25},
	}
	for _, tc := range cases {
		quote := ComputeRefund(refundTotal, checkIn, at(tc.days, checkIn))
		if quote.Percent != tc.wantPercent {
			t.Errorf("%.3f days out: percent = %d, want %d", tc.days, quote.Percent, tc.wantPercent)
		}
	}
}

func TestDaysUntilCheckInCeils(t *testing.T) {
	checkIn := time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		at   time.Time
		want int
	}{
		{checkIn.Add(-8 * 24 * time.Hour), 8},
		{checkIn.Add(-7*24*time.Hour - time.Minute), 8},
		{checkIn.Add(-7 * 24 * time.Hour), 7},
		{checkIn.Add(-time.Hour), 1},
		{checkIn, 0},
		{checkIn.Add(time.Hour), 0},
		{checkIn.Add(30 * time.Hour), -1},
	}
	for _, tc := range cases {
		if got := DaysUntilCheckIn(checkIn, tc.at); got != tc.want {
			t.Errorf("DaysUntilCheckIn at %v = %d, want %d", tc.at, got, tc.want)
		}
	}
}

// The refundable share never grows as the cancellation instant moves closer
// to check-in.
func TestRefundNeverIncreasesTowardCheckIn(t *testing.T) {
	checkIn := time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC)
	prev := int64(1 << 62)
	for hours := 14 * 24; hours >= 0; hours-- {
		cancelAt := checkIn.Add(-time.Duration(hours) * time.Hour)
		quote := ComputeRefund(refundTotal, checkIn, cancelAt)
		if quote.Amount.Amount > prev {
			t.Fatalf("refund increased at %d hours before check-in: %d > %d", hours, quote.Amount.Amount, prev)
		}
		prev = quote.Amount.Amount
	}
}

func TestHostDeclineRefundIgnoresProximity(t *testing.T) {
	quote := HostDeclineRefund(refundTotal)
	if quote.Amount != refundTotal {
		t.Fatalf("amount = %v, want full total", quote.Amount)
	}
	if quote.Percent != 100 {
		t.Fatalf("percent = %d, want 100", quote.Percent)
	}
	if quote.Reason != ReasonHostDeclined {
		t.Fatalf("reason = %q, want %q", quote.Reason, ReasonHostDeclined)
	}
}
