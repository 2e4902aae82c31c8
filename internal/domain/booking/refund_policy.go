package booking

import (
	"time"

	"staymarket/internal/domain/shared/money"
)

// Cancellation refund tiers, keyed by whole days remaining until check-in.
const (
	fullRefundDays = 7
	halfRefundDays = 3
	noRefundDays   = 1

	ReasonFullRefund   = "Full refund (more than 7 days before check-in)"
	ReasonHalfRefund   = "50% refund (3-7 days before check-in)"
	ReasonQuarterfund  = "25% refund (1-3 days before check-in)"
	ReasonNoRefund     = "No refund (less than 24 hours before check-in)"
	ReasonHostDeclined = "Host declined booking request"
)

// RefundQuote is the outcome of the cancellation policy: how much of the
// booking total comes back and why.
type RefundQuote struct {
	Amount  money.Money
	Percent int
	Reason  string
}

// DaysUntilCheckIn returns ceil((checkIn - at) / 24h). Values at or below
// zero mean check-in is imminent or already past.
func DaysUntilCheckIn(checkIn, at time.Time) int {
	remaining := checkIn.Sub(at)
	day := 24 * time.Hour
	days := remaining / day
	if remaining%day > 0 {
		days++
	}
	return int(days)
}

// ComputeRefund applies the tiered guest-cancellation policy. Pure function
// of the booking total, check-in date and cancellation instant; the refund
// percentage never increases as the check-in date draws closer.
func ComputeRefund(total money.Money, checkIn, cancelAt time.Time) RefundQuote {
	days := DaysUntilCheckIn(checkIn, cancelAt)
	switch {
	case days > fullRefundDays:
		return RefundQuote{Amount: total, Percent: 100, Reason: ReasonFullRefund}
	case days > halfRefundDays:
		return RefundQuote{Amount: total.Percent(50), Percent: 50, Reason: ReasonHalfRefund}
	case days > noRefundDays:
		return RefundQuote{Amount: total.Percent(25), Percent: 25, Reason: ReasonQuarterfund}
	default:
		return RefundQuote{Amount: money.Zero(total.Currency), Percent: 0, Reason: ReasonNoRefund}
	}
}

// HostDeclineRefund is the unconditional 100% branch taken when a host
// rejects a pending request, regardless of how close check-in is.
func HostDeclineRefund(total money.Money) RefundQuote {
	return RefundQuote{Amount: total, Percent: 100, Reason: ReasonHostDeclined}
}
