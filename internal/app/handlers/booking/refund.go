package booking

import (
	"context"
	"time"

	"staymarket/internal/app/dto"
	"staymarket/internal/app/policies"
	"staymarket/internal/app/uow"
	domainbooking "staymarket/internal/domain/booking"
	domainpayment "staymarket/internal/domain/payment"
	"staymarket/internal/domain/shared/money"
)

// RefundOutcome is the refund portion of a cancellation or decline result.
type RefundOutcome struct {
	Amount                dto.MoneyDTO `json:"amount"`
	Percent               int          `json:"percent"`
	Reason                string       `json:"reason"`
	RefundID              string       `json:"refund_id,omitempty"`
	GatewayError          string       `json:"gateway_error,omitempty"`
	PendingReconciliation bool         `json:"pending_reconciliation"`
}

// amountString renders the refunded amount for notification bodies.
func (o RefundOutcome) amountString() string {
	return money.Money{Amount: o.Amount.Amount, Currency: o.Amount.Currency}.String()
}

// settleRefund pushes the quoted refund through the gateway and records the
// result on both aggregates. A gateway failure does not error out: the
// payment is flagged for manual reconciliation and the booking transition
// already applied by the caller still commits. Idempotent by construction:
// a payment that is not refundable anymore (already refunded, never
// succeeded) is left untouched and the outcome reports a zero refund.
func settleRefund(
	ctx context.Context,
	unit uow.UnitOfWork,
	gateway policies.PaymentGateway,
	timeout time.Duration,
	b *domainbooking.Booking,
	pay *domainpayment.Payment,
	quote domainbooking.RefundQuote,
	now time.Time,
) (RefundOutcome, error) {
	outcome := RefundOutcome{
		Amount:  dto.MapMoney(quote.Amount),
		Percent: quote.Percent,
		Reason:  quote.Reason,
	}
	if pay == nil || !pay.CanRefund() {
		// No settled charge backs this booking, so there is no money to
		// move. Report a zero refund instead of the quoted amount.
		outcome.Amount = dto.MapMoney(money.Zero(quote.Amount.Currency))
		outcome.Percent = 0
		outcome.Reason = "No refundable payment on file"
		return outcome, nil
	}
	if quote.Amount.IsZero() {
		return outcome, nil
	}

	refundCtx, cancel := context.WithTimeout(ctx, timeout)
	res, err := gateway.Refund(refundCtx, policies.RefundRequest{
		TransactionID: pay.TransactionID,
		Amount:        quote.Amount,
		Reason:        quote.Reason,
	})
	cancel()

	if err != nil || !res.Success {
		pay.FlagForReconciliation(now)
		if err := unit.Payments().Save(ctx, pay); err != nil {
			return outcome, err
		}
		outcome.PendingReconciliation = true
		if err != nil {
			outcome.GatewayError = err.Error()
		} else {
			outcome.GatewayError = res.FailureReason
		}
		return outcome, nil
	}

	if err := pay.ApplyRefund(quote.Amount, quote.Reason, res.RefundID, now); err != nil {
		return outcome, err
	}
	if err := unit.Payments().Save(ctx, pay); err != nil {
		return outcome, err
	}
	b.MarkRefunded(now)
	b.Record(domainbooking.RefundProcessed{
		BookingID: b.ID,
		PaymentID: string(pay.ID),
		Amount:    quote.Amount,
		Percent:   quote.Percent,
		Reason:    quote.Reason,
		At:        now,
	})
	outcome.RefundID = res.RefundID
	return outcome, nil
}

// paymentForBooking loads the linked payment, tolerating bookings that never
// reached the gateway.
func paymentForBooking(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking) (*domainpayment.Payment, error) {
	if b.PaymentID == "" {
		return nil, nil
	}
	pay, err := unit.Payments().ByID(ctx, domainpayment.PaymentID(b.PaymentID))
	if err != nil {
		return nil, err
	}
	return pay, nil
}
