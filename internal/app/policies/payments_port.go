package policies

import (
	"context"

	"staymarket/internal/domain/payment"
	"staymarket/internal/domain/shared/money"
)

// ChargeRequest carries everything the provider needs to settle a charge.
// Details holds method-specific instrument fields (card number, UPI id, ...).
type ChargeRequest struct {
	BookingID string
	Method    payment.Method
	Amount    money.Money
	Details   map[string]string
}

// ChargeResult reports the gateway outcome for a charge attempt.
type ChargeResult struct {
	Success       bool
	TransactionID string
	FailureReason string
}

type RefundRequest struct {
	TransactionID string
	Amount        money.Money
	Reason        string
}

// RefundResult reports the gateway outcome for a refund attempt.
type RefundResult struct {
	Success       bool
	RefundID      string
	FailureReason string
}

// PaymentGateway is the outbound port to the payment provider. Calls must
// honor context cancellation; callers wrap them in a deadline so a slow
// provider cannot hold a booking transaction open.
type PaymentGateway interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
	Refund(ctx context.Context, req RefundRequest) (RefundResult, error)
}
