package dto

import (
	"time"

	domainpayment "staymarket/internal/domain/payment"
)

type RefundDTO struct {
	Amount     MoneyDTO  `json:"amount"`
	Reason     string    `json:"reason"`
	RefundID   string    `json:"refund_id"`
	RefundedAt time.Time `json:"refunded_at"`
}

type PaymentDTO struct {
	ID                  string     `json:"id"`
	BookingID           string     `json:"booking_id"`
	Amount              MoneyDTO   `json:"amount"`
	Method              string     `json:"method"`
	Status              string     `json:"status"`
	TransactionID       string     `json:"transaction_id,omitempty"`
	Refund              *RefundDTO `json:"refund,omitempty"`
	NeedsReconciliation bool       `json:"needs_reconciliation"`
	CreatedAt           time.Time  `json:"created_at"`
}

func MapPayment(p *domainpayment.Payment) PaymentDTO {
	out := PaymentDTO{
		ID:                  string(p.ID),
		BookingID:           string(p.BookingID),
		Amount:              MapMoney(p.Amount),
		Method:              string(p.Method),
		Status:              string(p.Status),
		TransactionID:       p.TransactionID,
		NeedsReconciliation: p.NeedsReconciliation,
		CreatedAt:           p.CreatedAt,
	}
	if p.Refund != nil {
		out.Refund = &RefundDTO{
			Amount:     MapMoney(p.Refund.Amount),
			Reason:     p.Refund.Reason,
			RefundID:   p.Refund.RefundID,
			RefundedAt: p.Refund.RefundedAt,
		}
	}
	return out
}
