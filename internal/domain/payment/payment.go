package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"staymarket/internal/domain/booking"
	"staymarket/internal/domain/shared/money"
)

var (
	ErrIDRequired        = errors.New("payment: id is required")
	ErrBookingRequired   = errors.New("payment: booking id is required")
	ErrInvalidAmount     = errors.New("payment: amount must be positive")
	ErrInvalidMethod     = errors.New("payment: unsupported payment method")
	ErrInvalidTransition = errors.New("payment: invalid state transition")
	ErrNotRefundable     = errors.New("payment: only succeeded payments can be refunded")
	ErrAlreadyRefunded   = errors.New("payment: refund already recorded")
	ErrRefundExceedsPaid = errors.New("payment: refund exceeds the original amount")
	ErrNotFound          = errors.New("payment: not found")
)

type PaymentID string

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusRefunded   Status = "refunded"
)

type Method string

const (
	MethodCard   Method = "card"
	MethodPayPal Method = "paypal"
	MethodBank   Method = "bank"
	MethodUPI    Method = "upi"
)

// SupportedMethods lists the gateway methods the marketplace accepts.
var SupportedMethods = []Method{MethodCard, MethodPayPal, MethodBank, MethodUPI}

// Refund is recorded exactly once per payment.
type Refund struct {
	Amount     money.Money
	Reason     string
	RefundedAt time.Time
	RefundID   string
}

// Payment is a monetary transaction tied to at most one booking.
// NeedsReconciliation marks payments whose refund obligation could not be
// pushed through the gateway and awaits manual follow-up.
type Payment struct {
	ID                  PaymentID
	BookingID           booking.BookingID
	UserID              string
	Amount              money.Money
	Method              Method
	Status              Status
	TransactionID       string
	Refund              *Refund
	NeedsReconciliation bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Version             int64
}

type Repository interface {
	ByID(ctx context.Context, id PaymentID) (*Payment, error)
	ByBooking(ctx context.Context, bookingID booking.BookingID) (*Payment, error)
	Save(ctx context.Context, payment *Payment) error
}

type CreateParams struct {
	ID        PaymentID
	BookingID booking.BookingID
	UserID    string
	Amount    money.Money
	Method    Method
	CreatedAt time.Time
}

func New(params CreateParams) (*Payment, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.BookingID)) == "" {
		return nil, ErrBookingRequired
	}
	if params.Amount.Amount <= 0 || params.Amount.Currency == "" {
		return nil, ErrInvalidAmount
	}
	if !methodSupported(params.Method) {
		return nil, ErrInvalidMethod
	}
	now := params.CreatedAt.UTC()
	return &Payment{
		ID:        params.ID,
		BookingID: params.BookingID,
		UserID:    params.UserID,
		Amount:    params.Amount,
		Method:    params.Method,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (p *Payment) MarkProcessing(now time.Time) error {
	if p.Status != StatusPending {
		return ErrInvalidTransition
	}
	p.Status = StatusProcessing
	p.UpdatedAt = now.UTC()
	return nil
}

func (p *Payment) MarkSucceeded(transactionID string, now time.Time) error {
	if p.Status != StatusPending && p.Status != StatusProcessing {
		return ErrInvalidTransition
	}
	p.Status = StatusSucceeded
	p.TransactionID = strings.TrimSpace(transactionID)
	p.UpdatedAt = now.UTC()
	return nil
}

func (p *Payment) MarkFailed(now time.Time) error {
	if p.Status != StatusPending && p.Status != StatusProcessing {
		return ErrInvalidTransition
	}
	p.Status = StatusFailed
	p.UpdatedAt = now.UTC()
	return nil
}

// CanRefund reports whether a refund may still be applied.
func (p *Payment) CanRefund() bool {
	return p.Status == StatusSucceeded && p.Refund == nil
}

// ApplyRefund records the refund sub-record and moves the payment to
// refunded. It applies at most once and never for more than was paid.
func (p *Payment) ApplyRefund(amount money.Money, reason, refundID string, now time.Time) error {
	if p.Refund != nil {
		return ErrAlreadyRefunded
	}
	if p.Status != StatusSucceeded {
		return ErrNotRefundable
	}
	if amount.IsNegative() || amount.GreaterThan(p.Amount) {
		return ErrRefundExceedsPaid
	}
	at := now.UTC()
	p.Refund = &Refund{
		Amount:     amount,
		Reason:     reason,
		RefundedAt: at,
		RefundID:   refundID,
	}
	p.Status = StatusRefunded
	p.NeedsReconciliation = false
	p.UpdatedAt = at
	return nil
}

// FlagForReconciliation marks a refund obligation the gateway rejected; the
// payment stays succeeded until an operator settles it.
func (p *Payment) FlagForReconciliation(now time.Time) {
	p.NeedsReconciliation = true
	p.UpdatedAt = now.UTC()
}

func methodSupported(m Method) bool {
	for _, candidate := range SupportedMethods {
		if m == candidate {
			return true
		}
	}
	return false
}
