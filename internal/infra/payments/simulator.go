package payments

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"staymarket/internal/app/policies"
	domainpayment "staymarket/internal/domain/payment"
)

// Detail keys the simulator understands.
const (
	DetailCardNumber = "card_number"
	DetailUPIID      = "upi_id"
)

var upiPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9.-]+$`)

// SimulatedGateway stands in for a real payment provider. It validates the
// instrument per method, applies the provider's processing fee schedule and
// produces transaction ids in the provider's shapes. No money moves.
type SimulatedGateway struct {
	// Delay emulates provider latency per call; zero skips the sleep.
	Delay  time.Duration
	Logger *slog.Logger
}

func (g *SimulatedGateway) Charge(ctx context.Context, req policies.ChargeRequest) (policies.ChargeResult, error) {
	if err := g.wait(ctx); err != nil {
		return policies.ChargeResult{}, err
	}
	if req.Amount.Amount <= 0 {
		return policies.ChargeResult{FailureReason: "Invalid payment amount"}, nil
	}
	if !methodSupported(req.Method) {
		return policies.ChargeResult{FailureReason: "Unsupported payment method"}, nil
	}
	if reason := g.validateInstrument(req); reason != "" {
		return policies.ChargeResult{FailureReason: reason}, nil
	}

	txnID := g.transactionID(req.Method)
	if g.Logger != nil {
		g.Logger.Debug("charge simulated",
			"booking_id", req.BookingID, "method", req.Method,
			"amount", req.Amount.String(), "fee", g.ProcessingFee(req.Method, req.Amount.Amount))
	}
	return policies.ChargeResult{Success: true, TransactionID: txnID}, nil
}

func (g *SimulatedGateway) Refund(ctx context.Context, req policies.RefundRequest) (policies.RefundResult, error) {
	if err := g.wait(ctx); err != nil {
		return policies.RefundResult{}, err
	}
	if strings.TrimSpace(req.TransactionID) == "" {
		return policies.RefundResult{FailureReason: "Unknown transaction"}, nil
	}
	if req.Amount.Amount <= 0 {
		return policies.RefundResult{FailureReason: "Invalid refund amount"}, nil
	}
	refundID := fmt.Sprintf("REF_%d_%s", time.Now().UnixMilli(), randomSuffix(9))
	if g.Logger != nil {
		g.Logger.Debug("refund simulated",
			"transaction_id", req.TransactionID, "amount", req.Amount.String(), "reason", req.Reason)
	}
	return policies.RefundResult{Success: true, RefundID: refundID}, nil
}

func (g *SimulatedGateway) validateInstrument(req policies.ChargeRequest) string {
	switch req.Method {
	case domainpayment.MethodCard:
		number := strings.ReplaceAll(req.Details[DetailCardNumber], " ", "")
		if number == "" {
			return "Card details are required"
		}
		if !validCardNumber(number) {
			return "Invalid card number"
		}
	case domainpayment.MethodUPI:
		upiID := strings.TrimSpace(req.Details[DetailUPIID])
		if upiID == "" {
			return "UPI ID is required for UPI payments"
		}
		if !validUPIID(upiID) {
			return "Invalid UPI ID format"
		}
	}
	return ""
}

// ProcessingFee returns the fee in minor units the provider keeps:
// 2.9% on cards, 3.4% on PayPal, free for bank transfers and UPI.
func (g *SimulatedGateway) ProcessingFee(method domainpayment.Method, amount int64) int64 {
	switch method {
	case domainpayment.MethodCard:
		return (amount*29 + 500) / 1000
	case domainpayment.MethodPayPal:
		return (amount*34 + 500) / 1000
	default:
		return 0
	}
}

func (g *SimulatedGateway) transactionID(method domainpayment.Method) string {
	now := time.Now().UnixMilli()
	switch method {
	case domainpayment.MethodCard:
		return fmt.Sprintf("card_%d_%s", now, randomSuffix(9))
	case domainpayment.MethodPayPal:
		return fmt.Sprintf("paypal_%d", now)
	case domainpayment.MethodBank:
		return fmt.Sprintf("BT_%d_%s", now, randomSuffix(9))
	case domainpayment.MethodUPI:
		return fmt.Sprintf("upi_%d_%s", now, randomSuffix(9))
	default:
		return fmt.Sprintf("TXN_%d_%s", now, randomSuffix(9))
	}
}

func (g *SimulatedGateway) wait(ctx context.Context) error {
	if g.Delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(g.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func validCardNumber(number string) bool {
	if len(number) < 13 || len(number) > 19 {
		return false
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func validUPIID(upiID string) bool {
	if len(upiID) < 5 || len(upiID) > 50 {
		return false
	}
	return upiPattern.MatchString(upiID)
}

func methodSupported(m domainpayment.Method) bool {
	for _, candidate := range domainpayment.SupportedMethods {
		if m == candidate {
			return true
		}
	}
	return false
}

func randomSuffix(n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	out := make([]byte, n)
	for i := range out {
		out[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(out)
}

var _ policies.PaymentGateway = (*SimulatedGateway)(nil)
