package payments

import (
	"context"
	"strings"
	"testing"

	"staymarket/internal/app/policies"
	domainpayment "staymarket/internal/domain/payment"
	"staymarket/internal/domain/shared/money"
)

func chargeReq(method domainpayment.Method, details map[string]string) policies.ChargeRequest {
	return policies.ChargeRequest{
		BookingID: "bkg-1",
		Method:    method,
		Amount:    money.Must(48100, "USD"),
		Details:   details,
	}
}

func TestChargeValidatesInstrument(t *testing.T) {
	g := &SimulatedGateway{}
	cases := []struct {
		name       string
		req        policies.ChargeRequest
		wantReason string
	}{
		{"missing card", chargeReq(domainpayment.MethodCard, nil), "Card details are required"},
		{"short card", chargeReq(domainpayment.MethodCard, map[string]string{DetailCardNumber: "4242"}), "Invalid card number"},
		{"alpha card", chargeReq(domainpayment.MethodCard, map[string]string{DetailCardNumber: "4242abcd42424242"}), "Invalid card number"},
		{"missing upi", chargeReq(domainpayment.MethodUPI, nil), "UPI ID is required for UPI payments"},
		{"bad upi", chargeReq(domainpayment.MethodUPI, map[string]string{DetailUPIID: "no-at-sign"}), "Invalid UPI ID format"},
		{"unsupported method", chargeReq("crypto", nil), "Unsupported payment method"},
	}
	for _, tc := range cases {
		res, err := g.Charge(context.Background(), tc.req)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if res.Success {
			t.Errorf("%s: charge succeeded", tc.name)
		}
		if res.FailureReason != tc.wantReason {
			t.Errorf("%s: reason = %q, want %q", tc.name, res.FailureReason, tc.wantReason)
		}
	}
}

func TestChargeRejectsNonPositiveAmount(t *testing.T) {
	g := &SimulatedGateway{}
	req := chargeReq(domainpayment.MethodCard, map[string]string{DetailCardNumber: "4242424242424242"})
	req.Amount = money.Zero("USD")
	res, err := g.Charge(context.Background(), req)
	if err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if res.Success || res.FailureReason != "Invalid payment amount" {
		t.Fatalf("result = %+v", res)
	}
}

func TestChargeTransactionIDShapes(t *testing.T) {
	g := &SimulatedGateway{}
	cases := []struct {
		req    policies.ChargeRequest
		prefix string
	}{
		{chargeReq(domainpayment.MethodCard, map[string]string{DetailCardNumber: "4242 4242 4242 4242"}), "card_"},
		{chargeReq(domainpayment.MethodPayPal, nil), "paypal_"},
		{chargeReq(domainpayment.MethodBank, nil), "BT_"},
		{chargeReq(domainpayment.MethodUPI, map[string]string{DetailUPIID: "guest@upi"}), "upi_"},
	}
	for _, tc := range cases {
		res, err := g.Charge(context.Background(), tc.req)
		if err != nil {
			t.Fatalf("%s: %v", tc.prefix, err)
		}
		if !res.Success {
			t.Fatalf("%s: charge failed: %s", tc.prefix, res.FailureReason)
		}
		if !strings.HasPrefix(res.TransactionID, tc.prefix) {
			t.Errorf("transaction id %q missing prefix %q", res.TransactionID, tc.prefix)
		}
	}
}

func TestProcessingFeeSchedule(t *testing.T) {
	g := &SimulatedGateway{}
	cases := []struct {
		method domainpayment.Method
		amount int64
		want   int64
	}{
		{domainpayment.MethodCard, 10000, 290},
		{domainpayment.MethodCard, 101, 3},   // 2.929 rounds half-up
		{domainpayment.MethodPayPal, 10000, 340},
		{domainpayment.MethodBank, 10000, 0},
		{domainpayment.MethodUPI, 10000, 0},
	}
	for _, tc := range cases {
		if got := g.ProcessingFee(tc.method, tc.amount); got != tc.want {
			t.Errorf("fee(%s, %d) = %d, want %d", tc.method, tc.amount, got, tc.want)
		}
	}
}

func TestRefundRequiresTransaction(t *testing.T) {
	g := &SimulatedGateway{}
	res, err := g.Refund(context.Background(), policies.RefundRequest{
		TransactionID: " ",
		Amount:        money.Must(100, "USD"),
	})
	if err != nil {
		t.Fatalf("Refund: %v", err)
	}
	if res.Success || res.FailureReason != "Unknown transaction" {
		t.Fatalf("result = %+v", res)
	}

	ok, err := g.Refund(context.Background(), policies.RefundRequest{
		TransactionID: "card_1_abc",
		Amount:        money.Must(100, "USD"),
	})
	if err != nil {
		t.Fatalf("Refund: %v", err)
	}
	if !ok.Success || !strings.HasPrefix(ok.RefundID, "REF_") {
		t.Fatalf("result = %+v", ok)
	}
}

func TestChargeHonorsCancelledContext(t *testing.T) {
	g := &SimulatedGateway{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Charge(ctx, chargeReq(domainpayment.MethodCard, map[string]string{DetailCardNumber: "4242424242424242"}))
	if err == nil {
		t.Fatal("cancelled context should abort the charge")
	}
}
