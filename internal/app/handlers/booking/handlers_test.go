package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"staymarket/internal/app/guard"
	"staymarket/internal/app/policies"
	"staymarket/internal/app/uow"
	domainlistings "staymarket/internal/domain/listings"
	"staymarket/internal/domain/shared/money"
	"staymarket/internal/infra/storage/memory"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

// fakeGateway returns scripted outcomes and counts calls so tests can assert
// the gateway was (or was not) reached.
type fakeGateway struct {
	mu          sync.Mutex
	charge      policies.ChargeResult
	chargeErr   error
	refund      policies.RefundResult
	refundErr   error
	chargeCalls int
	refundCalls int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		charge: policies.ChargeResult{Success: true, TransactionID: "card_1748779200_1234"},
		refund: policies.RefundResult{Success: true, RefundID: "REF_1748779200"},
	}
}

func (g *fakeGateway) Charge(ctx context.Context, req policies.ChargeRequest) (policies.ChargeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.chargeCalls++
	return g.charge, g.chargeErr
}

func (g *fakeGateway) Refund(ctx context.Context, req policies.RefundRequest) (policies.RefundResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refundCalls++
	return g.refund, g.refundErr
}

func (g *fakeGateway) refunds() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.refundCalls
}

type testEnv struct {
	listings *memory.ListingRepository
	bookings *memory.BookingRepository
	payments *memory.PaymentRepository
	factory  memory.Factory
	gateway  *fakeGateway
	buffer   *memory.Outbox
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		listings: memory.NewListingRepository(),
		bookings: memory.NewBookingRepository(),
		payments: memory.NewPaymentRepository(),
		gateway:  newFakeGateway(),
		buffer:   memory.NewOutbox(),
	}
	env.factory = memory.Factory{
		ListingsRepo: env.listings,
		BookingRepo:  env.bookings,
		PaymentRepo:  env.payments,
	}
	return env
}

func (e *testEnv) addListing(t *testing.T, id, host string, activate bool) *domainlistings.Listing {
	t.Helper()
	l, err := domainlistings.NewListing(domainlistings.CreateParams{
		ID:          domainlistings.ListingID(id),
		Host:        domainlistings.HostID(host),
		Title:       "Harbor loft",
		City:        "Lisbon",
		Country:     "PT",
		NightlyRate: money.Must(10000, "USD"),
		CleaningFee: money.Must(2500, "USD"),
		GuestsLimit: 4,
		Now:         testNow,
	})
	if err != nil {
		t.Fatalf("NewListing: %v", err)
	}
	if activate {
		if err := l.Activate(testNow); err != nil {
			t.Fatalf("Activate: %v", err)
		}
	}
	l.ClearEvents()
	if err := e.listings.Save(context.Background(), l); err != nil {
		t.Fatalf("save listing: %v", err)
	}
	return l
}

func (e *testEnv) requestHandler() *RequestBookingHandler {
	return &RequestBookingHandler{
		UoWFactory: e.factory,
		Guard:      guard.NewListingGuard(),
		Gateway:    e.gateway,
		Outbox:     e.buffer,
		Now:        func() time.Time { return testNow },
	}
}

func (e *testEnv) requestCommand(id string, checkIn, checkOut time.Time) RequestBookingCommand {
	return RequestBookingCommand{
		CommandID:      id,
		ListingID:      "lst-1",
		GuestID:        "guest-1",
		CheckIn:        checkIn,
		CheckOut:       checkOut,
		Guests:         2,
		PaymentMethod:  "card",
		PaymentDetails: map[string]string{"card_number": "4242424242424242"},
	}
}

// request books lst-1 for guest-1 and fails the test on any error.
func (e *testEnv) request(t *testing.T, id string, checkIn, checkOut time.Time) *RequestBookingResult {
	t.Helper()
	res, err := e.requestHandler().Handle(context.Background(), e.requestCommand(id, checkIn, checkOut))
	if err != nil {
		t.Fatalf("request booking %s: %v", id, err)
	}
	return res
}

// unitCtx provides the unit of work the transaction middleware would inject.
func (e *testEnv) unitCtx(t *testing.T) context.Context {
	t.Helper()
	unit, err := e.factory.Begin(context.Background(), uow.TxOptions{})
	if err != nil {
		t.Fatalf("begin unit: %v", err)
	}
	return uow.ContextWithUnitOfWork(context.Background(), unit)
}

func (e *testEnv) cancelHandler(now time.Time) *CancelBookingHandler {
	return &CancelBookingHandler{
		Gateway: e.gateway,
		Outbox:  e.buffer,
		Now:     func() time.Time { return now },
	}
}

func (e *testEnv) confirmHandler() *ConfirmHostBookingHandler {
	return &ConfirmHostBookingHandler{Now: func() time.Time { return testNow }}
}

func (e *testEnv) declineHandler(now time.Time) *DeclineHostBookingHandler {
	return &DeclineHostBookingHandler{
		Gateway: e.gateway,
		Outbox:  e.buffer,
		Now:     func() time.Time { return now },
	}
}
