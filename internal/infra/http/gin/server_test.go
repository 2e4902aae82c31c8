package ginserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"

	bookingapp "staymarket/internal/app/handlers/booking"
	"staymarket/internal/app/queries"
	authservice "staymarket/internal/app/services/auth"
	domainbooking "staymarket/internal/domain/booking"
	domainlistings "staymarket/internal/domain/listings"
	"staymarket/internal/domain/shared/daterange"
	"staymarket/internal/domain/shared/money"
	"staymarket/internal/infra/security"
	"staymarket/internal/infra/storage/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestStatusForError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domainlistings.ErrNotFound, http.StatusNotFound},
		{domainbooking.ErrNotFound, http.StatusNotFound},
		{bookingapp.ErrPermissionDenied, http.StatusForbidden},
		{authservice.ErrInvalidCredentials, http.StatusUnauthorized},
		{bookingapp.ErrListingUnavailable, http.StatusConflict},
		{bookingapp.ErrHostMustDecline, http.StatusConflict},
		{domainbooking.ErrInvalidTransition, http.StatusConflict},
		{domainbooking.ErrCheckOutNotReached, http.StatusConflict},
		{bookingapp.ErrPaymentNotSettled, http.StatusConflict},
		{daterange.ErrInvalidRange, http.StatusBadRequest},
		{domainbooking.ErrCheckInInPast, http.StatusBadRequest},
		{bookingapp.ErrGuestsExceedLimit, http.StatusBadRequest},
		{authservice.ErrPasswordTooShort, http.StatusBadRequest},
		{errors.New("anything else"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusForError(tc.err); got != tc.want {
			t.Errorf("statusForError(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

// bookedRange returns the deterministic stay availabilityRouter seeds,
// anchored a month out so the fixture never slides into the past.
func bookedRange(t *testing.T) daterange.DateRange {
	t.Helper()
	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	dr, err := daterange.New(start, start.AddDate(0, 0, 5))
	if err != nil {
		t.Fatalf("daterange.New: %v", err)
	}
	return dr
}

func day(ts time.Time) string {
	return ts.Format("2006-01-02")
}

func availabilityRouter(t *testing.T) *gin.Engine {
	t.Helper()
	listings := memory.NewListingRepository()
	bookings := memory.NewBookingRepository()
	payments := memory.NewPaymentRepository()
	factory := memory.Factory{ListingsRepo: listings, BookingRepo: bookings, PaymentRepo: payments}

	now := time.Now().UTC()
	listing, err := domainlistings.NewListing(domainlistings.CreateParams{
		ID:          "lst-1",
		Host:        "host-1",
		Title:       "Harbor loft",
		NightlyRate: money.Must(10000, "USD"),
		CleaningFee: money.Must(2500, "USD"),
		GuestsLimit: 4,
		Now:         now,
	})
	if err != nil {
		t.Fatalf("NewListing: %v", err)
	}
	if err := listing.Activate(now); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if err := listings.Save(context.Background(), listing); err != nil {
		t.Fatalf("save listing: %v", err)
	}

	dr := bookedRange(t)
	total := money.Must(50000, "USD")
	booked, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        "bkg-1",
		ListingID: "lst-1",
		GuestID:   "guest-1",
		HostID:    "host-1",
		Range:     dr,
		Guests:    2,
		Price: domainbooking.Breakdown{
			Base:     total,
			Cleaning: money.Zero("USD"),
			Service:  money.Zero("USD"),
			Taxes:    money.Zero("USD"),
			Total:    total,
		},
		CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("NewBooking: %v", err)
	}
	if err := bookings.Save(context.Background(), booked); err != nil {
		t.Fatalf("save booking: %v", err)
	}

	bus := queries.NewInMemoryBus()
	queries.RegisterHandler(bus, bookingapp.CheckAvailabilityQuery{}.Key(),
		&bookingapp.CheckAvailabilityHandler{UoWFactory: factory})
	queries.RegisterHandler(bus, bookingapp.ListingCalendarQuery{}.Key(),
		&bookingapp.ListingCalendarHandler{UoWFactory: factory})

	h := AvailabilityHandler{Queries: bus}
	engine := gin.New()
	engine.GET("/listings/:id/availability", h.Check)
	engine.GET("/listings/:id/calendar", h.Calendar)
	return engine
}

func TestAvailabilityEndpoint(t *testing.T) {
	engine := availabilityRouter(t)
	dr := bookedRange(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/listings/lst-1/availability?check_in="+day(dr.CheckIn.AddDate(0, 0, 2))+
			"&check_out="+day(dr.CheckOut.AddDate(0, 0, 2)), nil)
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var body bookingapp.CheckAvailabilityResult
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Available || body.Conflicts != 1 {
		t.Fatalf("body = %+v, want unavailable with one conflict", body)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet,
		"/listings/lst-1/availability?check_in="+day(dr.CheckOut)+
			"&check_out="+day(dr.CheckOut.AddDate(0, 0, 5)), nil)
	engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Available {
		t.Fatalf("back-to-back window reported unavailable: %+v", body)
	}
}

func TestAvailabilityEndpointValidation(t *testing.T) {
	engine := availabilityRouter(t)

	dr := bookedRange(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/listings/lst-1/availability?check_in="+day(dr.CheckIn), nil)
	engine.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing check_out: status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet,
		"/listings/lst-9/availability?check_in="+day(dr.CheckIn)+"&check_out="+day(dr.CheckOut), nil)
	engine.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown listing: status = %d", w.Code)
	}
}

func TestCalendarEndpoint(t *testing.T) {
	engine := availabilityRouter(t)

	dr := bookedRange(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/listings/lst-1/calendar?from="+day(dr.CheckIn.AddDate(0, 0, -5))+
			"&to="+day(dr.CheckOut.AddDate(0, 0, 20)), nil)
	engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var body bookingapp.ListingCalendarResult
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Entries) != 1 || body.Entries[0].BookingID != "bkg-1" {
		t.Fatalf("entries = %+v", body.Entries)
	}
}

func TestAuthMiddlewareRoles(t *testing.T) {
	svc := &authservice.Service{
		Users:      memory.NewUserRepository(),
		Sessions:   memory.NewSessionStore(),
		Passwords:  security.BcryptHasher{Cost: 4},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: time.Hour,
	}
	guest, err := svc.Register(context.Background(), authservice.RegisterParams{
		Email: "guest@example.com", Name: "Ana", Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("register guest: %v", err)
	}
	host, err := svc.Register(context.Background(), authservice.RegisterParams{
		Email: "host@example.com", Name: "Bo", Password: "correct horse", WantToHost: true,
	})
	if err != nil {
		t.Fatalf("register host: %v", err)
	}

	m := AuthMiddleware{Service: svc}
	engine := gin.New()
	engine.GET("/host/ping", m.Handle, func(c *gin.Context) {
		if _, ok := requireRole(c, "host"); !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"bad token", "Bearer not-a-session", http.StatusUnauthorized},
		{"guest token", "Bearer " + guest.Token, http.StatusForbidden},
		{"host token", "Bearer " + host.Token, http.StatusOK},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/host/ping", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		engine.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.name, w.Code, tc.want)
		}
	}
}
