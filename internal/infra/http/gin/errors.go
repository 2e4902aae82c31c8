package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	bookingapp "staymarket/internal/app/handlers/booking"
	listingsapp "staymarket/internal/app/handlers/listings"
	paymentsapp "staymarket/internal/app/handlers/payments"
	authservice "staymarket/internal/app/services/auth"
	domainauth "staymarket/internal/domain/auth"
	domainbooking "staymarket/internal/domain/booking"
	domainlistings "staymarket/internal/domain/listings"
	domainpayment "staymarket/internal/domain/payment"
	"staymarket/internal/domain/shared/daterange"
	"staymarket/internal/domain/shared/money"
	domainuser "staymarket/internal/domain/user"
)

// statusForError maps domain and application failures onto HTTP statuses:
// validation 400, auth 401/403, missing 404, state conflicts 409.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domainlistings.ErrNotFound),
		errors.Is(err, domainbooking.ErrNotFound),
		errors.Is(err, domainpayment.ErrNotFound),
		errors.Is(err, domainuser.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, bookingapp.ErrPermissionDenied),
		errors.Is(err, paymentsapp.ErrPermissionDenied),
		errors.Is(err, listingsapp.ErrListingNotOwned):
		return http.StatusForbidden

	case errors.Is(err, authservice.ErrInvalidCredentials),
		errors.Is(err, domainauth.ErrSessionNotFound),
		errors.Is(err, domainauth.ErrTokenRequired):
		return http.StatusUnauthorized

	case errors.Is(err, bookingapp.ErrListingUnavailable),
		errors.Is(err, bookingapp.ErrHostMustDecline),
		errors.Is(err, domainbooking.ErrDateRangeConflict),
		errors.Is(err, domainbooking.ErrInvalidTransition),
		errors.Is(err, domainbooking.ErrCheckInPassed),
		errors.Is(err, domainbooking.ErrCheckOutNotReached),
		errors.Is(err, domainpayment.ErrInvalidTransition),
		errors.Is(err, domainpayment.ErrAlreadyRefunded),
		errors.Is(err, domainpayment.ErrNotRefundable),
		errors.Is(err, bookingapp.ErrPaymentNotSettled),
		errors.Is(err, bookingapp.ErrListingNotBookable),
		errors.Is(err, domainuser.ErrEmailAlreadyUsed):
		return http.StatusConflict

	case errors.Is(err, daterange.ErrInvalidRange),
		errors.Is(err, domainbooking.ErrCheckInInPast),
		errors.Is(err, domainbooking.ErrInvalidGuests),
		errors.Is(err, domainbooking.ErrGuestRequired),
		errors.Is(err, bookingapp.ErrGuestsExceedLimit),
		errors.Is(err, domainpayment.ErrInvalidMethod),
		errors.Is(err, domainpayment.ErrInvalidAmount),
		errors.Is(err, money.ErrInvalidCurrency),
		errors.Is(err, money.ErrCurrencyMismatch),
		errors.Is(err, authservice.ErrPasswordTooShort):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusForError(err), gin.H{"error": err.Error()})
}
