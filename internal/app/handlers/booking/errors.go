package booking

import "errors"

var (
	ErrUnitOfWorkRequired = errors.New("booking: unit of work required")
	ErrListingUnavailable = errors.New("booking: listing is not available for the selected dates")
	ErrListingNotBookable = errors.New("booking: listing is not accepting bookings")
	ErrGuestsExceedLimit  = errors.New("booking: party size exceeds the listing capacity")
	ErrPermissionDenied   = errors.New("booking: requester is not a party to this booking")
	ErrHostMustDecline    = errors.New("booking: hosts decline pending requests instead of cancelling them")
	ErrPaymentNotSettled  = errors.New("booking: payment has not succeeded yet")
	ErrGatewayFailure     = errors.New("booking: payment gateway failure")
)
