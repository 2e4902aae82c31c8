package booking

import (
	"errors"

	"staymarket/internal/domain/listings"
	"staymarket/internal/domain/shared/daterange"
	"staymarket/internal/domain/shared/money"
)

var (
	ErrNegativeComponent = errors.New("booking: price components cannot be negative")
	ErrCurrencyUnset     = errors.New("booking: price currency must be defined")
	ErrTotalMismatch     = errors.New("booking: total must equal the sum of components")
)

// Service fee charged on the nightly subtotal, matching the marketplace's
// standing 14% rate.
const serviceFeePercent = 14

// Breakdown is the monetary snapshot a booking carries. Total always equals
// Base + Cleaning + Service + Taxes and is never negative.
type Breakdown struct {
	Base     money.Money
	Cleaning money.Money
	Service  money.Money
	Taxes    money.Money
	Total    money.Money
}

func (p Breakdown) Validate() error {
	if p.Total.Currency == "" {
		return ErrCurrencyUnset
	}
	for _, component := range []money.Money{p.Base, p.Cleaning, p.Service, p.Taxes} {
		if component.IsNegative() {
			return ErrNegativeComponent
		}
	}
	sum := p.Base
	var err error
	for _, component := range []money.Money{p.Cleaning, p.Service, p.Taxes} {
		if sum, err = sum.Add(component); err != nil {
			return err
		}
	}
	if sum != p.Total || p.Total.IsNegative() {
		return ErrTotalMismatch
	}
	return nil
}

// Quote computes the price snapshot for a stay: nights x nightly rate, plus
// the service fee percentage of that subtotal, plus the listing's cleaning
// fee. Taxes are zero for now.
func Quote(listing *listings.Listing, dr daterange.DateRange) (Breakdown, error) {
	nights := dr.Nights()
	if nights <= 0 {
		return Breakdown{}, daterange.ErrInvalidRange
	}
	currency := listing.NightlyRate.Currency
	base := listing.NightlyRate.Multiply(int64(nights))
	service := base.Percent(serviceFeePercent)
	cleaning := listing.CleaningFee
	if cleaning.Currency == "" {
		cleaning = money.Zero(currency)
	}
	taxes := money.Zero(currency)

	total := base
	var err error
	for _, component := range []money.Money{cleaning, service, taxes} {
		if total, err = total.Add(component); err != nil {
			return Breakdown{}, err
		}
	}
	return Breakdown{Base: base, Cleaning: cleaning, Service: service, Taxes: taxes, Total: total}, nil
}
