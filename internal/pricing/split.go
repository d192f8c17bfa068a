// Package pricing turns a nightly price into the financial split stored
// on a booking.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-booking-engine/internal/model"
)

// scale is the number of decimal places of every monetary output.
const scale = 2

var one = decimal.NewFromInt(1)

// Breakdown is the financial split of one booking.  TotalAmount equals
// Subtotal+TaxAmount and CommissionAmount+HotelPayout to the cent.
type Breakdown struct {
	Subtotal         decimal.Decimal
	TaxAmount        decimal.Decimal
	TotalAmount      decimal.Decimal
	CommissionAmount decimal.Decimal
	HotelPayout      decimal.Decimal
}

// Rates are the tax and platform commission applied to every booking,
// expressed as fractions (0.07 for 7%).
type Rates struct {
	Tax        decimal.Decimal
	Commission decimal.Decimal
}

// Split computes the breakdown of basePrice x nights x numRooms.
//
// Subtotal, tax and commission are each rounded half-to-even once, from
// unrounded inputs.  Commission is taken on the unrounded total, tax
// included.  TotalAmount and HotelPayout are derived from the rounded
// parts so that both sums are exact.
func Split(basePrice decimal.Decimal, nights, numRooms int, taxRate, commissionRate decimal.Decimal) (Breakdown, error) {
	switch {
	case !basePrice.IsPositive():
		return Breakdown{}, &model.ValidationError{Field: "base_price", Reason: "must be positive"}
	case nights <= 0:
		return Breakdown{}, &model.ValidationError{Field: "nights", Reason: "must be positive"}
	case numRooms <= 0:
		return Breakdown{}, &model.ValidationError{Field: "num_rooms", Reason: "must be positive"}
	case !validRate(taxRate):
		return Breakdown{}, &model.ValidationError{Field: "tax_rate", Reason: "must be between 0 and 1"}
	case !validRate(commissionRate):
		return Breakdown{}, &model.ValidationError{Field: "commission_rate", Reason: "must be between 0 and 1"}
	}

	exact := basePrice.Mul(decimal.NewFromInt(int64(nights))).Mul(decimal.NewFromInt(int64(numRooms)))
	exactTax := exact.Mul(taxRate)

	subtotal := exact.RoundBank(scale)
	tax := exactTax.RoundBank(scale)
	total := subtotal.Add(tax)
	commission := exact.Add(exactTax).Mul(commissionRate).RoundBank(scale)
	payout := total.Sub(commission)

	return Breakdown{
		Subtotal:         subtotal.Round(scale),
		TaxAmount:        tax.Round(scale),
		TotalAmount:      total.Round(scale),
		CommissionAmount: commission.Round(scale),
		HotelPayout:      payout.Round(scale),
	}, nil
}

// Split is a convenience wrapper applying r.
func (r Rates) Split(basePrice decimal.Decimal, nights, numRooms int) (Breakdown, error) {
	return Split(basePrice, nights, numRooms, r.Tax, r.Commission)
}

// Apply copies the breakdown onto a booking.
func (b Breakdown) Apply(dst *model.Booking) {
	dst.Subtotal = b.Subtotal
	dst.TaxAmount = b.TaxAmount
	dst.TotalAmount = b.TotalAmount
	dst.CommissionAmount = b.CommissionAmount
	dst.HotelPayout = b.HotelPayout
}

func validRate(r decimal.Decimal) bool {
	return !r.IsNegative() && r.LessThanOrEqual(one)
}
