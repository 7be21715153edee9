package services

import (
	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/markethub/config"
)

var hundred = decimal.NewFromInt(100)

// Split is one order line divided between the platform and the vendor.
type Split struct {
	Line       decimal.Decimal
	Commission decimal.Decimal
	Vendor     decimal.Decimal
}

// SplitLine computes price*qty and the platform's share at rate percent,
// rounded half away from zero to cents. The vendor gets the remainder so
// the two shares always add back to the line total.
func SplitLine(price decimal.Decimal, qty int, rate decimal.Decimal) Split {
	line := price.Mul(decimal.NewFromInt(int64(qty)))
	commission := line.Mul(rate).Div(hundred).Round(2)
	return Split{
		Line:       line,
		Commission: commission,
		Vendor:     line.Sub(commission),
	}
}

// rateFor returns the stored rate of a vendor with a store, or the default
// rate for one without.
func rateFor(rates map[string]decimal.Decimal, vendorID string) decimal.Decimal {
	if r, ok := rates[vendorID]; ok {
		return r
	}
	return config.DefaultCommissionRate()
}
