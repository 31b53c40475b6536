package pricing

import (
	"math"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ApplyDiscount returns round(basePrice * (1 - percent/100)).
// Only the final product is rounded, half away from zero, which for the
// non-negative prices accepted here is round-half-up.
func ApplyDiscount(basePrice int64, percent float64) (int64, error) {
	p, err := validateDiscount(basePrice, percent)
	if err != nil {
		return 0, err
	}
	factor := hundred.Sub(p)
	return decimal.NewFromInt(basePrice).Mul(factor).Div(hundred).Round(0).IntPart(), nil
}

// DiscountAmount returns round(basePrice * percent/100).
func DiscountAmount(basePrice int64, percent float64) (int64, error) {
	p, err := validateDiscount(basePrice, percent)
	if err != nil {
		return 0, err
	}
	return decimal.NewFromInt(basePrice).Mul(p).Div(hundred).Round(0).IntPart(), nil
}

func validateDiscount(basePrice int64, percent float64) (decimal.Decimal, error) {
	if basePrice < 0 {
		return decimal.Zero, invalid("base_price", basePrice, "must be non-negative")
	}
	if math.IsNaN(percent) || math.IsInf(percent, 0) {
		return decimal.Zero, invalid("discount_percent", percent, "must be a finite number")
	}
	if percent < 0 || percent > 100 {
		return decimal.Zero, invalid("discount_percent", percent, "must be within [0, 100]")
	}
	return decimal.NewFromFloat(percent), nil
}
