// Package money implements the deterministic amount conversion policy for the
// relay: every decimal amount passes through an integer representation scaled
// by 1e8 before any storage, summing, or chain-unit conversion, so repeated
// conversions of the same input always produce the same result and binary
// floating point never enters the pipeline.
package money

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// ScaleDigits is the number of decimal places of the intermediate
// fixed-point representation.
const ScaleDigits = 8

var scaleFactor = new(big.Int).Exp(big.NewInt(10), big.NewInt(ScaleDigits), nil)

// ToScaled converts an amount to its integer 1e8-scaled representation,
// rounding half away from zero at the 8th decimal place.
func ToScaled(amount decimal.Decimal) int64 {
	return amount.Round(ScaleDigits).Shift(ScaleDigits).IntPart()
}

// FromScaled converts a 1e8-scaled integer back to a decimal amount.
func FromScaled(scaled int64) decimal.Decimal {
	return decimal.New(scaled, -ScaleDigits)
}

// Normalize rounds an amount to the canonical 8-decimal-place precision by
// round-tripping it through the scaled representation.
func Normalize(amount decimal.Decimal) decimal.Decimal {
	return FromScaled(ToScaled(amount))
}

// ToTokenUnits re-derives a token's native fixed-point units from the scaled
// representation, given the token's own decimal precision. The division
// truncates, which only matters for tokens with fewer than 8 decimals.
func ToTokenUnits(amount decimal.Decimal, tokenDecimals uint8) *big.Int {
	units := big.NewInt(ToScaled(amount))
	exp := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(tokenDecimals)), nil)
	units.Mul(units, exp)
	return units.Div(units, scaleFactor)
}

// Validate reports whether an amount is acceptable for a transfer: positive
// and within the 8-decimal-place precision bound after normalization.
func Validate(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("amount must be positive, got %s", amount)
	}
	if ToScaled(amount) == 0 {
		return fmt.Errorf("amount %s is below the minimum representable unit", amount)
	}
	return nil
}
