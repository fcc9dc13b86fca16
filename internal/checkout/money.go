package checkout

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// MinorUnits converts a decimal dollar price into integer minor currency
// units, rounding half away from zero ($19.995 -> 2000). Done with decimals
// because float64 19.995*100 is 1999.499..., which math.Round gets wrong.
func MinorUnits(price float64) int64 {
	return decimal.NewFromFloat(price).Mul(hundred).Round(0).IntPart()
}

// Dollars converts integer minor currency units back to decimal dollars.
func Dollars(minorUnits int64) float64 {
	f, _ := decimal.NewFromInt(minorUnits).Div(hundred).Float64()
	return f
}
