// Package odds converts between American prices and implied probabilities,
// strips bookmaker margin, and blends weighted quotes into a consensus pair.
package odds

import (
	"math"

	"github.com/shopspring/decimal"
)

// priceDecimals is the precision probability-derived prices are rounded to.
const priceDecimals = 4

// Price returns a pointer to v. Absent prices are represented by nil.
func Price(v float64) *float64 {
	return &v
}

// Implied converts an American price to its implied probability.
// Prices in the invalid 0..99 band are treated like favorites so the
// function stays total over numeric input.
func Implied(american float64) float64 {
	if american >= 100 {
		return 100 / (american + 100)
	}
	a := math.Abs(american)
	return a / (a + 100)
}

// AmericanToImplied is Implied for an optional price; nil yields 0.
func AmericanToImplied(american *float64) float64 {
	if american == nil {
		return 0
	}
	return Implied(*american)
}

// ProbToAmerican converts a probability to an American price rounded to
// four decimal places. It returns nil outside the open interval (0, 1).
func ProbToAmerican(p float64) *float64 {
	if math.IsNaN(p) || p <= 0 || p >= 1 {
		return nil
	}
	var american float64
	if p >= 0.5 {
		american = -(p / (1 - p)) * 100
	} else {
		american = 100/p - 100
	}
	rounded := decimal.NewFromFloat(american).Round(priceDecimals).InexactFloat64()
	return &rounded
}

// AmericanToDecimal converts an American price to decimal (European) odds.
// A zero price has no decimal equivalent and returns 0.
func AmericanToDecimal(american float64) float64 {
	if american >= 100 {
		return american/100 + 1
	}
	if american == 0 {
		return 0
	}
	return 100/math.Abs(american) + 1
}
