// Package bonus holds the deposit bonus tier table.
package bonus

import "github.com/shopspring/decimal"

// Tier grants Rate on credited amounts of at least Threshold wallet units.
type Tier struct {
	Threshold int64           `json:"threshold"`
	Rate      decimal.Decimal `json:"rate"`
}

// tiers ordered by descending threshold
var tiers = []Tier{
	{Threshold: 2000, Rate: decimal.New(15, -2)},
	{Threshold: 1000, Rate: decimal.New(12, -2)},
	{Threshold: 500, Rate: decimal.New(10, -2)},
	{Threshold: 200, Rate: decimal.New(75, -3)},
	{Threshold: 100, Rate: decimal.New(5, -2)},
}

// Tiers returns a copy of the tier table, highest threshold first.
func Tiers() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}

// Rate for a credited amount; zero below the lowest threshold.
func Rate(credited int64) decimal.Decimal {
	for _, t := range tiers {
		if credited >= t.Threshold {
			return t.Rate
		}
	}
	return decimal.Zero
}

// Compute returns floor(credited * rate).
func Compute(credited int64) int64 {
	if credited <= 0 {
		return 0
	}
	return decimal.NewFromInt(credited).Mul(Rate(credited)).Floor().IntPart()
}
