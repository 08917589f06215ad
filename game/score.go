package game

import (
	"github.com/numberplay/numberplay-backend/models"
	"github.com/shopspring/decimal"
)

// Prize schedule, evaluated top down: the first threshold the number
// exceeds decides the rate.
var prizeTiers = []struct {
	above int
	rate  decimal.Decimal
}{
	{above: 900, rate: decimal.RequireFromString("0.70")},
	{above: 600, rate: decimal.RequireFromString("0.50")},
	{above: 300, rate: decimal.RequireFromString("0.30")},
	{above: 0, rate: decimal.RequireFromString("0.10")},
}

// Score classifies a play. Even numbers win and carry a prize, odd numbers
// lose and carry none. The caller is responsible for keeping number inside
// [1, 9999]; Score itself never fails.
func Score(number int) (models.Outcome, *decimal.Decimal) {
	if number%2 != 0 {
		return models.OutcomeLose, nil
	}
	prize := CalculatePrize(number)
	return models.OutcomeWin, &prize
}

// CalculatePrize applies the tiered percentage schedule to a winning
// number, rounded to two decimal places.
func CalculatePrize(number int) decimal.Decimal {
	n := decimal.NewFromInt(int64(number))
	for _, tier := range prizeTiers {
		if number > tier.above {
			return n.Mul(tier.rate).Round(2)
		}
	}
	// Unreachable: the last tier matches every positive number.
	return decimal.Zero
}
