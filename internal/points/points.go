package points

import "github.com/shopspring/decimal"

var ten = decimal.NewFromInt(10)

// Earned computes the points awarded for a completed run total:
// one point per $10 spent, rounded half to even.
func Earned(total decimal.Decimal) int {
	return int(total.Div(ten).RoundBank(0).IntPart())
}

// Value returns the dollar value of a balance: $5 per complete block of 10
// points, fractional blocks are worth nothing.
func Value(points int) int {
	if points < 0 {
		return 0
	}
	return points / 10 * 5
}

// Redeemable returns the portion of a balance consumable by redemption,
// always whole 10-point blocks.
func Redeemable(points int) int {
	if points < 0 {
		return 0
	}
	return points / 10 * 10
}
