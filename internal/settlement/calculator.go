package settlement

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Breakdown is the result of splitting a gross amount into platform fee
// and freelancer payout.
type Breakdown struct {
	Gross      decimal.Decimal
	Fee        decimal.Decimal
	Net        decimal.Decimal
	FeePercent decimal.Decimal
}

// Calculate splits gross into fee and net at the given fee percentage.
//
// The fee is rounded half-up to the smallest currency unit (2 decimal
// places) and the net is derived by subtraction, so Fee + Net == Gross
// holds exactly for every input. A fee that rounds above a sub-cent gross
// is clamped to the gross, so the net payout is never negative. The fee
// percent is captured on the resulting transaction so historical rows stay
// reproducible after the platform rate changes.
func Calculate(gross, feePercent decimal.Decimal) (Breakdown, error) {
	if gross.IsNegative() {
		return Breakdown{}, fmt.Errorf("gross amount must not be negative, got %s", gross)
	}
	if feePercent.IsNegative() || feePercent.GreaterThan(decimal.NewFromInt(100)) {
		return Breakdown{}, fmt.Errorf("fee percent must be within [0,100], got %s", feePercent)
	}

	fee := gross.Mul(feePercent).Div(decimal.NewFromInt(100)).Round(2)
	if fee.GreaterThan(gross) {
		fee = gross
	}
	net := gross.Sub(fee)

	return Breakdown{
		Gross:      gross,
		Fee:        fee,
		Net:        net,
		FeePercent: feePercent,
	}, nil
}
