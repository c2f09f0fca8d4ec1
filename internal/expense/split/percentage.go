package split

import "github.com/tanmaysahni/splitbook/pkg/money"

// =============================================================================
// PERCENTAGE SPLIT STRATEGY
// Divides the expense based on specified percentages for each participant
// =============================================================================

// percentTotal is 100% on the 2-digit scale shared with money.Money.
const percentTotal = 100 * 100

// PercentageStrategy implements the Strategy interface for percentage-based splits
type PercentageStrategy struct{}

// Type returns the split type identifier
func (s *PercentageStrategy) Type() Type {
	return TypePercentage
}

// Validate checks that every participant carries a percentage in [0,100] and
// that the percentages sum to exactly 100. No tolerance: drift is a caller
// mistake, not something to paper over.
func (s *PercentageStrategy) Validate(total money.Money, inputs []Input) error {
	if err := validateCommon(total, inputs); err != nil {
		return err
	}

	var sum int64
	for _, in := range inputs {
		if in.Value == nil {
			return ErrMissingValue
		}
		pct := in.Value.Minor()
		if pct < 0 || pct > percentTotal {
			return ErrPercentageOutOfRange
		}
		sum += pct
	}
	if sum != percentTotal {
		return ErrPercentageTotal
	}
	return nil
}

// Allocate computes each participant's share of the total by percentage.
// All but the LAST participant get round-half-up(total * pct / 100); the last
// receives total minus the sum of the others, so the result always reconciles
// to the cent regardless of rounding drift.
func (s *PercentageStrategy) Allocate(total money.Money, inputs []Input) ([]Allocation, error) {
	if err := s.Validate(total, inputs); err != nil {
		return nil, err
	}

	allocations := make([]Allocation, len(inputs))
	var allocated money.Money

	for i := 0; i < len(inputs)-1; i++ {
		amount := total.MulDivRound(inputs[i].Value.Minor(), percentTotal)
		allocations[i] = Allocation{
			UserID:     inputs[i].UserID,
			AmountOwed: amount,
		}
		allocated = allocated.Add(amount)
	}

	last := len(inputs) - 1
	allocations[last] = Allocation{
		UserID:     inputs[last].UserID,
		AmountOwed: total.Sub(allocated),
	}

	return allocations, nil
}
