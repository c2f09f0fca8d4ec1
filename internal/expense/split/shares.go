package split

import "github.com/tanmaysahni/splitbook/pkg/money"

// =============================================================================
// SHARES SPLIT STRATEGY
// Divides the expense proportionally to whole share counts (e.g. 1:2:3)
// =============================================================================

// SharesStrategy implements the Strategy interface for share-based splits
type SharesStrategy struct{}

// Type returns the split type identifier
func (s *SharesStrategy) Type() Type {
	return TypeShares
}

// Validate checks that every share count is a positive whole number. Share
// counts ride on the same 2-digit scale as money, so "whole" means the value
// has no fractional part.
func (s *SharesStrategy) Validate(total money.Money, inputs []Input) error {
	if err := validateCommon(total, inputs); err != nil {
		return err
	}

	for _, in := range inputs {
		if in.Value == nil {
			return ErrMissingValue
		}
		v := in.Value.Minor()
		if v <= 0 || v%100 != 0 {
			return ErrInvalidShares
		}
	}
	return nil
}

// Allocate divides the total by the summed share count, rounding the
// per-share amount half-up. All but the LAST participant get
// perShare * shares; the last receives the remainder, keeping the sum exact.
func (s *SharesStrategy) Allocate(total money.Money, inputs []Input) ([]Allocation, error) {
	if err := s.Validate(total, inputs); err != nil {
		return nil, err
	}

	var totalShares int64
	for _, in := range inputs {
		totalShares += in.Value.Minor() / 100
	}

	perShare := total.DivRound(totalShares)

	allocations := make([]Allocation, len(inputs))
	var allocated money.Money

	for i := 0; i < len(inputs)-1; i++ {
		amount := perShare.MulInt(inputs[i].Value.Minor() / 100)
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
