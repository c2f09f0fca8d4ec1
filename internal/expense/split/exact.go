package split

import "github.com/tanmaysahni/splitbook/pkg/money"

// =============================================================================
// EXACT SPLIT STRATEGY
// Each participant owes a specific exact amount (must sum to total)
// =============================================================================

// ExactStrategy implements the Strategy interface for exact amount splits
type ExactStrategy struct{}

// Type returns the split type identifier
func (s *ExactStrategy) Type() Type {
	return TypeExact
}

// Validate checks that every amount is non-negative and that the amounts sum
// to exactly the total. Integer minor units make the comparison exact; there
// is no epsilon.
func (s *ExactStrategy) Validate(total money.Money, inputs []Input) error {
	if err := validateCommon(total, inputs); err != nil {
		return err
	}

	var sum money.Money
	for _, in := range inputs {
		if in.Value == nil {
			return ErrMissingValue
		}
		if in.Value.IsNegative() {
			return ErrNegativeExactAmount
		}
		sum = sum.Add(*in.Value)
	}
	if sum != total {
		return ErrExactTotalMismatch
	}
	return nil
}

// Allocate returns the validated amounts verbatim.
func (s *ExactStrategy) Allocate(total money.Money, inputs []Input) ([]Allocation, error) {
	if err := s.Validate(total, inputs); err != nil {
		return nil, err
	}

	allocations := make([]Allocation, len(inputs))
	for i, in := range inputs {
		allocations[i] = Allocation{
			UserID:     in.UserID,
			AmountOwed: *in.Value,
		}
	}

	return allocations, nil
}
