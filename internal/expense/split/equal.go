package split

import "github.com/tanmaysahni/splitbook/pkg/money"

// =============================================================================
// EQUAL SPLIT STRATEGY
// Divides the expense equally among all participants
// =============================================================================

// EqualStrategy implements the Strategy interface for equal splits
type EqualStrategy struct{}

// Type returns the split type identifier
func (s *EqualStrategy) Type() Type {
	return TypeEqual
}

// Validate checks if the inputs are valid for an equal split
func (s *EqualStrategy) Validate(total money.Money, inputs []Input) error {
	return validateCommon(total, inputs)
}

// Allocate divides the total evenly among all participants. The per-head
// amount is rounded half-up; the rounding remainder goes to the FIRST
// participant in input order. This is an observable contract, not an
// implementation detail.
func (s *EqualStrategy) Allocate(total money.Money, inputs []Input) ([]Allocation, error) {
	if err := s.Validate(total, inputs); err != nil {
		return nil, err
	}

	n := int64(len(inputs))
	perHead := total.DivRound(n)
	remainder := total.Sub(perHead.MulInt(n))

	allocations := make([]Allocation, len(inputs))
	for i, in := range inputs {
		amount := perHead
		if i == 0 {
			amount = amount.Add(remainder)
		}
		allocations[i] = Allocation{
			UserID:     in.UserID,
			AmountOwed: amount,
		}
	}

	return allocations, nil
}
