package split

import (
	"errors"
	"fmt"

	"github.com/tanmaysahni/splitbook/pkg/money"
)

// Type identifies the allocation strategy for a split expense.
type Type string

const (
	TypeEqual      Type = "EQUAL"
	TypePercentage Type = "PERCENTAGE"
	TypeExact      Type = "EXACT"
	TypeShares     Type = "SHARES"
)

// Input is one participant's raw strategy value. Value is unused for EQUAL,
// a percentage (0-100, 2-digit scale) for PERCENTAGE, an exact amount for
// EXACT and a whole share count for SHARES. Inputs are an ordered slice:
// remainder assignment depends on a stable iteration order, so callers pass
// participants in request order.
type Input struct {
	UserID int64        `json:"user_id"`
	Value  *money.Money `json:"value,omitempty"`
}

// Allocation is the computed amount one participant owes.
type Allocation struct {
	UserID     int64       `json:"user_id"`
	AmountOwed money.Money `json:"amount_owed"`
}

// Strategy is the interface that all split strategies must implement.
// Allocate must return amounts that sum exactly to the total; validation
// failures never yield partial results.
type Strategy interface {
	// Type returns the type identifier for this strategy
	Type() Type

	// Validate checks the inputs before any allocation is attempted
	Validate(total money.Money, inputs []Input) error

	// Allocate computes every participant's owed amount
	Allocate(total money.Money, inputs []Input) ([]Allocation, error)
}

// Factory creates split strategies based on the requested type
type Factory struct{}

// NewFactory creates a new factory instance
func NewFactory() *Factory {
	return &Factory{}
}

// Create returns the appropriate strategy implementation based on the type
func (f *Factory) Create(t Type) (Strategy, error) {
	switch t {
	case TypeEqual:
		return &EqualStrategy{}, nil
	case TypePercentage:
		return &PercentageStrategy{}, nil
	case TypeExact:
		return &ExactStrategy{}, nil
	case TypeShares:
		return &SharesStrategy{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
}

// CreateFromString creates a strategy from a string type (useful for API requests)
func (f *Factory) CreateFromString(t string) (Strategy, error) {
	return f.Create(Type(t))
}

var (
	ErrUnknownType          = errors.New("unknown split type")
	ErrNonPositiveTotal     = errors.New("total amount must be greater than 0")
	ErrNoParticipants       = errors.New("at least one participant is required")
	ErrDuplicateParticipant = errors.New("participant appears more than once")
	ErrMissingValue         = errors.New("split value required for all participants")
	ErrPercentageOutOfRange = errors.New("percentages must be between 0 and 100")
	ErrPercentageTotal      = errors.New("percentages must sum to 100")
	ErrNegativeExactAmount  = errors.New("exact amounts must be non-negative")
	ErrExactTotalMismatch   = errors.New("exact amounts must sum to total amount")
	ErrInvalidShares        = errors.New("shares must be positive whole numbers")
)

// validateCommon covers the preconditions shared by every strategy.
func validateCommon(total money.Money, inputs []Input) error {
	if !total.IsPositive() {
		return ErrNonPositiveTotal
	}
	if len(inputs) == 0 {
		return ErrNoParticipants
	}
	seen := make(map[int64]bool, len(inputs))
	for _, in := range inputs {
		if seen[in.UserID] {
			return fmt.Errorf("%w: user %d", ErrDuplicateParticipant, in.UserID)
		}
		seen[in.UserID] = true
	}
	return nil
}
