package expense

import (
	"time"

	"github.com/tanmaysahni/splitbook/internal/expense/split"
	"github.com/tanmaysahni/splitbook/pkg/money"
)

// Expense represents a shared expense paid by one user and owed by many
type Expense struct {
	ID          int64       `json:"id"`
	Description string      `json:"description"`
	Total       money.Money `json:"total"`
	Currency    string      `json:"currency"`
	PayerID     int64       `json:"payer_id"`
	GroupID     *int64      `json:"group_id,omitempty"` // nil means an individual/friend expense
	SplitType   split.Type  `json:"split_type"`
	CreatedBy   int64       `json:"created_by"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`

	// Populated via JOIN
	PayerUsername string `json:"payer_username,omitempty"`
}

// Participant represents one user's share of an expense. SplitValue holds the
// raw strategy input (percentage, exact amount or share count); it is nil for
// EQUAL splits.
type Participant struct {
	ID         int64        `json:"id"`
	ExpenseID  int64        `json:"expense_id"`
	UserID     int64        `json:"user_id"`
	AmountOwed money.Money  `json:"amount_owed"`
	SplitValue *money.Money `json:"split_value,omitempty"`
	Settled    bool         `json:"settled"`
	SettledAt  *time.Time   `json:"settled_at,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`

	// Populated via JOIN
	Username string `json:"username,omitempty"`
}

// ExpenseWithParticipants combines an expense with its participant rows
type ExpenseWithParticipants struct {
	Expense      *Expense
	Participants []*Participant
}
