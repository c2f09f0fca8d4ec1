package settlement

import (
	"time"

	"github.com/tanmaysahni/splitbook/pkg/money"
)

// Settlement is a logged real-world payment between two users. It is a pure
// log entry: recording one never flips any participant's settled flag.
type Settlement struct {
	ID         int64       `json:"id"`
	FromUserID int64       `json:"from_user_id"`
	ToUserID   int64       `json:"to_user_id"`
	Amount     money.Money `json:"amount"`
	Currency   string      `json:"currency"`
	ExpenseID  *int64      `json:"expense_id,omitempty"`
	Notes      *string     `json:"notes,omitempty"`
	RecordedBy int64       `json:"recorded_by"`
	SettledAt  time.Time   `json:"settled_at"`

	// Populated via JOIN
	FromUsername string `json:"from_username,omitempty"`
	ToUsername   string `json:"to_username,omitempty"`
}
