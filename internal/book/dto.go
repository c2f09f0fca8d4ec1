package book

import (
	"time"

	"github.com/tanmaysahni/splitbook/pkg/money"
)

// CreateBookRequest is the payload for creating a book
type CreateBookRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Currency    string  `json:"currency,omitempty"`
}

// CreateEntryRequest is the payload for adding an entry to a book
type CreateEntryRequest struct {
	Type       EntryType   `json:"type"`
	Name       string      `json:"name"`
	Amount     money.Money `json:"amount"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// UpdateEntryRequest carries a partial entry update; nil fields keep their
// current value.
type UpdateEntryRequest struct {
	Type       *EntryType   `json:"type,omitempty"`
	Name       *string      `json:"name,omitempty"`
	Amount     *money.Money `json:"amount,omitempty"`
	OccurredAt *time.Time   `json:"occurred_at,omitempty"`
}
