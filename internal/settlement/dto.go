package settlement

import (
	"github.com/tanmaysahni/splitbook/pkg/money"
)

// RecordSettlementRequest represents the request to record a payment
type RecordSettlementRequest struct {
	FromUserID int64       `json:"from_user_id" validate:"required"`
	ToUserID   int64       `json:"to_user_id" validate:"required"`
	Amount     money.Money `json:"amount" validate:"required"`
	Currency   string      `json:"currency,omitempty"`
	ExpenseID  *int64      `json:"expense_id,omitempty"`
	Notes      *string     `json:"notes,omitempty"`
}

// SettlementResponse represents the response for a settlement
type SettlementResponse struct {
	ID           int64       `json:"id"`
	FromUserID   int64       `json:"from_user_id"`
	FromUsername string      `json:"from_username,omitempty"`
	ToUserID     int64       `json:"to_user_id"`
	ToUsername   string      `json:"to_username,omitempty"`
	Amount       money.Money `json:"amount"`
	Currency     string      `json:"currency"`
	ExpenseID    *int64      `json:"expense_id,omitempty"`
	Notes        *string     `json:"notes,omitempty"`
	RecordedBy   int64       `json:"recorded_by"`
	SettledAt    string      `json:"settled_at"`
}

// ToResponse converts a Settlement model to a SettlementResponse DTO
func (s *Settlement) ToResponse() *SettlementResponse {
	return &SettlementResponse{
		ID:           s.ID,
		FromUserID:   s.FromUserID,
		FromUsername: s.FromUsername,
		ToUserID:     s.ToUserID,
		ToUsername:   s.ToUsername,
		Amount:       s.Amount,
		Currency:     s.Currency,
		ExpenseID:    s.ExpenseID,
		Notes:        s.Notes,
		RecordedBy:   s.RecordedBy,
		SettledAt:    s.SettledAt.Format("2006-01-02T15:04:05Z"),
	}
}
