package expense

import (
	"github.com/tanmaysahni/splitbook/pkg/money"
)

// ParticipantInput is one participant's entry in a create request. Value is
// strategy-dependent: omitted for EQUAL, a percentage for PERCENTAGE, an
// amount for EXACT, a whole share count for SHARES. Request order is
// preserved; it decides who absorbs the rounding remainder.
type ParticipantInput struct {
	UserID int64        `json:"user_id" validate:"required"`
	Value  *money.Money `json:"value,omitempty"`
}

// CreateExpenseRequest represents the request to create an expense
type CreateExpenseRequest struct {
	Description  string              `json:"description" validate:"required,min=1,max=255"`
	Amount       money.Money         `json:"amount" validate:"required"`
	Currency     string              `json:"currency,omitempty"`
	PayerID      int64               `json:"payer_id,omitempty"` // defaults to the caller
	GroupID      *int64              `json:"group_id,omitempty"`
	SplitType    string              `json:"split_type" validate:"required,oneof=EQUAL PERCENTAGE EXACT SHARES"`
	Participants []*ParticipantInput `json:"participants" validate:"required,min=1"`
}

// UpdateSettlementRequest represents the request to toggle a participant's settled flag
type UpdateSettlementRequest struct {
	Settled bool `json:"settled"`
}

// ExpenseResponse represents the response for an expense
type ExpenseResponse struct {
	ID            int64                  `json:"id"`
	Description   string                 `json:"description"`
	Total         money.Money            `json:"total"`
	Currency      string                 `json:"currency"`
	PayerID       int64                  `json:"payer_id"`
	PayerUsername string                 `json:"payer_username,omitempty"`
	GroupID       *int64                 `json:"group_id,omitempty"`
	SplitType     string                 `json:"split_type"`
	CreatedBy     int64                  `json:"created_by"`
	CreatedAt     string                 `json:"created_at"`
	Participants  []*ParticipantResponse `json:"participants,omitempty"`
}

// ParticipantResponse represents a participant in an expense response
type ParticipantResponse struct {
	ID         int64        `json:"id"`
	ExpenseID  int64        `json:"expense_id"`
	UserID     int64        `json:"user_id"`
	Username   string       `json:"username,omitempty"`
	AmountOwed money.Money  `json:"amount_owed"`
	SplitValue *money.Money `json:"split_value,omitempty"`
	Settled    bool         `json:"settled"`
	SettledAt  *string      `json:"settled_at,omitempty"`
}

// ToResponse converts an Expense model to an ExpenseResponse DTO
func (e *Expense) ToResponse() *ExpenseResponse {
	return &ExpenseResponse{
		ID:            e.ID,
		Description:   e.Description,
		Total:         e.Total,
		Currency:      e.Currency,
		PayerID:       e.PayerID,
		PayerUsername: e.PayerUsername,
		GroupID:       e.GroupID,
		SplitType:     string(e.SplitType),
		CreatedBy:     e.CreatedBy,
		CreatedAt:     e.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// ToResponse converts a Participant model to a ParticipantResponse DTO
func (p *Participant) ToResponse() *ParticipantResponse {
	resp := &ParticipantResponse{
		ID:         p.ID,
		ExpenseID:  p.ExpenseID,
		UserID:     p.UserID,
		Username:   p.Username,
		AmountOwed: p.AmountOwed,
		SplitValue: p.SplitValue,
		Settled:    p.Settled,
	}
	if p.SettledAt != nil {
		s := p.SettledAt.Format("2006-01-02T15:04:05Z")
		resp.SettledAt = &s
	}
	return resp
}
