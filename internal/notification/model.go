package notification

import "time"

// Notification is a message delivered to a single recipient's inbox.
// Unlike the activity feed, which records what the caller and their
// groups did, a notification tells a user something happened TO them.
type Notification struct {
	ID                int64     `json:"id"`
	RecipientID       int64     `json:"recipient_id"`
	Type              Type      `json:"type"`
	Message           string    `json:"message"`
	IsRead            bool      `json:"is_read"`
	RelatedEntityType *string   `json:"related_entity_type,omitempty"` // "GROUP", "EXPENSE" or "SETTLEMENT"
	RelatedEntityID   *int64    `json:"related_entity_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// Type classifies a notification
type Type string

const (
	TypeAddedToGroup       Type = "ADDED_TO_GROUP"
	TypeRemovedFromGroup   Type = "REMOVED_FROM_GROUP"
	TypeExpenseShare       Type = "EXPENSE_SHARE"
	TypeShareSettled       Type = "SHARE_SETTLED"
	TypeShareReopened      Type = "SHARE_REOPENED"
	TypeSettlementRecorded Type = "SETTLEMENT_RECORDED"
)

const (
	entityGroup      = "GROUP"
	entityExpense    = "EXPENSE"
	entitySettlement = "SETTLEMENT"
)
