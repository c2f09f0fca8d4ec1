package activity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tanmaysahni/splitbook/pkg/money"
)

// Type identifies a domain event recorded in the activity log.
type Type string

const (
	TypeGroupCreated         Type = "GROUP_CREATED"
	TypeGroupUpdated         Type = "GROUP_UPDATED"
	TypeGroupDeleted         Type = "GROUP_DELETED"
	TypeMemberAdded          Type = "MEMBER_ADDED"
	TypeMemberRemoved        Type = "MEMBER_REMOVED"
	TypeMemberLeft           Type = "MEMBER_LEFT"
	TypeAdminChanged         Type = "ADMIN_CHANGED"
	TypeExpenseCreated       Type = "EXPENSE_CREATED"
	TypeExpenseDeleted       Type = "EXPENSE_DELETED"
	TypeSettlementRecorded   Type = "SETTLEMENT_RECORDED"
	TypeParticipantSettled   Type = "PARTICIPANT_SETTLED"
	TypeParticipantUnsettled Type = "PARTICIPANT_UNSETTLED"
)

// Activity is one append-only audit record. Payload holds the serialized
// typed payload for the activity's Type; rows are never mutated and are only
// bulk-deleted when their owning group or expense is deleted.
type Activity struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	Type          Type            `json:"type"`
	Payload       json.RawMessage `json:"payload"`
	RelatedUserID *int64          `json:"related_user_id,omitempty"`
	GroupID       *int64          `json:"group_id,omitempty"`
	ExpenseID     *int64          `json:"expense_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Payloads are one struct per activity type rather than a free-form document,
// so the shape of each event is checked at compile time.

type GroupCreatedPayload struct {
	GroupName   string `json:"group_name"`
	Description string `json:"description"`
	Currency    string `json:"currency"`
}

type GroupUpdatedPayload struct {
	GroupName string `json:"group_name"`
}

type GroupDeletedPayload struct {
	GroupName string `json:"group_name"`
}

type MemberPayload struct {
	MemberUserID int64 `json:"member_user_id"`
	ActorUserID  int64 `json:"actor_user_id"`
}

type ExpenseCreatedPayload struct {
	Description  string      `json:"description"`
	Amount       money.Money `json:"amount"`
	Currency     string      `json:"currency"`
	SplitType    string      `json:"split_type"`
	PaidByUserID int64       `json:"paid_by_user_id"`
}

type ExpenseDeletedPayload struct {
	Description string      `json:"description"`
	Amount      money.Money `json:"amount"`
	Currency    string      `json:"currency"`
}

type SettlementRecordedPayload struct {
	Amount    money.Money `json:"amount"`
	Currency  string      `json:"currency"`
	ExpenseID *int64      `json:"expense_id,omitempty"`
}

type ParticipantSettledPayload struct {
	ParticipantUserID int64 `json:"participant_user_id"`
	Settled           bool  `json:"settled"`
}

// DecodePayload unmarshals an activity's payload into the struct matching its
// type.
func DecodePayload(t Type, raw json.RawMessage) (interface{}, error) {
	var payload interface{}
	switch t {
	case TypeGroupCreated:
		payload = &GroupCreatedPayload{}
	case TypeGroupUpdated:
		payload = &GroupUpdatedPayload{}
	case TypeGroupDeleted:
		payload = &GroupDeletedPayload{}
	case TypeMemberAdded, TypeMemberRemoved, TypeMemberLeft, TypeAdminChanged:
		payload = &MemberPayload{}
	case TypeExpenseCreated:
		payload = &ExpenseCreatedPayload{}
	case TypeExpenseDeleted:
		payload = &ExpenseDeletedPayload{}
	case TypeSettlementRecorded:
		payload = &SettlementRecordedPayload{}
	case TypeParticipantSettled, TypeParticipantUnsettled:
		payload = &ParticipantSettledPayload{}
	default:
		return nil, fmt.Errorf("unknown activity type: %s", t)
	}

	if err := json.Unmarshal(raw, payload); err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", t, err)
	}
	return payload, nil
}
