package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tanmaysahni/splitbook/pkg/money"
)

// Common errors
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotRecipient         = errors.New("not the recipient of this notification")
)

// Service handles notification business logic
type Service struct {
	repo *Repository
}

// NewService creates a new notification service
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// GetByID retrieves a notification. Only its recipient may read it.
func (s *Service) GetByID(ctx context.Context, id, userID int64) (*Notification, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, ErrNotificationNotFound
	}
	if n.RecipientID != userID {
		return nil, ErrNotRecipient
	}
	return n, nil
}

// ListByRecipientID retrieves a page of the user's notifications
func (s *Service) ListByRecipientID(ctx context.Context, recipientID int64, page, perPage int, unreadOnly bool) ([]*Notification, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	offset := (page - 1) * perPage
	return s.repo.ListByRecipientID(ctx, recipientID, perPage, offset, unreadOnly)
}

// MarkAsRead marks a notification as read on behalf of its recipient
func (s *Service) MarkAsRead(ctx context.Context, id, userID int64) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n == nil {
		return ErrNotificationNotFound
	}
	if n.RecipientID != userID {
		return ErrNotRecipient
	}
	return s.repo.MarkAsRead(ctx, id)
}

// MarkAllAsRead marks every unread notification for a user as read
func (s *Service) MarkAllAsRead(ctx context.Context, userID int64) (int, error) {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// UnreadCount returns the count of unread notifications
func (s *Service) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.repo.UnreadCount(ctx, userID)
}

// notify delivers best-effort: a failed insert is logged and swallowed so
// the domain write that triggered it still succeeds.
func (s *Service) notify(ctx context.Context, recipientID int64, t Type, message, entityType string, entityID int64) {
	if _, err := s.repo.Insert(ctx, recipientID, t, message, &entityType, &entityID); err != nil {
		slog.Warn("failed to deliver notification",
			"recipient_id", recipientID,
			"type", t,
			"error", err)
	}
}

// NotifyAddedToGroup tells a user they were added to a group
func (s *Service) NotifyAddedToGroup(ctx context.Context, recipientID int64, groupName string, groupID int64) {
	message := fmt.Sprintf("You were added to the group %q", groupName)
	s.notify(ctx, recipientID, TypeAddedToGroup, message, entityGroup, groupID)
}

// NotifyRemovedFromGroup tells a user they were removed from a group
func (s *Service) NotifyRemovedFromGroup(ctx context.Context, recipientID int64, groupName string, groupID int64) {
	message := fmt.Sprintf("You were removed from the group %q", groupName)
	s.notify(ctx, recipientID, TypeRemovedFromGroup, message, entityGroup, groupID)
}

// NotifyExpenseShare tells a participant they owe a share of a new expense
func (s *Service) NotifyExpenseShare(ctx context.Context, recipientID int64, description string, share money.Money, currency string, expenseID int64) {
	message := fmt.Sprintf("You owe %s %s for %q", currency, share, description)
	s.notify(ctx, recipientID, TypeExpenseShare, message, entityExpense, expenseID)
}

// NotifyShareSettled tells the payer a participant's share was settled or
// reopened
func (s *Service) NotifyShareSettled(ctx context.Context, recipientID int64, description string, settled bool, expenseID int64) {
	t := TypeShareSettled
	message := fmt.Sprintf("A share of %q was marked settled", description)
	if !settled {
		t = TypeShareReopened
		message = fmt.Sprintf("A share of %q was reopened", description)
	}
	s.notify(ctx, recipientID, t, message, entityExpense, expenseID)
}

// NotifySettlementRecorded tells a user a payment to them was recorded
func (s *Service) NotifySettlementRecorded(ctx context.Context, recipientID int64, amount money.Money, currency string, settlementID int64) {
	message := fmt.Sprintf("A payment of %s %s to you was recorded", currency, amount)
	s.notify(ctx, recipientID, TypeSettlementRecorded, message, entitySettlement, settlementID)
}
