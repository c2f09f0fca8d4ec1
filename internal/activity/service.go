package activity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tanmaysahni/splitbook/pkg/money"
)

var (
	ErrNotGroupMember = errors.New("user is not a member of this group")
)

// Memberships answers group membership questions. Satisfied by the group
// repository; declared here to keep activity from importing group.
type Memberships interface {
	IsMember(ctx context.Context, groupID, userID int64) (bool, error)
}

// Feed filter values. Anything else falls back to FilterAll.
const (
	FilterAll      = "all"
	FilterGroups   = "groups"
	FilterExpenses = "expenses"
	FilterPayments = "payments"
)

var filterTypes = map[string][]Type{
	FilterGroups: {
		TypeGroupCreated, TypeGroupUpdated, TypeGroupDeleted,
		TypeMemberAdded, TypeMemberRemoved, TypeMemberLeft, TypeAdminChanged,
	},
	FilterExpenses: {
		TypeExpenseCreated, TypeExpenseDeleted,
		TypeParticipantSettled, TypeParticipantUnsettled,
	},
	FilterPayments: {
		TypeSettlementRecorded,
	},
}

// Service handles activity business logic
type Service struct {
	repo        *Repository
	memberships Memberships
}

// NewService creates a new activity service
func NewService(repo *Repository, memberships Memberships) *Service {
	return &Service{repo: repo, memberships: memberships}
}

// Feed returns the caller's activity feed, optionally narrowed by filter
func (s *Service) Feed(ctx context.Context, userID int64, filter string, limit, offset int) ([]*Activity, int, error) {
	types, ok := filterTypes[filter]
	if !ok {
		return s.repo.ListForUser(ctx, userID, limit, offset)
	}
	return s.repo.ListForUserByTypes(ctx, userID, types, limit, offset)
}

// GroupFeed returns a group's activity feed. The caller must be a member.
func (s *Service) GroupFeed(ctx context.Context, groupID, userID int64, limit, offset int) ([]*Activity, int, error) {
	isMember, err := s.memberships.IsMember(ctx, groupID, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to check group membership: %w", err)
	}
	if !isMember {
		return nil, 0, ErrNotGroupMember
	}
	return s.repo.ListByGroup(ctx, groupID, limit, offset)
}

// FriendFeed returns activities between the caller and one other user
func (s *Service) FriendFeed(ctx context.Context, userID, friendID int64, limit, offset int) ([]*Activity, int, error) {
	return s.repo.ListBetweenUsers(ctx, userID, friendID, limit, offset)
}

// Recent returns the newest entries in the caller's feed
func (s *Service) Recent(ctx context.Context, userID int64, limit int) ([]*Activity, error) {
	return s.repo.ListRecent(ctx, userID, limit)
}

// log inserts an activity record. Logging is best-effort: a failure never
// fails the operation that triggered it.
func (s *Service) log(ctx context.Context, userID int64, t Type, payload interface{},
	relatedUserID, groupID, expenseID *int64) {

	if _, err := s.repo.Insert(ctx, userID, t, payload, relatedUserID, groupID, expenseID); err != nil {
		slog.Warn("failed to record activity", "type", t, "user_id", userID, "error", err)
	}
}

// LogGroupCreated records a group creation event
func (s *Service) LogGroupCreated(ctx context.Context, userID, groupID int64, name, description, currency string) {
	s.log(ctx, userID, TypeGroupCreated, GroupCreatedPayload{
		GroupName:   name,
		Description: description,
		Currency:    currency,
	}, nil, &groupID, nil)
}

// LogGroupUpdated records a group settings change
func (s *Service) LogGroupUpdated(ctx context.Context, userID, groupID int64, name string) {
	s.log(ctx, userID, TypeGroupUpdated, GroupUpdatedPayload{GroupName: name}, nil, &groupID, nil)
}

// LogGroupDeleted records a group deletion. The group row is gone by the time
// this runs, so the payload carries the name and no group reference is kept.
func (s *Service) LogGroupDeleted(ctx context.Context, userID int64, name string) {
	s.log(ctx, userID, TypeGroupDeleted, GroupDeletedPayload{GroupName: name}, nil, nil, nil)
}

// LogMemberAdded records a member joining a group
func (s *Service) LogMemberAdded(ctx context.Context, actorID, memberID, groupID int64) {
	s.log(ctx, actorID, TypeMemberAdded, MemberPayload{
		MemberUserID: memberID,
		ActorUserID:  actorID,
	}, &memberID, &groupID, nil)
}

// LogMemberRemoved records a member being removed from a group
func (s *Service) LogMemberRemoved(ctx context.Context, actorID, memberID, groupID int64) {
	s.log(ctx, actorID, TypeMemberRemoved, MemberPayload{
		MemberUserID: memberID,
		ActorUserID:  actorID,
	}, &memberID, &groupID, nil)
}

// LogMemberLeft records a member leaving a group on their own
func (s *Service) LogMemberLeft(ctx context.Context, userID, groupID int64) {
	s.log(ctx, userID, TypeMemberLeft, MemberPayload{
		MemberUserID: userID,
		ActorUserID:  userID,
	}, nil, &groupID, nil)
}

// LogAdminChanged records an admin promotion
func (s *Service) LogAdminChanged(ctx context.Context, actorID, memberID, groupID int64) {
	s.log(ctx, actorID, TypeAdminChanged, MemberPayload{
		MemberUserID: memberID,
		ActorUserID:  actorID,
	}, &memberID, &groupID, nil)
}

// LogExpenseCreated records a new expense
func (s *Service) LogExpenseCreated(ctx context.Context, userID, expenseID int64, groupID *int64,
	description string, amount money.Money, currency, splitType string, paidByUserID int64) {

	s.log(ctx, userID, TypeExpenseCreated, ExpenseCreatedPayload{
		Description:  description,
		Amount:       amount,
		Currency:     currency,
		SplitType:    splitType,
		PaidByUserID: paidByUserID,
	}, nil, groupID, &expenseID)
}

// LogExpenseDeleted records an expense deletion. Like group deletion, the
// expense row no longer exists so only the payload describes it.
func (s *Service) LogExpenseDeleted(ctx context.Context, userID int64, groupID *int64, description string, amount money.Money, currency string) {
	s.log(ctx, userID, TypeExpenseDeleted, ExpenseDeletedPayload{
		Description: description,
		Amount:      amount,
		Currency:    currency,
	}, nil, groupID, nil)
}

// LogSettlementRecorded records a payment between two users
func (s *Service) LogSettlementRecorded(ctx context.Context, fromUserID, toUserID int64, amount money.Money, currency string, expenseID *int64) {
	s.log(ctx, fromUserID, TypeSettlementRecorded, SettlementRecordedPayload{
		Amount:    amount,
		Currency:  currency,
		ExpenseID: expenseID,
	}, &toUserID, nil, expenseID)
}

// LogParticipantSettled records a participant share being marked settled or unsettled
func (s *Service) LogParticipantSettled(ctx context.Context, actorID, participantUserID, expenseID int64, groupID *int64, settled bool) {
	t := TypeParticipantSettled
	if !settled {
		t = TypeParticipantUnsettled
	}
	s.log(ctx, actorID, t, ParticipantSettledPayload{
		ParticipantUserID: participantUserID,
		Settled:           settled,
	}, &participantUserID, groupID, &expenseID)
}
