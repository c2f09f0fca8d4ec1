package expense

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tanmaysahni/splitbook/internal/activity"
	"github.com/tanmaysahni/splitbook/internal/expense/split"
	"github.com/tanmaysahni/splitbook/internal/notification"
)

// Common errors
var (
	ErrExpenseNotFound     = errors.New("expense not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrNotAuthorized       = errors.New("not authorized to perform this action")
	ErrUnknownUser         = errors.New("user does not exist")
	ErrNotGroupMember      = errors.New("payer and all participants must be group members")
	ErrEmptyDescription    = errors.New("description is required")
)

// Users answers user existence questions. Satisfied by the user repository.
type Users interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// Groups answers membership and admin questions. Satisfied by the group
// service.
type Groups interface {
	IsMember(ctx context.Context, groupID, userID int64) (bool, error)
	IsAdmin(ctx context.Context, groupID, userID int64) (bool, error)
}

// Service handles expense business logic
type Service struct {
	repo            *Repository
	splitFactory    *split.Factory
	users           Users
	groups          Groups
	activities      *activity.Service
	notifications   *notification.Service
	defaultCurrency string
}

// NewService creates a new expense service with dependencies injected
func NewService(repo *Repository, splitFactory *split.Factory, users Users, groups Groups,
	activities *activity.Service, notifications *notification.Service, defaultCurrency string) *Service {

	return &Service{
		repo:            repo,
		splitFactory:    splitFactory,
		users:           users,
		groups:          groups,
		activities:      activities,
		notifications:   notifications,
		defaultCurrency: defaultCurrency,
	}
}

// CreateExpense validates the request, runs the allocation strategy and
// persists the expense with all participant rows atomically. The payer's own
// row, if present, is created pre-settled.
func (s *Service) CreateExpense(ctx context.Context, creatorID int64, req *CreateExpenseRequest) (*ExpenseWithParticipants, error) {
	if strings.TrimSpace(req.Description) == "" {
		return nil, ErrEmptyDescription
	}

	payerID := req.PayerID
	if payerID == 0 {
		payerID = creatorID
	}

	strategy, err := s.splitFactory.CreateFromString(req.SplitType)
	if err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.defaultCurrency
	}

	if err := s.checkUsersExist(ctx, payerID, creatorID, req.Participants); err != nil {
		return nil, err
	}
	if req.GroupID != nil {
		if err := s.checkGroupMembers(ctx, *req.GroupID, payerID, req.Participants); err != nil {
			return nil, err
		}
	}

	inputs := make([]split.Input, len(req.Participants))
	for i, p := range req.Participants {
		inputs[i] = split.Input{UserID: p.UserID, Value: p.Value}
	}

	if err := strategy.Validate(req.Amount, inputs); err != nil {
		return nil, err
	}
	allocations, err := strategy.Allocate(req.Amount, inputs)
	if err != nil {
		return nil, err
	}

	participants := make([]*Participant, len(allocations))
	for i, a := range allocations {
		participants[i] = &Participant{
			UserID:     a.UserID,
			AmountOwed: a.AmountOwed,
			SplitValue: inputs[i].Value,
			Settled:    a.UserID == payerID, // a payer cannot owe themselves
		}
	}

	result, err := s.repo.CreateExpense(ctx, &Expense{
		Description: req.Description,
		Total:       req.Amount,
		Currency:    currency,
		PayerID:     payerID,
		GroupID:     req.GroupID,
		SplitType:   strategy.Type(),
		CreatedBy:   creatorID,
	}, participants)
	if err != nil {
		return nil, err
	}

	s.activities.LogExpenseCreated(ctx, creatorID, result.Expense.ID, result.Expense.GroupID,
		result.Expense.Description, result.Expense.Total, result.Expense.Currency,
		string(result.Expense.SplitType), payerID)
	for _, p := range result.Participants {
		if p.UserID != payerID && p.UserID != creatorID {
			s.notifications.NotifyExpenseShare(ctx, p.UserID, result.Expense.Description,
				p.AmountOwed, result.Expense.Currency, result.Expense.ID)
		}
	}

	return result, nil
}

// GetByID retrieves an expense with its participants. Access is limited to
// the payer, creator, participants, and for group expenses any group member.
func (s *Service) GetByID(ctx context.Context, id, callerID int64) (*ExpenseWithParticipants, error) {
	expense, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if expense == nil {
		return nil, ErrExpenseNotFound
	}

	participants, err := s.repo.GetParticipants(ctx, id)
	if err != nil {
		return nil, err
	}

	if !s.canAccess(ctx, expense, participants, callerID) {
		return nil, ErrNotAuthorized
	}

	return &ExpenseWithParticipants{Expense: expense, Participants: participants}, nil
}

// GetParticipants retrieves an expense's participant rows with the same
// access rule as GetByID.
func (s *Service) GetParticipants(ctx context.Context, expenseID, callerID int64) ([]*Participant, error) {
	result, err := s.GetByID(ctx, expenseID, callerID)
	if err != nil {
		return nil, err
	}
	return result.Participants, nil
}

// ListByUserID retrieves the caller's expenses, optionally only individual ones
func (s *Service) ListByUserID(ctx context.Context, userID int64, individualOnly bool, page, perPage int) ([]*Expense, int, error) {
	limit, offset := pageBounds(page, perPage)
	if individualOnly {
		return s.repo.ListIndividualByUserID(ctx, userID, limit, offset)
	}
	return s.repo.ListByUserID(ctx, userID, limit, offset)
}

// ListByGroupID retrieves a group's expenses. Members only. With
// includeRelated, individual expenses between the group's members are listed
// alongside the group's own.
func (s *Service) ListByGroupID(ctx context.Context, groupID, callerID int64, includeRelated bool, page, perPage int) ([]*Expense, int, error) {
	isMember, err := s.groups.IsMember(ctx, groupID, callerID)
	if err != nil {
		return nil, 0, err
	}
	if !isMember {
		return nil, 0, ErrNotAuthorized
	}

	limit, offset := pageBounds(page, perPage)
	return s.repo.ListByGroupID(ctx, groupID, includeRelated, limit, offset)
}

// UpdateParticipantSettlement toggles one participant's settled flag. Anyone
// with read access to the expense may do it. The settlement log is untouched.
func (s *Service) UpdateParticipantSettlement(ctx context.Context, expenseID, participantUserID int64, settled bool, actingUserID int64) (*Participant, error) {
	expense, err := s.repo.GetByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if expense == nil {
		return nil, ErrExpenseNotFound
	}

	participants, err := s.repo.GetParticipants(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if !s.canAccess(ctx, expense, participants, actingUserID) {
		return nil, ErrNotAuthorized
	}

	participant, err := s.repo.UpdateParticipantSettlement(ctx, expenseID, participantUserID, settled)
	if err != nil {
		return nil, err
	}
	if participant == nil {
		return nil, ErrParticipantNotFound
	}

	s.activities.LogParticipantSettled(ctx, actingUserID, participantUserID, expenseID, expense.GroupID, settled)
	if expense.PayerID != actingUserID {
		s.notifications.NotifyShareSettled(ctx, expense.PayerID, expense.Description, settled, expenseID)
	}
	return participant, nil
}

// DeleteExpense removes an expense with its participants. Only the creator
// may delete; for group expenses a group admin may as well.
func (s *Service) DeleteExpense(ctx context.Context, id, callerID int64) error {
	expense, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if expense == nil {
		return ErrExpenseNotFound
	}

	allowed := expense.CreatedBy == callerID
	if !allowed && expense.GroupID != nil {
		isAdmin, err := s.groups.IsAdmin(ctx, *expense.GroupID, callerID)
		if err != nil {
			return err
		}
		allowed = isAdmin
	}
	if !allowed {
		return ErrNotAuthorized
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.activities.LogExpenseDeleted(ctx, callerID, expense.GroupID, expense.Description, expense.Total, expense.Currency)
	return nil
}

func (s *Service) canAccess(ctx context.Context, expense *Expense, participants []*Participant, userID int64) bool {
	if expense.PayerID == userID || expense.CreatedBy == userID {
		return true
	}
	for _, p := range participants {
		if p.UserID == userID {
			return true
		}
	}
	if expense.GroupID != nil {
		isMember, err := s.groups.IsMember(ctx, *expense.GroupID, userID)
		if err == nil && isMember {
			return true
		}
	}
	return false
}

func (s *Service) checkUsersExist(ctx context.Context, payerID, creatorID int64, participants []*ParticipantInput) error {
	seen := map[int64]bool{}
	check := func(id int64) error {
		if seen[id] {
			return nil
		}
		seen[id] = true
		exists, err := s.users.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: %d", ErrUnknownUser, id)
		}
		return nil
	}

	if err := check(payerID); err != nil {
		return err
	}
	if err := check(creatorID); err != nil {
		return err
	}
	for _, p := range participants {
		if err := check(p.UserID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) checkGroupMembers(ctx context.Context, groupID, payerID int64, participants []*ParticipantInput) error {
	isMember, err := s.groups.IsMember(ctx, groupID, payerID)
	if err != nil {
		return err
	}
	if !isMember {
		return ErrNotGroupMember
	}
	for _, p := range participants {
		isMember, err := s.groups.IsMember(ctx, groupID, p.UserID)
		if err != nil {
			return err
		}
		if !isMember {
			return ErrNotGroupMember
		}
	}
	return nil
}

func pageBounds(page, perPage int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return perPage, (page - 1) * perPage
}
