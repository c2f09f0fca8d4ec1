package settlement

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tanmaysahni/splitbook/internal/activity"
	"github.com/tanmaysahni/splitbook/internal/notification"
)

// Common errors
var (
	ErrSettlementNotFound = errors.New("settlement not found")
	ErrExpenseNotFound    = errors.New("linked expense not found")
	ErrUnknownUser        = errors.New("user does not exist")
	ErrSameUser           = errors.New("payer and receiver must be different users")
	ErrNonPositiveAmount  = errors.New("settlement amount must be greater than 0")
	ErrNotAuthorized      = errors.New("not authorized to view this settlement")
)

// Users answers user existence questions. Satisfied by the user repository.
type Users interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// ExpenseChecker reports whether an expense exists. Wired up from the
// expense repository in main.
type ExpenseChecker func(ctx context.Context, id int64) (bool, error)

// Service handles settlement business logic. The log is advisory: recording
// a settlement never touches any participant's settled flag; that remains a
// separate, explicit ledger operation.
type Service struct {
	repo            *Repository
	users           Users
	expenseExists   ExpenseChecker
	activities      *activity.Service
	notifications   *notification.Service
	defaultCurrency string
}

// NewService creates a new settlement service
func NewService(repo *Repository, users Users, expenseExists ExpenseChecker,
	activities *activity.Service, notifications *notification.Service, defaultCurrency string) *Service {

	return &Service{
		repo:            repo,
		users:           users,
		expenseExists:   expenseExists,
		activities:      activities,
		notifications:   notifications,
		defaultCurrency: defaultCurrency,
	}
}

// Record validates and appends a settlement, then logs the activity
func (s *Service) Record(ctx context.Context, recordedBy int64, req *RecordSettlementRequest) (*Settlement, error) {
	if req.Amount <= 0 {
		return nil, ErrNonPositiveAmount
	}
	if req.FromUserID == req.ToUserID {
		return nil, ErrSameUser
	}

	for _, id := range []int64{req.FromUserID, req.ToUserID} {
		exists, err := s.users.Exists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("%w: %d", ErrUnknownUser, id)
		}
	}

	if req.ExpenseID != nil {
		exists, err := s.expenseExists(ctx, *req.ExpenseID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrExpenseNotFound
		}
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.defaultCurrency
	}

	settlement, err := s.repo.Insert(ctx, &Settlement{
		FromUserID: req.FromUserID,
		ToUserID:   req.ToUserID,
		Amount:     req.Amount,
		Currency:   currency,
		ExpenseID:  req.ExpenseID,
		Notes:      req.Notes,
		RecordedBy: recordedBy,
	})
	if err != nil {
		return nil, err
	}

	s.activities.LogSettlementRecorded(ctx, settlement.FromUserID, settlement.ToUserID,
		settlement.Amount, settlement.Currency, settlement.ExpenseID)
	if settlement.ToUserID != recordedBy {
		s.notifications.NotifySettlementRecorded(ctx, settlement.ToUserID,
			settlement.Amount, settlement.Currency, settlement.ID)
	}

	return settlement, nil
}

// GetByID retrieves a settlement. Only the two parties and the recorder may
// see it.
func (s *Service) GetByID(ctx context.Context, id, callerID int64) (*Settlement, error) {
	settlement, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if settlement == nil {
		return nil, ErrSettlementNotFound
	}

	if settlement.FromUserID != callerID && settlement.ToUserID != callerID && settlement.RecordedBy != callerID {
		return nil, ErrNotAuthorized
	}

	return settlement, nil
}

// ListByUserID retrieves the caller's settlements
func (s *Service) ListByUserID(ctx context.Context, userID int64, page, perPage int) ([]*Settlement, int, error) {
	limit, offset := pageBounds(page, perPage)
	return s.repo.ListByUserID(ctx, userID, limit, offset)
}

// ListBetweenUsers retrieves settlements between the caller and another user
func (s *Service) ListBetweenUsers(ctx context.Context, userID, otherID int64, page, perPage int) ([]*Settlement, int, error) {
	limit, offset := pageBounds(page, perPage)
	return s.repo.ListBetweenUsers(ctx, userID, otherID, limit, offset)
}

// ListByExpenseID retrieves settlements linked to one expense
func (s *Service) ListByExpenseID(ctx context.Context, expenseID int64) ([]*Settlement, error) {
	return s.repo.ListByExpenseID(ctx, expenseID)
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
