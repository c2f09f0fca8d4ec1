package book

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/tanmaysahni/splitbook/pkg/money"
)

// Common errors
var (
	ErrBookNotFound      = errors.New("book not found")
	ErrEntryNotFound     = errors.New("entry not found")
	ErrNotOwner          = errors.New("not the owner of this book")
	ErrEmptyName         = errors.New("name is required")
	ErrInvalidEntryType  = errors.New("entry type must be INCOME or EXPENSE")
	ErrNonPositiveAmount = errors.New("amount must be greater than 0")
	ErrInvalidDateRange  = errors.New("start date cannot be after end date")
	ErrMissingDate       = errors.New("occurred_at is required")
)

// Service handles bookkeeping business logic. Books are strictly private;
// unlike shared expenses there is no membership model, only the owner.
type Service struct {
	repo            *Repository
	defaultCurrency string
}

// NewService creates a new book service
func NewService(repo *Repository, defaultCurrency string) *Service {
	return &Service{repo: repo, defaultCurrency: defaultCurrency}
}

// CreateBook creates a new book for the caller
func (s *Service) CreateBook(ctx context.Context, userID int64, req *CreateBookRequest) (*Book, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrEmptyName
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.defaultCurrency
	}

	return s.repo.CreateBook(ctx, userID, name, req.Description, currency)
}

// GetBook retrieves a book. Owner only.
func (s *Service) GetBook(ctx context.Context, id, userID int64) (*Book, error) {
	return s.requireOwner(ctx, id, userID)
}

// ListBooks retrieves a page of the caller's books
func (s *Service) ListBooks(ctx context.Context, userID int64, page, perPage int) ([]*Book, int, error) {
	limit, offset := pageBounds(page, perPage)
	return s.repo.ListBooksByUserID(ctx, userID, limit, offset)
}

// DeleteBook removes a book and all of its entries. Owner only.
func (s *Service) DeleteBook(ctx context.Context, id, userID int64) error {
	if _, err := s.requireOwner(ctx, id, userID); err != nil {
		return err
	}
	if err := s.repo.DeleteBook(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBookNotFound
		}
		return err
	}
	return nil
}

// BookSummary returns a book's running totals and last entry time. Owner only.
func (s *Service) BookSummary(ctx context.Context, bookID, userID int64) (*Summary, error) {
	if _, err := s.requireOwner(ctx, bookID, userID); err != nil {
		return nil, err
	}

	income, expense, err := s.repo.BookTotals(ctx, bookID, nil, nil)
	if err != nil {
		return nil, err
	}
	last, err := s.repo.LastEntryAt(ctx, bookID)
	if err != nil {
		return nil, err
	}

	return &Summary{
		TotalIncome:  money.FromMinor(income),
		TotalExpense: money.FromMinor(expense),
		LastEntryAt:  last,
	}, nil
}

// CreateEntry adds an entry to a book. Owner only.
func (s *Service) CreateEntry(ctx context.Context, bookID, userID int64, req *CreateEntryRequest) (*Entry, error) {
	if !req.Type.Valid() {
		return nil, ErrInvalidEntryType
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if req.Amount <= 0 {
		return nil, ErrNonPositiveAmount
	}
	if req.OccurredAt.IsZero() {
		return nil, ErrMissingDate
	}

	if _, err := s.requireOwner(ctx, bookID, userID); err != nil {
		return nil, err
	}

	return s.repo.CreateEntry(ctx, bookID, req.Type, name, req.Amount.Minor(), req.OccurredAt)
}

// GetEntry retrieves an entry from a book the caller owns
func (s *Service) GetEntry(ctx context.Context, entryID, userID int64) (*Entry, error) {
	entry, err := s.repo.GetEntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrEntryNotFound
	}
	if _, err := s.requireOwner(ctx, entry.BookID, userID); err != nil {
		return nil, err
	}
	return entry, nil
}

// UpdateEntry applies a partial update to an entry. Owner only; fields left
// nil keep their current value.
func (s *Service) UpdateEntry(ctx context.Context, entryID, userID int64, req *UpdateEntryRequest) (*Entry, error) {
	if req.Type != nil && !req.Type.Valid() {
		return nil, ErrInvalidEntryType
	}
	var name *string
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			return nil, ErrEmptyName
		}
		name = &trimmed
	}
	var amount *int64
	if req.Amount != nil {
		if *req.Amount <= 0 {
			return nil, ErrNonPositiveAmount
		}
		minor := req.Amount.Minor()
		amount = &minor
	}

	entry, err := s.repo.GetEntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrEntryNotFound
	}
	if _, err := s.requireOwner(ctx, entry.BookID, userID); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateEntry(ctx, entryID, req.Type, name, amount, req.OccurredAt)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrEntryNotFound
	}
	return updated, nil
}

// DeleteEntry removes an entry from a book the caller owns
func (s *Service) DeleteEntry(ctx context.Context, entryID, userID int64) error {
	entry, err := s.repo.GetEntryByID(ctx, entryID)
	if err != nil {
		return err
	}
	if entry == nil {
		return ErrEntryNotFound
	}
	if _, err := s.requireOwner(ctx, entry.BookID, userID); err != nil {
		return err
	}
	if err := s.repo.DeleteEntry(ctx, entryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrEntryNotFound
		}
		return err
	}
	return nil
}

// ListEntries retrieves a page of a book's entries, optionally bounded to a
// date range. Owner only.
func (s *Service) ListEntries(ctx context.Context, bookID, userID int64, from, to *time.Time, page, perPage int) ([]*Entry, int, error) {
	if from != nil && to != nil && from.After(*to) {
		return nil, 0, ErrInvalidDateRange
	}
	if _, err := s.requireOwner(ctx, bookID, userID); err != nil {
		return nil, 0, err
	}
	limit, offset := pageBounds(page, perPage)
	return s.repo.ListEntriesByBookID(ctx, bookID, from, to, limit, offset)
}

// BookReport computes income versus expense for one book, over all time or
// a date range. Owner only.
func (s *Service) BookReport(ctx context.Context, bookID, userID int64, from, to *time.Time) (*Report, error) {
	if from != nil && to != nil && from.After(*to) {
		return nil, ErrInvalidDateRange
	}
	if _, err := s.requireOwner(ctx, bookID, userID); err != nil {
		return nil, err
	}

	income, expense, err := s.repo.BookTotals(ctx, bookID, from, to)
	if err != nil {
		return nil, err
	}
	return newReport(income, expense, from, to), nil
}

// UserReport computes the caller's all-books report. With no range it covers
// all time and includes the current calendar month's savings.
func (s *Service) UserReport(ctx context.Context, userID int64, from, to *time.Time) (*UserReport, error) {
	if from != nil && to != nil && from.After(*to) {
		return nil, ErrInvalidDateRange
	}

	income, expense, err := s.repo.UserTotals(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	report := &UserReport{Report: *newReport(income, expense, from, to)}

	if from == nil && to == nil {
		monthStart, monthEnd := currentMonthBounds(time.Now())
		monthIncome, monthExpense, err := s.repo.UserTotals(ctx, userID, &monthStart, &monthEnd)
		if err != nil {
			return nil, err
		}
		report.CurrentMonthSavings = money.FromMinor(monthIncome).Sub(money.FromMinor(monthExpense))
	}

	return report, nil
}

func (s *Service) requireOwner(ctx context.Context, bookID, userID int64) (*Book, error) {
	book, err := s.repo.GetBookByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, ErrBookNotFound
	}
	if book.UserID != userID {
		return nil, ErrNotOwner
	}
	return book, nil
}

func newReport(income, expense int64, from, to *time.Time) *Report {
	return &Report{
		TotalIncome:  money.FromMinor(income),
		TotalExpense: money.FromMinor(expense),
		Balance:      money.FromMinor(income).Sub(money.FromMinor(expense)),
		StartDate:    from,
		EndDate:      to,
	}
}

func currentMonthBounds(now time.Time) (start, end time.Time) {
	start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end = start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
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
