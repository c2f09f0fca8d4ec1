package book

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/tanmaysahni/splitbook/pkg/money"
)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewService(NewRepository(db), "INR"), mock
}

func bookRow(id, userID int64, name string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "name", "description", "currency", "created_at"}).
		AddRow(id, userID, name, nil, "INR", time.Now())
}

func entryRow(id, bookID int64, entryType EntryType, name string, amount int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "book_id", "entry_type", "name", "amount", "occurred_at", "created_at"}).
		AddRow(id, bookID, entryType, name, amount, time.Now(), time.Now())
}

func TestCreateBookRequiresName(t *testing.T) {
	svc, mock := newTestService(t)

	_, err := svc.CreateBook(context.Background(), 1, &CreateBookRequest{Name: "   "})
	if !errors.Is(err, ErrEmptyName) {
		t.Errorf("expected ErrEmptyName, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected database access: %v", err)
	}
}

func TestCreateBookNormalizesCurrency(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`INSERT INTO books`).
		WithArgs(int64(1), "Household", nil, "USD").
		WillReturnRows(bookRow(10, 1, "Household"))

	book, err := svc.CreateBook(context.Background(), 1, &CreateBookRequest{Name: " Household ", Currency: " usd "})
	if err != nil {
		t.Fatalf("CreateBook failed: %v", err)
	}
	if book.ID != 10 {
		t.Errorf("expected book ID 10, got %d", book.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateBookDefaultsCurrency(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`INSERT INTO books`).
		WithArgs(int64(1), "Trip", nil, "INR").
		WillReturnRows(bookRow(11, 1, "Trip"))

	if _, err := svc.CreateBook(context.Background(), 1, &CreateBookRequest{Name: "Trip"}); err != nil {
		t.Fatalf("CreateBook failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateEntryValidation(t *testing.T) {
	svc, mock := newTestService(t)

	occurred := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		req  *CreateEntryRequest
		want error
	}{
		{
			name: "unknown entry type",
			req:  &CreateEntryRequest{Type: "TRANSFER", Name: "Rent", Amount: money.MustParse("5.00"), OccurredAt: occurred},
			want: ErrInvalidEntryType,
		},
		{
			name: "empty name",
			req:  &CreateEntryRequest{Type: EntryExpense, Name: "  ", Amount: money.MustParse("5.00"), OccurredAt: occurred},
			want: ErrEmptyName,
		},
		{
			name: "zero amount",
			req:  &CreateEntryRequest{Type: EntryExpense, Name: "Rent", OccurredAt: occurred},
			want: ErrNonPositiveAmount,
		},
		{
			name: "missing date",
			req:  &CreateEntryRequest{Type: EntryExpense, Name: "Rent", Amount: money.MustParse("5.00")},
			want: ErrMissingDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateEntry(context.Background(), 3, 1, tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	// Validation failures must not touch the database.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected database access: %v", err)
	}
}

func TestCreateEntry(t *testing.T) {
	svc, mock := newTestService(t)

	occurred := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .* FROM books WHERE id`).
		WithArgs(int64(3)).
		WillReturnRows(bookRow(3, 1, "Household"))
	mock.ExpectQuery(`INSERT INTO entries`).
		WithArgs(int64(3), EntryExpense, "Lunch", int64(1250), occurred).
		WillReturnRows(entryRow(7, 3, EntryExpense, "Lunch", 1250))

	entry, err := svc.CreateEntry(context.Background(), 3, 1, &CreateEntryRequest{
		Type:       EntryExpense,
		Name:       "Lunch",
		Amount:     money.MustParse("12.50"),
		OccurredAt: occurred,
	})
	if err != nil {
		t.Fatalf("CreateEntry failed: %v", err)
	}
	if entry.Amount.String() != "12.50" {
		t.Errorf("expected amount 12.50, got %s", entry.Amount)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateEntryDeniedForNonOwner(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`SELECT .* FROM books WHERE id`).
		WithArgs(int64(3)).
		WillReturnRows(bookRow(3, 1, "Household"))

	_, err := svc.CreateEntry(context.Background(), 3, 2, &CreateEntryRequest{
		Type:       EntryIncome,
		Name:       "Salary",
		Amount:     money.MustParse("100.00"),
		OccurredAt: time.Now(),
	})
	if !errors.Is(err, ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetBookUnknown(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`SELECT .* FROM books WHERE id`).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := svc.GetBook(context.Background(), 99, 1)
	if !errors.Is(err, ErrBookNotFound) {
		t.Errorf("expected ErrBookNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDeleteBookCascadesEntries(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`SELECT .* FROM books WHERE id`).
		WithArgs(int64(3)).
		WillReturnRows(bookRow(3, 1, "Household"))
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM entries WHERE book_id`).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(`DELETE FROM books WHERE id`).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := svc.DeleteBook(context.Background(), 3, 1); err != nil {
		t.Fatalf("DeleteBook failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpdateEntryPartial(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`SELECT .* FROM entries WHERE id`).
		WithArgs(int64(7)).
		WillReturnRows(entryRow(7, 3, EntryExpense, "Lunch", 1250))
	mock.ExpectQuery(`SELECT .* FROM books WHERE id`).
		WithArgs(int64(3)).
		WillReturnRows(bookRow(3, 1, "Household"))
	mock.ExpectQuery(`UPDATE entries SET entry_type = COALESCE`).
		WithArgs(int64(7), nil, "Team lunch", nil, nil).
		WillReturnRows(entryRow(7, 3, EntryExpense, "Team lunch", 1250))

	name := "Team lunch"
	entry, err := svc.UpdateEntry(context.Background(), 7, 1, &UpdateEntryRequest{Name: &name})
	if err != nil {
		t.Fatalf("UpdateEntry failed: %v", err)
	}
	if entry.Name != "Team lunch" {
		t.Errorf("expected renamed entry, got %q", entry.Name)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestBookReport(t *testing.T) {
	svc, mock := newTestService(t)

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .* FROM books WHERE id`).
		WithArgs(int64(3)).
		WillReturnRows(bookRow(3, 1, "Household"))
	mock.ExpectQuery(`FILTER \(WHERE entry_type = 'INCOME'\)`).
		WithArgs(int64(3), from, to).
		WillReturnRows(sqlmock.NewRows([]string{"income", "expense"}).AddRow(10000, 2500))

	report, err := svc.BookReport(context.Background(), 3, 1, &from, &to)
	if err != nil {
		t.Fatalf("BookReport failed: %v", err)
	}
	if report.TotalIncome.String() != "100.00" || report.TotalExpense.String() != "25.00" {
		t.Errorf("unexpected totals: income %s expense %s", report.TotalIncome, report.TotalExpense)
	}
	if report.Balance.String() != "75.00" {
		t.Errorf("expected balance 75.00, got %s", report.Balance)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestBookReportRejectsInvertedRange(t *testing.T) {
	svc, mock := newTestService(t)

	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.BookReport(context.Background(), 3, 1, &from, &to)
	if !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("expected ErrInvalidDateRange, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected database access: %v", err)
	}
}

func TestUserReportIncludesCurrentMonthSavings(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`JOIN books b ON e\.book_id = b\.id`).
		WithArgs(int64(1), nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"income", "expense"}).AddRow(50000, 20000))
	mock.ExpectQuery(`JOIN books b ON e\.book_id = b\.id`).
		WithArgs(int64(1), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"income", "expense"}).AddRow(8000, 3000))

	report, err := svc.UserReport(context.Background(), 1, nil, nil)
	if err != nil {
		t.Fatalf("UserReport failed: %v", err)
	}
	if report.Balance.String() != "300.00" {
		t.Errorf("expected balance 300.00, got %s", report.Balance)
	}
	if report.CurrentMonthSavings.String() != "50.00" {
		t.Errorf("expected month savings 50.00, got %s", report.CurrentMonthSavings)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUserReportRangedSkipsMonthSavings(t *testing.T) {
	svc, mock := newTestService(t)

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`JOIN books b ON e\.book_id = b\.id`).
		WithArgs(int64(1), from, to).
		WillReturnRows(sqlmock.NewRows([]string{"income", "expense"}).AddRow(12000, 5000))

	report, err := svc.UserReport(context.Background(), 1, &from, &to)
	if err != nil {
		t.Fatalf("UserReport failed: %v", err)
	}
	if report.CurrentMonthSavings != 0 {
		t.Errorf("expected no month savings for a ranged report, got %s", report.CurrentMonthSavings)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
