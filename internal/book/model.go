package book

import (
	"time"

	"github.com/tanmaysahni/splitbook/pkg/money"
)

// Book is a private bookkeeping ledger owned by one user. Books are not
// shared: entries never feed friend or group balances.
type Book struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
}

// EntryType classifies an entry as money in or money out
type EntryType string

const (
	EntryIncome  EntryType = "INCOME"
	EntryExpense EntryType = "EXPENSE"
)

// Valid reports whether the type is one of the two known values
func (t EntryType) Valid() bool {
	return t == EntryIncome || t == EntryExpense
}

// Entry is a single dated income or expense line in a book
type Entry struct {
	ID         int64       `json:"id"`
	BookID     int64       `json:"book_id"`
	Type       EntryType   `json:"type"`
	Name       string      `json:"name"`
	Amount     money.Money `json:"amount"`
	OccurredAt time.Time   `json:"occurred_at"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Summary is a book's running totals with its most recent entry time
type Summary struct {
	TotalIncome  money.Money `json:"total_income"`
	TotalExpense money.Money `json:"total_expense"`
	LastEntryAt  *time.Time  `json:"last_entry_at,omitempty"`
}

// Report is income versus expense over a book or a user's whole ledger,
// optionally bounded to a date range.
type Report struct {
	TotalIncome  money.Money `json:"total_income"`
	TotalExpense money.Money `json:"total_expense"`
	Balance      money.Money `json:"balance"`
	StartDate    *time.Time  `json:"start_date,omitempty"`
	EndDate      *time.Time  `json:"end_date,omitempty"`
}

// UserReport is the all-time report across every book a user owns, with the
// current calendar month's savings alongside.
type UserReport struct {
	Report
	CurrentMonthSavings money.Money `json:"current_month_savings"`
}
