package book

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Repository handles book and entry data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new book repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const bookColumns = `id, user_id, name, description, currency, created_at`
const entryColumns = `id, book_id, entry_type, name, amount, occurred_at, created_at`

func scanBook(row interface{ Scan(...interface{}) error }) (*Book, error) {
	b := &Book{}
	err := row.Scan(&b.ID, &b.UserID, &b.Name, &b.Description, &b.Currency, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func scanEntry(row interface{ Scan(...interface{}) error }) (*Entry, error) {
	e := &Entry{}
	err := row.Scan(&e.ID, &e.BookID, &e.Type, &e.Name, &e.Amount, &e.OccurredAt, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// CreateBook inserts a new book
func (r *Repository) CreateBook(ctx context.Context, userID int64, name string, description *string, currency string) (*Book, error) {
	query := `
		INSERT INTO books (user_id, name, description, currency)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + bookColumns

	b, err := scanBook(r.db.QueryRowContext(ctx, query, userID, name, description, currency))
	if err != nil {
		return nil, fmt.Errorf("failed to create book: %w", err)
	}
	return b, nil
}

// GetBookByID retrieves a book by its ID
func (r *Repository) GetBookByID(ctx context.Context, id int64) (*Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`

	b, err := scanBook(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return b, nil
}

// ListBooksByUserID retrieves a page of a user's books, newest first
func (r *Repository) ListBooksByUserID(ctx context.Context, userID int64, limit, offset int) ([]*Book, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count books: %w", err)
	}

	query := `SELECT ` + bookColumns + ` FROM books WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	var books []*Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate books: %w", err)
	}

	return books, total, nil
}

// DeleteBook removes a book and its entries in one transaction
func (r *Repository) DeleteBook(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE book_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete entries: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CreateEntry inserts a new entry into a book
func (r *Repository) CreateEntry(ctx context.Context, bookID int64, t EntryType, name string, amount int64, occurredAt time.Time) (*Entry, error) {
	query := `
		INSERT INTO entries (book_id, entry_type, name, amount, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + entryColumns

	e, err := scanEntry(r.db.QueryRowContext(ctx, query, bookID, t, name, amount, occurredAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create entry: %w", err)
	}
	return e, nil
}

// GetEntryByID retrieves an entry by its ID
func (r *Repository) GetEntryByID(ctx context.Context, id int64) (*Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE id = $1`

	e, err := scanEntry(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return e, nil
}

// UpdateEntry applies a partial update; nil columns keep their current value
func (r *Repository) UpdateEntry(ctx context.Context, id int64, t *EntryType, name *string, amount *int64, occurredAt *time.Time) (*Entry, error) {
	query := `
		UPDATE entries
		SET entry_type = COALESCE($2, entry_type),
		    name = COALESCE($3, name),
		    amount = COALESCE($4, amount),
		    occurred_at = COALESCE($5, occurred_at)
		WHERE id = $1
		RETURNING ` + entryColumns

	e, err := scanEntry(r.db.QueryRowContext(ctx, query, id, t, name, amount, occurredAt))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update entry: %w", err)
	}
	return e, nil
}

// DeleteEntry removes an entry
func (r *Repository) DeleteEntry(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListEntriesByBookID retrieves a page of a book's entries, most recent
// occurrence first. A nil bound leaves that side of the range open.
func (r *Repository) ListEntriesByBookID(ctx context.Context, bookID int64, from, to *time.Time, limit, offset int) ([]*Entry, int, error) {
	where := `WHERE book_id = $1 AND ($2::timestamptz IS NULL OR occurred_at >= $2) AND ($3::timestamptz IS NULL OR occurred_at <= $3)`

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries `+where, bookID, from, to).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count entries: %w", err)
	}

	query := `SELECT ` + entryColumns + ` FROM entries ` + where + ` ORDER BY occurred_at DESC, id DESC LIMIT $4 OFFSET $5`
	rows, err := r.db.QueryContext(ctx, query, bookID, from, to, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate entries: %w", err)
	}

	return entries, total, nil
}

// BookTotals sums a book's income and expense, optionally within a range
func (r *Repository) BookTotals(ctx context.Context, bookID int64, from, to *time.Time) (income, expense int64, err error) {
	query := `
		SELECT
		    COALESCE(SUM(amount) FILTER (WHERE entry_type = 'INCOME'), 0),
		    COALESCE(SUM(amount) FILTER (WHERE entry_type = 'EXPENSE'), 0)
		FROM entries
		WHERE book_id = $1
		  AND ($2::timestamptz IS NULL OR occurred_at >= $2)
		  AND ($3::timestamptz IS NULL OR occurred_at <= $3)
	`
	if err := r.db.QueryRowContext(ctx, query, bookID, from, to).Scan(&income, &expense); err != nil {
		return 0, 0, fmt.Errorf("failed to total book entries: %w", err)
	}
	return income, expense, nil
}

// UserTotals sums income and expense across every book a user owns,
// optionally within a range
func (r *Repository) UserTotals(ctx context.Context, userID int64, from, to *time.Time) (income, expense int64, err error) {
	query := `
		SELECT
		    COALESCE(SUM(e.amount) FILTER (WHERE e.entry_type = 'INCOME'), 0),
		    COALESCE(SUM(e.amount) FILTER (WHERE e.entry_type = 'EXPENSE'), 0)
		FROM entries e
		JOIN books b ON e.book_id = b.id
		WHERE b.user_id = $1
		  AND ($2::timestamptz IS NULL OR e.occurred_at >= $2)
		  AND ($3::timestamptz IS NULL OR e.occurred_at <= $3)
	`
	if err := r.db.QueryRowContext(ctx, query, userID, from, to).Scan(&income, &expense); err != nil {
		return 0, 0, fmt.Errorf("failed to total user entries: %w", err)
	}
	return income, expense, nil
}

// LastEntryAt returns the most recent occurrence time in a book, or nil for
// an empty book
func (r *Repository) LastEntryAt(ctx context.Context, bookID int64) (*time.Time, error) {
	var last *time.Time
	query := `SELECT MAX(occurred_at) FROM entries WHERE book_id = $1`
	if err := r.db.QueryRowContext(ctx, query, bookID).Scan(&last); err != nil {
		return nil, fmt.Errorf("failed to get last entry time: %w", err)
	}
	return last, nil
}
