package settlement

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository handles settlement data persistence. Settlements are append-only;
// there are no update methods.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new settlement repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const settlementSelect = `
	SELECT s.id, s.from_user_id, s.to_user_id, s.amount, s.currency, s.expense_id, s.notes, s.recorded_by, s.settled_at,
	       fu.username, tu.username
	FROM settlements s
	JOIN users fu ON s.from_user_id = fu.id
	JOIN users tu ON s.to_user_id = tu.id
`

// Insert appends a new settlement record
func (r *Repository) Insert(ctx context.Context, s *Settlement) (*Settlement, error) {
	query := `
		INSERT INTO settlements (from_user_id, to_user_id, amount, currency, expense_id, notes, recorded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, from_user_id, to_user_id, amount, currency, expense_id, notes, recorded_by, settled_at
	`

	created := &Settlement{}
	err := r.db.QueryRowContext(ctx, query,
		s.FromUserID, s.ToUserID, s.Amount, s.Currency, s.ExpenseID, s.Notes, s.RecordedBy,
	).Scan(
		&created.ID,
		&created.FromUserID,
		&created.ToUserID,
		&created.Amount,
		&created.Currency,
		&created.ExpenseID,
		&created.Notes,
		&created.RecordedBy,
		&created.SettledAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record settlement: %w", err)
	}

	return created, nil
}

// GetByID retrieves a settlement by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Settlement, error) {
	query := settlementSelect + ` WHERE s.id = $1`

	s := &Settlement{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID,
		&s.FromUserID,
		&s.ToUserID,
		&s.Amount,
		&s.Currency,
		&s.ExpenseID,
		&s.Notes,
		&s.RecordedBy,
		&s.SettledAt,
		&s.FromUsername,
		&s.ToUsername,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}

	return s, nil
}

// ListByUserID retrieves settlements a user sent, received or recorded
func (r *Repository) ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*Settlement, int, error) {
	where := `WHERE s.from_user_id = $1 OR s.to_user_id = $1 OR s.recorded_by = $1`
	return r.list(ctx, where, []interface{}{userID}, limit, offset)
}

// ListBetweenUsers retrieves settlements between two users in either direction
func (r *Repository) ListBetweenUsers(ctx context.Context, userID, otherID int64, limit, offset int) ([]*Settlement, int, error) {
	where := `
		WHERE (s.from_user_id = $1 AND s.to_user_id = $2)
		   OR (s.from_user_id = $2 AND s.to_user_id = $1)
	`
	return r.list(ctx, where, []interface{}{userID, otherID}, limit, offset)
}

// ListByExpenseID retrieves settlements linked to one expense
func (r *Repository) ListByExpenseID(ctx context.Context, expenseID int64) ([]*Settlement, error) {
	settlements, _, err := r.list(ctx, `WHERE s.expense_id = $1`, []interface{}{expenseID}, 100, 0)
	return settlements, err
}

func (r *Repository) list(ctx context.Context, where string, args []interface{}, limit, offset int) ([]*Settlement, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM settlements s ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count settlements: %w", err)
	}

	query := fmt.Sprintf(`%s %s ORDER BY s.settled_at DESC, s.id DESC LIMIT %d OFFSET %d`,
		settlementSelect, where, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*Settlement
	for rows.Next() {
		s := &Settlement{}
		if err := rows.Scan(
			&s.ID,
			&s.FromUserID,
			&s.ToUserID,
			&s.Amount,
			&s.Currency,
			&s.ExpenseID,
			&s.Notes,
			&s.RecordedBy,
			&s.SettledAt,
			&s.FromUsername,
			&s.ToUsername,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, s)
	}

	return settlements, total, nil
}
