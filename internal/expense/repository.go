package expense

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tanmaysahni/splitbook/internal/activity"
)

// Repository handles expense and participant data persistence
type Repository struct {
	db         *sql.DB
	activities *activity.Repository
}

// NewRepository creates a new expense repository
func NewRepository(db *sql.DB, activities *activity.Repository) *Repository {
	return &Repository{db: db, activities: activities}
}

const expenseColumns = `e.id, e.description, e.total, e.currency, e.payer_id, e.group_id, e.split_type, e.created_by, e.created_at, e.updated_at`

// CreateExpense inserts an expense and all of its participant rows in one
// transaction. Either every row lands or none do.
func (r *Repository) CreateExpense(ctx context.Context, expense *Expense, participants []*Participant) (*ExpenseWithParticipants, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO expenses (description, total, currency, payer_id, group_id, split_type, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, description, total, currency, payer_id, group_id, split_type, created_by, created_at, updated_at
	`

	created := &Expense{}
	err = tx.QueryRowContext(ctx, query,
		expense.Description,
		expense.Total,
		expense.Currency,
		expense.PayerID,
		expense.GroupID,
		expense.SplitType,
		expense.CreatedBy,
	).Scan(
		&created.ID,
		&created.Description,
		&created.Total,
		&created.Currency,
		&created.PayerID,
		&created.GroupID,
		&created.SplitType,
		&created.CreatedBy,
		&created.CreatedAt,
		&created.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}

	participantQuery := `
		INSERT INTO expense_participants (expense_id, user_id, amount_owed, split_value, settled, settled_at)
		VALUES ($1, $2, $3, $4, $5, CASE WHEN $5 THEN NOW() ELSE NULL END)
		RETURNING id, expense_id, user_id, amount_owed, split_value, settled, settled_at, created_at
	`

	inserted := make([]*Participant, 0, len(participants))
	for _, p := range participants {
		row := &Participant{}
		err := tx.QueryRowContext(ctx, participantQuery,
			created.ID, p.UserID, p.AmountOwed, p.SplitValue, p.Settled,
		).Scan(
			&row.ID,
			&row.ExpenseID,
			&row.UserID,
			&row.AmountOwed,
			&row.SplitValue,
			&row.Settled,
			&row.SettledAt,
			&row.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create participant: %w", err)
		}
		inserted = append(inserted, row)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &ExpenseWithParticipants{Expense: created, Participants: inserted}, nil
}

// GetByID retrieves an expense by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Expense, error) {
	query := `
		SELECT ` + expenseColumns + `, u.username
		FROM expenses e
		JOIN users u ON e.payer_id = u.id
		WHERE e.id = $1
	`

	expense := &Expense{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&expense.ID,
		&expense.Description,
		&expense.Total,
		&expense.Currency,
		&expense.PayerID,
		&expense.GroupID,
		&expense.SplitType,
		&expense.CreatedBy,
		&expense.CreatedAt,
		&expense.UpdatedAt,
		&expense.PayerUsername,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	return expense, nil
}

// GetParticipants retrieves all participant rows for an expense
func (r *Repository) GetParticipants(ctx context.Context, expenseID int64) ([]*Participant, error) {
	query := `
		SELECT p.id, p.expense_id, p.user_id, p.amount_owed, p.split_value, p.settled, p.settled_at, p.created_at, u.username
		FROM expense_participants p
		JOIN users u ON p.user_id = u.id
		WHERE p.expense_id = $1
		ORDER BY p.id
	`

	rows, err := r.db.QueryContext(ctx, query, expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	var participants []*Participant
	for rows.Next() {
		p := &Participant{}
		if err := rows.Scan(
			&p.ID,
			&p.ExpenseID,
			&p.UserID,
			&p.AmountOwed,
			&p.SplitValue,
			&p.Settled,
			&p.SettledAt,
			&p.CreatedAt,
			&p.Username,
		); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}

	return participants, nil
}

// GetParticipant retrieves one user's participant row for an expense
func (r *Repository) GetParticipant(ctx context.Context, expenseID, userID int64) (*Participant, error) {
	query := `
		SELECT p.id, p.expense_id, p.user_id, p.amount_owed, p.split_value, p.settled, p.settled_at, p.created_at, u.username
		FROM expense_participants p
		JOIN users u ON p.user_id = u.id
		WHERE p.expense_id = $1 AND p.user_id = $2
	`

	p := &Participant{}
	err := r.db.QueryRowContext(ctx, query, expenseID, userID).Scan(
		&p.ID,
		&p.ExpenseID,
		&p.UserID,
		&p.AmountOwed,
		&p.SplitValue,
		&p.Settled,
		&p.SettledAt,
		&p.CreatedAt,
		&p.Username,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}

	return p, nil
}

// ListByUserID retrieves expenses a user is involved in as payer, creator or
// participant, newest first.
func (r *Repository) ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*Expense, int, error) {
	where := `
		WHERE e.payer_id = $1
		   OR e.created_by = $1
		   OR EXISTS (SELECT 1 FROM expense_participants p WHERE p.expense_id = e.id AND p.user_id = $1)
	`
	return r.list(ctx, where, []interface{}{userID}, limit, offset)
}

// ListIndividualByUserID retrieves a user's individual (non-group) expenses
func (r *Repository) ListIndividualByUserID(ctx context.Context, userID int64, limit, offset int) ([]*Expense, int, error) {
	where := `
		WHERE e.group_id IS NULL
		  AND (e.payer_id = $1
		       OR EXISTS (SELECT 1 FROM expense_participants p WHERE p.expense_id = e.id AND p.user_id = $1))
	`
	return r.list(ctx, where, []interface{}{userID}, limit, offset)
}

// ListByGroupID retrieves a group's direct expenses. With includeRelated it
// also returns individual expenses whose payer and every participant belong
// to the group.
func (r *Repository) ListByGroupID(ctx context.Context, groupID int64, includeRelated bool, limit, offset int) ([]*Expense, int, error) {
	where := `WHERE e.group_id = $1`
	if includeRelated {
		where = `
		WHERE e.group_id = $1
		   OR (e.group_id IS NULL
		       AND EXISTS (SELECT 1 FROM group_members gm WHERE gm.group_id = $1 AND gm.user_id = e.payer_id)
		       AND NOT EXISTS (
		           SELECT 1 FROM expense_participants p
		           WHERE p.expense_id = e.id
		             AND NOT EXISTS (SELECT 1 FROM group_members gm WHERE gm.group_id = $1 AND gm.user_id = p.user_id)))
		`
	}
	return r.list(ctx, where, []interface{}{groupID}, limit, offset)
}

func (r *Repository) list(ctx context.Context, where string, args []interface{}, limit, offset int) ([]*Expense, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM expenses e ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count expenses: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s, u.username
		FROM expenses e
		JOIN users u ON e.payer_id = u.id
		%s
		ORDER BY e.created_at DESC, e.id DESC
		LIMIT %d OFFSET %d
	`, expenseColumns, where, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*Expense
	for rows.Next() {
		expense := &Expense{}
		if err := rows.Scan(
			&expense.ID,
			&expense.Description,
			&expense.Total,
			&expense.Currency,
			&expense.PayerID,
			&expense.GroupID,
			&expense.SplitType,
			&expense.CreatedBy,
			&expense.CreatedAt,
			&expense.UpdatedAt,
			&expense.PayerUsername,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}

	return expenses, total, nil
}

// UpdateParticipantSettlement toggles a participant's settled flag. The
// settled-at timestamp is stamped only on the false-to-true transition and
// cleared whenever the flag goes false.
func (r *Repository) UpdateParticipantSettlement(ctx context.Context, expenseID, userID int64, settled bool) (*Participant, error) {
	query := `
		UPDATE expense_participants
		SET settled = $3,
		    settled_at = CASE
		        WHEN $3 AND NOT settled THEN NOW()
		        WHEN NOT $3 THEN NULL
		        ELSE settled_at
		    END
		WHERE expense_id = $1 AND user_id = $2
		RETURNING id, expense_id, user_id, amount_owed, split_value, settled, settled_at, created_at
	`

	p := &Participant{}
	err := r.db.QueryRowContext(ctx, query, expenseID, userID, settled).Scan(
		&p.ID,
		&p.ExpenseID,
		&p.UserID,
		&p.AmountOwed,
		&p.SplitValue,
		&p.Settled,
		&p.SettledAt,
		&p.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update participant settlement: %w", err)
	}

	return p, nil
}

// Delete removes an expense, its participant rows, settlements linked to it
// and its activity history in one transaction.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	statements := []string{
		`DELETE FROM settlements WHERE expense_id = $1`,
		`DELETE FROM expense_participants WHERE expense_id = $1`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("failed to delete expense data: %w", err)
		}
	}
	if err := r.activities.DeleteByExpenseID(ctx, tx, id); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
