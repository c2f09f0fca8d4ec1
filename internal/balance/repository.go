package balance

import (
	"context"
	"database/sql"
	"fmt"
)

// GroupInfo is the group metadata a balance listing needs
type GroupInfo struct {
	ID          int64
	Name        string
	Description *string
	Currency    string
	MemberCount int
	IsAdmin     bool
}

// Repository loads ledger rows for aggregation. Read-only.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new balance repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const expenseJoin = `
	SELECT e.id, e.currency, e.payer_id, e.group_id, e.created_at,
	       p.user_id, u.username, u.email, p.amount_owed, p.settled
	FROM expenses e
	JOIN expense_participants p ON p.expense_id = e.id
	JOIN users u ON u.id = p.user_id
`

// IndividualExpensesForUser loads every non-group expense the user
// participates in, with all participant rows.
func (r *Repository) IndividualExpensesForUser(ctx context.Context, userID int64) ([]*Expense, error) {
	query := expenseJoin + `
		WHERE e.group_id IS NULL
		  AND EXISTS (SELECT 1 FROM expense_participants sp WHERE sp.expense_id = e.id AND sp.user_id = $1)
		ORDER BY e.id, p.id
	`
	return r.load(ctx, query, userID)
}

// AllExpensesForUser loads every expense the user participates in
func (r *Repository) AllExpensesForUser(ctx context.Context, userID int64) ([]*Expense, error) {
	query := expenseJoin + `
		WHERE EXISTS (SELECT 1 FROM expense_participants sp WHERE sp.expense_id = e.id AND sp.user_id = $1)
		ORDER BY e.id, p.id
	`
	return r.load(ctx, query, userID)
}

// GroupExpenses loads a group's direct expenses with all participant rows
func (r *Repository) GroupExpenses(ctx context.Context, groupID int64) ([]*Expense, error) {
	query := expenseJoin + `
		WHERE e.group_id = $1
		ORDER BY e.id, p.id
	`
	return r.load(ctx, query, groupID)
}

// GroupsForUser loads the metadata of every group the user belongs to
func (r *Repository) GroupsForUser(ctx context.Context, userID int64) ([]*GroupInfo, error) {
	query := `
		SELECT g.id, g.name, g.description, g.currency, gm.is_admin,
		       (SELECT COUNT(*) FROM group_members c WHERE c.group_id = g.id)
		FROM groups g
		JOIN group_members gm ON gm.group_id = g.id
		WHERE gm.user_id = $1
		ORDER BY g.id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*GroupInfo
	for rows.Next() {
		g := &GroupInfo{}
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.Currency, &g.IsAdmin, &g.MemberCount); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}

	return groups, nil
}

// load runs an expense-participant join and regroups the flat rows into
// expenses. Queries order by expense id so each expense's rows are adjacent.
func (r *Repository) load(ctx context.Context, query string, arg interface{}) ([]*Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*Expense
	var current *Expense
	for rows.Next() {
		var (
			e Expense
			p Participant
		)
		if err := rows.Scan(
			&e.ID, &e.Currency, &e.PayerID, &e.GroupID, &e.CreatedAt,
			&p.UserID, &p.Username, &p.Email, &p.AmountOwed, &p.Settled,
		); err != nil {
			return nil, fmt.Errorf("failed to scan expense row: %w", err)
		}

		if current == nil || current.ID != e.ID {
			next := e
			current = &next
			expenses = append(expenses, current)
		}
		current.Participants = append(current.Participants, p)
	}

	return expenses, nil
}
