package activity

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
)

// Repository handles activity data persistence. Inserts only; activities are
// immutable once written.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new activity repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const activityColumns = `id, user_id, activity_type, payload, related_user_id, group_id, expense_id, created_at`

// Insert appends a new activity record
func (r *Repository) Insert(ctx context.Context, userID int64, t Type, payload interface{},
	relatedUserID, groupID, expenseID *int64) (*Activity, error) {

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal activity payload: %w", err)
	}

	query := `
		INSERT INTO activities (user_id, activity_type, payload, related_user_id, group_id, expense_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + activityColumns

	return r.scanOne(r.db.QueryRowContext(ctx, query, userID, t, data, relatedUserID, groupID, expenseID))
}

// ListForUser retrieves the activity feed for a user: events they acted in,
// events targeting them, and events in groups they belong to.
func (r *Repository) ListForUser(ctx context.Context, userID int64, limit, offset int) ([]*Activity, int, error) {
	where := `
		WHERE a.user_id = $1
		   OR a.related_user_id = $1
		   OR a.group_id IN (SELECT group_id FROM group_members WHERE user_id = $1)
	`
	return r.list(ctx, where, []interface{}{userID}, limit, offset)
}

// ListForUserByTypes retrieves a user's feed restricted to a set of activity types
func (r *Repository) ListForUserByTypes(ctx context.Context, userID int64, types []Type, limit, offset int) ([]*Activity, int, error) {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	where := `
		WHERE a.activity_type = ANY($2)
		  AND (a.user_id = $1
		       OR a.related_user_id = $1
		       OR a.group_id IN (SELECT group_id FROM group_members WHERE user_id = $1))
	`
	return r.list(ctx, where, []interface{}{userID, pq.Array(names)}, limit, offset)
}

// ListByGroup retrieves activities for one group
func (r *Repository) ListByGroup(ctx context.Context, groupID int64, limit, offset int) ([]*Activity, int, error) {
	return r.list(ctx, `WHERE a.group_id = $1`, []interface{}{groupID}, limit, offset)
}

// ListBetweenUsers retrieves activities where the two users are actor and
// target of each other, in either direction.
func (r *Repository) ListBetweenUsers(ctx context.Context, userID, friendID int64, limit, offset int) ([]*Activity, int, error) {
	where := `
		WHERE (a.user_id = $1 AND a.related_user_id = $2)
		   OR (a.user_id = $2 AND a.related_user_id = $1)
	`
	return r.list(ctx, where, []interface{}{userID, friendID}, limit, offset)
}

// ListRecent retrieves the newest activities in a user's feed
func (r *Repository) ListRecent(ctx context.Context, userID int64, limit int) ([]*Activity, error) {
	activities, _, err := r.ListForUser(ctx, userID, limit, 0)
	return activities, err
}

// DeleteByGroupID bulk-removes a group's activities (cascade on group delete)
func (r *Repository) DeleteByGroupID(ctx context.Context, tx *sql.Tx, groupID int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM activities WHERE group_id = $1`, groupID); err != nil {
		return fmt.Errorf("failed to delete group activities: %w", err)
	}
	return nil
}

// DeleteByExpenseID bulk-removes an expense's activities (cascade on expense delete)
func (r *Repository) DeleteByExpenseID(ctx context.Context, tx *sql.Tx, expenseID int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM activities WHERE expense_id = $1`, expenseID); err != nil {
		return fmt.Errorf("failed to delete expense activities: %w", err)
	}
	return nil
}

func (r *Repository) list(ctx context.Context, where string, args []interface{}, limit, offset int) ([]*Activity, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM activities a ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count activities: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT a.id, a.user_id, a.activity_type, a.payload, a.related_user_id, a.group_id, a.expense_id, a.created_at
		FROM activities a
		%s
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT %d OFFSET %d
	`, where, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var activities []*Activity
	for rows.Next() {
		a := &Activity{}
		if err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.Type,
			&a.Payload,
			&a.RelatedUserID,
			&a.GroupID,
			&a.ExpenseID,
			&a.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, a)
	}

	return activities, total, nil
}

func (r *Repository) scanOne(row *sql.Row) (*Activity, error) {
	a := &Activity{}
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.Type,
		&a.Payload,
		&a.RelatedUserID,
		&a.GroupID,
		&a.ExpenseID,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert activity: %w", err)
	}
	return a, nil
}
