package group

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/tanmaysahni/splitbook/internal/activity"
	"github.com/tanmaysahni/splitbook/internal/notification"
)

type fakeUsers map[int64]bool

func (f fakeUsers) Exists(_ context.Context, id int64) (bool, error) {
	return f[id], nil
}

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	activityRepo := activity.NewRepository(db)
	repo := NewRepository(db, activityRepo)
	activities := activity.NewService(activityRepo, repo)
	notifications := notification.NewService(notification.NewRepository(db))

	return NewService(repo, fakeUsers{1: true, 2: true}, activities, notifications, "INR"), mock
}

func groupRow(id, createdBy int64, name string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "description", "currency", "created_by", "created_at"}).
		AddRow(id, name, nil, "INR", createdBy, time.Now())
}

func adminRow(isAdmin bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"exists"}).AddRow(isAdmin)
}

func TestDeleteGroupCascades(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`SELECT .* FROM groups WHERE id`).
		WithArgs(int64(5)).
		WillReturnRows(groupRow(5, 1, "Trip"))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM group_members`).
		WithArgs(int64(5), int64(1)).
		WillReturnRows(adminRow(true))

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM settlements`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM expense_participants`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 6))
	mock.ExpectExec(`DELETE FROM expenses WHERE group_id`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM group_members WHERE group_id`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM activities WHERE group_id`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(`DELETE FROM groups WHERE id`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Feed entry about the deletion is best-effort.
	mock.ExpectQuery(`INSERT INTO activities`).WillReturnError(errors.New("feed down"))

	if err := svc.Delete(context.Background(), 5, 1); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDeleteGroupRequiresAdmin(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`SELECT .* FROM groups WHERE id`).
		WithArgs(int64(5)).
		WillReturnRows(groupRow(5, 1, "Trip"))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM group_members`).
		WithArgs(int64(5), int64(2)).
		WillReturnRows(adminRow(false))

	err := svc.Delete(context.Background(), 5, 2)
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
