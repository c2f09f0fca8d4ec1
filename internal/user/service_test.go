package user

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewService(NewRepository(db)), mock
}

func userRow(id int64, username, email string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "username", "email", "full_name", "created_at"}).
		AddRow(id, username, email, nil, time.Now())
}

func TestCreateUser(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`SELECT .* FROM users WHERE email`).
		WithArgs("alice@example.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT .* FROM users WHERE username`).
		WithArgs("alice").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("alice", "alice@example.com", nil).
		WillReturnRows(userRow(1, "alice", "alice@example.com"))

	user, err := svc.Create(context.Background(), &CreateUserRequest{Username: "alice", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if user.ID != 1 {
		t.Errorf("expected user ID 1, got %d", user.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`SELECT .* FROM users WHERE email`).
		WithArgs("alice@example.com").
		WillReturnRows(userRow(1, "alice", "alice@example.com"))

	_, err := svc.Create(context.Background(), &CreateUserRequest{Username: "alice2", Email: "alice@example.com"})
	if !errors.Is(err, ErrEmailAlreadyInUse) {
		t.Errorf("expected ErrEmailAlreadyInUse, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateUserRejectsDuplicateUsername(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`SELECT .* FROM users WHERE email`).
		WithArgs("alice@other.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT .* FROM users WHERE username`).
		WithArgs("alice").
		WillReturnRows(userRow(1, "alice", "alice@example.com"))

	_, err := svc.Create(context.Background(), &CreateUserRequest{Username: "alice", Email: "alice@other.com"})
	if !errors.Is(err, ErrUsernameAlreadyInUse) {
		t.Errorf("expected ErrUsernameAlreadyInUse, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
