package expense

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/tanmaysahni/splitbook/internal/activity"
	"github.com/tanmaysahni/splitbook/internal/expense/split"
	"github.com/tanmaysahni/splitbook/internal/notification"
	"github.com/tanmaysahni/splitbook/pkg/money"
)

type fakeUsers map[int64]bool

func (f fakeUsers) Exists(_ context.Context, id int64) (bool, error) {
	return f[id], nil
}

type fakeGroups struct {
	members map[int64]bool
	admins  map[int64]bool
}

func (f *fakeGroups) IsMember(_ context.Context, _, userID int64) (bool, error) {
	return f.members[userID], nil
}

func (f *fakeGroups) IsAdmin(_ context.Context, _, userID int64) (bool, error) {
	return f.admins[userID], nil
}

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}

	users := fakeUsers{1: true, 2: true, 3: true}
	groups := &fakeGroups{members: map[int64]bool{1: true, 2: true, 3: true}, admins: map[int64]bool{1: true}}
	activityRepo := activity.NewRepository(db)
	activities := activity.NewService(activityRepo, groups)
	notifications := notification.NewService(notification.NewRepository(db))

	svc := NewService(NewRepository(db, activityRepo), split.NewFactory(), users, groups, activities, notifications, "INR")
	return svc, mock, db
}

func expenseRow(id int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "description", "total", "currency", "payer_id", "group_id", "split_type", "created_by", "created_at", "updated_at",
	}).AddRow(id, "Dinner", int64(10000), "INR", int64(1), nil, "EQUAL", int64(1), time.Now(), time.Now())
}

func participantRow(id, expenseID, userID, owed int64, settled bool) *sqlmock.Rows {
	var settledAt interface{}
	if settled {
		settledAt = time.Now()
	}
	return sqlmock.NewRows([]string{
		"id", "expense_id", "user_id", "amount_owed", "split_value", "settled", "settled_at", "created_at",
	}).AddRow(id, expenseID, userID, owed, nil, settled, settledAt, time.Now())
}

func TestCreateExpenseAtomic(t *testing.T) {
	svc, mock, db := newTestService(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO expenses`).WillReturnRows(expenseRow(7))
	// Payer's own row is pre-settled.
	mock.ExpectQuery(`INSERT INTO expense_participants`).
		WithArgs(int64(7), int64(1), sqlmock.AnyArg(), nil, true).
		WillReturnRows(participantRow(1, 7, 1, 3334, true))
	mock.ExpectQuery(`INSERT INTO expense_participants`).
		WithArgs(int64(7), int64(2), sqlmock.AnyArg(), nil, false).
		WillReturnRows(participantRow(2, 7, 2, 3333, false))
	mock.ExpectQuery(`INSERT INTO expense_participants`).
		WithArgs(int64(7), int64(3), sqlmock.AnyArg(), nil, false).
		WillReturnRows(participantRow(3, 7, 3, 3333, false))
	mock.ExpectCommit()
	// Best-effort activity and notification inserts after the commit.
	mock.ExpectQuery(`INSERT INTO activities`).WillReturnError(errors.New("not under test"))
	mock.ExpectQuery(`INSERT INTO notifications`).WillReturnError(errors.New("not under test"))
	mock.ExpectQuery(`INSERT INTO notifications`).WillReturnError(errors.New("not under test"))

	result, err := svc.CreateExpense(context.Background(), 1, &CreateExpenseRequest{
		Description: "Dinner",
		Amount:      money.MustParse("100.00"),
		SplitType:   "EQUAL",
		Participants: []*ParticipantInput{
			{UserID: 1},
			{UserID: 2},
			{UserID: 3},
		},
	})
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	if len(result.Participants) != 3 {
		t.Fatalf("expected 3 participants, got %d", len(result.Participants))
	}
	if !result.Participants[0].Settled {
		t.Error("payer's own row should be pre-settled")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateExpenseRollsBackOnParticipantFailure(t *testing.T) {
	svc, mock, db := newTestService(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO expenses`).WillReturnRows(expenseRow(7))
	mock.ExpectQuery(`INSERT INTO expense_participants`).
		WillReturnError(errors.New("unique violation"))
	mock.ExpectRollback()

	_, err := svc.CreateExpense(context.Background(), 1, &CreateExpenseRequest{
		Description: "Dinner",
		Amount:      money.MustParse("100.00"),
		SplitType:   "EQUAL",
		Participants: []*ParticipantInput{
			{UserID: 1},
			{UserID: 2},
		},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateExpenseValidation(t *testing.T) {
	svc, mock, db := newTestService(t)
	defer db.Close()

	tests := []struct {
		name string
		req  *CreateExpenseRequest
		want error
	}{
		{
			name: "empty description",
			req: &CreateExpenseRequest{
				Description:  "   ",
				Amount:       money.MustParse("10.00"),
				SplitType:    "EQUAL",
				Participants: []*ParticipantInput{{UserID: 1}},
			},
			want: ErrEmptyDescription,
		},
		{
			name: "unknown split type",
			req: &CreateExpenseRequest{
				Description:  "Dinner",
				Amount:       money.MustParse("10.00"),
				SplitType:    "RANDOM",
				Participants: []*ParticipantInput{{UserID: 1}},
			},
			want: split.ErrUnknownType,
		},
		{
			name: "unknown participant",
			req: &CreateExpenseRequest{
				Description:  "Dinner",
				Amount:       money.MustParse("10.00"),
				SplitType:    "EQUAL",
				Participants: []*ParticipantInput{{UserID: 99}},
			},
			want: ErrUnknownUser,
		},
		{
			name: "zero total",
			req: &CreateExpenseRequest{
				Description:  "Dinner",
				Amount:       0,
				SplitType:    "EQUAL",
				Participants: []*ParticipantInput{{UserID: 1}},
			},
			want: split.ErrNonPositiveTotal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateExpense(context.Background(), 1, tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	// Validation failures must never touch the database.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected database access: %v", err)
	}
}

func TestCreateExpenseRequiresGroupMembership(t *testing.T) {
	svc, mock, db := newTestService(t)
	defer db.Close()

	groupID := int64(5)
	users := fakeUsers{1: true, 2: true, 4: true}
	groups := &fakeGroups{members: map[int64]bool{1: true, 2: true}}
	activities := activity.NewService(activity.NewRepository(db), groups)
	notifications := notification.NewService(notification.NewRepository(db))
	svc = NewService(svc.repo, split.NewFactory(), users, groups, activities, notifications, "INR")

	_, err := svc.CreateExpense(context.Background(), 1, &CreateExpenseRequest{
		Description: "Hotel",
		Amount:      money.MustParse("100.00"),
		GroupID:     &groupID,
		SplitType:   "EQUAL",
		Participants: []*ParticipantInput{
			{UserID: 1},
			{UserID: 4}, // not a member
		},
	})
	if !errors.Is(err, ErrNotGroupMember) {
		t.Fatalf("expected ErrNotGroupMember, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected database access: %v", err)
	}
}

func expenseSelectRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "description", "total", "currency", "payer_id", "group_id", "split_type", "created_by", "created_at", "updated_at", "username",
	}).AddRow(7, "Dinner", int64(10000), "INR", int64(1), nil, "EQUAL", int64(1), time.Now(), time.Now(), "alice")
}

func participantSelectRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "expense_id", "user_id", "amount_owed", "split_value", "settled", "settled_at", "created_at", "username",
	}).
		AddRow(1, 7, 1, int64(5000), nil, true, time.Now(), time.Now(), "alice").
		AddRow(2, 7, 2, int64(5000), nil, false, nil, time.Now(), "bob")
}

// The settled-at timestamp is owned by the UPDATE's CASE expression: stamped
// only on the false-to-true transition, preserved on a repeated settle,
// cleared whenever the flag goes false.
const settleCase = `UPDATE expense_participants[\s\S]*WHEN \$3 AND NOT settled THEN NOW\(\)[\s\S]*WHEN NOT \$3 THEN NULL[\s\S]*ELSE settled_at`

func TestUpdateParticipantSettlementSettle(t *testing.T) {
	svc, mock, db := newTestService(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM expenses`).WillReturnRows(expenseSelectRows())
	mock.ExpectQuery(`SELECT .* FROM expense_participants`).WillReturnRows(participantSelectRows())
	mock.ExpectQuery(settleCase).
		WithArgs(int64(7), int64(2), true).
		WillReturnRows(participantRow(2, 7, 2, 5000, true))
	// Best-effort side effects: the activity entry, then the payer's
	// notification since someone else toggled the share.
	mock.ExpectQuery(`INSERT INTO activities`).WillReturnError(errors.New("not under test"))
	mock.ExpectQuery(`INSERT INTO notifications`).WillReturnError(errors.New("not under test"))

	p, err := svc.UpdateParticipantSettlement(context.Background(), 7, 2, true, 2)
	if err != nil {
		t.Fatalf("UpdateParticipantSettlement failed: %v", err)
	}
	if !p.Settled {
		t.Error("participant should be settled")
	}
	if p.SettledAt == nil {
		t.Error("settled_at should be stamped on settle")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpdateParticipantSettlementReopen(t *testing.T) {
	svc, mock, db := newTestService(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM expenses`).WillReturnRows(expenseSelectRows())
	mock.ExpectQuery(`SELECT .* FROM expense_participants`).WillReturnRows(participantSelectRows())
	mock.ExpectQuery(settleCase).
		WithArgs(int64(7), int64(2), false).
		WillReturnRows(participantRow(2, 7, 2, 5000, false))
	mock.ExpectQuery(`INSERT INTO activities`).WillReturnError(errors.New("not under test"))
	mock.ExpectQuery(`INSERT INTO notifications`).WillReturnError(errors.New("not under test"))

	p, err := svc.UpdateParticipantSettlement(context.Background(), 7, 2, false, 2)
	if err != nil {
		t.Fatalf("UpdateParticipantSettlement failed: %v", err)
	}
	if p.Settled {
		t.Error("participant should be reopened")
	}
	if p.SettledAt != nil {
		t.Error("settled_at should be cleared on reopen")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpdateParticipantSettlementUnknownParticipant(t *testing.T) {
	svc, mock, db := newTestService(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM expenses`).WillReturnRows(expenseSelectRows())
	mock.ExpectQuery(`SELECT .* FROM expense_participants`).WillReturnRows(participantSelectRows())
	// User 1 (the payer) targets a user with no participant row.
	mock.ExpectQuery(settleCase).
		WithArgs(int64(7), int64(9), true).
		WillReturnError(sql.ErrNoRows)

	_, err := svc.UpdateParticipantSettlement(context.Background(), 7, 9, true, 1)
	if !errors.Is(err, ErrParticipantNotFound) {
		t.Fatalf("expected ErrParticipantNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpdateParticipantSettlementDeniedForOutsider(t *testing.T) {
	svc, mock, db := newTestService(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM expenses`).WillReturnRows(expenseSelectRows())
	mock.ExpectQuery(`SELECT .* FROM expense_participants`).WillReturnRows(participantSelectRows())

	// User 3 is neither payer, creator nor participant; no UPDATE may run.
	_, err := svc.UpdateParticipantSettlement(context.Background(), 7, 2, true, 3)
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDeleteExpenseAuthorization(t *testing.T) {
	svc, mock, db := newTestService(t)
	defer db.Close()

	// Caller 2 is neither creator nor admin.
	mock.ExpectQuery(`SELECT .* FROM expenses`).WillReturnRows(
		sqlmock.NewRows([]string{
			"id", "description", "total", "currency", "payer_id", "group_id", "split_type", "created_by", "created_at", "updated_at", "username",
		}).AddRow(7, "Dinner", int64(10000), "INR", int64(1), nil, "EQUAL", int64(1), time.Now(), time.Now(), "alice"),
	)

	err := svc.DeleteExpense(context.Background(), 7, 2)
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDeleteExpenseCascades(t *testing.T) {
	svc, mock, db := newTestService(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM expenses`).WillReturnRows(
		sqlmock.NewRows([]string{
			"id", "description", "total", "currency", "payer_id", "group_id", "split_type", "created_by", "created_at", "updated_at", "username",
		}).AddRow(7, "Dinner", int64(10000), "INR", int64(1), nil, "EQUAL", int64(1), time.Now(), time.Now(), "alice"),
	)
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM settlements WHERE expense_id`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM expense_participants WHERE expense_id`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM activities WHERE expense_id`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM expenses WHERE id`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	// Feed entry about the deletion is best-effort.
	mock.ExpectQuery(`INSERT INTO activities`).WillReturnError(errors.New("feed down"))

	if err := svc.DeleteExpense(context.Background(), 7, 1); err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
