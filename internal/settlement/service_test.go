package settlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/tanmaysahni/splitbook/internal/activity"
	"github.com/tanmaysahni/splitbook/internal/notification"
	"github.com/tanmaysahni/splitbook/pkg/money"
)

type fakeUsers map[int64]bool

func (f fakeUsers) Exists(_ context.Context, id int64) (bool, error) {
	return f[id], nil
}

type noMemberships struct{}

func (noMemberships) IsMember(_ context.Context, _, _ int64) (bool, error) { return false, nil }

func newTestService(t *testing.T, expenseExists bool) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := fakeUsers{1: true, 2: true}
	activities := activity.NewService(activity.NewRepository(db), noMemberships{})
	notifications := notification.NewService(notification.NewRepository(db))
	checker := func(context.Context, int64) (bool, error) { return expenseExists, nil }

	return NewService(NewRepository(db), users, checker, activities, notifications, "INR"), mock
}

func TestRecordValidation(t *testing.T) {
	svc, mock := newTestService(t, true)

	tests := []struct {
		name string
		req  *RecordSettlementRequest
		want error
	}{
		{
			name: "zero amount",
			req:  &RecordSettlementRequest{FromUserID: 1, ToUserID: 2},
			want: ErrNonPositiveAmount,
		},
		{
			name: "same user",
			req:  &RecordSettlementRequest{FromUserID: 1, ToUserID: 1, Amount: money.MustParse("5.00")},
			want: ErrSameUser,
		},
		{
			name: "unknown user",
			req:  &RecordSettlementRequest{FromUserID: 1, ToUserID: 99, Amount: money.MustParse("5.00")},
			want: ErrUnknownUser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Record(context.Background(), 1, tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	// Validation failures must not write anything.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected database access: %v", err)
	}
}

func TestRecordRejectsMissingExpense(t *testing.T) {
	svc, mock := newTestService(t, false)

	expenseID := int64(42)
	_, err := svc.Record(context.Background(), 1, &RecordSettlementRequest{
		FromUserID: 1,
		ToUserID:   2,
		Amount:     money.MustParse("5.00"),
		ExpenseID:  &expenseID,
	})
	if !errors.Is(err, ErrExpenseNotFound) {
		t.Fatalf("expected ErrExpenseNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected database access: %v", err)
	}
}

func TestRecordIsAdvisory(t *testing.T) {
	svc, mock := newTestService(t, true)

	// One settlement insert and nothing else: no participant rows change.
	mock.ExpectQuery(`INSERT INTO settlements`).
		WithArgs(int64(1), int64(2), sqlmock.AnyArg(), "INR", nil, nil, int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "from_user_id", "to_user_id", "amount", "currency", "expense_id", "notes", "recorded_by", "settled_at",
		}).AddRow(9, 1, 2, int64(500), "INR", nil, nil, 1, time.Now()))
	mock.ExpectQuery(`INSERT INTO activities`).WillReturnError(errors.New("not under test"))
	mock.ExpectQuery(`INSERT INTO notifications`).WillReturnError(errors.New("not under test"))

	settlement, err := svc.Record(context.Background(), 1, &RecordSettlementRequest{
		FromUserID: 1,
		ToUserID:   2,
		Amount:     money.MustParse("5.00"),
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if settlement.Amount != money.MustParse("5.00") {
		t.Errorf("amount = %v, want 5.00", settlement.Amount)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
