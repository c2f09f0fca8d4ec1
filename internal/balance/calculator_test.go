package balance

import (
	"testing"
	"time"

	"github.com/tanmaysahni/splitbook/pkg/money"
)

func m(s string) money.Money { return money.MustParse(s) }

func findFriend(t *testing.T, balances []*FriendBalance, userID int64) *FriendBalance {
	t.Helper()
	for _, b := range balances {
		if b.UserID == userID {
			return b
		}
	}
	t.Fatalf("no balance for user %d", userID)
	return nil
}

func TestFriendBalancesSymmetry(t *testing.T) {
	// User 1 paid 60.00, user 2 owes 30.00; both rows unsettled.
	expenses := []*Expense{
		{
			ID:      1,
			PayerID: 1,
			Participants: []Participant{
				{UserID: 1, Username: "alice", AmountOwed: m("30.00"), Settled: false},
				{UserID: 2, Username: "bob", AmountOwed: m("30.00"), Settled: false},
			},
		},
	}

	forAlice := FriendBalances(1, expenses)
	bob := findFriend(t, forAlice, 2)
	if bob.OwedToYou != m("30.00") || bob.Net != m("30.00") {
		t.Errorf("alice's view of bob: owed_to_you=%v net=%v, want 30.00/30.00", bob.OwedToYou, bob.Net)
	}

	forBob := FriendBalances(2, expenses)
	alice := findFriend(t, forBob, 1)
	if alice.YouOwe != m("30.00") || alice.Net != m("-30.00") {
		t.Errorf("bob's view of alice: you_owe=%v net=%v, want 30.00/-30.00", alice.YouOwe, alice.Net)
	}
}

func TestFriendBalancesNetZeroAfterSettlement(t *testing.T) {
	expenses := []*Expense{
		{
			ID:      1,
			PayerID: 1,
			Participants: []Participant{
				{UserID: 1, Username: "alice", AmountOwed: m("30.00"), Settled: true},
				{UserID: 2, Username: "bob", AmountOwed: m("30.00"), Settled: true},
			},
		},
		{
			ID:      2,
			PayerID: 2,
			Participants: []Participant{
				{UserID: 1, Username: "alice", AmountOwed: m("12.50"), Settled: true},
				{UserID: 2, Username: "bob", AmountOwed: m("12.50"), Settled: true},
			},
		},
	}

	for _, userID := range []int64{1, 2} {
		balances := FriendBalances(userID, expenses)
		if len(balances) != 1 {
			t.Fatalf("user %d: expected one counterparty, got %d", userID, len(balances))
		}
		b := balances[0]
		if b.Net != 0 {
			t.Errorf("user %d: net = %v, want 0", userID, b.Net)
		}
		if b.SettledCount != 2 || b.PendingCount != 0 {
			t.Errorf("user %d: settled=%d pending=%d, want 2/0", userID, b.SettledCount, b.PendingCount)
		}
		if got := FilterFriends(balances, FilterSettled); len(got) != 1 {
			t.Errorf("user %d: settled filter should include net-zero counterparty", userID)
		}
		if got := FilterFriends(balances, FilterOutstanding); len(got) != 0 {
			t.Errorf("user %d: outstanding filter should exclude net-zero counterparty", userID)
		}
	}
}

func TestFriendBalancesThirdPartyPayerExcluded(t *testing.T) {
	// User 3 paid; users 1 and 2 both owe user 3. Between 1 and 2 nothing
	// moves, though the shared expense still shows up in the counters.
	expenses := []*Expense{
		{
			ID:      1,
			PayerID: 3,
			Participants: []Participant{
				{UserID: 1, Username: "alice", AmountOwed: m("20.00"), Settled: false},
				{UserID: 2, Username: "bob", AmountOwed: m("20.00"), Settled: false},
				{UserID: 3, Username: "carol", AmountOwed: m("20.00"), Settled: false},
			},
		},
	}

	balances := FriendBalances(1, expenses)
	bob := findFriend(t, balances, 2)
	if bob.OwedToYou != 0 || bob.YouOwe != 0 {
		t.Errorf("three-party debt leaked into pair balance: owed_to_you=%v you_owe=%v", bob.OwedToYou, bob.YouOwe)
	}
	carol := findFriend(t, balances, 3)
	if carol.YouOwe != m("20.00") {
		t.Errorf("debt to payer: you_owe=%v, want 20.00", carol.YouOwe)
	}
}

func TestFriendBalancesFilters(t *testing.T) {
	expenses := []*Expense{
		{
			ID:      1,
			PayerID: 1,
			Participants: []Participant{
				{UserID: 1, Username: "alice", AmountOwed: m("10.00"), Settled: true},
				{UserID: 2, Username: "bob", AmountOwed: m("10.00"), Settled: false},
			},
		},
		{
			ID:      2,
			PayerID: 3,
			Participants: []Participant{
				{UserID: 1, Username: "alice", AmountOwed: m("5.00"), Settled: false},
				{UserID: 3, Username: "carol", AmountOwed: m("5.00"), Settled: false},
			},
		},
	}

	balances := FriendBalances(1, expenses)

	tests := []struct {
		filter string
		want   []int64
	}{
		{FilterAll, []int64{2, 3}},
		{FilterOwesYou, []int64{2}},
		{FilterYouOwe, []int64{3}},
		{FilterOutstanding, []int64{2, 3}},
		{FilterSettled, nil},
		{"bogus", []int64{2, 3}}, // unknown filter behaves as all
	}
	for _, tt := range tests {
		got := FilterFriends(balances, tt.filter)
		if len(got) != len(tt.want) {
			t.Errorf("filter %q: got %d balances, want %d", tt.filter, len(got), len(tt.want))
			continue
		}
		for i, b := range got {
			if b.UserID != tt.want[i] {
				t.Errorf("filter %q: balance %d is user %d, want %d", tt.filter, i, b.UserID, tt.want[i])
			}
		}
	}
}

func TestFriendBalancesLastActivity(t *testing.T) {
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	expenses := []*Expense{
		{ID: 1, PayerID: 1, CreatedAt: older, Participants: []Participant{
			{UserID: 1, AmountOwed: m("5.00"), Settled: true},
			{UserID: 2, AmountOwed: m("5.00"), Settled: false},
		}},
		{ID: 2, PayerID: 1, CreatedAt: newer, Participants: []Participant{
			{UserID: 1, AmountOwed: m("5.00"), Settled: true},
			{UserID: 2, AmountOwed: m("5.00"), Settled: false},
		}},
	}

	b := findFriend(t, FriendBalances(1, expenses), 2)
	if !b.LastActivity.Equal(newer) {
		t.Errorf("last activity = %v, want %v", b.LastActivity, newer)
	}
	if b.ExpenseCount != 2 {
		t.Errorf("expense count = %d, want 2", b.ExpenseCount)
	}
}

func TestGroupAggregateGatedOnOwnRow(t *testing.T) {
	expenses := []*Expense{
		// User 1 paid and their own row is unsettled: owed both other shares.
		{ID: 1, PayerID: 1, Participants: []Participant{
			{UserID: 1, AmountOwed: m("10.00"), Settled: false},
			{UserID: 2, AmountOwed: m("10.00"), Settled: false},
			{UserID: 3, AmountOwed: m("10.00"), Settled: false},
		}},
		// User 2 paid; user 1 owes their share.
		{ID: 2, PayerID: 2, Participants: []Participant{
			{UserID: 1, AmountOwed: m("4.00"), Settled: false},
			{UserID: 2, AmountOwed: m("4.00"), Settled: true},
		}},
		// User 1's own row settled: contributes nothing either way.
		{ID: 3, PayerID: 1, Participants: []Participant{
			{UserID: 1, AmountOwed: m("7.00"), Settled: true},
			{UserID: 2, AmountOwed: m("7.00"), Settled: false},
		}},
	}

	tally := GroupAggregate(1, expenses)
	if tally.OwedToYou != m("20.00") {
		t.Errorf("owed_to_you = %v, want 20.00", tally.OwedToYou)
	}
	if tally.YouOwe != m("4.00") {
		t.Errorf("you_owe = %v, want 4.00", tally.YouOwe)
	}
	if tally.ExpenseCount != 3 || tally.SettledCount != 1 || tally.PendingCount != 2 {
		t.Errorf("counts = %d/%d/%d, want 3/1/2",
			tally.ExpenseCount, tally.SettledCount, tally.PendingCount)
	}
}

func TestGroupAggregateEmpty(t *testing.T) {
	tally := GroupAggregate(1, nil)
	if tally.OwedToYou != 0 || tally.YouOwe != 0 || tally.ExpenseCount != 0 {
		t.Errorf("empty group produced a non-zero tally: %+v", tally)
	}
}

func TestExpenseSettled(t *testing.T) {
	settled := &Expense{Participants: []Participant{
		{UserID: 1, Settled: true},
		{UserID: 2, Settled: true},
	}}
	pending := &Expense{Participants: []Participant{
		{UserID: 1, Settled: true},
		{UserID: 2, Settled: false},
	}}

	if !ExpenseSettled(settled) {
		t.Error("fully settled expense reported unsettled")
	}
	if ExpenseSettled(pending) {
		t.Error("partially settled expense reported settled")
	}
}
