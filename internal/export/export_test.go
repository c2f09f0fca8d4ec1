package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/tanmaysahni/splitbook/internal/balance"
	"github.com/tanmaysahni/splitbook/internal/expense"
	"github.com/tanmaysahni/splitbook/internal/expense/split"
	"github.com/tanmaysahni/splitbook/internal/group"
	"github.com/tanmaysahni/splitbook/pkg/money"
	"github.com/tanmaysahni/splitbook/pkg/tokencache"
)

func sampleExpenses(t *testing.T) []*expense.Expense {
	t.Helper()
	return []*expense.Expense{
		{
			ID:            1,
			Description:   "Dinner",
			Total:         money.MustParse("120.00"),
			Currency:      "INR",
			PayerID:       1,
			SplitType:     split.TypeEqual,
			CreatedAt:     time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
			PayerUsername: "alice",
		},
	}
}

func TestBuildGroupReport(t *testing.T) {
	desc := "Goa trip"
	g := &group.Group{ID: 7, Name: "Trip", Description: &desc, Currency: "INR", CreatedBy: 1}
	members := []*group.GroupMember{
		{GroupID: 7, UserID: 1, IsAdmin: true, Username: "alice", Email: "alice@example.com"},
		{GroupID: 7, UserID: 2, Username: "bob", Email: "bob@example.com"},
	}
	balances := []*balance.GroupBalance{
		{GroupID: 7, GroupName: "Trip", Currency: "INR", OwedToYou: money.MustParse("60.00")},
	}

	data, err := buildGroupReport(g, members, sampleExpenses(t), balances)
	if err != nil {
		t.Fatalf("buildGroupReport: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("expected a PDF document, got %q", data[:min(8, len(data))])
	}
}

func TestBuildIndividualReport(t *testing.T) {
	summary := &balance.Summary{
		TotalOwedToYou: money.MustParse("60.00"),
		TotalYouOwe:    money.MustParse("10.00"),
		Net:            money.MustParse("50.00"),
		Currency:       "INR",
		TotalExpenses:  1,
	}
	friends := []*balance.FriendBalance{
		{UserID: 2, Username: "bob", Currency: "INR", OwedToYou: money.MustParse("60.00")},
	}

	data, err := buildIndividualReport(summary, friends, sampleExpenses(t))
	if err != nil {
		t.Fatalf("buildIndividualReport: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("expected a PDF document")
	}
}

func TestDownloadTokenIsSingleUse(t *testing.T) {
	store := tokencache.New(time.Hour)
	s := &Service{store: store}

	rep := s.park(1, "individual_report", []byte("%PDF-1.4 test"))
	if rep.Token == "" || rep.FileName == "" {
		t.Fatalf("incomplete report metadata: %+v", rep)
	}

	if _, err := s.Download(rep.Token, 2); err == nil {
		t.Error("expected owner mismatch to be rejected")
	}

	dl, err := s.Download(rep.Token, 1)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if dl.FileName != rep.FileName {
		t.Errorf("file name = %q, want %q", dl.FileName, rep.FileName)
	}

	if _, err := s.Download(rep.Token, 1); err == nil {
		t.Error("expected token to be consumed by the first download")
	}
}
