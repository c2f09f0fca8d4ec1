package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tanmaysahni/splitbook/internal/balance"
	"github.com/tanmaysahni/splitbook/internal/expense"
	"github.com/tanmaysahni/splitbook/internal/group"
	"github.com/tanmaysahni/splitbook/pkg/tokencache"
)

var (
	ErrGroupNotFound  = errors.New("group not found")
	ErrFriendNotFound = errors.New("no shared expenses with this user")
	ErrNotAuthorized  = errors.New("not authorized to export this report")
	ErrTokenNotFound  = errors.New("download token is invalid or has expired")
)

const reportExpenseLimit = 100

type Service struct {
	groups   *group.Service
	expenses *expense.Service
	balances *balance.Service
	store    *tokencache.Cache
}

func NewService(groups *group.Service, expenses *expense.Service, balances *balance.Service, store *tokencache.Cache) *Service {
	return &Service{
		groups:   groups,
		expenses: expenses,
		balances: balances,
		store:    store,
	}
}

// Report is a generated PDF parked in the token store until it is
// downloaded or expires.
type Report struct {
	Token     string
	FileName  string
	Size      int
	ExpiresAt time.Time
}

// Download is the stored PDF handed back for a valid token.
type Download struct {
	FileName string
	Data     []byte
}

func (s *Service) ExportGroupReport(ctx context.Context, groupID, userID int64) (*Report, error) {
	g, members, err := s.groups.GetByIDWithMembers(ctx, groupID, userID)
	if err != nil {
		switch {
		case errors.Is(err, group.ErrGroupNotFound):
			return nil, ErrGroupNotFound
		case errors.Is(err, group.ErrNotAuthorized):
			return nil, ErrNotAuthorized
		}
		return nil, err
	}

	expenses, _, err := s.expenses.ListByGroupID(ctx, groupID, userID, false, 1, reportExpenseLimit)
	if err != nil {
		return nil, err
	}

	balances, err := s.balances.GroupBalances(ctx, userID, balance.FilterAll)
	if err != nil {
		return nil, err
	}

	data, err := buildGroupReport(g, members, expenses, balances)
	if err != nil {
		return nil, err
	}

	return s.park(userID, fmt.Sprintf("group_report_%d", groupID), data), nil
}

func (s *Service) ExportIndividualReport(ctx context.Context, userID int64) (*Report, error) {
	summary, err := s.balances.OverallSummary(ctx, userID)
	if err != nil {
		return nil, err
	}

	friends, err := s.balances.FriendBalances(ctx, userID, balance.FilterAll)
	if err != nil {
		return nil, err
	}

	expenses, _, err := s.expenses.ListByUserID(ctx, userID, false, 1, reportExpenseLimit)
	if err != nil {
		return nil, err
	}

	data, err := buildIndividualReport(summary, friends, expenses)
	if err != nil {
		return nil, err
	}

	return s.park(userID, "individual_report", data), nil
}

func (s *Service) ExportFriendReport(ctx context.Context, userID, friendID int64) (*Report, error) {
	friends, err := s.balances.FriendBalances(ctx, userID, balance.FilterAll)
	if err != nil {
		return nil, err
	}

	var friend *balance.FriendBalance
	for _, f := range friends {
		if f.UserID == friendID {
			friend = f
			break
		}
	}
	if friend == nil {
		return nil, ErrFriendNotFound
	}

	all, _, err := s.expenses.ListByUserID(ctx, userID, false, 1, reportExpenseLimit)
	if err != nil {
		return nil, err
	}
	shared := make([]*expense.Expense, 0, len(all))
	for _, e := range all {
		participants, err := s.expenses.GetParticipants(ctx, e.ID, userID)
		if err != nil {
			continue
		}
		for _, p := range participants {
			if p.UserID == friendID {
				shared = append(shared, e)
				break
			}
		}
	}

	data, err := buildFriendReport(friend, shared)
	if err != nil {
		return nil, err
	}

	return s.park(userID, fmt.Sprintf("friend_report_%d", friendID), data), nil
}

// Download hands back a parked report. The token is single-use: a
// successful download removes the entry so the PDF cannot be fetched
// again after the client has it.
func (s *Service) Download(token string, userID int64) (*Download, error) {
	entry, ok := s.store.Get(token, userID)
	if !ok {
		return nil, ErrTokenNotFound
	}
	s.store.Delete(token)
	return &Download{FileName: entry.FileName, Data: entry.Value}, nil
}

func (s *Service) park(userID int64, prefix string, data []byte) *Report {
	token := uuid.NewString()
	fileName := fmt.Sprintf("%s_%s.pdf", prefix, time.Now().Format("20060102_150405"))
	expiresAt := s.store.Put(token, fileName, userID, data)
	return &Report{
		Token:     token,
		FileName:  fileName,
		Size:      len(data),
		ExpiresAt: expiresAt,
	}
}
