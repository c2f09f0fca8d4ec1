package balance

import (
	"context"

	"github.com/tanmaysahni/splitbook/pkg/money"
)

// Summary is the overall owe-direction rollup across friends and groups
type Summary struct {
	TotalYouOwe     money.Money `json:"total_you_owe"`
	TotalOwedToYou  money.Money `json:"total_owed_to_you"`
	Net             money.Money `json:"net"`
	Currency        string      `json:"currency"`
	FriendCount     int         `json:"friend_count"`
	FriendsYouOwe   int         `json:"friends_you_owe"`
	FriendsOweYou   int         `json:"friends_owe_you"`
	SettledFriends  int         `json:"settled_friends"`
	GroupCount      int         `json:"group_count"`
	GroupsYouOwe    int         `json:"groups_you_owe"`
	GroupsOweYou    int         `json:"groups_owe_you"`
	SettledGroups   int         `json:"settled_groups"`
	TotalExpenses   int         `json:"total_expenses"`
	SettledExpenses int         `json:"settled_expenses"`
	PendingExpenses int         `json:"pending_expenses"`
}

// Service runs balance aggregation over loaded ledger rows
type Service struct {
	repo            *Repository
	defaultCurrency string
}

// NewService creates a new balance service
func NewService(repo *Repository, defaultCurrency string) *Service {
	return &Service{repo: repo, defaultCurrency: defaultCurrency}
}

// FriendBalances returns the caller's pairwise balances over individual expenses
func (s *Service) FriendBalances(ctx context.Context, userID int64, filter string) ([]*FriendBalance, error) {
	expenses, err := s.repo.IndividualExpensesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FilterFriends(FriendBalances(userID, expenses), filter), nil
}

// GroupBalances returns the caller's balance in every group they belong to
func (s *Service) GroupBalances(ctx context.Context, userID int64, filter string) ([]*GroupBalance, error) {
	groups, err := s.repo.GroupsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	balances := make([]*GroupBalance, 0, len(groups))
	for _, g := range groups {
		expenses, err := s.repo.GroupExpenses(ctx, g.ID)
		if err != nil {
			return nil, err
		}

		tally := GroupAggregate(userID, expenses)
		balances = append(balances, &GroupBalance{
			GroupID:      g.ID,
			GroupName:    g.Name,
			Description:  g.Description,
			Currency:     g.Currency,
			MemberCount:  g.MemberCount,
			OwedToYou:    tally.OwedToYou,
			YouOwe:       tally.YouOwe,
			Net:          tally.OwedToYou.Sub(tally.YouOwe),
			ExpenseCount: tally.ExpenseCount,
			SettledCount: tally.SettledCount,
			PendingCount: tally.PendingCount,
			IsAdmin:      g.IsAdmin,
			LastActivity: tally.LastActivity,
		})
	}

	return FilterGroups(balances, filter), nil
}

// OverallSummary rolls every friend and group balance into one view, plus
// expense counters where an expense counts as settled only when every one of
// its participants is settled.
func (s *Service) OverallSummary(ctx context.Context, userID int64) (*Summary, error) {
	friends, err := s.FriendBalances(ctx, userID, FilterAll)
	if err != nil {
		return nil, err
	}
	groups, err := s.GroupBalances(ctx, userID, FilterAll)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Currency: s.defaultCurrency, FriendCount: len(friends), GroupCount: len(groups)}

	for _, f := range friends {
		summary.TotalYouOwe = summary.TotalYouOwe.Add(f.YouOwe)
		summary.TotalOwedToYou = summary.TotalOwedToYou.Add(f.OwedToYou)
		switch {
		case f.Net < 0:
			summary.FriendsYouOwe++
		case f.Net > 0:
			summary.FriendsOweYou++
		default:
			summary.SettledFriends++
		}
	}

	for _, g := range groups {
		summary.TotalYouOwe = summary.TotalYouOwe.Add(g.YouOwe)
		summary.TotalOwedToYou = summary.TotalOwedToYou.Add(g.OwedToYou)
		switch {
		case g.Net < 0:
			summary.GroupsYouOwe++
		case g.Net > 0:
			summary.GroupsOweYou++
		default:
			summary.SettledGroups++
		}
	}

	summary.Net = summary.TotalOwedToYou.Sub(summary.TotalYouOwe)

	expenses, err := s.repo.AllExpensesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary.TotalExpenses = len(expenses)
	for _, e := range expenses {
		if ExpenseSettled(e) {
			summary.SettledExpenses++
		}
	}
	summary.PendingExpenses = summary.TotalExpenses - summary.SettledExpenses

	return summary, nil
}
