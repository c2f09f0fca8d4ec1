package balance

import (
	"sort"
	"time"

	"github.com/tanmaysahni/splitbook/pkg/money"
)

// Filter values for balance listings. Anything else behaves as FilterAll.
const (
	FilterAll         = "all"
	FilterOutstanding = "outstanding"
	FilterYouOwe      = "you_owe"
	FilterOwesYou     = "owes_you"
	FilterSettled     = "settled"
)

// Expense is the slice of ledger data the calculator needs: who paid, and
// every participant's owed amount and settled flag.
type Expense struct {
	ID           int64
	Currency     string
	PayerID      int64
	GroupID      *int64
	CreatedAt    time.Time
	Participants []Participant
}

// Participant is one user's stake in an expense
type Participant struct {
	UserID     int64
	Username   string
	Email      string
	AmountOwed money.Money
	Settled    bool
}

// FriendBalance is the pairwise netting result against one counterparty
type FriendBalance struct {
	UserID       int64       `json:"user_id"`
	Username     string      `json:"username"`
	Email        string      `json:"email,omitempty"`
	OwedToYou    money.Money `json:"owed_to_you"`
	YouOwe       money.Money `json:"you_owe"`
	Net          money.Money `json:"net"`
	Currency     string      `json:"currency"`
	ExpenseCount int         `json:"expense_count"`
	SettledCount int         `json:"settled_count"`
	PendingCount int         `json:"pending_count"`
	LastActivity time.Time   `json:"last_activity"`
}

// GroupTally is the aggregate of one group's direct expenses for one user
type GroupTally struct {
	OwedToYou    money.Money
	YouOwe       money.Money
	ExpenseCount int
	SettledCount int
	PendingCount int
	LastActivity time.Time
}

// GroupBalance is the netting result for one group
type GroupBalance struct {
	GroupID      int64       `json:"group_id"`
	GroupName    string      `json:"group_name"`
	Description  *string     `json:"description,omitempty"`
	Currency     string      `json:"currency"`
	MemberCount  int         `json:"member_count"`
	OwedToYou    money.Money `json:"owed_to_you"`
	YouOwe       money.Money `json:"you_owe"`
	Net          money.Money `json:"net"`
	ExpenseCount int         `json:"expense_count"`
	SettledCount int         `json:"settled_count"`
	PendingCount int         `json:"pending_count"`
	IsAdmin      bool        `json:"is_admin"`
	LastActivity time.Time   `json:"last_activity"`
}

// FriendBalances nets individual expenses pairwise against each counterparty
// of userID. An expense contributes only when the caller has their own
// participant row; money moves only when the payer is one of the two, the
// counterparty's row is unsettled and their owed amount is positive. A debt
// to a third party never moves the pair's balance, though the shared expense
// still counts toward the pair's counters.
func FriendBalances(userID int64, expenses []*Expense) []*FriendBalance {
	byFriend := map[int64]*FriendBalance{}

	for _, e := range expenses {
		var mine *Participant
		for i := range e.Participants {
			if e.Participants[i].UserID == userID {
				mine = &e.Participants[i]
				break
			}
		}
		if mine == nil {
			continue
		}

		for i := range e.Participants {
			p := e.Participants[i]
			if p.UserID == userID {
				continue
			}

			fb, ok := byFriend[p.UserID]
			if !ok {
				fb = &FriendBalance{UserID: p.UserID, Username: p.Username, Email: p.Email, Currency: e.Currency}
				byFriend[p.UserID] = fb
			}

			if !p.Settled && p.AmountOwed > 0 {
				switch e.PayerID {
				case userID:
					fb.OwedToYou = fb.OwedToYou.Add(p.AmountOwed)
				case p.UserID:
					fb.YouOwe = fb.YouOwe.Add(mine.AmountOwed)
				}
			}

			fb.ExpenseCount++
			if p.Settled && mine.Settled {
				fb.SettledCount++
			} else {
				fb.PendingCount++
			}
			if e.CreatedAt.After(fb.LastActivity) {
				fb.LastActivity = e.CreatedAt
			}
		}
	}

	balances := make([]*FriendBalance, 0, len(byFriend))
	for _, fb := range byFriend {
		fb.Net = fb.OwedToYou.Sub(fb.YouOwe)
		balances = append(balances, fb)
	}
	sort.Slice(balances, func(i, j int) bool { return balances[i].UserID < balances[j].UserID })
	return balances
}

// GroupAggregate tallies one group's direct expenses for userID. An expense
// moves money only while the user's own participant row is unsettled: as
// payer they are owed every other unsettled share, otherwise they owe their
// own share. Expenses without a row for the user contribute nothing.
func GroupAggregate(userID int64, expenses []*Expense) GroupTally {
	var tally GroupTally

	for _, e := range expenses {
		var mine *Participant
		for i := range e.Participants {
			if e.Participants[i].UserID == userID {
				mine = &e.Participants[i]
				break
			}
		}
		if mine == nil {
			continue
		}

		if !mine.Settled {
			if e.PayerID == userID {
				for i := range e.Participants {
					p := e.Participants[i]
					if p.UserID != userID && !p.Settled {
						tally.OwedToYou = tally.OwedToYou.Add(p.AmountOwed)
					}
				}
			} else {
				tally.YouOwe = tally.YouOwe.Add(mine.AmountOwed)
			}
		}

		tally.ExpenseCount++
		if mine.Settled {
			tally.SettledCount++
		} else {
			tally.PendingCount++
		}
		if e.CreatedAt.After(tally.LastActivity) {
			tally.LastActivity = e.CreatedAt
		}
	}

	return tally
}

// MatchesFilter reports whether a net balance passes the given filter
func MatchesFilter(net money.Money, filter string) bool {
	switch filter {
	case FilterOutstanding:
		return net != 0
	case FilterYouOwe:
		return net < 0
	case FilterOwesYou:
		return net > 0
	case FilterSettled:
		return net == 0
	default:
		return true
	}
}

// FilterFriends applies a balance filter to friend balances
func FilterFriends(balances []*FriendBalance, filter string) []*FriendBalance {
	out := make([]*FriendBalance, 0, len(balances))
	for _, b := range balances {
		if MatchesFilter(b.Net, filter) {
			out = append(out, b)
		}
	}
	return out
}

// FilterGroups applies a balance filter to group balances
func FilterGroups(balances []*GroupBalance, filter string) []*GroupBalance {
	out := make([]*GroupBalance, 0, len(balances))
	for _, b := range balances {
		if MatchesFilter(b.Net, filter) {
			out = append(out, b)
		}
	}
	return out
}

// ExpenseSettled reports whether every participant of an expense is settled
func ExpenseSettled(e *Expense) bool {
	for _, p := range e.Participants {
		if !p.Settled {
			return false
		}
	}
	return true
}
