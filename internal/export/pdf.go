package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/phpdave11/gofpdf"

	"github.com/tanmaysahni/splitbook/internal/balance"
	"github.com/tanmaysahni/splitbook/internal/expense"
	"github.com/tanmaysahni/splitbook/internal/group"
)

const dateLayout = "02 Jan 2006"

// reportBuilder wraps gofpdf with the small set of layout helpers the
// reports share.
type reportBuilder struct {
	pdf *gofpdf.Fpdf
}

func newReportBuilder(title string) *reportBuilder {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, title, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, "Generated "+time.Now().Format(dateLayout), "", 1, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	return &reportBuilder{pdf: pdf}
}

func (b *reportBuilder) section(name string) {
	b.pdf.SetFont("Helvetica", "B", 13)
	b.pdf.CellFormat(0, 9, name, "", 1, "L", false, 0, "")
	b.pdf.Ln(1)
}

func (b *reportBuilder) table(headers []string, widths []float64, rows [][]string) {
	b.pdf.SetFont("Helvetica", "B", 9)
	b.pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		b.pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	b.pdf.Ln(-1)

	b.pdf.SetFont("Helvetica", "", 9)
	for _, row := range rows {
		for i, cell := range row {
			b.pdf.CellFormat(widths[i], 7, cell, "1", 0, "L", false, 0, "")
		}
		b.pdf.Ln(-1)
	}
	b.pdf.Ln(4)
}

func (b *reportBuilder) keyValue(pairs [][2]string) {
	b.pdf.SetFont("Helvetica", "", 10)
	for _, kv := range pairs {
		b.pdf.SetFont("Helvetica", "B", 10)
		b.pdf.CellFormat(60, 7, kv[0], "", 0, "L", false, 0, "")
		b.pdf.SetFont("Helvetica", "", 10)
		b.pdf.CellFormat(0, 7, kv[1], "", 1, "L", false, 0, "")
	}
	b.pdf.Ln(4)
}

func (b *reportBuilder) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := b.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func expenseRows(expenses []*expense.Expense) [][]string {
	rows := make([][]string, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, []string{
			e.Description,
			e.Currency + " " + e.Total.String(),
			e.PayerUsername,
			string(e.SplitType),
			e.CreatedAt.Format(dateLayout),
		})
	}
	return rows
}

func buildGroupReport(g *group.Group, members []*group.GroupMember, expenses []*expense.Expense, balances []*balance.GroupBalance) ([]byte, error) {
	b := newReportBuilder("Group Expense Report")

	pairs := [][2]string{
		{"Group", g.Name},
		{"Currency", g.Currency},
		{"Members", fmt.Sprintf("%d", len(members))},
	}
	if g.Description != nil {
		pairs = append(pairs, [2]string{"Description", *g.Description})
	}
	b.keyValue(pairs)

	b.section("Group Members")
	memberRows := make([][]string, 0, len(members))
	for _, m := range members {
		role := "Member"
		if m.IsAdmin {
			role = "Admin"
		}
		memberRows = append(memberRows, []string{"@" + m.Username, m.Email, role})
	}
	b.table([]string{"Username", "Email", "Role"}, []float64{50, 90, 30}, memberRows)

	b.section("Group Expenses")
	b.table(
		[]string{"Description", "Amount", "Paid By", "Split", "Date"},
		[]float64{60, 30, 35, 30, 30},
		expenseRows(expenses),
	)

	for _, gb := range balances {
		if gb.GroupID != g.ID {
			continue
		}
		b.section("Balance Summary")
		b.keyValue([][2]string{
			{"Owed to you", gb.Currency + " " + gb.OwedToYou.String()},
			{"You owe", gb.Currency + " " + gb.YouOwe.String()},
			{"Net", gb.Currency + " " + gb.Net.String()},
		})
	}

	return b.bytes()
}

func buildIndividualReport(summary *balance.Summary, friends []*balance.FriendBalance, expenses []*expense.Expense) ([]byte, error) {
	b := newReportBuilder("Personal Expense Report")

	b.section("Overall Summary")
	b.keyValue([][2]string{
		{"Total owed to you", summary.Currency + " " + summary.TotalOwedToYou.String()},
		{"Total you owe", summary.Currency + " " + summary.TotalYouOwe.String()},
		{"Net balance", summary.Currency + " " + summary.Net.String()},
		{"Expenses", fmt.Sprintf("%d total, %d settled, %d pending",
			summary.TotalExpenses, summary.SettledExpenses, summary.PendingExpenses)},
	})

	b.section("Friend Balances")
	friendRows := make([][]string, 0, len(friends))
	for _, f := range friends {
		friendRows = append(friendRows, []string{
			"@" + f.Username,
			f.Currency + " " + f.OwedToYou.String(),
			f.Currency + " " + f.YouOwe.String(),
			f.Currency + " " + f.Net.String(),
		})
	}
	b.table([]string{"Friend", "Owed to you", "You owe", "Net"}, []float64{60, 37, 37, 36}, friendRows)

	b.section("Recent Expenses")
	b.table(
		[]string{"Description", "Amount", "Paid By", "Split", "Date"},
		[]float64{60, 30, 35, 30, 30},
		expenseRows(expenses),
	)

	return b.bytes()
}

func buildFriendReport(friend *balance.FriendBalance, expenses []*expense.Expense) ([]byte, error) {
	b := newReportBuilder("Friend Expense Report")

	b.keyValue([][2]string{
		{"Friend", "@" + friend.Username},
		{"Owed to you", friend.Currency + " " + friend.OwedToYou.String()},
		{"You owe", friend.Currency + " " + friend.YouOwe.String()},
		{"Net", friend.Currency + " " + friend.Net.String()},
		{"Shared expenses", fmt.Sprintf("%d total, %d settled, %d pending",
			friend.ExpenseCount, friend.SettledCount, friend.PendingCount)},
	})

	b.section("Shared Expenses")
	b.table(
		[]string{"Description", "Amount", "Paid By", "Split", "Date"},
		[]float64{60, 30, 35, 30, 30},
		expenseRows(expenses),
	)

	return b.bytes()
}
