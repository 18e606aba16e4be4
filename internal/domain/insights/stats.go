package insights

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions"
)

// CategoryTotal is the signed total for one category.
type CategoryTotal struct {
	Category string
	Amount   decimal.Decimal
	Count    int
}

// DayTotal is the expense magnitude for one calendar day.
type DayTotal struct {
	Date    time.Time
	Expense decimal.Decimal
}

// MonthlyStats summarizes one calendar month.
type MonthlyStats struct {
	Year  int
	Month time.Month
	// Income excludes the disbursement category.
	Income decimal.Decimal
	// Expense is negative and excludes the disbursement category.
	Expense decimal.Decimal
	// DisbursedExpense is Expense plus every disbursement-category amount.
	DisbursedExpense decimal.Decimal
	// Breakdown holds expenses per category and disbursement inflows, largest magnitude first.
	Breakdown  []CategoryTotal
	BigTickets []*transactions.Transaction
	Daily      []DayTotal
	Count      int
}

// MonthlyStats computes income, expenses and breakdowns for a calendar month.
func (s *Service) MonthlyStats(ctx context.Context, userID uuid.UUID, year int, month time.Month) (*MonthlyStats, error) {
	txs, cfg, err := s.monthTransactions(ctx, userID, year, month)
	if err != nil {
		return nil, err
	}

	stats := &MonthlyStats{
		Year:             year,
		Month:            month,
		Income:           decimal.Zero,
		Expense:          decimal.Zero,
		DisbursedExpense: decimal.Zero,
		Count:            len(txs),
	}

	disbursements := decimal.Zero
	byCategory := make(map[string]*CategoryTotal)
	byDay := make(map[time.Time]decimal.Decimal)

	for _, tx := range txs {
		isDisbursement := transactions.NormalizeCategory(tx.Category) == cfg.Disbursement
		switch {
		case isDisbursement:
			disbursements = disbursements.Add(tx.Amount)
		case tx.Amount.IsPositive():
			stats.Income = stats.Income.Add(tx.Amount)
		case tx.Amount.IsNegative():
			stats.Expense = stats.Expense.Add(tx.Amount)
		}

		if tx.Amount.IsNegative() || (isDisbursement && tx.Amount.IsPositive()) {
			total, ok := byCategory[tx.Category]
			if !ok {
				total = &CategoryTotal{Category: tx.Category, Amount: decimal.Zero}
				byCategory[tx.Category] = total
			}
			total.Amount = total.Amount.Add(tx.Amount)
			total.Count++
		}

		if tx.Amount.IsNegative() {
			if tx.Amount.Abs().GreaterThanOrEqual(s.bigTicket) {
				stats.BigTickets = append(stats.BigTickets, tx)
			}
			y, m, d := tx.Timestamp.In(s.loc).Date()
			day := time.Date(y, m, d, 0, 0, 0, 0, s.loc)
			byDay[day] = byDay[day].Add(tx.Amount.Abs())
		}
	}
	stats.DisbursedExpense = stats.Expense.Add(disbursements)

	for _, total := range byCategory {
		stats.Breakdown = append(stats.Breakdown, *total)
	}
	sort.Slice(stats.Breakdown, func(i, j int) bool {
		a, b := stats.Breakdown[i], stats.Breakdown[j]
		if c := a.Amount.Abs().Cmp(b.Amount.Abs()); c != 0 {
			return c > 0
		}
		return a.Category < b.Category
	})

	sort.Slice(stats.BigTickets, func(i, j int) bool {
		return stats.BigTickets[i].Amount.LessThan(stats.BigTickets[j].Amount)
	})

	for day, expense := range byDay {
		stats.Daily = append(stats.Daily, DayTotal{Date: day, Expense: expense})
	}
	sort.Slice(stats.Daily, func(i, j int) bool {
		return stats.Daily[i].Date.Before(stats.Daily[j].Date)
	})

	return stats, nil
}
