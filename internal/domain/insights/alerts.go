package insights

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/categorization"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions"
	"github.com/FACorreiaa/pocket-ledger/pkg/money"
)

// AlertLevel is the highest budget threshold crossed.
type AlertLevel int

const (
	LevelNone     AlertLevel = 0
	Level50       AlertLevel = 50
	Level75       AlertLevel = 75
	Level90       AlertLevel = 90
	LevelExceeded AlertLevel = 100
)

// AlertSeverity defines the severity of an alert
type AlertSeverity string

const (
	AlertSeverityInfo     AlertSeverity = "info"
	AlertSeverityWarning  AlertSeverity = "warning"
	AlertSeverityCritical AlertSeverity = "critical"
)

var levelSteps = []AlertLevel{LevelExceeded, Level90, Level75, Level50}

// LevelFor returns the highest threshold percent has reached.
func LevelFor(percent decimal.Decimal) AlertLevel {
	for _, l := range levelSteps {
		if percent.GreaterThanOrEqual(decimal.NewFromInt(int64(l))) {
			return l
		}
	}
	return LevelNone
}

// Severity maps a level to a notification severity.
func (l AlertLevel) Severity() AlertSeverity {
	switch {
	case l >= LevelExceeded:
		return AlertSeverityCritical
	case l >= Level75:
		return AlertSeverityWarning
	default:
		return AlertSeverityInfo
	}
}

// BudgetAlert is one budget that crossed at least the 50% threshold.
type BudgetAlert struct {
	Key     string
	Spent   decimal.Decimal
	Limit   decimal.Decimal
	Percent decimal.Decimal
	Level   AlertLevel
	Message string
}

// BudgetReport is the month-to-date spending check.
type BudgetReport struct {
	AsOf time.Time
	// TotalSpent is expense magnitude less disbursement inflows.
	TotalSpent  decimal.Decimal
	TotalBudget decimal.Decimal
	Summary     string
	Alerts      []BudgetAlert
}

// Lines renders the summary followed by every alert.
func (r *BudgetReport) Lines() []string {
	lines := []string{r.Summary}
	for _, a := range r.Alerts {
		lines = append(lines, a.Message)
	}
	return lines
}

// BudgetAlerts checks month-to-date spending as of now against the user's budgets.
func (s *Service) BudgetAlerts(ctx context.Context, userID uuid.UUID, now time.Time) (*BudgetReport, error) {
	now = now.In(s.loc)
	txs, cfg, err := s.monthTransactions(ctx, userID, now.Year(), now.Month())
	if err != nil {
		return nil, err
	}

	spent := make(map[string]decimal.Decimal)
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Timestamp.After(now) {
			continue
		}
		category := transactions.NormalizeCategory(tx.Category)
		switch {
		case tx.Amount.IsNegative():
			spent[category] = spent[category].Add(tx.Amount.Abs())
			total = total.Add(tx.Amount.Abs())
		case tx.Amount.IsPositive() && category == cfg.Disbursement:
			spent[category] = spent[category].Add(tx.Amount)
			total = total.Sub(tx.Amount)
		}
	}

	report := &BudgetReport{
		AsOf:        now,
		TotalSpent:  total,
		TotalBudget: cfg.Budgets[categorization.MonthlyBudgetKey],
	}
	if report.TotalBudget.IsPositive() {
		report.Summary = fmt.Sprintf("Monthly Expenses: %s / %s (%s%%)",
			s.format(total), s.format(report.TotalBudget), percentOf(total, report.TotalBudget).StringFixed(2))
	} else {
		report.Summary = "Monthly Expenses: " + s.format(total)
	}

	keys := make([]string, 0, len(cfg.Budgets))
	for key := range cfg.Budgets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		limit := cfg.Budgets[key]
		if !limit.IsPositive() {
			continue
		}
		amount := spent[key]
		if key == categorization.MonthlyBudgetKey {
			amount = total
		}
		percent := percentOf(amount, limit)
		level := LevelFor(percent)
		if level == LevelNone {
			continue
		}
		report.Alerts = append(report.Alerts, BudgetAlert{
			Key:     key,
			Spent:   amount,
			Limit:   limit,
			Percent: percent,
			Level:   level,
			Message: s.alertMessage(key, level, amount, limit),
		})
	}

	s.logger.Debug("budget alerts evaluated", "user_id", userID, "alerts", len(report.Alerts))
	return report, nil
}

func (s *Service) alertMessage(key string, level AlertLevel, spent, limit decimal.Decimal) string {
	amounts := s.format(spent) + " / " + s.format(limit)
	if level == LevelExceeded {
		return fmt.Sprintf("Budget Exceeded for %s: %s", key, amounts)
	}
	return fmt.Sprintf("%d%% Budget Alert for %s: %s", level, key, amounts)
}

func (s *Service) format(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return money.FormatSigned(amount, s.currency)
	}
	return money.FormatCode(amount, s.currency)
}

func percentOf(amount, limit decimal.Decimal) decimal.Decimal {
	return amount.Div(limit).Mul(decimal.NewFromInt(100))
}
