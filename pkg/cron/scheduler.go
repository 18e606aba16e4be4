// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/insights"
	trackingservice "github.com/FACorreiaa/pocket-ledger/internal/domain/tracking/service"
	"github.com/FACorreiaa/pocket-ledger/pkg/metrics"
	"github.com/FACorreiaa/pocket-ledger/pkg/money"
	"github.com/FACorreiaa/pocket-ledger/pkg/notify"
)

// Alert kinds
const (
	KindLimitExceeded = "limit_exceeded"
	KindGoalReached   = "goal_reached"
	KindBudget        = "budget"
)

// DefaultSchedule runs the alert check every evening.
const DefaultSchedule = "0 21 * * *"

// UserSource lists users that may need alerts.
type UserSource interface {
	ListUserIDs(ctx context.Context) ([]uuid.UUID, error)
}

// TrackingEvaluator computes goal and limit progress.
type TrackingEvaluator interface {
	EvaluateAll(ctx context.Context, userID uuid.UUID, now time.Time) ([]*trackingservice.Status, error)
}

// BudgetChecker checks month-to-date spending against budgets.
type BudgetChecker interface {
	BudgetAlerts(ctx context.Context, userID uuid.UUID, now time.Time) (*insights.BudgetReport, error)
}

// RunSummary reports one alert check.
type RunSummary struct {
	Users  int
	Sent   int
	Failed int
}

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron     *cron.Cron
	users    []UserSource
	tracking TrackingEvaluator
	budgets  BudgetChecker
	notifier notify.Notifier
	logger   *slog.Logger
	now      func() time.Time
	currency string
}

// NewScheduler creates a new alert scheduler. Users are collected from every source.
func NewScheduler(tracking TrackingEvaluator, budgets BudgetChecker, notifier notify.Notifier, logger *slog.Logger, users ...UserSource) *Scheduler {
	// Create cron with seconds disabled (standard 5-field format)
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:     c,
		users:    users,
		tracking: tracking,
		budgets:  budgets,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		currency: money.DefaultCurrency,
	}
}

// WithClock overrides the time alerts are evaluated at.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// WithCurrency sets the currency used in alert text.
func (s *Scheduler) WithCurrency(code string) *Scheduler {
	s.currency = code
	return s
}

// Start registers the alert job on spec and begins running it.
func (s *Scheduler) Start(spec string) error {
	if spec == "" {
		spec = DefaultSchedule
	}
	_, err := s.cron.AddFunc(spec, s.checkAll)
	if err != nil {
		return fmt.Errorf("invalid alert schedule %q: %w", spec, err)
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
		slog.String("schedule", spec),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow triggers an alert check in the background.
func (s *Scheduler) RunNow() {
	go s.checkAll()
}

func (s *Scheduler) checkAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if _, err := s.Check(ctx); err != nil {
		s.logger.Error("alert check failed", slog.Any("error", err))
	}
}

// Check evaluates every user once and sends the resulting alerts.
// Failures for one user are logged and do not stop the others.
func (s *Scheduler) Check(ctx context.Context) (RunSummary, error) {
	s.logger.Info("starting alert check")

	userIDs, err := s.collectUsers(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	now := s.now()
	summary := RunSummary{Users: len(userIDs)}
	for _, userID := range userIDs {
		messages, err := s.messagesFor(ctx, userID, now)
		if err != nil {
			s.logger.Warn("failed to evaluate alerts",
				slog.String("user_id", userID.String()),
				slog.Any("error", err),
			)
			summary.Failed++
			continue
		}

		for _, msg := range messages {
			if err := s.notifier.Send(ctx, msg); err != nil {
				s.logger.Warn("failed to send alert",
					slog.String("user_id", userID.String()),
					slog.String("kind", msg.Kind),
					slog.Any("error", err),
				)
				summary.Failed++
				continue
			}
			metrics.AlertsSent.WithLabelValues(msg.Kind).Inc()
			summary.Sent++
		}
	}

	s.logger.Info("alert check completed",
		slog.Int("users", summary.Users),
		slog.Int("sent", summary.Sent),
		slog.Int("failed", summary.Failed),
	)
	return summary, nil
}

func (s *Scheduler) collectUsers(ctx context.Context) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, src := range s.users {
		found, err := src.ListUserIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list users: %w", err)
		}
		for _, id := range found {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return slices.Compare(a[:], b[:]) })
	return ids, nil
}

func (s *Scheduler) messagesFor(ctx context.Context, userID uuid.UUID, now time.Time) ([]*notify.Message, error) {
	var messages []*notify.Message

	if s.tracking != nil {
		statuses, err := s.tracking.EvaluateAll(ctx, userID, now)
		if err != nil {
			return nil, err
		}
		for _, st := range statuses {
			if msg := s.trackingMessage(userID, st); msg != nil {
				messages = append(messages, msg)
			}
		}
	}

	if s.budgets != nil {
		report, err := s.budgets.BudgetAlerts(ctx, userID, now)
		if err != nil {
			return nil, err
		}
		for _, alert := range report.Alerts {
			messages = append(messages, &notify.Message{
				UserID:   userID,
				Kind:     KindBudget,
				Severity: string(alert.Level.Severity()),
				Title:    "Budget alert: " + alert.Key,
				Body:     alert.Message,
				Data: map[string]any{
					"key":     alert.Key,
					"percent": alert.Percent.StringFixed(2),
				},
			})
		}
	}
	return messages, nil
}

func (s *Scheduler) trackingMessage(userID uuid.UUID, st *trackingservice.Status) *notify.Message {
	var kind, verb string
	switch {
	case st.Exceeded():
		kind, verb = KindLimitExceeded, "Limit exceeded"
	case st.Reached():
		kind, verb = KindGoalReached, "Goal reached"
	default:
		return nil
	}

	return &notify.Message{
		UserID:   userID,
		Kind:     kind,
		Severity: string(insights.LevelFor(st.Percent).Severity()),
		Title:    st.Item.Name,
		Body: fmt.Sprintf("%s for %s: %s / %s (%s%%)",
			verb, st.Item.Name,
			money.FormatCode(st.Magnitude(), s.currency),
			money.FormatCode(st.Item.TargetAmount, s.currency),
			st.Percent.StringFixed(0)),
		Data: map[string]any{
			"item_id": st.Item.ID.String(),
			"period":  string(st.Item.Period),
			"percent": st.Percent.StringFixed(2),
		},
	}
}
