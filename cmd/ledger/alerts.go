package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/pocket-ledger/pkg/metrics"
)

func alertsCmd() *cobra.Command {
	var (
		once     bool
		schedule string
	)

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Send goal, limit and budget alerts on a schedule",
		Long: `Run the alert scheduler until interrupted. Every run evaluates the goals, limits
and budgets of all users and sends alerts to ALERTS_WEBHOOK_URL, or logs them when
no webhook is configured. With --once a single check runs immediately.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if schedule == "" {
				schedule = cfg.Alerts.Schedule
			}

			return withDeps(cmd.Context(), func(d *Dependencies) error {
				if once {
					summary, err := d.Scheduler.Check(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Checked %d users: %d alerts sent, %d failed\n",
						summary.Users, summary.Sent, summary.Failed)
					return nil
				}
				return runAlertDaemon(cmd.Context(), d, schedule)
			})
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "run one check and exit")
	cmd.Flags().StringVar(&schedule, "schedule", "", "cron schedule (default: $ALERTS_SCHEDULE)")

	return cmd
}

func runAlertDaemon(ctx context.Context, d *Dependencies, schedule string) error {
	if err := d.Scheduler.Start(schedule); err != nil {
		return err
	}

	var srv *http.Server
	if d.Config.Observability.MetricsEnabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv = &http.Server{
			Addr:              fmt.Sprintf(":%d", d.Config.Observability.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			d.Logger.Info("metrics server listening", slog.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				d.Logger.Error("metrics server failed", slog.Any("error", err))
			}
		}()
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			d.Logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
	}

	select {
	case <-d.Scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		d.Logger.Warn("alert check still running at shutdown")
	}
	return nil
}
