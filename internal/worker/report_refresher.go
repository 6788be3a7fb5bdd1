package worker

import (
	"context"
	"fmt"
	"time"

	"savings-tracker/internal/amqp"
	"savings-tracker/internal/log"
	"savings-tracker/internal/models"
	"savings-tracker/internal/services"
	"savings-tracker/internal/storage"
)

// ReportRefresher keeps cached report snapshots in line with the ledger and
// purges expired sessions.
type ReportRefresher struct {
	reports *services.ReportAggregator
	db      *storage.DB
	logger  *log.Logger
}

func NewReportRefresher(db *storage.DB, reports *services.ReportAggregator, logger *log.Logger) *ReportRefresher {
	return &ReportRefresher{
		reports: reports,
		db:      db,
		logger:  logger.WithComponent(log.ComponentWorker),
	}
}

// HandleLedgerEvent refreshes the report for the event's month if the user
// already generated one. Months without a report are left alone.
func (w *ReportRefresher) HandleLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	period := models.ReportPeriod{Month: ev.Month, Year: ev.Year}
	refreshed, err := w.reports.RefreshExisting(ctx, ev.UserID, period)
	if err != nil {
		return fmt.Errorf("refresh report %d/%d for user %d: %w", ev.Month, ev.Year, ev.UserID, err)
	}
	if refreshed {
		w.logger.InfoContext(ctx, "Report refreshed",
			log.FieldUserID, ev.UserID, log.FieldMonth, ev.Month, log.FieldYear, ev.Year)
	}
	return nil
}

// PurgeSessions deletes expired sessions once.
func (w *ReportRefresher) PurgeSessions(ctx context.Context) error {
	n, err := w.db.CleanExpiredSessions(ctx)
	if err != nil {
		return fmt.Errorf("purge sessions: %w", err)
	}
	if n > 0 {
		w.logger.InfoContext(ctx, "Expired sessions purged", log.FieldCount, n, log.FieldOperation, log.OpPurge)
	}
	return nil
}

// RunSessionPurge purges expired sessions every interval until ctx is done.
func (w *ReportRefresher) RunSessionPurge(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.PurgeSessions(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Session purge failed", log.FieldError, err)
			}
		}
	}
}
