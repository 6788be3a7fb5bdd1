package worker

import (
	"context"
	"testing"
	"time"

	"savings-tracker/internal/amqp"
	"savings-tracker/internal/log"
	"savings-tracker/internal/models"
	"savings-tracker/internal/services"
	"savings-tracker/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*storage.DB, *ReportRefresher, *models.User) {
	t.Helper()
	db, err := storage.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	user, err := db.CreateUser(context.Background(), "Worker", "worker@example.com", models.AccountIndependent, "hash")
	require.NoError(t, err)

	logger := log.Discard()
	reports := services.NewReportAggregator(db, 2000, logger)
	return db, NewReportRefresher(db, reports, logger), user
}

func TestHandleLedgerEventRefreshesExistingReport(t *testing.T) {
	db, w, user := setup(t)
	ctx := context.Background()
	at := time.Date(2024, 2, 5, 10, 0, 0, 0, time.UTC)

	require.NoError(t, db.UpsertReport(ctx, &models.Report{UserID: user.ID, Month: 2, Year: 2024, GeneratedAt: at}))

	entry := &models.IncomeEntry{UserID: user.ID, Category: models.IncomeSalary, Amount: 4200, OccurredAt: at}
	require.NoError(t, db.CreateIncome(ctx, entry))

	require.NoError(t, w.HandleLedgerEvent(ctx, amqp.NewLedgerEvent(user.ID, amqp.KindIncome, entry.ID, at)))

	report, err := db.GetReport(ctx, user.ID, 2, 2024)
	require.NoError(t, err)
	assert.Equal(t, int64(4200), report.TotalIncome)
	assert.Equal(t, int64(4200), report.TotalSavings)
}

func TestHandleLedgerEventSkipsMonthsWithoutReport(t *testing.T) {
	db, w, user := setup(t)
	ctx := context.Background()
	at := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, w.HandleLedgerEvent(ctx, amqp.NewLedgerEvent(user.ID, amqp.KindExpense, 1, at)))

	_, err := db.GetReport(ctx, user.ID, 7, 2024)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestPurgeSessions(t *testing.T) {
	db, w, user := setup(t)
	ctx := context.Background()

	require.NoError(t, db.CreateSession(ctx, "expired", user.ID, time.Now().Add(-time.Hour), false))
	require.NoError(t, db.CreateSession(ctx, "live", user.ID, time.Now().Add(time.Hour), false))

	require.NoError(t, w.PurgeSessions(ctx))

	_, err := db.ValidateSession(ctx, "live")
	assert.NoError(t, err)
	n, err := db.CleanExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRunSessionPurgeStopsOnCancel(t *testing.T) {
	_, w, _ := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.RunSessionPurge(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}
