package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"savings-tracker/internal/log"
	"savings-tracker/internal/models"
	"savings-tracker/internal/storage"
)

// DefaultReportMinYear is the earliest year a report may cover.
const DefaultReportMinYear = 2000

// ReportAggregator computes monthly income, expense and savings snapshots.
type ReportAggregator struct {
	db      *storage.DB
	logger  *log.Logger
	minYear int
	now     func() time.Time
}

func NewReportAggregator(db *storage.DB, minYear int, logger *log.Logger) *ReportAggregator {
	if minYear <= 0 {
		minYear = DefaultReportMinYear
	}
	return &ReportAggregator{
		db:      db,
		logger:  logger.WithComponent(log.ComponentReports),
		minYear: minYear,
		now:     time.Now,
	}
}

// MinYear is the earliest accepted report year.
func (a *ReportAggregator) MinYear() int { return a.minYear }

// GenerateReport recomputes the totals for a month and upserts the snapshot.
func (a *ReportAggregator) GenerateReport(ctx context.Context, userID int64, period models.ReportPeriod) (*models.Report, error) {
	if err := period.Validate(a.minYear, a.now()); err != nil {
		return nil, err
	}

	var report *models.Report
	err := a.db.WithTx(ctx, func(tx *storage.DB) error {
		var err error
		report, err = a.compute(ctx, tx, userID, period)
		if err != nil {
			return err
		}
		return tx.UpsertReport(ctx, report)
	})
	if err != nil {
		return nil, err
	}

	a.logger.InfoContext(ctx, "Report generated",
		log.FieldUserID, userID, log.FieldMonth, period.Month, log.FieldYear, period.Year,
		log.FieldOperation, log.OpGenerate)
	return report, nil
}

// RefreshExisting regenerates the snapshot for a month only if one was
// generated before. It reports whether a snapshot was refreshed.
func (a *ReportAggregator) RefreshExisting(ctx context.Context, userID int64, period models.ReportPeriod) (bool, error) {
	refreshed := false
	err := a.db.WithTx(ctx, func(tx *storage.DB) error {
		if _, err := tx.GetReport(ctx, userID, period.Month, period.Year); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil
			}
			return err
		}
		report, err := a.compute(ctx, tx, userID, period)
		if err != nil {
			return err
		}
		refreshed = true
		return tx.UpsertReport(ctx, report)
	})
	return refreshed, err
}

func (a *ReportAggregator) compute(ctx context.Context, tx *storage.DB, userID int64, period models.ReportPeriod) (*models.Report, error) {
	start, end := period.Bounds()
	income, err := tx.IncomeBetween(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	expense, err := tx.ExpenseBetween(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	return &models.Report{
		UserID:       userID,
		Month:        period.Month,
		Year:         period.Year,
		TotalIncome:  income,
		TotalExpense: expense,
		TotalSavings: income - expense,
		GeneratedAt:  a.now(),
	}, nil
}

// ListReports returns stored snapshots, most recent period first.
func (a *ReportAggregator) ListReports(ctx context.Context, userID int64) ([]models.Report, error) {
	return a.db.ListReports(ctx, userID)
}

// CategoryShare is one category's slice of a month's expenses.
type CategoryShare struct {
	models.CategoryTotal
	Percent decimal.Decimal
}

// MonthBreakdown is the live view of a month next to its stored snapshot.
type MonthBreakdown struct {
	Period     models.ReportPeriod
	Income     int64
	Expense    int64
	Savings    int64
	Categories []CategoryShare
	Expenses   []models.ExpenseEntry
	Snapshot   *models.Report
}

// Breakdown computes live totals and the expense category split for a month.
// Snapshot is nil when no report was generated for the month.
func (a *ReportAggregator) Breakdown(ctx context.Context, userID int64, period models.ReportPeriod) (*MonthBreakdown, error) {
	if err := period.Validate(a.minYear, a.now()); err != nil {
		return nil, err
	}

	start, end := period.Bounds()
	out := &MonthBreakdown{Period: period}
	err := a.db.WithTx(ctx, func(tx *storage.DB) error {
		var err error
		if out.Income, err = tx.IncomeBetween(ctx, userID, start, end); err != nil {
			return err
		}
		if out.Expense, err = tx.ExpenseBetween(ctx, userID, start, end); err != nil {
			return err
		}
		totals, err := tx.GetCategoryTotalsBetween(ctx, userID, start, end)
		if err != nil {
			return err
		}
		out.Categories = shares(totals, out.Expense)
		if out.Expenses, err = tx.GetExpensesBetween(ctx, userID, start, end); err != nil {
			return err
		}
		snapshot, err := tx.GetReport(ctx, userID, period.Month, period.Year)
		switch {
		case err == nil:
			out.Snapshot = snapshot
		case !errors.Is(err, models.ErrNotFound):
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out.Savings = out.Income - out.Expense
	return out, nil
}

func shares(totals []models.CategoryTotal, total int64) []CategoryShare {
	out := make([]CategoryShare, 0, len(totals))
	for _, ct := range totals {
		pct := decimal.Zero
		if total > 0 {
			pct = decimal.NewFromInt(ct.Total).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(total)).Round(1)
		}
		out = append(out, CategoryShare{CategoryTotal: ct, Percent: pct})
	}
	return out
}
