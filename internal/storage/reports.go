package storage

import (
	"context"
	"fmt"

	"savings-tracker/internal/models"
)

const reportColumns = "id, user_id, month, year, total_income, total_expense, total_savings, generated_at"

// UpsertReport stores the totals for (user, month, year), replacing any
// previous snapshot, and sets the report ID.
func (db *DB) UpsertReport(ctx context.Context, r *models.Report) error {
	r.GeneratedAt = dbTime(r.GeneratedAt)
	err := db.q.QueryRowContext(ctx, `
		INSERT INTO reports (user_id, month, year, total_income, total_expense, total_savings, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, month, year) DO UPDATE SET
			total_income = excluded.total_income,
			total_expense = excluded.total_expense,
			total_savings = excluded.total_savings,
			generated_at = excluded.generated_at
		RETURNING id`,
		r.UserID, r.Month, r.Year, r.TotalIncome, r.TotalExpense, r.TotalSavings, r.GeneratedAt,
	).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("upsert report: %w", err)
	}
	return nil
}

// GetReport returns the stored snapshot for a month, or ErrNotFound.
func (db *DB) GetReport(ctx context.Context, userID int64, month, year int) (*models.Report, error) {
	row := db.q.QueryRowContext(ctx,
		"SELECT "+reportColumns+" FROM reports WHERE user_id = ? AND month = ? AND year = ?",
		userID, month, year)

	var r models.Report
	if err := row.Scan(&r.ID, &r.UserID, &r.Month, &r.Year, &r.TotalIncome, &r.TotalExpense, &r.TotalSavings, &r.GeneratedAt); err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

// ListReports returns a user's reports, most recent period first.
func (db *DB) ListReports(ctx context.Context, userID int64) ([]models.Report, error) {
	rows, err := db.q.QueryContext(ctx,
		"SELECT "+reportColumns+" FROM reports WHERE user_id = ? ORDER BY year DESC, month DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []models.Report
	for rows.Next() {
		var r models.Report
		if err := rows.Scan(&r.ID, &r.UserID, &r.Month, &r.Year, &r.TotalIncome, &r.TotalExpense, &r.TotalSavings, &r.GeneratedAt); err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}
