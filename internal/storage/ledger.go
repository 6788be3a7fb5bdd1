package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"savings-tracker/internal/models"
)

// CreateIncome inserts a new income entry and sets its ID.
func (db *DB) CreateIncome(ctx context.Context, e *models.IncomeEntry) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}
	e.OccurredAt = dbTime(e.OccurredAt)
	result, err := db.q.ExecContext(ctx,
		"INSERT INTO income_entries (user_id, category, description, amount, occurred_at) VALUES (?, ?, ?, ?, ?)",
		e.UserID, string(e.Category), e.Description, e.Amount, e.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert income: %w", err)
	}
	e.ID, err = result.LastInsertId()
	return err
}

// CreateExpense inserts a new expense entry and sets its ID.
func (db *DB) CreateExpense(ctx context.Context, e *models.ExpenseEntry) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}
	e.OccurredAt = dbTime(e.OccurredAt)
	result, err := db.q.ExecContext(ctx,
		"INSERT INTO expense_entries (user_id, category, description, amount, occurred_at) VALUES (?, ?, ?, ?, ?)",
		e.UserID, string(e.Category), e.Description, e.Amount, e.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	e.ID, err = result.LastInsertId()
	return err
}

// ListIncome returns a user's most recent income entries, newest first.
// A limit of zero or less returns every entry.
func (db *DB) ListIncome(ctx context.Context, userID int64, limit int) ([]models.IncomeEntry, error) {
	rows, err := db.q.QueryContext(ctx, `
		SELECT id, user_id, category, description, amount, occurred_at
		FROM income_entries WHERE user_id = ?
		ORDER BY occurred_at DESC, id DESC LIMIT ?`, userID, sqlLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.IncomeEntry
	for rows.Next() {
		var e models.IncomeEntry
		var category string
		if err := rows.Scan(&e.ID, &e.UserID, &category, &e.Description, &e.Amount, &e.OccurredAt); err != nil {
			return nil, err
		}
		e.Category = models.IncomeCategory(category)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListExpenses returns a user's most recent expense entries, newest first.
// A limit of zero or less returns every entry.
func (db *DB) ListExpenses(ctx context.Context, userID int64, limit int) ([]models.ExpenseEntry, error) {
	rows, err := db.q.QueryContext(ctx, `
		SELECT id, user_id, category, description, amount, occurred_at
		FROM expense_entries WHERE user_id = ?
		ORDER BY occurred_at DESC, id DESC LIMIT ?`, userID, sqlLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanExpenses(rows)
}

// GetExpensesBetween returns a user's expenses in [start, end), newest first.
func (db *DB) GetExpensesBetween(ctx context.Context, userID int64, start, end time.Time) ([]models.ExpenseEntry, error) {
	rows, err := db.q.QueryContext(ctx, `
		SELECT id, user_id, category, description, amount, occurred_at
		FROM expense_entries
		WHERE user_id = ? AND occurred_at >= ? AND occurred_at < ?
		ORDER BY occurred_at DESC, id DESC`, userID, dbTime(start), dbTime(end))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanExpenses(rows)
}

func scanExpenses(rows *sql.Rows) ([]models.ExpenseEntry, error) {
	var entries []models.ExpenseEntry
	for rows.Next() {
		var e models.ExpenseEntry
		var category string
		if err := rows.Scan(&e.ID, &e.UserID, &category, &e.Description, &e.Amount, &e.OccurredAt); err != nil {
			return nil, err
		}
		e.Category = models.ExpenseCategory(category)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// TotalIncome sums every income entry of a user.
func (db *DB) TotalIncome(ctx context.Context, userID int64) (int64, error) {
	return db.sum(ctx, "SELECT COALESCE(SUM(amount), 0) FROM income_entries WHERE user_id = ?", userID)
}

// TotalExpense sums every expense entry of a user.
func (db *DB) TotalExpense(ctx context.Context, userID int64) (int64, error) {
	return db.sum(ctx, "SELECT COALESCE(SUM(amount), 0) FROM expense_entries WHERE user_id = ?", userID)
}

// IncomeBetween sums a user's income entries in [start, end).
func (db *DB) IncomeBetween(ctx context.Context, userID int64, start, end time.Time) (int64, error) {
	return db.sum(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM income_entries WHERE user_id = ? AND occurred_at >= ? AND occurred_at < ?",
		userID, dbTime(start), dbTime(end))
}

// ExpenseBetween sums a user's expense entries in [start, end).
func (db *DB) ExpenseBetween(ctx context.Context, userID int64, start, end time.Time) (int64, error) {
	return db.sum(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM expense_entries WHERE user_id = ? AND occurred_at >= ? AND occurred_at < ?",
		userID, dbTime(start), dbTime(end))
}

// GetCategoryTotals aggregates a user's expenses by category, largest first.
func (db *DB) GetCategoryTotals(ctx context.Context, userID int64) ([]models.CategoryTotal, error) {
	rows, err := db.q.QueryContext(ctx, `
		SELECT category, SUM(amount), COUNT(*)
		FROM expense_entries WHERE user_id = ?
		GROUP BY category ORDER BY SUM(amount) DESC, category`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCategoryTotals(rows)
}

// GetCategoryTotalsBetween aggregates a user's expenses in [start, end) by category.
func (db *DB) GetCategoryTotalsBetween(ctx context.Context, userID int64, start, end time.Time) ([]models.CategoryTotal, error) {
	rows, err := db.q.QueryContext(ctx, `
		SELECT category, SUM(amount), COUNT(*)
		FROM expense_entries
		WHERE user_id = ? AND occurred_at >= ? AND occurred_at < ?
		GROUP BY category ORDER BY SUM(amount) DESC, category`, userID, dbTime(start), dbTime(end))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCategoryTotals(rows)
}

func scanCategoryTotals(rows *sql.Rows) ([]models.CategoryTotal, error) {
	var totals []models.CategoryTotal
	for rows.Next() {
		var ct models.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total, &ct.Count); err != nil {
			return nil, err
		}
		totals = append(totals, ct)
	}
	return totals, rows.Err()
}

func (db *DB) sum(ctx context.Context, query string, args ...any) (int64, error) {
	var total int64
	if err := db.q.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// sqlLimit turns a non-positive limit into SQLite's "no limit".
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
