package storage

import (
	"context"
	"fmt"
	"time"

	"savings-tracker/internal/models"
)

const goalColumns = "id, user_id, name, target_amount, deadline, progress, created_at"

// CreateGoal inserts a savings goal and sets its ID.
func (db *DB) CreateGoal(ctx context.Context, g *models.SavingsGoal) error {
	g.CreatedAt = dbTime(time.Now())
	g.Deadline = dbTime(g.Deadline)
	result, err := db.q.ExecContext(ctx,
		"INSERT INTO savings_goals (user_id, name, target_amount, deadline, progress, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		g.UserID, g.Name, g.TargetAmount, g.Deadline, g.Progress, g.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}
	g.ID, err = result.LastInsertId()
	return err
}

// GetGoal returns a goal owned by userID, or ErrNotFound.
func (db *DB) GetGoal(ctx context.Context, userID, goalID int64) (*models.SavingsGoal, error) {
	row := db.q.QueryRowContext(ctx,
		"SELECT "+goalColumns+" FROM savings_goals WHERE id = ? AND user_id = ?", goalID, userID)

	var g models.SavingsGoal
	if err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.Deadline, &g.Progress, &g.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &g, nil
}

// ListGoals returns a user's goals, nearest deadline first.
func (db *DB) ListGoals(ctx context.Context, userID int64) ([]models.SavingsGoal, error) {
	return db.queryGoals(ctx,
		"SELECT "+goalColumns+" FROM savings_goals WHERE user_id = ? ORDER BY deadline, id", userID)
}

// ListGoalsWithActiveOnEntry returns goals that still have an active
// on-entry notification attached.
func (db *DB) ListGoalsWithActiveOnEntry(ctx context.Context, userID int64) ([]models.SavingsGoal, error) {
	return db.queryGoals(ctx, `
		SELECT `+goalColumns+` FROM savings_goals g
		WHERE g.user_id = ? AND EXISTS (
			SELECT 1 FROM notifications n
			WHERE n.goal_id = g.id AND n.status = ? AND n.recurrence = ?
		)
		ORDER BY g.deadline, g.id`,
		userID, string(models.NotificationActive), string(models.RecurrenceOnEntry))
}

func (db *DB) queryGoals(ctx context.Context, query string, args ...any) ([]models.SavingsGoal, error) {
	rows, err := db.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []models.SavingsGoal
	for rows.Next() {
		var g models.SavingsGoal
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.Deadline, &g.Progress, &g.CreatedAt); err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// AddGoalProgress increments the progress of a goal owned by userID.
func (db *DB) AddGoalProgress(ctx context.Context, userID, goalID, amount int64) error {
	result, err := db.q.ExecContext(ctx,
		"UPDATE savings_goals SET progress = progress + ? WHERE id = ? AND user_id = ?",
		amount, goalID, userID)
	if err != nil {
		return fmt.Errorf("update goal progress: %w", err)
	}
	return requireRow(result)
}

// DeleteGoal removes a goal owned by userID together with its notifications.
func (db *DB) DeleteGoal(ctx context.Context, userID, goalID int64) error {
	result, err := db.q.ExecContext(ctx, "DELETE FROM savings_goals WHERE id = ? AND user_id = ?", goalID, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return requireRow(result)
}

// TotalGoalProgress sums the progress of every goal of a user.
func (db *DB) TotalGoalProgress(ctx context.Context, userID int64) (int64, error) {
	return db.sum(ctx, "SELECT COALESCE(SUM(progress), 0) FROM savings_goals WHERE user_id = ?", userID)
}

// AvailableBalance is total income minus total expense minus the progress
// committed to goals.
func (db *DB) AvailableBalance(ctx context.Context, userID int64) (int64, error) {
	return db.sum(ctx, `
		SELECT
			(SELECT COALESCE(SUM(amount), 0) FROM income_entries WHERE user_id = ?)
			- (SELECT COALESCE(SUM(amount), 0) FROM expense_entries WHERE user_id = ?)
			- (SELECT COALESCE(SUM(progress), 0) FROM savings_goals WHERE user_id = ?)`,
		userID, userID, userID)
}
