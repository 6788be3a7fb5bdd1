package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"savings-tracker/internal/models"
)

const notificationColumns = "id, user_id, goal_id, recurrence, content, status, last_shown_at, created_at"

// CreateNotification inserts a notification and sets its ID.
func (db *DB) CreateNotification(ctx context.Context, n *models.Notification) error {
	n.CreatedAt = dbTime(time.Now())
	if n.Status == "" {
		n.Status = models.NotificationActive
	}
	result, err := db.q.ExecContext(ctx,
		"INSERT INTO notifications (user_id, goal_id, recurrence, content, status, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		n.UserID, n.GoalID, string(n.Recurrence), n.Content, string(n.Status), n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	n.ID, err = result.LastInsertId()
	return err
}

// ListNotifications returns all notifications of a user, newest first.
func (db *DB) ListNotifications(ctx context.Context, userID int64) ([]models.Notification, error) {
	return db.queryNotifications(ctx,
		"SELECT "+notificationColumns+" FROM notifications WHERE user_id = ? ORDER BY created_at DESC, id DESC",
		userID)
}

// ListActiveNotifications returns a user's active notifications, oldest first.
func (db *DB) ListActiveNotifications(ctx context.Context, userID int64) ([]models.Notification, error) {
	return db.queryNotifications(ctx,
		"SELECT "+notificationColumns+" FROM notifications WHERE user_id = ? AND status = ? ORDER BY created_at, id",
		userID, string(models.NotificationActive))
}

// ListGoalNotifications returns the notifications attached to a goal.
func (db *DB) ListGoalNotifications(ctx context.Context, goalID int64) ([]models.Notification, error) {
	return db.queryNotifications(ctx,
		"SELECT "+notificationColumns+" FROM notifications WHERE goal_id = ? ORDER BY id", goalID)
}

func (db *DB) queryNotifications(ctx context.Context, query string, args ...any) ([]models.Notification, error) {
	rows, err := db.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var n models.Notification
		var goalID sql.NullInt64
		var lastShown sql.NullTime
		var recurrence, status string
		if err := rows.Scan(&n.ID, &n.UserID, &goalID, &recurrence, &n.Content, &status, &lastShown, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Recurrence = models.Recurrence(recurrence)
		n.Status = models.NotificationStatus(status)
		if goalID.Valid {
			id := goalID.Int64
			n.GoalID = &id
		}
		if lastShown.Valid {
			t := lastShown.Time
			n.LastShownAt = &t
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// DeactivateExpiredGoalNotifications moves to inactive every active
// notification whose goal passed its deadline before reaching its target.
func (db *DB) DeactivateExpiredGoalNotifications(ctx context.Context, userID int64, now time.Time) (int64, error) {
	result, err := db.q.ExecContext(ctx, `
		UPDATE notifications SET status = ?
		WHERE user_id = ? AND status = ? AND goal_id IN (
			SELECT id FROM savings_goals
			WHERE user_id = ? AND deadline < ? AND progress < target_amount
		)`,
		string(models.NotificationInactive), userID, string(models.NotificationActive), userID, dbTime(now))
	if err != nil {
		return 0, fmt.Errorf("deactivate notifications: %w", err)
	}
	return result.RowsAffected()
}

// MarkNotificationShown records when a notification was last surfaced.
func (db *DB) MarkNotificationShown(ctx context.Context, notificationID int64, at time.Time) error {
	result, err := db.q.ExecContext(ctx,
		"UPDATE notifications SET last_shown_at = ? WHERE id = ?", dbTime(at), notificationID)
	if err != nil {
		return fmt.Errorf("mark notification shown: %w", err)
	}
	return requireRow(result)
}
