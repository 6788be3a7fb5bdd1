package services

import (
	"context"
	"fmt"
	"time"

	"savings-tracker/internal/log"
	"savings-tracker/internal/models"
	"savings-tracker/internal/storage"
)

// Alert is a rendered on-entry reminder for an unfinished goal.
type Alert struct {
	GoalID        int64
	GoalName      string
	DaysRemaining int
	Shortfall     int64
	Percent       int64
	Urgent        bool
}

// Message is the text shown to the user.
func (a Alert) Message() string {
	if a.Urgent {
		return fmt.Sprintf("Your goal '%s' ends in %d days. Save a little more to reach it!", a.GoalName, a.DaysRemaining)
	}
	return fmt.Sprintf("%s: %d days left, %s to go (%d%%).",
		a.GoalName, a.DaysRemaining, models.FormatAmount(a.Shortfall), a.Percent)
}

// NotificationEngine derives reminders from goal state.
type NotificationEngine struct {
	db     *storage.DB
	logger *log.Logger
	now    func() time.Time
}

func NewNotificationEngine(db *storage.DB, logger *log.Logger) *NotificationEngine {
	return &NotificationEngine{db: db, logger: logger.WithComponent(log.ComponentNotifications), now: time.Now}
}

// EvaluateOnLogin renders an alert for every unfinished goal that still has
// an active on-entry notification.
func (e *NotificationEngine) EvaluateOnLogin(ctx context.Context, userID int64) ([]Alert, error) {
	return e.evaluateOnLogin(ctx, e.db, userID)
}

func (e *NotificationEngine) evaluateOnLogin(ctx context.Context, db *storage.DB, userID int64) ([]Alert, error) {
	goals, err := db.ListGoalsWithActiveOnEntry(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := e.now()
	var alerts []Alert
	for _, g := range goals {
		if g.Reached() {
			continue
		}
		days := DaysRemaining(g.Deadline, now)
		alerts = append(alerts, Alert{
			GoalID:        g.ID,
			GoalName:      g.Name,
			DaysRemaining: days,
			Shortfall:     g.Shortfall(),
			Percent:       g.PercentComplete(),
			Urgent:        days <= urgentDays,
		})
	}
	return alerts, nil
}

// ExpireStale deactivates the notifications of goals whose deadline passed
// before they were reached. It returns how many were deactivated.
func (e *NotificationEngine) ExpireStale(ctx context.Context, userID int64) (int64, error) {
	return e.expireStale(ctx, e.db, userID)
}

func (e *NotificationEngine) expireStale(ctx context.Context, db *storage.DB, userID int64) (int64, error) {
	n, err := db.DeactivateExpiredGoalNotifications(ctx, userID, e.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		e.logger.InfoContext(ctx, "Deactivated stale notifications", log.FieldUserID, userID, log.FieldCount, n)
	}
	return n, nil
}

// OnLogin expires stale notifications and then evaluates on-entry alerts.
func (e *NotificationEngine) OnLogin(ctx context.Context, userID int64) ([]Alert, error) {
	var alerts []Alert
	err := e.db.WithTx(ctx, func(tx *storage.DB) error {
		var err error
		alerts, err = e.onLogin(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

// ConsumeLogin clears the pending-login flag of the session and runs OnLogin
// in the same transaction. fired is false when the flag was already clear.
// On error the flag stays set so the next request evaluates again.
func (e *NotificationEngine) ConsumeLogin(ctx context.Context, token string, userID int64) (alerts []Alert, fired bool, err error) {
	err = e.db.WithTx(ctx, func(tx *storage.DB) error {
		var err error
		if fired, err = tx.ConsumeLoginFlag(ctx, token); err != nil || !fired {
			return err
		}
		alerts, err = e.onLogin(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return alerts, fired, nil
}

func (e *NotificationEngine) onLogin(ctx context.Context, db *storage.DB, userID int64) ([]Alert, error) {
	if _, err := e.expireStale(ctx, db, userID); err != nil {
		return nil, err
	}
	return e.evaluateOnLogin(ctx, db, userID)
}

// DueReminders returns the scheduled (daily, weekly, monthly) notifications
// that are due now and stamps them as shown.
func (e *NotificationEngine) DueReminders(ctx context.Context, userID int64) ([]models.Notification, error) {
	now := e.now()
	var due []models.Notification
	err := e.db.WithTx(ctx, func(tx *storage.DB) error {
		active, err := tx.ListActiveNotifications(ctx, userID)
		if err != nil {
			return err
		}
		for _, n := range active {
			checker, err := GetDuenessChecker(n.Recurrence)
			if err != nil {
				continue
			}
			var last time.Time
			if n.LastShownAt != nil {
				last = *n.LastShownAt
			}
			if !checker.IsDue(last, now) {
				continue
			}
			if err := tx.MarkNotificationShown(ctx, n.ID, now); err != nil {
				return err
			}
			due = append(due, n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return due, nil
}

// List returns every notification of a user, newest first.
func (e *NotificationEngine) List(ctx context.Context, userID int64) ([]models.Notification, error) {
	return e.db.ListNotifications(ctx, userID)
}
