package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"savings-tracker/internal/log"
	"savings-tracker/internal/models"
	"savings-tracker/internal/storage"
)

// urgentDays is the days-remaining threshold below which a goal is flagged.
const urgentDays = 3

// GoalEngine owns savings goals and the available balance.
type GoalEngine struct {
	db     *storage.DB
	logger *log.Logger
	now    func() time.Time
}

func NewGoalEngine(db *storage.DB, logger *log.Logger) *GoalEngine {
	return &GoalEngine{db: db, logger: logger.WithComponent(log.ComponentGoals), now: time.Now}
}

// AvailableBalance is income minus expenses minus progress committed to goals.
func (e *GoalEngine) AvailableBalance(ctx context.Context, userID int64) (int64, error) {
	return e.db.AvailableBalance(ctx, userID)
}

// CreateGoal stores a goal and its reminder notification in one transaction.
func (e *GoalEngine) CreateGoal(ctx context.Context, userID int64, in models.GoalInput) (*models.SavingsGoal, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Recurrence == "" {
		in.Recurrence = models.RecurrenceOnEntry
	}
	if err := in.Validate(e.now()); err != nil {
		return nil, err
	}

	goal := &models.SavingsGoal{
		UserID:       userID,
		Name:         in.Name,
		TargetAmount: in.TargetAmount,
		Deadline:     in.Deadline,
		Progress:     in.InitialProgress,
	}
	err := e.db.WithTx(ctx, func(tx *storage.DB) error {
		if err := tx.CreateGoal(ctx, goal); err != nil {
			return err
		}
		return tx.CreateNotification(ctx, &models.Notification{
			UserID:     userID,
			GoalID:     &goal.ID,
			Recurrence: in.Recurrence,
			Content:    "Reminder: " + goal.Name,
			Status:     models.NotificationActive,
		})
	})
	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "Goal created",
		log.FieldUserID, userID, log.FieldGoalID, goal.ID, log.FieldAmount, goal.TargetAmount)
	return goal, nil
}

// Contribute moves amount from the available balance into a goal. The
// balance check and the write share one transaction.
func (e *GoalEngine) Contribute(ctx context.Context, userID, goalID, amount int64) (*models.SavingsGoal, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: contribution must be positive", models.ErrInvalidAmount)
	}

	var goal *models.SavingsGoal
	err := e.db.WithTx(ctx, func(tx *storage.DB) error {
		if _, err := tx.GetGoal(ctx, userID, goalID); err != nil {
			return err
		}

		available, err := tx.AvailableBalance(ctx, userID)
		if err != nil {
			return err
		}
		if amount > available {
			return fmt.Errorf("%w: %s requested, %s available",
				models.ErrInsufficientBalance, models.FormatAmount(amount), models.FormatAmount(available))
		}

		if err := tx.AddGoalProgress(ctx, userID, goalID, amount); err != nil {
			return err
		}
		goal, err = tx.GetGoal(ctx, userID, goalID)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "Contribution applied",
		log.FieldUserID, userID, log.FieldGoalID, goalID, log.FieldAmount, amount, log.FieldOperation, log.OpContribute)
	return goal, nil
}

// DeleteGoal removes a goal and the notifications attached to it.
func (e *GoalEngine) DeleteGoal(ctx context.Context, userID, goalID int64) error {
	if err := e.db.DeleteGoal(ctx, userID, goalID); err != nil {
		return err
	}
	e.logger.InfoContext(ctx, "Goal deleted", log.FieldUserID, userID, log.FieldGoalID, goalID, log.FieldOperation, log.OpDelete)
	return nil
}

// GoalView is a goal with its derived values for display.
type GoalView struct {
	models.SavingsGoal
	Percent       int64
	Shortfall     int64
	DaysRemaining int
	Reached       bool
	Expired       bool
	Urgent        bool
	Reminders     []models.Notification
}

// TargetDisplay formats the target amount.
func (v GoalView) TargetDisplay() string { return models.FormatAmount(v.TargetAmount) }

// ProgressDisplay formats the progress amount.
func (v GoalView) ProgressDisplay() string { return models.FormatAmount(v.Progress) }

// ShortfallDisplay formats the shortfall.
func (v GoalView) ShortfallDisplay() string { return models.FormatAmount(v.Shortfall) }

// ListGoals returns the user's goals, nearest deadline first.
func (e *GoalEngine) ListGoals(ctx context.Context, userID int64) ([]GoalView, error) {
	goals, err := e.db.ListGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := e.now()
	views := make([]GoalView, 0, len(goals))
	for _, g := range goals {
		v := newGoalView(g, now)
		if v.Reminders, err = e.db.ListGoalNotifications(ctx, g.ID); err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func newGoalView(g models.SavingsGoal, now time.Time) GoalView {
	days := DaysRemaining(g.Deadline, now)
	return GoalView{
		SavingsGoal:   g,
		Percent:       g.PercentComplete(),
		Shortfall:     g.Shortfall(),
		DaysRemaining: days,
		Reached:       g.Reached(),
		Expired:       g.Deadline.Before(now),
		Urgent:        !g.Reached() && days <= urgentDays,
	}
}

// DaysRemaining counts whole calendar days (UTC) from now until deadline,
// clamped at zero.
func DaysRemaining(deadline, now time.Time) int {
	d := deadline.UTC()
	n := now.UTC()
	end := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	start := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
	days := int((end.Unix() - start.Unix()) / 86400)
	if days < 0 {
		return 0
	}
	return days
}
