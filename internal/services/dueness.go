package services

import (
	"fmt"
	"time"

	"savings-tracker/internal/models"
)

// DuenessChecker decides whether a recurring reminder should be shown again.
type DuenessChecker interface {
	// IsDue reports whether a reminder last shown at lastShown is due at now.
	// A zero lastShown means it was never shown.
	IsDue(lastShown, now time.Time) bool
}

// DailyChecker is due once per calendar day.
type DailyChecker struct{}

func (DailyChecker) IsDue(lastShown, now time.Time) bool {
	if lastShown.IsZero() {
		return true
	}
	return lastShown.UTC().Format("2006-01-02") != now.UTC().Format("2006-01-02")
}

// WeeklyChecker is due once seven days have passed.
type WeeklyChecker struct{}

func (WeeklyChecker) IsDue(lastShown, now time.Time) bool {
	if lastShown.IsZero() {
		return true
	}
	return now.Sub(lastShown) >= 7*24*time.Hour
}

// MonthlyChecker is due once per calendar month.
type MonthlyChecker struct{}

func (MonthlyChecker) IsDue(lastShown, now time.Time) bool {
	if lastShown.IsZero() {
		return true
	}
	l, n := lastShown.UTC(), now.UTC()
	return l.Year() != n.Year() || l.Month() != n.Month()
}

var duenessStrategies = map[models.Recurrence]DuenessChecker{
	models.RecurrenceDaily:   DailyChecker{},
	models.RecurrenceWeekly:  WeeklyChecker{},
	models.RecurrenceMonthly: MonthlyChecker{},
}

// GetDuenessChecker returns the checker for a scheduled recurrence. On-entry
// reminders have no schedule and are handled at login instead.
func GetDuenessChecker(r models.Recurrence) (DuenessChecker, error) {
	checker, ok := duenessStrategies[r]
	if !ok {
		return nil, fmt.Errorf("no schedule for recurrence %q", r)
	}
	return checker, nil
}
