package models

import "time"

// AccountType distinguishes users who earn their own income from dependents.
type AccountType string

const (
	AccountIndependent AccountType = "independent"
	AccountDependent   AccountType = "dependent"
)

// IncomeCategory classifies an income entry.
type IncomeCategory string

const (
	IncomeSalary IncomeCategory = "salary"
	IncomeBonus  IncomeCategory = "bonus"
	IncomeGift   IncomeCategory = "gift"
	IncomeCustom IncomeCategory = "custom"
)

// IncomeCategories lists the income categories in display order.
var IncomeCategories = []IncomeCategory{IncomeSalary, IncomeBonus, IncomeGift, IncomeCustom}

// ExpenseCategory classifies an expense entry.
type ExpenseCategory string

const (
	ExpenseUtilities     ExpenseCategory = "utilities"
	ExpenseWater         ExpenseCategory = "water"
	ExpenseGas           ExpenseCategory = "gas"
	ExpenseGroceries     ExpenseCategory = "groceries"
	ExpenseInternet      ExpenseCategory = "internet"
	ExpenseEntertainment ExpenseCategory = "entertainment"
	ExpenseCustom        ExpenseCategory = "custom"
)

// ExpenseCategories lists the expense categories in display order.
var ExpenseCategories = []ExpenseCategory{
	ExpenseUtilities, ExpenseWater, ExpenseGas, ExpenseGroceries,
	ExpenseInternet, ExpenseEntertainment, ExpenseCustom,
}

// Recurrence is how often a notification is surfaced to its owner.
type Recurrence string

const (
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
	RecurrenceOnEntry Recurrence = "on-entry"
)

// Recurrences lists the notification recurrences in display order.
var Recurrences = []Recurrence{RecurrenceOnEntry, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly}

// NotificationStatus is either active or inactive. The transition is one-way.
type NotificationStatus string

const (
	NotificationActive   NotificationStatus = "active"
	NotificationInactive NotificationStatus = "inactive"
)

// User represents a user account.
type User struct {
	ID           int64       `json:"id"`
	Name         string      `json:"name"`
	AccountType  AccountType `json:"account_type"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	CreatedAt    time.Time   `json:"created_at"`
}

// IncomeEntry is money received by a user.
type IncomeEntry struct {
	ID          int64          `json:"id"`
	UserID      int64          `json:"user_id"`
	Category    IncomeCategory `json:"category"`
	Description string         `json:"description,omitempty"`
	Amount      int64          `json:"amount"`
	OccurredAt  time.Time      `json:"occurred_at"`
}

// ExpenseEntry is money spent by a user.
type ExpenseEntry struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	Category    ExpenseCategory `json:"category"`
	Description string          `json:"description,omitempty"`
	Amount      int64           `json:"amount"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// SavingsGoal is a named savings target with a deadline and accumulated progress.
type SavingsGoal struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Name         string    `json:"name"`
	TargetAmount int64     `json:"target_amount"`
	Deadline     time.Time `json:"deadline"`
	Progress     int64     `json:"progress"`
	CreatedAt    time.Time `json:"created_at"`
}

// Shortfall is how much is still missing to reach the target, never negative.
func (g SavingsGoal) Shortfall() int64 {
	if g.Progress >= g.TargetAmount {
		return 0
	}
	return g.TargetAmount - g.Progress
}

// Reached reports whether progress has met the target.
func (g SavingsGoal) Reached() bool {
	return g.Progress >= g.TargetAmount
}

// PercentComplete is ProgressPercent for this goal.
func (g SavingsGoal) PercentComplete() int64 {
	return ProgressPercent(g.Progress, g.TargetAmount)
}

// Notification is a reminder owned by a user, usually attached to a goal.
type Notification struct {
	ID          int64              `json:"id"`
	UserID      int64              `json:"user_id"`
	GoalID      *int64             `json:"goal_id,omitempty"`
	Recurrence  Recurrence         `json:"recurrence"`
	Content     string             `json:"content"`
	Status      NotificationStatus `json:"status"`
	LastShownAt *time.Time         `json:"last_shown_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// Report is a cached monthly snapshot of a user's totals.
type Report struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Month        int       `json:"month"`
	Year         int       `json:"year"`
	TotalIncome  int64     `json:"total_income"`
	TotalExpense int64     `json:"total_expense"`
	TotalSavings int64     `json:"total_savings"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// Session represents a user session.
type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CategoryTotal is an amount aggregated by category.
type CategoryTotal struct {
	Category string `json:"category"`
	Total    int64  `json:"total"`
	Count    int    `json:"count"`
}
