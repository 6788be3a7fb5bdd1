package models

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

const (
	maxNameLength        = 20
	maxDescriptionLength = 100
	maxGoalNameLength    = 100
	minPasswordLength    = 8

	// MaxAmount caps a single amount so per-user sums stay inside int64.
	MaxAmount int64 = 1_000_000_000_000_000
)

// RegisterInput carries the fields needed to create an account.
type RegisterInput struct {
	Name        string
	Email       string
	AccountType AccountType
	Password    string
}

// Normalize trims whitespace and lower-cases the email.
func (in RegisterInput) Normalize() RegisterInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.AccountType == "" {
		in.AccountType = AccountIndependent
	}
	return in
}

func (in RegisterInput) Validate() error {
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if len([]rune(in.Name)) > maxNameLength {
		return fmt.Errorf("%w: name too long (max %d characters)", ErrInvalidInput, maxNameLength)
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return fmt.Errorf("%w: email address is not valid", ErrInvalidInput)
	}
	switch in.AccountType {
	case AccountIndependent, AccountDependent:
	default:
		return fmt.Errorf("%w: unknown account type %q", ErrInvalidInput, in.AccountType)
	}
	return ValidatePassword(in.Password)
}

// ValidatePassword enforces the minimum password length.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	return nil
}

// IncomeInput is a validated request to record income.
type IncomeInput struct {
	Category    IncomeCategory
	Description string
	Amount      int64
	OccurredAt  time.Time
}

func (in IncomeInput) Validate() error {
	switch in.Category {
	case IncomeSalary, IncomeBonus, IncomeGift:
	case IncomeCustom:
		if strings.TrimSpace(in.Description) == "" {
			return ErrDescriptionRequired
		}
	default:
		return fmt.Errorf("%w %q", ErrInvalidCategory, in.Category)
	}
	return validateEntry(in.Description, in.Amount)
}

// ExpenseInput is a validated request to record an expense.
type ExpenseInput struct {
	Category    ExpenseCategory
	Description string
	Amount      int64
	OccurredAt  time.Time
}

func (in ExpenseInput) Validate() error {
	switch in.Category {
	case ExpenseUtilities, ExpenseWater, ExpenseGas, ExpenseGroceries, ExpenseInternet, ExpenseEntertainment:
	case ExpenseCustom:
		if strings.TrimSpace(in.Description) == "" {
			return ErrDescriptionRequired
		}
	default:
		return fmt.Errorf("%w %q", ErrInvalidCategory, in.Category)
	}
	return validateEntry(in.Description, in.Amount)
}

func validateEntry(description string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("%w: must not be negative", ErrInvalidAmount)
	}
	if amount > MaxAmount {
		return fmt.Errorf("%w: must not exceed %d", ErrInvalidAmount, MaxAmount)
	}
	if len([]rune(description)) > maxDescriptionLength {
		return fmt.Errorf("%w: description too long (max %d characters)", ErrInvalidInput, maxDescriptionLength)
	}
	return nil
}

// GoalInput is a request to create a savings goal.
type GoalInput struct {
	Name            string
	TargetAmount    int64
	Deadline        time.Time
	InitialProgress int64
	Recurrence      Recurrence
}

// Validate checks the goal against the current time; the deadline must be strictly after now.
func (in GoalInput) Validate(now time.Time) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return fmt.Errorf("%w: goal name is required", ErrInvalidInput)
	}
	if len([]rune(name)) > maxGoalNameLength {
		return fmt.Errorf("%w: goal name too long (max %d characters)", ErrInvalidInput, maxGoalNameLength)
	}
	if in.TargetAmount <= 0 {
		return fmt.Errorf("%w: target must be positive", ErrInvalidAmount)
	}
	if in.InitialProgress < 0 {
		return fmt.Errorf("%w: initial progress must not be negative", ErrInvalidAmount)
	}
	if in.TargetAmount > MaxAmount || in.InitialProgress > MaxAmount {
		return fmt.Errorf("%w: must not exceed %d", ErrInvalidAmount, MaxAmount)
	}
	if !in.Deadline.After(now) {
		return ErrInvalidDeadline
	}
	switch in.Recurrence {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceOnEntry:
	default:
		return fmt.Errorf("%w: unknown recurrence %q", ErrInvalidInput, in.Recurrence)
	}
	return nil
}

// ReportPeriod identifies a calendar month.
type ReportPeriod struct {
	Month int
	Year  int
}

// Validate accepts months 1..12 and years from minYear through the year of now.
func (p ReportPeriod) Validate(minYear int, now time.Time) error {
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("%w: month %d out of range", ErrInvalidPeriod, p.Month)
	}
	if p.Year < minYear || p.Year > now.Year() {
		return fmt.Errorf("%w: year %d must be between %d and %d", ErrInvalidPeriod, p.Year, minYear, now.Year())
	}
	return nil
}

// Bounds returns [first instant of the month, first instant of the next month) in UTC.
func (p ReportPeriod) Bounds() (time.Time, time.Time) {
	start := time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
