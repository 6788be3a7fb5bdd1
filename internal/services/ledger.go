package services

import (
	"context"
	"time"

	"savings-tracker/internal/amqp"
	"savings-tracker/internal/log"
	"savings-tracker/internal/models"
	"savings-tracker/internal/storage"
)

// recentEntries is how many entries of each kind the dashboard shows.
const recentEntries = 10

// LedgerPublisher announces recorded entries. *amqp.Client implements it.
type LedgerPublisher interface {
	PublishLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error
}

// LedgerService records income and expenses.
type LedgerService struct {
	db        *storage.DB
	publisher LedgerPublisher
	logger    *log.Logger
	now       func() time.Time
}

// NewLedgerService creates the service. publisher may be nil, in which case
// no events are published.
func NewLedgerService(db *storage.DB, publisher LedgerPublisher, logger *log.Logger) *LedgerService {
	return &LedgerService{
		db:        db,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentLedger),
		now:       time.Now,
	}
}

// RecordIncome validates and stores an income entry.
func (s *LedgerService) RecordIncome(ctx context.Context, userID int64, in models.IncomeInput) (*models.IncomeEntry, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	entry := &models.IncomeEntry{
		UserID:      userID,
		Category:    in.Category,
		Description: in.Description,
		Amount:      in.Amount,
		OccurredAt:  s.occurredAt(in.OccurredAt),
	}
	if err := s.db.CreateIncome(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Income recorded",
		log.FieldUserID, userID, log.FieldCategory, entry.Category, log.FieldAmount, entry.Amount)
	s.publish(ctx, amqp.NewLedgerEvent(userID, amqp.KindIncome, entry.ID, entry.OccurredAt))
	return entry, nil
}

// RecordExpense validates and stores an expense entry.
func (s *LedgerService) RecordExpense(ctx context.Context, userID int64, in models.ExpenseInput) (*models.ExpenseEntry, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	entry := &models.ExpenseEntry{
		UserID:      userID,
		Category:    in.Category,
		Description: in.Description,
		Amount:      in.Amount,
		OccurredAt:  s.occurredAt(in.OccurredAt),
	}
	if err := s.db.CreateExpense(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Expense recorded",
		log.FieldUserID, userID, log.FieldCategory, entry.Category, log.FieldAmount, entry.Amount)
	s.publish(ctx, amqp.NewLedgerEvent(userID, amqp.KindExpense, entry.ID, entry.OccurredAt))
	return entry, nil
}

func (s *LedgerService) occurredAt(t time.Time) time.Time {
	if t.IsZero() {
		return s.now()
	}
	return t
}

// publish never fails the caller; the entry is already stored.
func (s *LedgerService) publish(ctx context.Context, ev *amqp.LedgerEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger event",
			log.FieldError, err, log.FieldUserID, ev.UserID, log.FieldOperation, log.OpPublish)
	}
}

// LedgerSummary is the dashboard view of a user's money.
type LedgerSummary struct {
	TotalIncome    int64
	TotalExpense   int64
	Committed      int64
	Available      int64
	RecentIncome   []models.IncomeEntry
	RecentExpenses []models.ExpenseEntry
	CategoryTotals []models.CategoryTotal
}

// Summary gathers totals, the available balance and recent entries.
func (s *LedgerService) Summary(ctx context.Context, userID int64) (*LedgerSummary, error) {
	var sum LedgerSummary
	err := s.db.WithTx(ctx, func(tx *storage.DB) error {
		var err error
		if sum.TotalIncome, err = tx.TotalIncome(ctx, userID); err != nil {
			return err
		}
		if sum.TotalExpense, err = tx.TotalExpense(ctx, userID); err != nil {
			return err
		}
		if sum.Committed, err = tx.TotalGoalProgress(ctx, userID); err != nil {
			return err
		}
		if sum.RecentIncome, err = tx.ListIncome(ctx, userID, recentEntries); err != nil {
			return err
		}
		if sum.RecentExpenses, err = tx.ListExpenses(ctx, userID, recentEntries); err != nil {
			return err
		}
		sum.CategoryTotals, err = tx.GetCategoryTotals(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	sum.Available = sum.TotalIncome - sum.TotalExpense - sum.Committed
	return &sum, nil
}

// IncomeHistory is every income entry of a user with their total.
type IncomeHistory struct {
	Entries []models.IncomeEntry
	Total   int64
}

// ExpenseHistory is every expense entry of a user with the per-category totals.
type ExpenseHistory struct {
	Entries        []models.ExpenseEntry
	Total          int64
	CategoryTotals []models.CategoryTotal
}

// ListIncome returns all income entries, newest first.
func (s *LedgerService) ListIncome(ctx context.Context, userID int64) (*IncomeHistory, error) {
	var h IncomeHistory
	err := s.db.WithTx(ctx, func(tx *storage.DB) error {
		var err error
		if h.Entries, err = tx.ListIncome(ctx, userID, 0); err != nil {
			return err
		}
		h.Total, err = tx.TotalIncome(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// ListExpenses returns all expense entries, newest first.
func (s *LedgerService) ListExpenses(ctx context.Context, userID int64) (*ExpenseHistory, error) {
	var h ExpenseHistory
	err := s.db.WithTx(ctx, func(tx *storage.DB) error {
		var err error
		if h.Entries, err = tx.ListExpenses(ctx, userID, 0); err != nil {
			return err
		}
		if h.Total, err = tx.TotalExpense(ctx, userID); err != nil {
			return err
		}
		h.CategoryTotals, err = tx.GetCategoryTotals(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &h, nil
}
