package services

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"savings-tracker/internal/amqp"
	"savings-tracker/internal/log"
	"savings-tracker/internal/models"
	"savings-tracker/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// fixedNow is the clock every engine in the suite reads.
var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.LedgerEvent
	err    error
}

func (p *recordingPublisher) PublishLedgerEvent(_ context.Context, ev *amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

// ServiceTestSuite wires every service over a fresh in-memory database.
type ServiceTestSuite struct {
	suite.Suite
	ctx           context.Context
	db            *storage.DB
	now           time.Time
	accounts      *AccountService
	ledger        *LedgerService
	goals         *GoalEngine
	notifications *NotificationEngine
	reports       *ReportAggregator
	publisher     *recordingPublisher
	user          *models.User
}

func (suite *ServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	db, err := storage.NewDB(":memory:")
	require.NoError(suite.T(), err)
	suite.db = db
	suite.now = fixedNow

	logger := log.Discard()
	clock := func() time.Time { return suite.now }

	suite.publisher = &recordingPublisher{}
	suite.accounts = NewAccountService(db, logger)
	suite.ledger = NewLedgerService(db, suite.publisher, logger)
	suite.ledger.now = clock
	suite.goals = NewGoalEngine(db, logger)
	suite.goals.now = clock
	suite.notifications = NewNotificationEngine(db, logger)
	suite.notifications.now = clock
	suite.reports = NewReportAggregator(db, 0, logger)
	suite.reports.now = clock

	suite.user = suite.register("Ana", "ana@example.com")
}

func (suite *ServiceTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *ServiceTestSuite) register(name, email string) *models.User {
	u, err := suite.accounts.Register(suite.ctx, models.RegisterInput{
		Name: name, Email: email, AccountType: models.AccountIndependent, Password: "password123",
	})
	require.NoError(suite.T(), err)
	return u
}

func (suite *ServiceTestSuite) income(userID, amount int64) {
	_, err := suite.ledger.RecordIncome(suite.ctx, userID, models.IncomeInput{Category: models.IncomeSalary, Amount: amount})
	require.NoError(suite.T(), err)
}

func (suite *ServiceTestSuite) expense(userID, amount int64) {
	_, err := suite.ledger.RecordExpense(suite.ctx, userID, models.ExpenseInput{Category: models.ExpenseGroceries, Amount: amount})
	require.NoError(suite.T(), err)
}

func (suite *ServiceTestSuite) goal(userID int64, name string, target int64, deadline time.Time, recurrence models.Recurrence) *models.SavingsGoal {
	g, err := suite.goals.CreateGoal(suite.ctx, userID, models.GoalInput{
		Name: name, TargetAmount: target, Deadline: deadline, Recurrence: recurrence,
	})
	require.NoError(suite.T(), err)
	return g
}

func (suite *ServiceTestSuite) available(userID int64) int64 {
	v, err := suite.goals.AvailableBalance(suite.ctx, userID)
	require.NoError(suite.T(), err)
	return v
}

func (suite *ServiceTestSuite) TestBalanceScenario() {
	uid := suite.user.ID
	suite.income(uid, 300000)
	suite.income(uid, 200000)
	suite.expense(uid, 200000)
	assert.Equal(suite.T(), int64(300000), suite.available(uid))

	g := suite.goal(uid, "Trip", 100000, suite.now.AddDate(0, 1, 0), "")
	updated, err := suite.goals.Contribute(suite.ctx, uid, g.ID, 100000)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(100000), updated.Progress)
	assert.Equal(suite.T(), int64(200000), suite.available(uid))

	_, err = suite.goals.Contribute(suite.ctx, uid, g.ID, 200001)
	assert.ErrorIs(suite.T(), err, models.ErrInsufficientBalance)
	reloaded, err := suite.db.GetGoal(suite.ctx, uid, g.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(100000), reloaded.Progress, "rejected contribution leaves progress unchanged")

	// Progress may exceed the target.
	updated, err = suite.goals.Contribute(suite.ctx, uid, g.ID, 150000)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(250000), updated.Progress)
	assert.Equal(suite.T(), int64(250), updated.PercentComplete())
	assert.Equal(suite.T(), int64(50000), suite.available(uid))
}

func (suite *ServiceTestSuite) TestContributeValidation() {
	uid := suite.user.ID
	suite.income(uid, 1000)
	g := suite.goal(uid, "Bike", 500, suite.now.Add(72*time.Hour), "")

	for _, amount := range []int64{0, -10} {
		_, err := suite.goals.Contribute(suite.ctx, uid, g.ID, amount)
		assert.ErrorIs(suite.T(), err, models.ErrInvalidAmount)
		assert.ErrorIs(suite.T(), err, models.ErrInvalidInput)
	}

	other := suite.register("Bo", "bo@example.com")
	_, err := suite.goals.Contribute(suite.ctx, other.ID, g.ID, 10)
	assert.ErrorIs(suite.T(), err, models.ErrNotFound)

	_, err = suite.goals.Contribute(suite.ctx, uid, 9999, 10)
	assert.ErrorIs(suite.T(), err, models.ErrNotFound)
}

func (suite *ServiceTestSuite) TestConcurrentContributionsNeverOverdraw() {
	uid := suite.user.ID
	suite.income(uid, 1000)
	g := suite.goal(uid, "House", 100000, suite.now.AddDate(1, 0, 0), "")

	const workers = 20
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := suite.goals.Contribute(suite.ctx, uid, g.ID, 100)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(suite.T(), err, models.ErrInsufficientBalance)
	}
	assert.Equal(suite.T(), 10, succeeded)

	reloaded, err := suite.db.GetGoal(suite.ctx, uid, g.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(1000), reloaded.Progress)
	assert.Zero(suite.T(), suite.available(uid))
}

func (suite *ServiceTestSuite) TestCreateGoalWithPastDeadlineCreatesNothing() {
	uid := suite.user.ID
	for _, deadline := range []time.Time{suite.now, suite.now.Add(-time.Hour)} {
		_, err := suite.goals.CreateGoal(suite.ctx, uid, models.GoalInput{Name: "Late", TargetAmount: 100, Deadline: deadline})
		assert.ErrorIs(suite.T(), err, models.ErrInvalidDeadline)
		assert.ErrorIs(suite.T(), err, models.ErrInvalidInput)
	}

	goals, err := suite.goals.ListGoals(suite.ctx, uid)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), goals)

	notes, err := suite.notifications.List(suite.ctx, uid)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), notes)
}

func (suite *ServiceTestSuite) TestCreateGoalCreatesReminder() {
	uid := suite.user.ID
	g := suite.goal(uid, "  Laptop ", 90000, suite.now.AddDate(0, 2, 0), models.RecurrenceWeekly)
	assert.Equal(suite.T(), "Laptop", g.Name)

	notes, err := suite.notifications.List(suite.ctx, uid)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), notes, 1)
	assert.Equal(suite.T(), "Reminder: Laptop", notes[0].Content)
	assert.Equal(suite.T(), models.NotificationActive, notes[0].Status)
	assert.Equal(suite.T(), models.RecurrenceWeekly, notes[0].Recurrence)
	require.NotNil(suite.T(), notes[0].GoalID)
	assert.Equal(suite.T(), g.ID, *notes[0].GoalID)
}

func (suite *ServiceTestSuite) TestCreateGoalWithInitialProgress() {
	uid := suite.user.ID
	g, err := suite.goals.CreateGoal(suite.ctx, uid, models.GoalInput{
		Name: "Phone", TargetAmount: 1000, InitialProgress: 250, Deadline: suite.now.Add(240 * time.Hour),
	})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(250), g.Progress)
	assert.Equal(suite.T(), int64(-250), suite.available(uid))
}

func (suite *ServiceTestSuite) TestEvaluateOnLoginScenario() {
	uid := suite.user.ID
	suite.goal(uid, "Concert", 50000, suite.now.Add(48*time.Hour), models.RecurrenceOnEntry)

	alerts, err := suite.notifications.EvaluateOnLogin(suite.ctx, uid)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), alerts, 1)
	assert.Equal(suite.T(), "Concert", alerts[0].GoalName)
	assert.Equal(suite.T(), 2, alerts[0].DaysRemaining)
	assert.Equal(suite.T(), int64(50000), alerts[0].Shortfall)
	assert.Equal(suite.T(), int64(0), alerts[0].Percent)
	assert.True(suite.T(), alerts[0].Urgent)
	assert.Contains(suite.T(), alerts[0].Message(), "ends in 2 days")
}

func (suite *ServiceTestSuite) TestEvaluateOnLoginSkipsReachedAndScheduledGoals() {
	uid := suite.user.ID
	suite.income(uid, 100000)
	done := suite.goal(uid, "Done", 1000, suite.now.AddDate(0, 1, 0), "")
	_, err := suite.goals.Contribute(suite.ctx, uid, done.ID, 1000)
	require.NoError(suite.T(), err)
	suite.goal(uid, "Daily", 1000, suite.now.AddDate(0, 1, 0), models.RecurrenceDaily)
	far := suite.goal(uid, "Far", 40000, suite.now.AddDate(0, 0, 20), "")
	_, err = suite.goals.Contribute(suite.ctx, uid, far.ID, 10000)
	require.NoError(suite.T(), err)

	alerts, err := suite.notifications.EvaluateOnLogin(suite.ctx, uid)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), alerts, 1)
	assert.Equal(suite.T(), "Far", alerts[0].GoalName)
	assert.Equal(suite.T(), 20, alerts[0].DaysRemaining)
	assert.Equal(suite.T(), int64(30000), alerts[0].Shortfall)
	assert.Equal(suite.T(), int64(25), alerts[0].Percent)
	assert.False(suite.T(), alerts[0].Urgent)
	assert.Equal(suite.T(), "Far: 20 days left, $30.000 to go (25%).", alerts[0].Message())
}

func (suite *ServiceTestSuite) TestConsumeLoginFiresOncePerSession() {
	uid := suite.user.ID
	suite.goal(uid, "Concert", 50000, suite.now.Add(48*time.Hour), models.RecurrenceOnEntry)
	require.NoError(suite.T(), suite.db.CreateSession(suite.ctx, "tok", uid, suite.now.AddDate(0, 0, 30), true))

	canceled, cancel := context.WithCancel(suite.ctx)
	cancel()
	_, _, err := suite.notifications.ConsumeLogin(canceled, "tok", uid)
	assert.Error(suite.T(), err)

	alerts, fired, err := suite.notifications.ConsumeLogin(suite.ctx, "tok", uid)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), fired, "failed evaluation leaves the login pending")
	require.Len(suite.T(), alerts, 1)
	assert.Equal(suite.T(), "Concert", alerts[0].GoalName)

	alerts, fired, err = suite.notifications.ConsumeLogin(suite.ctx, "tok", uid)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), fired)
	assert.Empty(suite.T(), alerts)
}

func (suite *ServiceTestSuite) TestExpireStaleIsOneWay() {
	uid := suite.user.ID
	suite.goal(uid, "Soon", 5000, suite.now.Add(24*time.Hour), "")
	suite.goal(uid, "Later", 5000, suite.now.AddDate(0, 1, 0), "")

	suite.now = suite.now.Add(48 * time.Hour)

	alerts, err := suite.notifications.OnLogin(suite.ctx, uid)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), alerts, 1)
	assert.Equal(suite.T(), "Later", alerts[0].GoalName)

	n, err := suite.notifications.ExpireStale(suite.ctx, uid)
	require.NoError(suite.T(), err)
	assert.Zero(suite.T(), n, "already inactive notifications stay inactive")

	notes, err := suite.notifications.List(suite.ctx, uid)
	require.NoError(suite.T(), err)
	statuses := map[string]models.NotificationStatus{}
	for _, note := range notes {
		statuses[note.Content] = note.Status
	}
	assert.Equal(suite.T(), models.NotificationInactive, statuses["Reminder: Soon"])
	assert.Equal(suite.T(), models.NotificationActive, statuses["Reminder: Later"])
}

func (suite *ServiceTestSuite) TestDueReminders() {
	uid := suite.user.ID
	suite.goal(uid, "Daily", 1000, suite.now.AddDate(0, 1, 0), models.RecurrenceDaily)
	suite.goal(uid, "Entry", 1000, suite.now.AddDate(0, 1, 0), models.RecurrenceOnEntry)

	due, err := suite.notifications.DueReminders(suite.ctx, uid)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), due, 1)
	assert.Equal(suite.T(), "Reminder: Daily", due[0].Content)

	due, err = suite.notifications.DueReminders(suite.ctx, uid)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), due, "already shown today")

	suite.now = suite.now.Add(24 * time.Hour)
	due, err = suite.notifications.DueReminders(suite.ctx, uid)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), due, 1)
}

func (suite *ServiceTestSuite) TestDeleteGoalIsolation() {
	uid := suite.user.ID
	other := suite.register("Bo", "bo@example.com")
	mine := suite.goal(uid, "Car", 1000, suite.now.AddDate(0, 1, 0), "")
	suite.goal(uid, "Car insurance", 1000, suite.now.AddDate(0, 1, 0), "")
	theirs := suite.goal(other.ID, "Car", 1000, suite.now.AddDate(0, 1, 0), "")

	assert.ErrorIs(suite.T(), suite.goals.DeleteGoal(suite.ctx, other.ID, mine.ID), models.ErrNotFound)
	require.NoError(suite.T(), suite.goals.DeleteGoal(suite.ctx, uid, mine.ID))

	notes, err := suite.notifications.List(suite.ctx, uid)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), notes, 1)
	assert.Equal(suite.T(), "Reminder: Car insurance", notes[0].Content)

	theirNotes, err := suite.notifications.List(suite.ctx, other.ID)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), theirNotes, 1)
	_, err = suite.db.GetGoal(suite.ctx, other.ID, theirs.ID)
	assert.NoError(suite.T(), err)
}

func (suite *ServiceTestSuite) TestListGoalsViews() {
	uid := suite.user.ID
	suite.income(uid, 50000)
	g := suite.goal(uid, "Trip", 120000, suite.now.Add(10*24*time.Hour), "")
	_, err := suite.goals.Contribute(suite.ctx, uid, g.ID, 30000)
	require.NoError(suite.T(), err)

	views, err := suite.goals.ListGoals(suite.ctx, uid)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), views, 1)
	v := views[0]
	assert.Equal(suite.T(), int64(25), v.Percent)
	assert.Equal(suite.T(), int64(90000), v.Shortfall)
	assert.Equal(suite.T(), 10, v.DaysRemaining)
	assert.False(suite.T(), v.Urgent)
	assert.False(suite.T(), v.Expired)
	assert.Equal(suite.T(), "$120.000", v.TargetDisplay())
	assert.Equal(suite.T(), "$30.000", v.ProgressDisplay())
	assert.Equal(suite.T(), "$90.000", v.ShortfallDisplay())
	require.Len(suite.T(), v.Reminders, 1)
	assert.Equal(suite.T(), models.RecurrenceOnEntry, v.Reminders[0].Recurrence)
	assert.Equal(suite.T(), models.NotificationActive, v.Reminders[0].Status)
}

func (suite *ServiceTestSuite) TestGenerateReportIsIdempotent() {
	uid := suite.user.ID
	suite.now = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	march := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	_, err := suite.ledger.RecordIncome(suite.ctx, uid, models.IncomeInput{Category: models.IncomeSalary, Amount: 800000, OccurredAt: march})
	require.NoError(suite.T(), err)
	_, err = suite.ledger.RecordExpense(suite.ctx, uid, models.ExpenseInput{Category: models.ExpenseGas, Amount: 120000, OccurredAt: march})
	require.NoError(suite.T(), err)
	_, err = suite.ledger.RecordExpense(suite.ctx, uid, models.ExpenseInput{
		Category: models.ExpenseGas, Amount: 999, OccurredAt: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(suite.T(), err)

	period := models.ReportPeriod{Month: 3, Year: 2024}
	first, err := suite.reports.GenerateReport(suite.ctx, uid, period)
	require.NoError(suite.T(), err)
	second, err := suite.reports.GenerateReport(suite.ctx, uid, period)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), first.ID, second.ID)
	stored, err := suite.db.GetReport(suite.ctx, uid, 3, 2024)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(800000), stored.TotalIncome)
	assert.Equal(suite.T(), int64(120000), stored.TotalExpense)
	assert.Equal(suite.T(), int64(680000), stored.TotalSavings)

	reports, err := suite.reports.ListReports(suite.ctx, uid)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), reports, 1)
}

func (suite *ServiceTestSuite) TestGenerateReportRejectsBadPeriods() {
	for _, p := range []models.ReportPeriod{{0, 2024}, {13, 2024}, {5, 1999}, {1, fixedNow.Year() + 1}} {
		_, err := suite.reports.GenerateReport(suite.ctx, suite.user.ID, p)
		assert.ErrorIs(suite.T(), err, models.ErrInvalidPeriod, "%+v", p)
	}
	reports, err := suite.reports.ListReports(suite.ctx, suite.user.ID)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), reports)
}

func (suite *ServiceTestSuite) TestRefreshExistingOnlyTouchesGeneratedMonths() {
	uid := suite.user.ID
	period := models.ReportPeriod{Month: 3, Year: 2024}

	refreshed, err := suite.reports.RefreshExisting(suite.ctx, uid, period)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), refreshed)
	_, err = suite.db.GetReport(suite.ctx, uid, 3, 2024)
	assert.ErrorIs(suite.T(), err, models.ErrNotFound)

	_, err = suite.reports.GenerateReport(suite.ctx, uid, period)
	require.NoError(suite.T(), err)
	_, err = suite.ledger.RecordIncome(suite.ctx, uid, models.IncomeInput{
		Category: models.IncomeBonus, Amount: 5000, OccurredAt: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(suite.T(), err)

	refreshed, err = suite.reports.RefreshExisting(suite.ctx, uid, period)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), refreshed)
	stored, err := suite.db.GetReport(suite.ctx, uid, 3, 2024)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(5000), stored.TotalSavings)
}

func (suite *ServiceTestSuite) TestBreakdown() {
	uid := suite.user.ID
	day := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	for _, e := range []models.ExpenseInput{
		{Category: models.ExpenseGroceries, Amount: 300, OccurredAt: day},
		{Category: models.ExpenseWater, Amount: 100, OccurredAt: day},
	} {
		_, err := suite.ledger.RecordExpense(suite.ctx, uid, e)
		require.NoError(suite.T(), err)
	}

	b, err := suite.reports.Breakdown(suite.ctx, uid, models.ReportPeriod{Month: 2, Year: 2024})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(400), b.Expense)
	assert.Equal(suite.T(), int64(-400), b.Savings)
	assert.Nil(suite.T(), b.Snapshot)
	require.Len(suite.T(), b.Categories, 2)
	assert.Equal(suite.T(), "groceries", b.Categories[0].Category)
	assert.Equal(suite.T(), "75", b.Categories[0].Percent.String())
	assert.Len(suite.T(), b.Expenses, 2)
}

func (suite *ServiceTestSuite) TestLedgerRecordsAndPublishes() {
	uid := suite.user.ID
	_, err := suite.ledger.RecordIncome(suite.ctx, uid, models.IncomeInput{Category: models.IncomeCustom, Amount: 10})
	assert.ErrorIs(suite.T(), err, models.ErrDescriptionRequired)
	_, err = suite.ledger.RecordExpense(suite.ctx, uid, models.ExpenseInput{Category: models.ExpenseGas, Amount: -1})
	assert.ErrorIs(suite.T(), err, models.ErrInvalidAmount)
	assert.Empty(suite.T(), suite.publisher.events, "rejected input publishes nothing")

	entry, err := suite.ledger.RecordIncome(suite.ctx, uid, models.IncomeInput{Category: models.IncomeCustom, Description: "freelance", Amount: 700})
	require.NoError(suite.T(), err)
	assert.True(suite.T(), entry.OccurredAt.Equal(fixedNow), "timestamp defaults to now")

	suite.publisher.err = errors.New("broker down")
	_, err = suite.ledger.RecordExpense(suite.ctx, uid, models.ExpenseInput{Category: models.ExpenseInternet, Amount: 200})
	require.NoError(suite.T(), err, "publish failures do not fail the write")

	require.Len(suite.T(), suite.publisher.events, 2)
	assert.Equal(suite.T(), amqp.KindIncome, suite.publisher.events[0].Kind)
	assert.Equal(suite.T(), 3, suite.publisher.events[0].Month)
	assert.Equal(suite.T(), amqp.KindExpense, suite.publisher.events[1].Kind)

	sum, err := suite.ledger.Summary(suite.ctx, uid)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(700), sum.TotalIncome)
	assert.Equal(suite.T(), int64(200), sum.TotalExpense)
	assert.Equal(suite.T(), int64(500), sum.Available)
	assert.Len(suite.T(), sum.RecentIncome, 1)
	assert.Len(suite.T(), sum.CategoryTotals, 1)
}

func (suite *ServiceTestSuite) TestLedgerHistoryListsEveryEntry() {
	uid := suite.user.ID
	for i := 1; i <= 12; i++ {
		_, err := suite.ledger.RecordIncome(suite.ctx, uid, models.IncomeInput{
			Category: models.IncomeSalary, Amount: int64(i * 100), OccurredAt: fixedNow.AddDate(0, 0, -i),
		})
		require.NoError(suite.T(), err)
	}
	suite.expense(uid, 300)
	_, err := suite.ledger.RecordExpense(suite.ctx, uid, models.ExpenseInput{Category: models.ExpenseWater, Amount: 100})
	require.NoError(suite.T(), err)

	sum, err := suite.ledger.Summary(suite.ctx, uid)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), sum.RecentIncome, 10)

	income, err := suite.ledger.ListIncome(suite.ctx, uid)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), income.Entries, 12)
	assert.Equal(suite.T(), int64(100), income.Entries[0].Amount, "newest first")
	assert.Equal(suite.T(), int64(1200), income.Entries[11].Amount)
	assert.Equal(suite.T(), int64(7800), income.Total)

	expenses, err := suite.ledger.ListExpenses(suite.ctx, uid)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), expenses.Entries, 2)
	assert.Equal(suite.T(), int64(400), expenses.Total)
	require.Len(suite.T(), expenses.CategoryTotals, 2)

	other := suite.register("Bo", "bo@example.com")
	theirs, err := suite.ledger.ListIncome(suite.ctx, other.ID)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), theirs.Entries)
	assert.Zero(suite.T(), theirs.Total)
}

func (suite *ServiceTestSuite) TestLedgerWithoutPublisher() {
	svc := NewLedgerService(suite.db, nil, log.Discard())
	_, err := svc.RecordIncome(suite.ctx, suite.user.ID, models.IncomeInput{Category: models.IncomeGift, Amount: 1})
	assert.NoError(suite.T(), err)
}

func (suite *ServiceTestSuite) TestOversizedEntriesKeepBalanceReadable() {
	uid := suite.user.ID
	_, err := suite.ledger.RecordIncome(suite.ctx, uid, models.IncomeInput{Category: models.IncomeSalary, Amount: math.MaxInt64})
	assert.ErrorIs(suite.T(), err, models.ErrInvalidAmount)

	suite.income(uid, models.MaxAmount)
	suite.income(uid, 1)
	assert.Equal(suite.T(), models.MaxAmount+1, suite.available(uid))

	_, err = suite.ledger.Summary(suite.ctx, uid)
	assert.NoError(suite.T(), err)
	g := suite.goal(uid, "House", 500, suite.now.AddDate(0, 1, 0), "")
	_, err = suite.goals.Contribute(suite.ctx, uid, g.ID, 5)
	assert.NoError(suite.T(), err)
}

func (suite *ServiceTestSuite) TestAccounts() {
	_, err := suite.accounts.Register(suite.ctx, models.RegisterInput{Name: "Dup", Email: "ANA@example.com", Password: "password123"})
	assert.ErrorIs(suite.T(), err, models.ErrEmailTaken)

	_, err = suite.accounts.Register(suite.ctx, models.RegisterInput{Name: "Short", Email: "s@example.com", Password: "short"})
	assert.ErrorIs(suite.T(), err, models.ErrInvalidInput)

	u, err := suite.accounts.Authenticate(suite.ctx, " Ana@Example.com ", "password123")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.user.ID, u.ID)

	_, err = suite.accounts.Authenticate(suite.ctx, "ana@example.com", "wrong-password")
	assert.ErrorIs(suite.T(), err, models.ErrInvalidCredentials)
	_, err = suite.accounts.Authenticate(suite.ctx, "ghost@example.com", "password123")
	assert.ErrorIs(suite.T(), err, models.ErrInvalidCredentials)

	assert.ErrorIs(suite.T(), suite.accounts.RotatePassword(suite.ctx, u.ID, "nope", "newpassword1"), models.ErrInvalidCredentials)
	assert.ErrorIs(suite.T(), suite.accounts.RotatePassword(suite.ctx, u.ID, "password123", "short"), models.ErrInvalidInput)
	require.NoError(suite.T(), suite.accounts.RotatePassword(suite.ctx, u.ID, "password123", "newpassword1"))

	_, err = suite.accounts.Authenticate(suite.ctx, "ana@example.com", "newpassword1")
	assert.NoError(suite.T(), err)
}

func (suite *ServiceTestSuite) TestEnsureSeedUser() {
	created, err := suite.accounts.EnsureSeedUser(suite.ctx, models.RegisterInput{Name: "Admin", Email: "admin@example.com", Password: "adminpass1"})
	require.NoError(suite.T(), err)
	assert.False(suite.T(), created, "users already exist")
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func TestDaysRemaining(t *testing.T) {
	now := time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, 0, DaysRemaining(now.Add(10*time.Minute), now))
	assert.Equal(t, 1, DaysRemaining(now.Add(time.Hour), now), "crosses midnight")
	assert.Equal(t, 2, DaysRemaining(now.Add(48*time.Hour), now))
	assert.Equal(t, 0, DaysRemaining(now.Add(-72*time.Hour), now), "clamped")
	assert.Equal(t, 22, DaysRemaining(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), now))
	assert.Equal(t, 2913104, DaysRemaining(time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC), now), "far deadlines")
}
