package handlers

import (
	"net/http"
	"strings"
	"time"

	"savings-tracker/internal/log"
	"savings-tracker/internal/models"
	"savings-tracker/internal/services"
)

// CategoryDef defines the properties of a category.
type CategoryDef struct {
	ID    string
	Name  string
	Icon  string
	Color string
}

var expenseCategories = []CategoryDef{
	{"utilities", "Utilities", "💡", "#fbbf24"},
	{"water", "Water", "🚰", "#60a5fa"},
	{"gas", "Gas", "🔥", "#f97316"},
	{"groceries", "Groceries", "🛒", "#34d399"},
	{"internet", "Internet", "📶", "#a78bfa"},
	{"entertainment", "Entertainment", "🎮", "#f472b6"},
	{"custom", "Other", "📦", "#94a3b8"},
}

var incomeCategories = []CategoryDef{
	{"salary", "Salary", "💼", "#22c55e"},
	{"bonus", "Bonus", "⭐", "#eab308"},
	{"gift", "Gift", "🎁", "#fb7185"},
	{"custom", "Other", "💰", "#94a3b8"},
}

// CategoryStyle defines the visual style for a category.
type CategoryStyle struct {
	Icon  string
	Color string
}

func getCategoryStyle(category string) CategoryStyle {
	catLower := strings.ToLower(category)
	for _, c := range expenseCategories {
		if c.ID == catLower {
			return CategoryStyle{Icon: c.Icon, Color: c.Color}
		}
	}
	for _, c := range incomeCategories {
		if c.ID == catLower {
			return CategoryStyle{Icon: c.Icon, Color: c.Color}
		}
	}
	return CategoryStyle{Icon: "📦", Color: "#94a3b8"}
}

func categoryLabel(category string) string {
	catLower := strings.ToLower(category)
	for _, c := range expenseCategories {
		if c.ID == catLower {
			return c.Name
		}
	}
	for _, c := range incomeCategories {
		if c.ID == catLower {
			return c.Name
		}
	}
	return category
}

// EntryItem is one row of the recent activity list.
type EntryItem struct {
	Kind          string
	Category      string
	Description   string
	Amount        int64
	OccurredAt    time.Time
	CategoryStyle CategoryStyle
}

// ChartSlice is one expense category on the dashboard chart.
type ChartSlice struct {
	Category string
	Total    int64
	Percent  int64
	Style    CategoryStyle
}

// HomeViewModel is the data passed to the dashboard template.
type HomeViewModel struct {
	Summary           *services.LedgerSummary
	Recent            []EntryItem
	Chart             []ChartSlice
	IncomeCategories  []CategoryDef
	ExpenseCategories []CategoryDef
	Today             string
	IncomeError       string
	ExpenseError      string
}

// Home renders the dashboard: balances, entry forms and recent activity.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	h.renderHome(w, r, http.StatusOK, HomeViewModel{})
}

func (h *Handlers) renderHome(w http.ResponseWriter, r *http.Request, status int, vm HomeViewModel) {
	user := GetUserFromContext(r)
	summary, err := h.ledger.Summary(r.Context(), user.ID)
	if err != nil {
		h.fail(w, r, err, "summary")
		return
	}

	vm.Summary = summary
	vm.Recent = recentEntries(summary)
	vm.Chart = chartSlices(summary.CategoryTotals, summary.TotalExpense)
	vm.IncomeCategories = incomeCategories
	vm.ExpenseCategories = expenseCategories
	vm.Today = time.Now().UTC().Format("2006-01-02")
	h.renderStatus(w, r, status, "home.html", "Dashboard", vm)
}

// CreateIncome records an income entry from the dashboard form.
func (h *Handlers) CreateIncome(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	in, err := parseIncomeForm(r)
	if err == nil {
		_, err = h.ledger.RecordIncome(r.Context(), user.ID, in)
	}
	if err != nil {
		status, msg, ok := userError(err)
		if !ok {
			h.logger.ErrorContext(r.Context(), "CreateIncome error", log.FieldError, err, log.FieldUserID, user.ID)
		}
		h.renderHome(w, r, status, HomeViewModel{IncomeError: msg})
		return
	}
	redirect(w, r, "/")
}

// CreateExpense records an expense entry from the dashboard form.
func (h *Handlers) CreateExpense(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	in, err := parseExpenseForm(r)
	if err == nil {
		_, err = h.ledger.RecordExpense(r.Context(), user.ID, in)
	}
	if err != nil {
		status, msg, ok := userError(err)
		if !ok {
			h.logger.ErrorContext(r.Context(), "CreateExpense error", log.FieldError, err, log.FieldUserID, user.ID)
		}
		h.renderHome(w, r, status, HomeViewModel{ExpenseError: msg})
		return
	}
	redirect(w, r, "/")
}

func parseIncomeForm(r *http.Request) (models.IncomeInput, error) {
	if err := r.ParseForm(); err != nil {
		return models.IncomeInput{}, models.ErrInvalidInput
	}
	amount, err := parseAmount(r.FormValue("amount"))
	if err != nil {
		return models.IncomeInput{}, err
	}
	date, err := parseDate(r.FormValue("date"))
	if err != nil {
		return models.IncomeInput{}, err
	}
	return models.IncomeInput{
		Category:    models.IncomeCategory(r.FormValue("category")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Amount:      amount,
		OccurredAt:  date,
	}, nil
}

func parseExpenseForm(r *http.Request) (models.ExpenseInput, error) {
	if err := r.ParseForm(); err != nil {
		return models.ExpenseInput{}, models.ErrInvalidInput
	}
	amount, err := parseAmount(r.FormValue("amount"))
	if err != nil {
		return models.ExpenseInput{}, err
	}
	date, err := parseDate(r.FormValue("date"))
	if err != nil {
		return models.ExpenseInput{}, err
	}
	return models.ExpenseInput{
		Category:    models.ExpenseCategory(r.FormValue("category")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Amount:      amount,
		OccurredAt:  date,
	}, nil
}

// recentEntries merges recent income and expenses, newest first.
func recentEntries(s *services.LedgerSummary) []EntryItem {
	items := make([]EntryItem, 0, len(s.RecentIncome)+len(s.RecentExpenses))
	i, j := 0, 0
	for i < len(s.RecentIncome) || j < len(s.RecentExpenses) {
		takeIncome := j >= len(s.RecentExpenses) ||
			(i < len(s.RecentIncome) && !s.RecentIncome[i].OccurredAt.Before(s.RecentExpenses[j].OccurredAt))
		if takeIncome {
			e := s.RecentIncome[i]
			items = append(items, EntryItem{
				Kind: "income", Category: string(e.Category), Description: e.Description,
				Amount: e.Amount, OccurredAt: e.OccurredAt, CategoryStyle: getCategoryStyle(string(e.Category)),
			})
			i++
			continue
		}
		e := s.RecentExpenses[j]
		items = append(items, EntryItem{
			Kind: "expense", Category: string(e.Category), Description: e.Description,
			Amount: e.Amount, OccurredAt: e.OccurredAt, CategoryStyle: getCategoryStyle(string(e.Category)),
		})
		j++
	}
	return items
}

func chartSlices(totals []models.CategoryTotal, total int64) []ChartSlice {
	slices := make([]ChartSlice, 0, len(totals))
	for _, ct := range totals {
		slices = append(slices, ChartSlice{
			Category: ct.Category,
			Total:    ct.Total,
			Percent:  models.ProgressPercent(ct.Total, total),
			Style:    getCategoryStyle(ct.Category),
		})
	}
	return slices
}

// HistoryViewModel is the data passed to the income and expense list templates.
type HistoryViewModel struct {
	Entries []EntryItem
	Total   int64
	Chart   []ChartSlice
}

// IncomeList renders every income entry of the user.
func (h *Handlers) IncomeList(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	history, err := h.ledger.ListIncome(r.Context(), user.ID)
	if err != nil {
		h.fail(w, r, err, "list_income")
		return
	}

	items := make([]EntryItem, 0, len(history.Entries))
	for _, e := range history.Entries {
		items = append(items, EntryItem{
			Kind: "income", Category: string(e.Category), Description: e.Description,
			Amount: e.Amount, OccurredAt: e.OccurredAt, CategoryStyle: getCategoryStyle(string(e.Category)),
		})
	}
	h.render(w, r, "income.html", "Income", HistoryViewModel{Entries: items, Total: history.Total})
}

// ExpenseList renders every expense entry with the per-category totals.
func (h *Handlers) ExpenseList(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	history, err := h.ledger.ListExpenses(r.Context(), user.ID)
	if err != nil {
		h.fail(w, r, err, "list_expenses")
		return
	}

	items := make([]EntryItem, 0, len(history.Entries))
	for _, e := range history.Entries {
		items = append(items, EntryItem{
			Kind: "expense", Category: string(e.Category), Description: e.Description,
			Amount: e.Amount, OccurredAt: e.OccurredAt, CategoryStyle: getCategoryStyle(string(e.Category)),
		})
	}
	h.render(w, r, "expenses.html", "Expenses", HistoryViewModel{
		Entries: items,
		Total:   history.Total,
		Chart:   chartSlices(history.CategoryTotals, history.Total),
	})
}
