package handlers

import (
	"net/http"
	"strconv"
	"time"

	"savings-tracker/internal/log"
	"savings-tracker/internal/models"
	"savings-tracker/internal/services"
)

// ReportCategoryItem represents a category with its spending statistics.
type ReportCategoryItem struct {
	Category      string
	Total         int64
	Count         int
	Percentage    string
	CategoryStyle CategoryStyle
}

// ReportExpenseItem is one expense of the selected month.
type ReportExpenseItem struct {
	Category      string
	Description   string
	Amount        int64
	Time          string
	CategoryStyle CategoryStyle
}

// ReportsViewModel is the data passed to the reports template.
type ReportsViewModel struct {
	Year           int
	Month          int
	MonthName      string
	Breakdown      *services.MonthBreakdown
	Categories     []ReportCategoryItem
	Expenses       []ReportExpenseItem
	Reports        []models.Report
	PrevYear       int
	PrevMonth      int
	NextYear       int
	NextMonth      int
	HasPrev        bool
	IsCurrentMonth bool
	MinYear        int
	CurrentYear    int
	Months         []int
	Error          string
}

var months = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}

// Reports renders the monthly breakdown with the stored snapshots.
func (h *Handlers) Reports(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	period := models.ReportPeriod{Month: int(now.Month()), Year: now.Year()}

	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		y, err := strconv.Atoi(yearStr)
		if err != nil {
			h.renderReports(w, r, http.StatusBadRequest, period, "Invalid year")
			return
		}
		period.Year = y
	}
	if monthStr := r.URL.Query().Get("month"); monthStr != "" {
		m, err := strconv.Atoi(monthStr)
		if err != nil {
			h.renderReports(w, r, http.StatusBadRequest, period, "Invalid month")
			return
		}
		period.Month = m
	}

	h.renderReports(w, r, http.StatusOK, period, "")
}

// GenerateReport stores the totals for the submitted month and shows it.
func (h *Handlers) GenerateReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := GetUserFromContext(r)
	now := time.Now().UTC()
	fallback := models.ReportPeriod{Month: int(now.Month()), Year: now.Year()}

	if err := r.ParseForm(); err != nil {
		h.renderReports(w, r, http.StatusBadRequest, fallback, "Invalid form submission")
		return
	}
	month, errM := strconv.Atoi(r.FormValue("month"))
	year, errY := strconv.Atoi(r.FormValue("year"))
	if errM != nil || errY != nil {
		h.renderReports(w, r, http.StatusBadRequest, fallback, "Choose a month and a year")
		return
	}

	period := models.ReportPeriod{Month: month, Year: year}
	report, err := h.reports.GenerateReport(ctx, user.ID, period)
	if err != nil {
		status, msg, ok := userError(err)
		if !ok {
			h.logger.ErrorContext(ctx, "GenerateReport error", log.FieldError, err, log.FieldUserID, user.ID)
		}
		h.renderReports(w, r, status, fallback, msg)
		return
	}
	redirect(w, r, "/reports?year="+strconv.Itoa(report.Year)+"&month="+strconv.Itoa(report.Month))
}

// renderReports shows period, or fallback to the current month when period
// is rejected, with errMsg above the page.
func (h *Handlers) renderReports(w http.ResponseWriter, r *http.Request, status int, period models.ReportPeriod, errMsg string) {
	ctx := r.Context()
	user := GetUserFromContext(r)
	now := time.Now().UTC()

	breakdown, err := h.reports.Breakdown(ctx, user.ID, period)
	if err != nil {
		s, msg, ok := userError(err)
		if !ok {
			h.fail(w, r, err, log.OpGenerate)
			return
		}
		status, errMsg = s, msg
		period = models.ReportPeriod{Month: int(now.Month()), Year: now.Year()}
		if breakdown, err = h.reports.Breakdown(ctx, user.ID, period); err != nil {
			h.fail(w, r, err, log.OpGenerate)
			return
		}
	}

	reports, err := h.reports.ListReports(ctx, user.ID)
	if err != nil {
		h.fail(w, r, err, "list_reports")
		return
	}

	categoryItems := make([]ReportCategoryItem, 0, len(breakdown.Categories))
	for _, c := range breakdown.Categories {
		categoryItems = append(categoryItems, ReportCategoryItem{
			Category:      c.Category,
			Total:         c.Total,
			Count:         c.Count,
			Percentage:    c.Percent.StringFixed(1),
			CategoryStyle: getCategoryStyle(c.Category),
		})
	}

	expenseItems := make([]ReportExpenseItem, 0, len(breakdown.Expenses))
	for _, e := range breakdown.Expenses {
		expenseItems = append(expenseItems, ReportExpenseItem{
			Category:      string(e.Category),
			Description:   e.Description,
			Amount:        e.Amount,
			Time:          e.OccurredAt.UTC().Format("Jan 02, 15:04"),
			CategoryStyle: getCategoryStyle(string(e.Category)),
		})
	}

	first := time.Date(period.Year, time.Month(period.Month), 1, 0, 0, 0, 0, time.UTC)
	prevDate := first.AddDate(0, -1, 0)
	nextDate := first.AddDate(0, 1, 0)
	isCurrentMonth := period.Year == now.Year() && period.Month == int(now.Month())

	h.renderStatus(w, r, status, "reports.html", "Reports", ReportsViewModel{
		Year:           period.Year,
		Month:          period.Month,
		MonthName:      time.Month(period.Month).String(),
		Breakdown:      breakdown,
		Categories:     categoryItems,
		Expenses:       expenseItems,
		Reports:        reports,
		PrevYear:       prevDate.Year(),
		PrevMonth:      int(prevDate.Month()),
		NextYear:       nextDate.Year(),
		NextMonth:      int(nextDate.Month()),
		HasPrev:        prevDate.Year() >= h.reports.MinYear(),
		IsCurrentMonth: isCurrentMonth,
		MinYear:        h.reports.MinYear(),
		CurrentYear:    now.Year(),
		Months:         months,
		Error:          errMsg,
	})
}
