package handlers

import (
	"net/http"

	"savings-tracker/internal/log"
	"savings-tracker/internal/models"
	"savings-tracker/internal/services"
)

// GoalsViewModel is the data passed to the goals template.
type GoalsViewModel struct {
	Goals       []services.GoalView
	Available   int64
	Recurrences []models.Recurrence
	MinDeadline string
	Form        GoalForm
	Error       string
	ErrorGoalID int64
}

// GoalForm echoes the create form back after a rejected submission.
type GoalForm struct {
	Name            string
	TargetAmount    string
	Deadline        string
	InitialProgress string
	Recurrence      string
}

// Goals renders the user's goals with the create form.
func (h *Handlers) Goals(w http.ResponseWriter, r *http.Request) {
	h.renderGoals(w, r, http.StatusOK, GoalsViewModel{Form: GoalForm{Recurrence: string(models.RecurrenceOnEntry)}})
}

func (h *Handlers) renderGoals(w http.ResponseWriter, r *http.Request, status int, vm GoalsViewModel) {
	ctx := r.Context()
	user := GetUserFromContext(r)

	goals, err := h.goals.ListGoals(ctx, user.ID)
	if err != nil {
		h.fail(w, r, err, "list_goals")
		return
	}
	available, err := h.goals.AvailableBalance(ctx, user.ID)
	if err != nil {
		h.fail(w, r, err, "available_balance")
		return
	}

	vm.Goals = goals
	vm.Available = available
	vm.Recurrences = models.Recurrences
	vm.MinDeadline = tomorrow()
	h.renderStatus(w, r, status, "goals.html", "Savings goals", vm)
}

// CreateGoal handles the new goal form.
func (h *Handlers) CreateGoal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := GetUserFromContext(r)
	if err := r.ParseForm(); err != nil {
		h.renderGoals(w, r, http.StatusBadRequest, GoalsViewModel{Error: "Invalid form submission"})
		return
	}

	form := GoalForm{
		Name:            r.FormValue("name"),
		TargetAmount:    r.FormValue("target_amount"),
		Deadline:        r.FormValue("deadline"),
		InitialProgress: r.FormValue("initial_progress"),
		Recurrence:      r.FormValue("recurrence"),
	}

	in, err := parseGoalForm(form)
	if err == nil {
		_, err = h.goals.CreateGoal(ctx, user.ID, in)
	}
	if err != nil {
		status, msg, ok := userError(err)
		if !ok {
			h.logger.ErrorContext(ctx, "CreateGoal error", log.FieldError, err, log.FieldUserID, user.ID)
		}
		h.renderGoals(w, r, status, GoalsViewModel{Form: form, Error: msg})
		return
	}
	redirect(w, r, "/goals")
}

// Contribute moves part of the available balance into a goal.
func (h *Handlers) Contribute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := GetUserFromContext(r)

	goalID, err := pathID(r)
	if err != nil {
		h.fail(w, r, err, log.OpContribute)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderGoals(w, r, http.StatusBadRequest, GoalsViewModel{Error: "Invalid form submission", ErrorGoalID: goalID})
		return
	}

	amount, err := parseAmount(r.FormValue("amount"))
	if err == nil {
		_, err = h.goals.Contribute(ctx, user.ID, goalID, amount)
	}
	if err != nil {
		status, msg, ok := userError(err)
		if !ok {
			h.logger.ErrorContext(ctx, "Contribute error", log.FieldError, err, log.FieldUserID, user.ID, log.FieldGoalID, goalID)
		}
		if status == http.StatusNotFound {
			http.Error(w, msg, status)
			return
		}
		h.renderGoals(w, r, status, GoalsViewModel{Error: msg, ErrorGoalID: goalID})
		return
	}
	redirect(w, r, "/goals")
}

// DeleteGoal removes a goal and its reminders.
func (h *Handlers) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	goalID, err := pathID(r)
	if err == nil {
		err = h.goals.DeleteGoal(r.Context(), user.ID, goalID)
	}
	if err != nil {
		h.fail(w, r, err, log.OpDelete)
		return
	}
	redirect(w, r, "/goals")
}

func parseGoalForm(f GoalForm) (models.GoalInput, error) {
	target, err := parseAmount(f.TargetAmount)
	if err != nil {
		return models.GoalInput{}, err
	}
	var initial int64
	if f.InitialProgress != "" {
		if initial, err = parseAmount(f.InitialProgress); err != nil {
			return models.GoalInput{}, err
		}
	}
	deadline, err := parseDate(f.Deadline)
	if err != nil {
		return models.GoalInput{}, err
	}
	if deadline.IsZero() {
		return models.GoalInput{}, models.ErrInvalidDeadline
	}
	return models.GoalInput{
		Name:            f.Name,
		TargetAmount:    target,
		Deadline:        deadline,
		InitialProgress: initial,
		Recurrence:      models.Recurrence(f.Recurrence),
	}, nil
}
