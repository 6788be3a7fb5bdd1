package handlers

import (
	"context"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"savings-tracker/internal/log"
	"savings-tracker/internal/models"
	"savings-tracker/internal/services"
	"savings-tracker/internal/storage"
)

// Context key type to avoid collisions.
type contextKey string

const (
	// StateContextKey is the context key for the per-request state.
	StateContextKey contextKey = "state"
	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "session"
	// DefaultSessionDuration is how long sessions last (30 days).
	DefaultSessionDuration = 30 * 24 * time.Hour
)

// Services groups the domain services the handlers call into.
type Services struct {
	Accounts      *services.AccountService
	Ledger        *services.LedgerService
	Goals         *services.GoalEngine
	Notifications *services.NotificationEngine
	Reports       *services.ReportAggregator
}

// Config holds the dependencies for HTTP handlers.
type Config struct {
	DB              *storage.DB
	Services        Services
	Templates       fs.FS
	SecureCookie    bool
	SessionDuration time.Duration
	Logger          *log.Logger
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	db              *storage.DB
	accounts        *services.AccountService
	ledger          *services.LedgerService
	goals           *services.GoalEngine
	notifications   *services.NotificationEngine
	reports         *services.ReportAggregator
	templates       fs.FS
	secureCookie    bool
	sessionDuration time.Duration
	logger          *log.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(cfg Config) *Handlers {
	duration := cfg.SessionDuration
	if duration <= 0 {
		duration = DefaultSessionDuration
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Discard()
	}
	return &Handlers{
		db:              cfg.DB,
		accounts:        cfg.Services.Accounts,
		ledger:          cfg.Services.Ledger,
		goals:           cfg.Services.Goals,
		notifications:   cfg.Services.Notifications,
		reports:         cfg.Services.Reports,
		templates:       cfg.Templates,
		secureCookie:    cfg.SecureCookie,
		sessionDuration: duration,
		logger:          logger.WithComponent(log.ComponentHTTP),
	}
}

// RequestState is what the session middleware learned about the current
// request: the user, the one-shot login alerts and any reminders that came
// due on this page load.
type RequestState struct {
	User      *models.User
	Alerts    []services.Alert
	Reminders []models.Notification
}

// GetStateFromContext retrieves the request state set by AuthMiddleware.
func GetStateFromContext(r *http.Request) *RequestState {
	if state, ok := r.Context().Value(StateContextKey).(*RequestState); ok {
		return state
	}
	return nil
}

// GetUserFromContext retrieves the authenticated user from request context.
func GetUserFromContext(r *http.Request) *models.User {
	if state := GetStateFromContext(r); state != nil {
		return state.User
	}
	return nil
}

// AuthMiddleware wraps handlers to require authentication.
// It also implements rolling sessions: if a session is past the halfway point
// of its lifetime, it automatically renews the session.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		info, err := h.db.ValidateSessionWithInfo(ctx, cookie.Value)
		if err != nil {
			if !errors.Is(err, models.ErrNotFound) {
				h.logger.ErrorContext(ctx, "Session lookup failed", log.FieldError, err)
			}
			h.clearSessionCookie(w)
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		now := time.Now()
		if info.ExpiresAt.Sub(now) < h.sessionDuration/2 {
			if err := h.db.RenewSession(ctx, cookie.Value, now.Add(h.sessionDuration)); err == nil {
				h.setSessionCookie(w, cookie.Value)
			} else {
				h.logger.WarnContext(ctx, "Session renewal failed", log.FieldError, err)
			}
		}

		user := info.User
		state := &RequestState{User: user}

		if info.LoginPending {
			alerts, _, err := h.notifications.ConsumeLogin(ctx, cookie.Value, user.ID)
			if err != nil {
				h.logger.ErrorContext(ctx, "Login evaluation failed", log.FieldError, err, log.FieldUserID, user.ID)
			}
			state.Alerts = alerts
		}

		if r.Method == http.MethodGet && !isPartial(r) {
			reminders, err := h.notifications.DueReminders(ctx, user.ID)
			if err != nil {
				h.logger.ErrorContext(ctx, "Due reminders failed", log.FieldError, err, log.FieldUserID, user.ID)
			}
			state.Reminders = reminders
		}

		ctx = context.WithValue(ctx, StateContextKey, state)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SecurityHeaders sets conservative browser security headers on every response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "same-origin")
		next.ServeHTTP(w, r)
	})
}

// Healthz reports whether the database answers.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "Health check failed", log.FieldError, err)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionDuration.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// page is the value every template receives.
type page struct {
	Title string
	State *RequestState
	Data  any
}

var templateFuncs = template.FuncMap{
	"money": models.FormatAmount,
	"date": func(t time.Time) string {
		return t.UTC().Format("Jan 02, 2006")
	},
	"monthName": func(m int) string {
		return time.Month(m).String()
	},
	"categoryStyle": getCategoryStyle,
	"label":         categoryLabel,
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, viewName, title string, data any) {
	h.renderStatus(w, r, http.StatusOK, viewName, title, data)
}

func (h *Handlers) renderStatus(w http.ResponseWriter, r *http.Request, status int, viewName, title string, data any) {
	tmpl, err := template.New(viewName).Funcs(templateFuncs).ParseFS(h.templates, "base.html", viewName)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Template error", log.FieldError, err, log.FieldOperation, log.OpRender)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	target := "base.html"
	if isPartial(r) {
		target = "content"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, target, page{Title: title, State: GetStateFromContext(r), Data: data}); err != nil {
		h.logger.ErrorContext(r.Context(), "Template execution error", log.FieldError, err, log.FieldOperation, log.OpRender)
	}
}

// redirect sends the browser to path after a successful form post. HTMX
// requests get an HX-Location header instead of a 303.
func redirect(w http.ResponseWriter, r *http.Request, path string) {
	if isPartial(r) {
		w.Header().Set("HX-Location", `{"path":"`+path+`", "target":"#content"}`)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

func isPartial(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// userError maps a service error to a status code and a message fit for the
// page. ok is false for faults the user cannot fix.
func userError(err error) (status int, message string, ok bool) {
	switch {
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password", true
	case errors.Is(err, models.ErrInvalidDeadline):
		return http.StatusBadRequest, "The deadline must be in the future", true
	case errors.Is(err, models.ErrDescriptionRequired):
		return http.StatusBadRequest, "A description is required for custom entries", true
	case errors.Is(err, models.ErrInvalidPeriod):
		return http.StatusBadRequest, "Choose a month between January and December of a supported year", true
	case errors.Is(err, models.ErrInvalidAmount):
		return http.StatusBadRequest, "Enter a valid amount", true
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest, "Please check the form: " + strings.TrimPrefix(err.Error(), models.ErrInvalidInput.Error()+": "), true
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "Not found", true
	case errors.Is(err, models.ErrEmailTaken):
		return http.StatusConflict, "That email is already registered", true
	case errors.Is(err, models.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity, "Not enough available balance for that contribution", true
	}
	return http.StatusInternalServerError, "Something went wrong. Please try again.", false
}

// fail logs unexpected errors and answers with plain text; pages that can
// show errors inline use userError directly.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error, operation string) {
	status, msg, ok := userError(err)
	if !ok {
		h.logger.ErrorContext(r.Context(), "Request failed", log.FieldError, err, log.FieldOperation, operation)
	}
	http.Error(w, msg, status)
}

// parseAmount reads a whole amount in the smallest currency unit. Dot and
// comma group separators and a leading "$" are accepted.
func parseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("$", "", ".", "", ",", "", " ", "").Replace(s)
	if s == "" {
		return 0, models.ErrInvalidAmount
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, models.ErrInvalidAmount
	}
	return n, nil
}

// parseDate accepts a date input ("2006-01-02") or a datetime-local input.
// An empty value returns the zero time.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{"2006-01-02", "2006-01-02T15:04", "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, models.ErrInvalidInput
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, models.ErrNotFound
	}
	return id, nil
}

// tomorrow is the earliest date a goal deadline input may select.
func tomorrow() string {
	return time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
}
