package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"savings-tracker/internal/auth"
	"savings-tracker/internal/log"
	"savings-tracker/internal/models"
	"savings-tracker/internal/storage"
)

// LoginViewModel holds data for the login page.
type LoginViewModel struct {
	Email  string
	Error  string
	Notice string
}

// RegisterViewModel holds data for the registration page.
type RegisterViewModel struct {
	Name         string
	Email        string
	AccountType  models.AccountType
	AccountTypes []models.AccountType
	Error        string
}

// AccountViewModel holds data for the account page.
type AccountViewModel struct {
	User   *models.User
	Error  string
	Notice string
}

// LoginForm renders the login page.
func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	if h.hasValidSession(r) {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	vm := LoginViewModel{}
	if r.URL.Query().Get("registered") == "1" {
		vm.Notice = "Account created. You can log in now."
	}
	h.render(w, r, "login.html", "Log in", vm)
}

// Login handles the login form submission.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		h.renderStatus(w, r, http.StatusBadRequest, "login.html", "Log in", LoginViewModel{Error: "Invalid form submission"})
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	if email == "" || password == "" {
		h.renderStatus(w, r, http.StatusBadRequest, "login.html", "Log in",
			LoginViewModel{Email: email, Error: "Email and password are required"})
		return
	}

	user, err := h.accounts.Authenticate(ctx, email, password)
	if err != nil {
		status, msg, ok := userError(err)
		if !ok {
			h.logger.ErrorContext(ctx, "Authentication failed", log.FieldError, err, log.FieldOperation, log.OpLogin)
		}
		h.renderStatus(w, r, status, "login.html", "Log in", LoginViewModel{Email: email, Error: msg})
		return
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to generate session token", log.FieldError, err)
		h.renderStatus(w, r, http.StatusInternalServerError, "login.html", "Log in",
			LoginViewModel{Email: email, Error: "An error occurred. Please try again."})
		return
	}

	if err := h.db.CreateSession(ctx, token, user.ID, time.Now().Add(h.sessionDuration), true); err != nil {
		h.logger.ErrorContext(ctx, "Failed to create session", log.FieldError, err, log.FieldUserID, user.ID)
		h.renderStatus(w, r, http.StatusInternalServerError, "login.html", "Log in",
			LoginViewModel{Email: email, Error: "An error occurred. Please try again."})
		return
	}

	h.setSessionCookie(w, token)
	h.logger.InfoContext(ctx, "User logged in", log.FieldUserID, user.ID, log.FieldOperation, log.OpLogin)
	http.Redirect(w, r, "/", http.StatusFound)
}

// RegisterForm renders the registration page.
func (h *Handlers) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if h.hasValidSession(r) {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	h.render(w, r, "register.html", "Create account", RegisterViewModel{
		AccountType:  models.AccountIndependent,
		AccountTypes: []models.AccountType{models.AccountIndependent, models.AccountDependent},
	})
}

// Register handles the registration form submission.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	vm := RegisterViewModel{
		AccountTypes: []models.AccountType{models.AccountIndependent, models.AccountDependent},
	}
	if err := r.ParseForm(); err != nil {
		vm.Error = "Invalid form submission"
		h.renderStatus(w, r, http.StatusBadRequest, "register.html", "Create account", vm)
		return
	}

	in := models.RegisterInput{
		Name:        r.FormValue("name"),
		Email:       r.FormValue("email"),
		AccountType: models.AccountType(r.FormValue("account_type")),
		Password:    r.FormValue("password"),
	}
	vm.Name, vm.Email, vm.AccountType = in.Name, in.Email, in.AccountType

	if in.Password != r.FormValue("password_confirm") {
		vm.Error = "Passwords do not match"
		h.renderStatus(w, r, http.StatusBadRequest, "register.html", "Create account", vm)
		return
	}

	if _, err := h.accounts.Register(r.Context(), in); err != nil {
		status, msg, ok := userError(err)
		if !ok {
			h.logger.ErrorContext(r.Context(), "Registration failed", log.FieldError, err, log.FieldOperation, log.OpRegister)
		}
		vm.Error = msg
		h.renderStatus(w, r, status, "register.html", "Create account", vm)
		return
	}

	http.Redirect(w, r, "/login?registered=1", http.StatusSeeOther)
}

// Logout handles user logout.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if err := h.db.DeleteSession(r.Context(), cookie.Value); err != nil {
			h.logger.ErrorContext(r.Context(), "Failed to delete session", log.FieldError, err)
		}
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

// Account renders the profile page with the password form.
func (h *Handlers) Account(w http.ResponseWriter, r *http.Request) {
	vm := AccountViewModel{User: GetUserFromContext(r)}
	if r.URL.Query().Get("updated") == "1" {
		vm.Notice = "Password updated."
	}
	h.render(w, r, "account.html", "Account", vm)
}

// ChangePassword rotates the current user's password. Other sessions of the
// user are signed out.
func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := GetUserFromContext(r)
	vm := AccountViewModel{User: user}
	if err := r.ParseForm(); err != nil {
		vm.Error = "Invalid form submission"
		h.renderStatus(w, r, http.StatusBadRequest, "account.html", "Account", vm)
		return
	}

	next := r.FormValue("new_password")
	if next != r.FormValue("new_password_confirm") {
		vm.Error = "Passwords do not match"
		h.renderStatus(w, r, http.StatusBadRequest, "account.html", "Account", vm)
		return
	}

	if err := h.accounts.RotatePassword(ctx, user.ID, r.FormValue("current_password"), next); err != nil {
		status, msg, ok := userError(err)
		if !ok {
			h.logger.ErrorContext(ctx, "Password rotation failed", log.FieldError, err, log.FieldUserID, user.ID)
		}
		if errors.Is(err, models.ErrInvalidCredentials) {
			status, msg = http.StatusBadRequest, "Current password is incorrect"
		}
		vm.Error = msg
		h.renderStatus(w, r, status, "account.html", "Account", vm)
		return
	}

	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if err := h.keepOnlySession(r, user.ID, cookie.Value); err != nil {
			h.logger.WarnContext(ctx, "Failed to reset sessions", log.FieldError, err, log.FieldUserID, user.ID)
		}
	}
	redirect(w, r, "/account?updated=1")
}

// keepOnlySession drops every session of the user and re-creates the
// current one so the browser stays logged in.
func (h *Handlers) keepOnlySession(r *http.Request, userID int64, token string) error {
	ctx := r.Context()
	return h.db.WithTx(ctx, func(tx *storage.DB) error {
		if err := tx.DeleteUserSessions(ctx, userID); err != nil {
			return err
		}
		return tx.CreateSession(ctx, token, userID, time.Now().Add(h.sessionDuration), false)
	})
}

func (h *Handlers) hasValidSession(r *http.Request) bool {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}
	_, err = h.db.ValidateSession(r.Context(), cookie.Value)
	return err == nil
}
