package handlers

import (
	"net/http"

	"savings-tracker/internal/models"
)

// NotificationsViewModel is the data passed to the notifications template.
type NotificationsViewModel struct {
	Notifications []models.Notification
}

// Notifications lists every reminder of the user, newest first.
func (h *Handlers) Notifications(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	list, err := h.notifications.List(r.Context(), user.ID)
	if err != nil {
		h.fail(w, r, err, "list_notifications")
		return
	}
	h.render(w, r, "notifications.html", "Notifications", NotificationsViewModel{Notifications: list})
}
