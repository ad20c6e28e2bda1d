// Package notify renders fired reminders into user-facing notifications and
// hands them to a delivery backend. Transport (push, local notification
// center) is outside this subsystem; the default backend just logs.
package notify

import (
	"alcyxob/dojo-app/internal/reminder"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Notification is one renderable reminder. ID reuses the deterministic
// (sessionId, lead) alarm key, so re-delivery for the same session and lead
// replaces the previous notification instead of stacking a new one.
type Notification struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	DeepLink string `json:"deepLink"`
}

// Notifier delivers rendered notifications.
type Notifier interface {
	Deliver(notification Notification)
}

// Build renders a reminder payload into a notification with a human-readable
// "starts in N minutes" message and a deep link back into the session view.
func Build(r reminder.Reminder) Notification {
	title := r.Title
	if title == "" {
		title = "Free training session"
	}

	starts := time.UnixMilli(r.StartsAt).Local()
	return Notification{
		ID:    reminder.AlarmKey(r.SessionID, r.LeadMinutes),
		Title: title,
		Body: fmt.Sprintf("%s starts in %d minutes (%s)",
			title, r.LeadMinutes, starts.Format("Mon, 2 Jan 15:04")),
		DeepLink: fmt.Sprintf("dojoapp://branches/%s/groups/%s/free_sessions/%s",
			r.Branch, r.GroupKey, r.SessionID),
	}
}

// LogNotifier is the default delivery backend: structured log output only.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "notify").Logger()}
}

// Deliver logs the notification.
func (n *LogNotifier) Deliver(notification Notification) {
	n.logger.Info().
		Int("id", notification.ID).
		Str("title", notification.Title).
		Str("deepLink", notification.DeepLink).
		Msg(notification.Body)
}
