package notify

import (
	"strings"
	"testing"

	"alcyxob/dojo-app/internal/reminder"
)

func TestBuildUsesAlarmKeyAsID(t *testing.T) {
	r := reminder.Reminder{SessionID: "sess-1", LeadMinutes: 30}
	n := Build(r)
	if n.ID != reminder.AlarmKey("sess-1", 30) {
		t.Errorf("ID = %d, want the deterministic alarm key %d", n.ID, reminder.AlarmKey("sess-1", 30))
	}
}

func TestBuildBodyAndDeepLink(t *testing.T) {
	r := reminder.Reminder{
		SessionID:   "sess-1",
		Title:       "Evening randori",
		Branch:      "osaka",
		GroupKey:    "adults-judo",
		StartsAt:    1_700_000_000_000,
		LeadMinutes: 10,
	}

	n := Build(r)
	if n.Title != "Evening randori" {
		t.Errorf("Title = %q", n.Title)
	}
	if !strings.Contains(n.Body, "Evening randori starts in 10 minutes") {
		t.Errorf("Body = %q, want the lead spelled out", n.Body)
	}
	if n.DeepLink != "dojoapp://branches/osaka/groups/adults-judo/free_sessions/sess-1" {
		t.Errorf("DeepLink = %q", n.DeepLink)
	}
}

func TestBuildBlankTitleFallback(t *testing.T) {
	n := Build(reminder.Reminder{SessionID: "sess-1", LeadMinutes: 30})
	if n.Title != "Free training session" {
		t.Errorf("Title = %q, want the generic fallback", n.Title)
	}
	if !strings.HasPrefix(n.Body, "Free training session starts in 30 minutes") {
		t.Errorf("Body = %q, fallback title should carry into the body", n.Body)
	}
}
