package reminder

import (
	"alcyxob/dojo-app/internal/domain"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/rs/zerolog"
)

// The two fixed lead times before a session's start at which reminders fire.
var leadsMinutes = []int{30, 10}

// A lead whose trigger instant is not strictly further out than this is too
// late to usefully schedule and is skipped.
const minHeadroom = 3 * time.Second

// Preferences exposes the persisted "free-session reminders" feature flag the
// scheduler consults before doing any work.
type Preferences interface {
	FreeSessionRemindersEnabled() bool
}

// PreferenceFunc adapts a plain bool-returning function to Preferences.
type PreferenceFunc func() bool

func (f PreferenceFunc) FreeSessionRemindersEnabled() bool { return f() }

// AlarmKey derives the deterministic integer alarm identity for one
// (sessionID, lead) pair. Re-deriving the key is all it takes to replace or
// cancel a schedule, and the fired notification reuses it so repeats for the
// same session and lead never stack.
func AlarmKey(sessionID string, leadMinutes int) int {
	h := fnv.New32a()
	fmt.Fprintf(h, "%s:%d", sessionID, leadMinutes)
	return int(int32(h.Sum32()))
}

// Scheduler derives one-shot reminders from a member's GOING commitment to a
// session. Per session the target states are none-scheduled or both leads
// scheduled; reminders are best-effort throughout, so alarm facility failures
// are logged and swallowed, never surfaced to the commitment write.
type Scheduler struct {
	alarms   AlarmScheduler
	registry PendingRegistry
	prefs    Preferences
	logger   zerolog.Logger
	now      func() time.Time
}

// NewScheduler creates a reminder scheduler.
func NewScheduler(alarms AlarmScheduler, registry PendingRegistry, prefs Preferences, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		alarms:   alarms,
		registry: registry,
		prefs:    prefs,
		logger:   logger.With().Str("component", "reminder").Logger(),
		now:      time.Now,
	}
}

// ScheduleForGoing schedules the session's reminders. No-op unless the
// reminders preference is enabled. Each lead is checked independently: a
// session 15 minutes out gets only the 10-minute reminder. The session id is
// recorded in the pending registry before scheduling so CancelAll can reverse
// everything later.
func (s *Scheduler) ScheduleForGoing(session *domain.Session) {
	if session == nil || !s.prefs.FreeSessionRemindersEnabled() {
		return
	}

	now := s.now()
	for _, lead := range leadsMinutes {
		triggerAt := time.UnixMilli(session.StartsAt - int64(lead)*60000)
		if !triggerAt.After(now.Add(minHeadroom)) {
			continue
		}

		if err := s.registry.Add(session.ID); err != nil {
			s.logger.Debug().Err(err).Str("sessionId", session.ID).Msg("pending registry add failed")
		}

		payload := Reminder{
			SessionID:   session.ID,
			Title:       session.Title,
			Branch:      session.Branch,
			GroupKey:    session.GroupKey,
			StartsAt:    session.StartsAt,
			LeadMinutes: lead,
		}
		if err := s.alarms.Schedule(AlarmKey(session.ID, lead), triggerAt, payload); err != nil {
			// Best-effort: a denied or failed schedule drops silently.
			s.logger.Debug().Err(err).
				Str("sessionId", session.ID).
				Int("leadMinutes", lead).
				Msg("alarm schedule failed")
		}
	}
}

// CancelForSession cancels both lead-time alarms of the session by
// reconstructing their keys. Safe to call when nothing is scheduled.
func (s *Scheduler) CancelForSession(sessionID string) {
	for _, lead := range leadsMinutes {
		s.alarms.Cancel(AlarmKey(sessionID, lead))
	}
	if err := s.registry.Remove(sessionID); err != nil {
		s.logger.Debug().Err(err).Str("sessionId", sessionID).Msg("pending registry remove failed")
	}
}

// CancelAll cancels every schedule this device created, then clears the
// pending registry. Only local state is touched; schedules made by other
// devices are unknown here and stay put.
func (s *Scheduler) CancelAll() {
	ids, err := s.registry.All()
	if err != nil {
		s.logger.Warn().Err(err).Msg("pending registry read failed; cancel-all skipped")
		return
	}
	for _, id := range ids {
		for _, lead := range leadsMinutes {
			s.alarms.Cancel(AlarmKey(id, lead))
		}
	}
	if err := s.registry.Clear(); err != nil {
		s.logger.Warn().Err(err).Msg("pending registry clear failed")
	}
}
