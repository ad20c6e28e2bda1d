package reminder

import (
	"sync"
	"time"
)

// Reminder is the payload carried by a scheduled alarm: enough to render a
// "starts in N minutes" notification and deep-link back into the session.
type Reminder struct {
	SessionID   string `json:"sessionId"`
	Title       string `json:"title"`
	Branch      string `json:"branch"`
	GroupKey    string `json:"groupKey"`
	StartsAt    int64  `json:"startsAt"` // epoch millis
	LeadMinutes int    `json:"leadMinutes"`
}

// AlarmScheduler is the boundary to the OS-level one-shot timer facility:
// wake-capable alarms at an absolute instant, identified by an integer key.
// Scheduling an already-used key replaces the prior alarm; cancelling an
// unknown key is a no-op.
type AlarmScheduler interface {
	Schedule(key int, at time.Time, reminder Reminder) error
	Cancel(key int)
}

// TimerAlarms is the in-process AlarmScheduler used when the service hosts
// its own reminder delivery. Each alarm is one time.Timer; firing hands the
// payload to the configured callback and forgets the key.
type TimerAlarms struct {
	mu     sync.Mutex
	timers map[int]*time.Timer
	fire   func(Reminder)
}

// NewTimerAlarms creates a timer-backed alarm facility. fire runs on the
// timer goroutine when an alarm goes off; it may be nil.
func NewTimerAlarms(fire func(Reminder)) *TimerAlarms {
	return &TimerAlarms{
		timers: make(map[int]*time.Timer),
		fire:   fire,
	}
}

// Schedule arms a one-shot timer for the key, replacing any existing one.
func (a *TimerAlarms) Schedule(key int, at time.Time, reminder Reminder) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if existing, ok := a.timers[key]; ok {
		existing.Stop()
	}

	delay := time.Until(at)
	if delay < 0 {
		delay = 0
	}
	a.timers[key] = time.AfterFunc(delay, func() {
		a.mu.Lock()
		delete(a.timers, key)
		fire := a.fire
		a.mu.Unlock()
		if fire != nil {
			fire(reminder)
		}
	})
	return nil
}

// Cancel stops and forgets the alarm for the key, if any.
func (a *TimerAlarms) Cancel(key int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if existing, ok := a.timers[key]; ok {
		existing.Stop()
		delete(a.timers, key)
	}
}

// Stop cancels every armed alarm. Used on shutdown.
func (a *TimerAlarms) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for key, timer := range a.timers {
		timer.Stop()
		delete(a.timers, key)
	}
}

// Pending reports how many alarms are currently armed.
func (a *TimerAlarms) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.timers)
}
