package live

import (
	"alcyxob/dojo-app/internal/domain"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// scriptedRepo backs both repository interfaces with settable snapshots and a
// hand-driven tick channel.
type scriptedRepo struct {
	mu           sync.Mutex
	sessions     []domain.Session
	participants []domain.Participant
	readErr      error
	watchErr     error
	ticks        chan struct{}
}

func newScriptedRepo() *scriptedRepo {
	return &scriptedRepo{ticks: make(chan struct{}, 1)}
}

func (r *scriptedRepo) set(sessions []domain.Session, participants []domain.Participant, readErr error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = sessions
	r.participants = participants
	r.readErr = readErr
}

func (r *scriptedRepo) tick() { r.ticks <- struct{}{} }

// --- repository.SessionRepository ---

func (r *scriptedRepo) Create(context.Context, *domain.Session) error { return nil }

func (r *scriptedRepo) GetByID(context.Context, string, string, string) (*domain.Session, error) {
	return nil, errors.New("not used")
}

func (r *scriptedRepo) ListFrom(_ context.Context, _, _ string, _ int64) ([]domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readErr != nil {
		return nil, r.readErr
	}
	return append([]domain.Session(nil), r.sessions...), nil
}

func (r *scriptedRepo) UpdateCounts(context.Context, string, string, string, domain.StateCounts) error {
	return nil
}

func (r *scriptedRepo) Close(context.Context, string, string, string, int64) error { return nil }

func (r *scriptedRepo) Delete(context.Context, string, string, string) error { return nil }

func (r *scriptedRepo) Watch(context.Context, string, string) (<-chan struct{}, error) {
	if r.watchErr != nil {
		return nil, r.watchErr
	}
	return r.ticks, nil
}

// --- repository.ParticipantRepository ---

func (r *scriptedRepo) Upsert(context.Context, string, string, string, domain.Participant) error {
	return nil
}

func (r *scriptedRepo) ListBySession(context.Context, string, string, string) ([]domain.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readErr != nil {
		return nil, r.readErr
	}
	return append([]domain.Participant(nil), r.participants...), nil
}

func (r *scriptedRepo) DeleteBatch(context.Context, string, string, string, int) (int, error) {
	return 0, nil
}

const feedTimeout = 2 * time.Second

func receiveSessions(t *testing.T, feed <-chan []domain.Session) []domain.Session {
	t.Helper()
	select {
	case snapshot, ok := <-feed:
		if !ok {
			t.Fatal("feed closed unexpectedly")
		}
		return snapshot
	case <-time.After(feedTimeout):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func receiveParticipants(t *testing.T, feed <-chan []domain.Participant) []domain.Participant {
	t.Helper()
	select {
	case snapshot, ok := <-feed:
		if !ok {
			t.Fatal("feed closed unexpectedly")
		}
		return snapshot
	case <-time.After(feedTimeout):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func testService(repo *scriptedRepo, now int64) *Service {
	s := NewService(repo, participantRepoAdapter{repo}, zerolog.Nop())
	s.now = func() time.Time { return time.UnixMilli(now) }
	return s
}

// participantRepoAdapter maps the scripted repo onto the participant
// repository's Watch signature.
type participantRepoAdapter struct{ *scriptedRepo }

func (a participantRepoAdapter) Watch(context.Context, string, string, string) (<-chan struct{}, error) {
	if a.watchErr != nil {
		return nil, a.watchErr
	}
	return a.ticks, nil
}

func TestUpcomingSessionsEmitsInitialSnapshot(t *testing.T) {
	now := int64(1_700_000_000_000)
	repo := newScriptedRepo()
	repo.set([]domain.Session{
		{ID: "later", StartsAt: now + 7200_000, Status: domain.SessionOpen},
		{ID: "closed", StartsAt: now + 3600_000, Status: domain.SessionClosed},
		{ID: "soon", StartsAt: now + 1800_000, Status: domain.SessionOpen},
	}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed, err := testService(repo, now).UpcomingSessions(ctx, "osaka", "adults-judo")
	if err != nil {
		t.Fatalf("UpcomingSessions: %v", err)
	}

	snapshot := receiveSessions(t, feed)
	if len(snapshot) != 2 || snapshot[0].ID != "soon" || snapshot[1].ID != "later" {
		t.Errorf("initial snapshot = %+v, want [soon later]", snapshot)
	}
}

func TestUpcomingSessionsRefreshesOnTick(t *testing.T) {
	now := int64(1_700_000_000_000)
	repo := newScriptedRepo()
	repo.set([]domain.Session{{ID: "only", StartsAt: now + 60_000, Status: domain.SessionOpen}}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed, err := testService(repo, now).UpcomingSessions(ctx, "osaka", "adults-judo")
	if err != nil {
		t.Fatalf("UpcomingSessions: %v", err)
	}
	_ = receiveSessions(t, feed)

	repo.set([]domain.Session{
		{ID: "only", StartsAt: now + 60_000, Status: domain.SessionOpen},
		{ID: "new", StartsAt: now + 30_000, Status: domain.SessionOpen},
	}, nil, nil)
	repo.tick()

	snapshot := receiveSessions(t, feed)
	if len(snapshot) != 2 || snapshot[0].ID != "new" {
		t.Errorf("refreshed snapshot = %+v, want [new only]", snapshot)
	}
}

func TestUpcomingSessionsDegradesToEmptyOnReadFailure(t *testing.T) {
	now := int64(1_700_000_000_000)
	repo := newScriptedRepo()
	repo.set([]domain.Session{{ID: "only", StartsAt: now + 60_000, Status: domain.SessionOpen}}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed, err := testService(repo, now).UpcomingSessions(ctx, "osaka", "adults-judo")
	if err != nil {
		t.Fatalf("UpcomingSessions: %v", err)
	}
	_ = receiveSessions(t, feed)

	repo.set(nil, nil, errors.New("backend unavailable"))
	repo.tick()
	if snapshot := receiveSessions(t, feed); len(snapshot) != 0 {
		t.Errorf("read failure should emit an empty snapshot, got %+v", snapshot)
	}

	// Still listening: recovery produces data again.
	repo.set([]domain.Session{{ID: "back", StartsAt: now + 60_000, Status: domain.SessionOpen}}, nil, nil)
	repo.tick()
	if snapshot := receiveSessions(t, feed); len(snapshot) != 1 || snapshot[0].ID != "back" {
		t.Errorf("feed did not recover after transient failure: %+v", snapshot)
	}
}

func TestUpcomingSessionsClosesOnCancel(t *testing.T) {
	now := int64(1_700_000_000_000)
	repo := newScriptedRepo()

	ctx, cancel := context.WithCancel(context.Background())
	feed, err := testService(repo, now).UpcomingSessions(ctx, "osaka", "adults-judo")
	if err != nil {
		t.Fatalf("UpcomingSessions: %v", err)
	}
	_ = receiveSessions(t, feed)

	cancel()

	select {
	case _, ok := <-feed:
		if ok {
			// One in-flight snapshot may still arrive; the close must follow.
			select {
			case _, stillOpen := <-feed:
				if stillOpen {
					t.Error("feed kept emitting after cancellation")
				}
			case <-time.After(feedTimeout):
				t.Error("feed not closed after cancellation")
			}
		}
	case <-time.After(feedTimeout):
		t.Error("feed not closed after cancellation")
	}
}

func TestUpcomingSessionsWatchErrorSurfaces(t *testing.T) {
	repo := newScriptedRepo()
	repo.watchErr = errors.New("no change stream")

	_, err := testService(repo, 0).UpcomingSessions(context.Background(), "osaka", "adults-judo")
	if err == nil {
		t.Error("subscription setup failure must surface to the caller")
	}
}

func TestSessionParticipantsOrderingAndFiltering(t *testing.T) {
	repo := newScriptedRepo()
	repo.set(nil, []domain.Participant{
		{UID: "a", Name: "Anna", State: domain.StateGoing, UpdatedAt: 100},
		{UID: "ghost", Name: "", State: domain.StateGoing, UpdatedAt: 400},
		{UID: "c", Name: "Chris", State: domain.StateArrived, UpdatedAt: 300},
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed, err := testService(repo, 0).SessionParticipants(ctx, "osaka", "adults-judo", "sess-1")
	if err != nil {
		t.Fatalf("SessionParticipants: %v", err)
	}

	snapshot := receiveParticipants(t, feed)
	if len(snapshot) != 2 || snapshot[0].UID != "c" || snapshot[1].UID != "a" {
		t.Errorf("snapshot = %+v, want [c a] (blank name dropped, newest first)", snapshot)
	}
}

func TestSessionParticipantsEmptyOnReadFailure(t *testing.T) {
	repo := newScriptedRepo()
	repo.set(nil, nil, errors.New("backend unavailable"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed, err := testService(repo, 0).SessionParticipants(ctx, "osaka", "adults-judo", "sess-1")
	if err != nil {
		t.Fatalf("SessionParticipants: %v", err)
	}

	if snapshot := receiveParticipants(t, feed); len(snapshot) != 0 {
		t.Errorf("read failure should emit an empty snapshot, got %+v", snapshot)
	}
}
