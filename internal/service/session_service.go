package service

import (
	"alcyxob/dojo-app/internal/domain"
	"alcyxob/dojo-app/internal/repository"
	"alcyxob/dojo-app/internal/storage"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// --- Error Definitions ---
var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrTitleRequired     = errors.New("session title is required")
	ErrStartTimeRequired = errors.New("session start time is required")
	ErrScopeRequired     = errors.New("branch and group key are required")
	ErrUIDRequired       = errors.New("member uid is required")
)

// Participant deletes run in batches safely below the backend's presumed 500
// per-batch mutation cap.
const participantDeleteBatchSize = 450

// CreateSessionInput carries everything needed to open a new free session.
type CreateSessionInput struct {
	Branch        string
	GroupKey      string
	Title         string
	LocationName  string
	Lat           *float64
	Lng           *float64
	StartsAt      int64 // epoch millis
	CreatedByUID  string
	CreatedByName string // may be blank; resolved against the member directory
}

// ReminderPlanner is the slice of the reminder scheduler this service drives:
// schedules follow a member's own GOING commitment and are torn down on any
// transition away from it. Satisfied by reminder.Scheduler.
type ReminderPlanner interface {
	ScheduleForGoing(session *domain.Session)
	CancelForSession(sessionID string)
}

// SessionService coordinates free training sessions for a (branch, group)
// scoped membership: creation, lifecycle, and per-member commitment state
// with derived aggregate counters.
type SessionService interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*domain.Session, error)
	GetSession(ctx context.Context, branch, groupKey, sessionID string) (*domain.Session, error)
	// ListUpcoming returns the OPEN sessions starting at or after now,
	// ascending by start time.
	ListUpcoming(ctx context.Context, branch, groupKey string) ([]domain.Session, error)
	// SetParticipantState records a member's commitment and recomputes the
	// session's aggregate counters from the full participant set.
	SetParticipantState(ctx context.Context, branch, groupKey, sessionID, uid, name string, state domain.ParticipantState) error
	CloseSession(ctx context.Context, branch, groupKey, sessionID string) error
	DeleteFreeSession(ctx context.Context, branch, groupKey, sessionID string) error
}

// sessionService implements the SessionService interface.
type sessionService struct {
	sessions     repository.SessionRepository
	participants repository.ParticipantRepository
	members      repository.MemberRepository
	archiver     storage.SessionArchiver // optional; archives attendance before delete
	reminders    ReminderPlanner         // optional; nil disables reminder planning
	logger       zerolog.Logger
	now          func() time.Time

	mu             sync.Mutex
	reminderOwners map[string]string // sessionID -> uid whose GOING backs the schedule
}

// NewSessionService creates a new instance of sessionService. The archiver
// and reminder planner may be nil; both are best-effort side paths.
func NewSessionService(
	sessions repository.SessionRepository,
	participants repository.ParticipantRepository,
	members repository.MemberRepository,
	archiver storage.SessionArchiver,
	reminders ReminderPlanner,
	logger zerolog.Logger,
) SessionService {
	return &sessionService{
		sessions:       sessions,
		participants:   participants,
		members:        members,
		archiver:       archiver,
		reminders:      reminders,
		logger:         logger.With().Str("component", "session_service").Logger(),
		now:            time.Now,
		reminderOwners: make(map[string]string),
	}
}

// CreateSession opens a new session and immediately registers its creator as
// a GOING participant; a session always starts with its creator committed.
func (s *sessionService) CreateSession(ctx context.Context, input CreateSessionInput) (*domain.Session, error) {
	if input.Branch == "" || input.GroupKey == "" {
		return nil, ErrScopeRequired
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}
	if input.StartsAt == 0 {
		return nil, ErrStartTimeRequired
	}
	if input.CreatedByUID == "" {
		return nil, ErrUIDRequired
	}

	creatorName := s.resolveMemberName(ctx, input.CreatedByUID, input.CreatedByName)

	session := &domain.Session{
		ID:            uuid.NewString(),
		Branch:        input.Branch,
		GroupKey:      input.GroupKey,
		Title:         strings.TrimSpace(input.Title),
		LocationName:  strings.TrimSpace(input.LocationName),
		Lat:           input.Lat,
		Lng:           input.Lng,
		StartsAt:      input.StartsAt,
		CreatedAt:     s.now().UnixMilli(),
		CreatedByUID:  input.CreatedByUID,
		CreatedByName: creatorName,
		Status:        domain.SessionOpen,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	// Not rolled back on failure: the session then exists with zero counted
	// participants until the next successful participant write recomputes.
	if err := s.SetParticipantState(ctx, session.Branch, session.GroupKey, session.ID, session.CreatedByUID, creatorName, domain.StateGoing); err != nil {
		s.logger.Warn().Err(err).
			Str("sessionId", session.ID).
			Msg("session created but creator participant write failed")
		return session, nil
	}
	session.Going = 1

	return session, nil
}

// GetSession retrieves one session.
func (s *sessionService) GetSession(ctx context.Context, branch, groupKey, sessionID string) (*domain.Session, error) {
	session, err := s.sessions.GetByID(ctx, branch, groupKey, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

// ListUpcoming returns the group's OPEN sessions from now on, ascending by
// start time. The store query ranges on startsAt only; the status filter is
// applied here (see repository.SessionRepository.ListFrom).
func (s *sessionService) ListUpcoming(ctx context.Context, branch, groupKey string) ([]domain.Session, error) {
	nowMillis := s.now().UnixMilli()
	sessions, err := s.sessions.ListFrom(ctx, branch, groupKey, nowMillis)
	if err != nil {
		return nil, err
	}
	return domain.FilterUpcoming(sessions, nowMillis), nil
}

// SetParticipantState upserts the member's record, then recomputes the four
// counters from the entire current participant set and writes them back.
//
// The recompute deliberately runs without a cross-document transaction:
// every writer re-derives the counts from whatever superset of writes it
// observes and the last completed recompute wins. Two overlapping recomputes
// can leave the counters briefly stale, never negative or corrupted, and the
// next write heals them.
func (s *sessionService) SetParticipantState(ctx context.Context, branch, groupKey, sessionID, uid, name string, state domain.ParticipantState) error {
	if uid == "" {
		return ErrUIDRequired
	}

	session, err := s.GetSession(ctx, branch, groupKey, sessionID)
	if err != nil {
		return err
	}

	participant := domain.Participant{
		UID:       uid,
		Name:      strings.TrimSpace(name),
		State:     state,
		UpdatedAt: s.now().UnixMilli(),
	}
	if err := s.participants.Upsert(ctx, branch, groupKey, sessionID, participant); err != nil {
		return fmt.Errorf("upsert participant: %w", err)
	}

	all, err := s.participants.ListBySession(ctx, branch, groupKey, sessionID)
	if err != nil {
		return fmt.Errorf("read participants for recompute: %w", err)
	}

	if err := s.sessions.UpdateCounts(ctx, branch, groupKey, sessionID, domain.CountStates(all)); err != nil {
		return fmt.Errorf("write session counters: %w", err)
	}

	s.planReminders(session, uid, state)
	return nil
}

// CloseSession marks the session CLOSED. Closing an already-closed session
// succeeds without effect; there is no reopening.
func (s *sessionService) CloseSession(ctx context.Context, branch, groupKey, sessionID string) error {
	err := s.sessions.Close(ctx, branch, groupKey, sessionID, s.now().UnixMilli())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}

	s.dropReminders(sessionID)
	return nil
}

// DeleteFreeSession removes the session and all of its participant records.
// Participants go first, in bounded batches, so a failed run can simply be
// retried: deleting against an already-empty participant set is a no-op and
// the session record falls last.
func (s *sessionService) DeleteFreeSession(ctx context.Context, branch, groupKey, sessionID string) error {
	session, err := s.GetSession(ctx, branch, groupKey, sessionID)
	if err != nil {
		return err
	}

	s.archiveBeforeDelete(ctx, session)

	for {
		deleted, err := s.participants.DeleteBatch(ctx, branch, groupKey, sessionID, participantDeleteBatchSize)
		if err != nil {
			return fmt.Errorf("delete participant batch: %w", err)
		}
		if deleted == 0 {
			break
		}
	}

	if err := s.sessions.Delete(ctx, branch, groupKey, sessionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("delete session: %w", err)
	}

	s.dropReminders(sessionID)
	return nil
}

// resolveMemberName picks the creator display name: the caller-supplied value
// if non-blank, otherwise the member directory's best name for the uid,
// otherwise a generic placeholder. Never returns blank.
func (s *sessionService) resolveMemberName(ctx context.Context, uid, supplied string) string {
	if trimmed := strings.TrimSpace(supplied); trimmed != "" {
		return trimmed
	}

	member, err := s.members.GetByUID(ctx, uid)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Debug().Err(err).Str("uid", uid).Msg("member directory lookup failed")
		}
		return domain.FallbackMemberName
	}

	if name := member.BestDisplayName(); name != "" {
		return name
	}
	return domain.FallbackMemberName
}

// planReminders follows the member's own commitment: a GOING write schedules
// the session's reminders and records that member as their owner; only a
// later write by that same member away from GOING tears them down. Other
// members' state changes leave a standing schedule untouched. Best-effort
// only.
func (s *sessionService) planReminders(session *domain.Session, uid string, state domain.ParticipantState) {
	if s.reminders == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if state == domain.StateGoing {
		s.reminderOwners[session.ID] = uid
		s.reminders.ScheduleForGoing(session)
		return
	}
	if s.reminderOwners[session.ID] != uid {
		return
	}
	delete(s.reminderOwners, session.ID)
	s.reminders.CancelForSession(session.ID)
}

// dropReminders unconditionally cancels a session's reminders. Used when the
// session itself goes away (close, delete), regardless of who scheduled them.
func (s *sessionService) dropReminders(sessionID string) {
	if s.reminders == nil {
		return
	}
	s.mu.Lock()
	delete(s.reminderOwners, sessionID)
	s.mu.Unlock()
	s.reminders.CancelForSession(sessionID)
}

// archiveBeforeDelete snapshots the session with its full participant set as
// an attendance record. Archive failure never blocks the delete.
func (s *sessionService) archiveBeforeDelete(ctx context.Context, session *domain.Session) {
	if s.archiver == nil {
		return
	}

	participants, err := s.participants.ListBySession(ctx, session.Branch, session.GroupKey, session.ID)
	if err != nil {
		s.logger.Warn().Err(err).Str("sessionId", session.ID).Msg("skipping archive: participant read failed")
		return
	}
	if err := s.archiver.ArchiveSession(ctx, session, participants); err != nil {
		s.logger.Warn().Err(err).Str("sessionId", session.ID).Msg("session archive failed")
	}
}
