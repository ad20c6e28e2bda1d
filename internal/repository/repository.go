package repository

import (
	"alcyxob/dojo-app/internal/domain" // Import our defined domain models
	"context"                          // Standard for request-scoped deadlines, cancellation signals, etc.
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// SessionRepository defines the interface for interacting with free-session
// records. Every method is scoped by (branch, groupKey), the partition key
// for all session data.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByID(ctx context.Context, branch, groupKey, sessionID string) (*domain.Session, error)
	// ListFrom returns sessions with startsAt >= fromMillis ordered ascending
	// by startsAt, regardless of status. The store filters on startsAt alone
	// so no compound (startsAt, status) index is required; callers apply the
	// OPEN filter via domain.FilterUpcoming.
	ListFrom(ctx context.Context, branch, groupKey string, fromMillis int64) ([]domain.Session, error)
	// UpdateCounts overwrites the four denormalized state counters.
	UpdateCounts(ctx context.Context, branch, groupKey, sessionID string, counts domain.StateCounts) error
	// Close transitions the session to CLOSED and stamps closedAt. Closing an
	// already-closed session is a no-op, not an error.
	Close(ctx context.Context, branch, groupKey, sessionID string, closedAtMillis int64) error
	Delete(ctx context.Context, branch, groupKey, sessionID string) error
	// Watch emits a tick on every change to the group's sessions until ctx is
	// cancelled, at which point the channel is closed. Ticks carry no data;
	// consumers re-read whatever snapshot they project.
	Watch(ctx context.Context, branch, groupKey string) (<-chan struct{}, error)
}

// ParticipantRepository defines the interface for interacting with the
// per-session participant records. A participant is keyed by uid within its
// session, so a member has at most one record per session.
type ParticipantRepository interface {
	Upsert(ctx context.Context, branch, groupKey, sessionID string, participant domain.Participant) error
	ListBySession(ctx context.Context, branch, groupKey, sessionID string) ([]domain.Participant, error)
	// DeleteBatch removes up to limit participant records of the session and
	// reports how many were removed. Callers loop until it returns zero; the
	// bound keeps each round under the backend's per-batch mutation cap.
	DeleteBatch(ctx context.Context, branch, groupKey, sessionID string, limit int) (int, error)
	Watch(ctx context.Context, branch, groupKey, sessionID string) (<-chan struct{}, error)
}

// MemberRepository defines the read-only member directory lookup used to
// backfill a blank creator name.
type MemberRepository interface {
	GetByUID(ctx context.Context, uid string) (*domain.Member, error)
}
