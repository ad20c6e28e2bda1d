package storage

import (
	"alcyxob/dojo-app/internal/domain"
	"context"
)

// SessionArchiver defines the interface for persisting an attendance record
// of a session before it is removed from the live store.
type SessionArchiver interface {
	// ArchiveSession writes the session together with its full participant
	// set to the archive backend.
	ArchiveSession(ctx context.Context, session *domain.Session, participants []domain.Participant) error
}

// ArchivedSession is the JSON document an archiver stores.
type ArchivedSession struct {
	Session      *domain.Session      `json:"session"`
	Participants []domain.Participant `json:"participants"`
	ArchivedAt   int64                `json:"archivedAt"` // epoch millis
}
