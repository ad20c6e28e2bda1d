// Package live maintains push-based projections of the session store: the
// upcoming-sessions list of a group and the participant list of one session.
//
// Every feed emits complete snapshots, never deltas: each store change
// notification triggers a fresh read of the full view, so a consumer can
// always replace its state wholesale. A transient read failure degrades to an
// empty snapshot while the feed keeps listening for recovery; the underlying
// store subscription is released exactly once, when the consumer's context is
// cancelled.
package live

import (
	"alcyxob/dojo-app/internal/domain"
	"alcyxob/dojo-app/internal/repository"
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Service produces live feeds over the session repositories.
type Service struct {
	sessions     repository.SessionRepository
	participants repository.ParticipantRepository
	logger       zerolog.Logger
	now          func() time.Time
}

// NewService creates a live feed service.
func NewService(
	sessions repository.SessionRepository,
	participants repository.ParticipantRepository,
	logger zerolog.Logger,
) *Service {
	return &Service{
		sessions:     sessions,
		participants: participants,
		logger:       logger.With().Str("component", "live").Logger(),
		now:          time.Now,
	}
}

// UpcomingSessions streams snapshots of the group's OPEN sessions starting at
// or after the time of each emission, ascending by start time. The first
// snapshot is emitted immediately; the channel closes when ctx is cancelled.
func (s *Service) UpcomingSessions(ctx context.Context, branch, groupKey string) (<-chan []domain.Session, error) {
	ticks, err := s.sessions.Watch(ctx, branch, groupKey)
	if err != nil {
		return nil, err
	}

	out := make(chan []domain.Session, 1)
	go pump(ctx, ticks, out, func() []domain.Session {
		nowMillis := s.now().UnixMilli()
		sessions, err := s.sessions.ListFrom(ctx, branch, groupKey, nowMillis)
		if err != nil {
			// Degrade to an empty view and keep listening.
			s.logger.Debug().Err(err).Str("groupKey", groupKey).Msg("upcoming snapshot read failed")
			return []domain.Session{}
		}
		return domain.FilterUpcoming(sessions, nowMillis)
	})
	return out, nil
}

// SessionParticipants streams snapshots of one session's participants, most
// recently changed first, with blank-name records dropped. The first snapshot
// is emitted immediately; the channel closes when ctx is cancelled.
func (s *Service) SessionParticipants(ctx context.Context, branch, groupKey, sessionID string) (<-chan []domain.Participant, error) {
	ticks, err := s.participants.Watch(ctx, branch, groupKey, sessionID)
	if err != nil {
		return nil, err
	}

	out := make(chan []domain.Participant, 1)
	go pump(ctx, ticks, out, func() []domain.Participant {
		participants, err := s.participants.ListBySession(ctx, branch, groupKey, sessionID)
		if err != nil {
			s.logger.Debug().Err(err).Str("sessionId", sessionID).Msg("participant snapshot read failed")
			return []domain.Participant{}
		}
		return domain.OrderParticipantsForDisplay(participants)
	})
	return out, nil
}

// pump emits one initial snapshot, then one fresh snapshot per tick, until
// ctx is cancelled or the tick channel closes. Closing out is the feed's
// teardown signal to its consumer.
func pump[T any](ctx context.Context, ticks <-chan struct{}, out chan<- []T, snapshot func() []T) {
	defer close(out)

	deliver := func() bool {
		select {
		case out <- snapshot():
			return true
		case <-ctx.Done():
			return false
		}
	}

	if !deliver() {
		return
	}
	for {
		select {
		case _, ok := <-ticks:
			if !ok {
				return
			}
			if !deliver() {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
