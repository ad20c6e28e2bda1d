package domain

import "sort"

// SessionStatus type for the session lifecycle
type SessionStatus string

const (
	SessionOpen   SessionStatus = "OPEN"
	SessionClosed SessionStatus = "CLOSED" // monotonic; no reopening
)

// Session is one ad-hoc training event within a (branch, group) scope.
// Branch and GroupKey together form the partition key for all session data;
// the field names are the wire contract with every client that reads the
// store directly.
type Session struct {
	ID            string        `bson:"sessionId" json:"sessionId"`
	Branch        string        `bson:"branch" json:"branch"`
	GroupKey      string        `bson:"groupKey" json:"groupKey"`
	Title         string        `bson:"title" json:"title"`
	LocationName  string        `bson:"locationName,omitempty" json:"locationName,omitempty"`
	Lat           *float64      `bson:"lat,omitempty" json:"lat,omitempty"`
	Lng           *float64      `bson:"lng,omitempty" json:"lng,omitempty"`
	StartsAt      int64         `bson:"startsAt" json:"startsAt"`   // epoch millis, required
	CreatedAt     int64         `bson:"createdAt" json:"createdAt"` // epoch millis, immutable after creation
	CreatedByUID  string        `bson:"createdByUid" json:"createdByUid"`
	CreatedByName string        `bson:"createdByName" json:"createdByName"` // resolved at creation, never blank
	Status        SessionStatus `bson:"status" json:"status"`
	ClosedAt      int64         `bson:"closedAt,omitempty" json:"closedAt,omitempty"`

	StateCounts `bson:",inline"`
}

// IsOpen reports whether the session still accepts participant changes in the
// upcoming view.
func (s *Session) IsOpen() bool {
	return s.Status == SessionOpen
}

// FilterUpcoming keeps the sessions with startsAt >= now that are still OPEN,
// ordered ascending by start time. The status filter runs here instead of in
// the store query so listing never needs a compound (startsAt, status) index;
// with a large volume of future sessions this degrades to scanning all of
// them.
func FilterUpcoming(sessions []Session, nowMillis int64) []Session {
	upcoming := make([]Session, 0, len(sessions))
	for _, s := range sessions {
		if s.IsOpen() && s.StartsAt >= nowMillis {
			upcoming = append(upcoming, s)
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].StartsAt < upcoming[j].StartsAt
	})
	return upcoming
}

// OrderParticipantsForDisplay drops records with a blank name (malformed or
// incomplete writes, filtered silently) and orders the rest most recently
// changed first. Records changed at the same instant are ordered by how far
// along their commitment is, furthest first.
func OrderParticipantsForDisplay(participants []Participant) []Participant {
	visible := make([]Participant, 0, len(participants))
	for _, p := range participants {
		if p.Name == "" {
			continue
		}
		visible = append(visible, p)
	}
	sort.SliceStable(visible, func(i, j int) bool {
		if visible[i].UpdatedAt != visible[j].UpdatedAt {
			return visible[i].UpdatedAt > visible[j].UpdatedAt
		}
		return visible[i].State.Order() > visible[j].State.Order()
	})
	return visible
}
