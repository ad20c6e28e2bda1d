package domain

// ParticipantState is a member's commitment toward one free session.
type ParticipantState string

// Define constants for the commitment states
const (
	StateInvited ParticipantState = "INVITED"
	StateGoing   ParticipantState = "GOING"
	StateOnWay   ParticipantState = "ON_WAY"
	StateArrived ParticipantState = "ARRIVED"
	StateCant    ParticipantState = "CANT"
)

// stateOrder fixes the default sort/tie-break order of the states.
var stateOrder = map[ParticipantState]int{
	StateInvited: 0,
	StateGoing:   1,
	StateOnWay:   2,
	StateArrived: 3,
	StateCant:    4,
}

// Order returns the position of the state in the canonical ordering
// (INVITED < GOING < ON_WAY < ARRIVED < CANT). Unknown states sort first,
// like INVITED.
func (s ParticipantState) Order() int {
	return stateOrder[s]
}

// KnownParticipantState reports whether raw names one of the defined states.
// Write boundaries use it to reject bad input outright; reads instead fall
// back through ParseParticipantState.
func KnownParticipantState(raw string) bool {
	_, ok := stateOrder[ParticipantState(raw)]
	return ok
}

// ParseParticipantState maps a persisted state string onto the enum.
// Anything unrecognized resolves to StateInvited so that schema drift in the
// store never fails a read.
func ParseParticipantState(raw string) ParticipantState {
	switch ParticipantState(raw) {
	case StateGoing, StateOnWay, StateArrived, StateCant, StateInvited:
		return ParticipantState(raw)
	default:
		return StateInvited
	}
}

// Participant is one member's commitment record for one session.
// The record is owned by its session; uid is the sub-collection key, so a
// member has at most one record per session. Name is snapshotted at write
// time, not live-linked to the member profile.
type Participant struct {
	UID       string           `bson:"uid" json:"uid"`
	Name      string           `bson:"name" json:"name"`
	State     ParticipantState `bson:"state" json:"state"`
	UpdatedAt int64            `bson:"updatedAt" json:"updatedAt"` // epoch millis, set on every write
}

// StateCounts are the four denormalized per-state buckets stored on a
// session. They are derived from the full participant set, never authored
// directly; INVITED contributes to none of them.
type StateCounts struct {
	Going   int `bson:"goingCount" json:"goingCount"`
	OnWay   int `bson:"onWayCount" json:"onWayCount"`
	Arrived int `bson:"arrivedCount" json:"arrivedCount"`
	Cant    int `bson:"cantCount" json:"cantCount"`
}

// CountStates classifies every participant's current state into the four
// buckets.
func CountStates(participants []Participant) StateCounts {
	var counts StateCounts
	for _, p := range participants {
		switch p.State {
		case StateGoing:
			counts.Going++
		case StateOnWay:
			counts.OnWay++
		case StateArrived:
			counts.Arrived++
		case StateCant:
			counts.Cant++
		}
	}
	return counts
}
