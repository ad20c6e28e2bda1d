package domain

import "testing"

func TestParseParticipantStateKnownValues(t *testing.T) {
	cases := map[string]ParticipantState{
		"INVITED": StateInvited,
		"GOING":   StateGoing,
		"ON_WAY":  StateOnWay,
		"ARRIVED": StateArrived,
		"CANT":    StateCant,
	}
	for raw, want := range cases {
		if got := ParseParticipantState(raw); got != want {
			t.Errorf("ParseParticipantState(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestParseParticipantStateDefaultsToInvited(t *testing.T) {
	for _, raw := range []string{"", "NOT_A_REAL_STATE", "going", "Arrived "} {
		if got := ParseParticipantState(raw); got != StateInvited {
			t.Errorf("ParseParticipantState(%q) = %q, want INVITED", raw, got)
		}
	}
}

func TestKnownParticipantState(t *testing.T) {
	for _, raw := range []string{"INVITED", "GOING", "ON_WAY", "ARRIVED", "CANT"} {
		if !KnownParticipantState(raw) {
			t.Errorf("KnownParticipantState(%q) = false", raw)
		}
	}
	for _, raw := range []string{"", "MAYBE_LATER", "going", "ARRIVED "} {
		if KnownParticipantState(raw) {
			t.Errorf("KnownParticipantState(%q) = true", raw)
		}
	}
}

func TestParticipantStateOrdering(t *testing.T) {
	ordered := []ParticipantState{StateInvited, StateGoing, StateOnWay, StateArrived, StateCant}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].Order() >= ordered[i].Order() {
			t.Fatalf("expected %s < %s in canonical order", ordered[i-1], ordered[i])
		}
	}
	if ParticipantState("BOGUS").Order() != StateInvited.Order() {
		t.Errorf("unknown state should sort like INVITED")
	}
}

func TestCountStatesBuckets(t *testing.T) {
	participants := []Participant{
		{UID: "a", State: StateGoing},
		{UID: "b", State: StateGoing},
		{UID: "c", State: StateOnWay},
		{UID: "d", State: StateArrived},
		{UID: "e", State: StateCant},
		{UID: "f", State: StateInvited}, // counts toward nothing
	}

	counts := CountStates(participants)
	want := StateCounts{Going: 2, OnWay: 1, Arrived: 1, Cant: 1}
	if counts != want {
		t.Errorf("CountStates = %+v, want %+v", counts, want)
	}
}

func TestCountStatesEmpty(t *testing.T) {
	if counts := CountStates(nil); counts != (StateCounts{}) {
		t.Errorf("CountStates(nil) = %+v, want zero counts", counts)
	}
}
