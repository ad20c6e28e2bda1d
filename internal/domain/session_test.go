package domain

import "testing"

const testNow = int64(1_700_000_000_000)

func session(id string, startsAt int64, status SessionStatus) Session {
	return Session{ID: id, Branch: "b1", GroupKey: "g1", Title: id, StartsAt: startsAt, Status: status}
}

func TestFilterUpcomingKeepsOpenFutureSessionsAscending(t *testing.T) {
	sessions := []Session{
		session("past-open", testNow-1000, SessionOpen),
		session("past-closed", testNow-1000, SessionClosed),
		session("now-open", testNow, SessionOpen),
		session("now-closed", testNow, SessionClosed),
		session("later-open", testNow+120_000, SessionOpen),
		session("soon-open", testNow+60_000, SessionOpen),
		session("future-closed", testNow+60_000, SessionClosed),
	}

	got := FilterUpcoming(sessions, testNow)

	wantIDs := []string{"now-open", "soon-open", "later-open"}
	if len(got) != len(wantIDs) {
		t.Fatalf("FilterUpcoming kept %d sessions, want %d: %+v", len(got), len(wantIDs), got)
	}
	for i, want := range wantIDs {
		if got[i].ID != want {
			t.Errorf("position %d: got %q, want %q", i, got[i].ID, want)
		}
	}
}

func TestFilterUpcomingEmptyInput(t *testing.T) {
	if got := FilterUpcoming(nil, testNow); len(got) != 0 {
		t.Errorf("expected empty result, got %+v", got)
	}
}

func TestOrderParticipantsForDisplay(t *testing.T) {
	participants := []Participant{
		{UID: "a", Name: "Anna", State: StateGoing, UpdatedAt: 100},
		{UID: "b", Name: "", State: StateGoing, UpdatedAt: 300}, // malformed, dropped
		{UID: "c", Name: "Chris", State: StateArrived, UpdatedAt: 200},
		{UID: "d", Name: "Dana", State: StateCant, UpdatedAt: 150},
	}

	got := OrderParticipantsForDisplay(participants)

	wantUIDs := []string{"c", "d", "a"} // most recently changed first
	if len(got) != len(wantUIDs) {
		t.Fatalf("kept %d participants, want %d", len(got), len(wantUIDs))
	}
	for i, want := range wantUIDs {
		if got[i].UID != want {
			t.Errorf("position %d: got %q, want %q", i, got[i].UID, want)
		}
	}
}

func TestOrderParticipantsForDisplayTieBreak(t *testing.T) {
	participants := []Participant{
		{UID: "a", Name: "Anna", State: StateGoing, UpdatedAt: 100},
		{UID: "b", Name: "Botan", State: StateArrived, UpdatedAt: 100},
		{UID: "c", Name: "Chris", State: StateOnWay, UpdatedAt: 100},
	}

	got := OrderParticipantsForDisplay(participants)

	wantUIDs := []string{"b", "c", "a"} // same instant: furthest-along commitment first
	for i, want := range wantUIDs {
		if got[i].UID != want {
			t.Errorf("position %d: got %q, want %q", i, got[i].UID, want)
		}
	}
}

func TestMemberBestDisplayNamePriority(t *testing.T) {
	cases := []struct {
		name   string
		member Member
		want   string
	}{
		{"display name wins", Member{DisplayName: "Display", FullName: "Full", Name: "Plain"}, "Display"},
		{"falls through to full name", Member{DisplayName: "  ", FullName: "Full"}, "Full"},
		{"falls through to name", Member{Name: "Plain", Nickname: "Nick"}, "Plain"},
		{"nickname last", Member{Nickname: " Nick "}, "Nick"},
		{"nothing set", Member{}, ""},
	}
	for _, tc := range cases {
		if got := tc.member.BestDisplayName(); got != tc.want {
			t.Errorf("%s: BestDisplayName() = %q, want %q", tc.name, got, tc.want)
		}
	}
}
