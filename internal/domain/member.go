package domain

import "strings"

// FallbackMemberName is used when no profile name field resolves for a uid.
const FallbackMemberName = "Group member"

// Member is the slice of a member profile this subsystem reads: the uid and
// the name fields the directory may carry. Profiles written by older app
// versions populate different fields, hence the spread.
type Member struct {
	UID         string `bson:"uid" json:"uid"`
	DisplayName string `bson:"displayName,omitempty" json:"displayName,omitempty"`
	FullName    string `bson:"fullName,omitempty" json:"fullName,omitempty"`
	Name        string `bson:"name,omitempty" json:"name,omitempty"`
	Nickname    string `bson:"nickname,omitempty" json:"nickname,omitempty"`
}

// BestDisplayName probes the known name fields in priority order and returns
// the first non-blank one, or "" if none is set.
func (m *Member) BestDisplayName() string {
	for _, candidate := range []string{m.DisplayName, m.FullName, m.Name, m.Nickname} {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
