package models

// Notice is an admin-authored announcement with a validity window.
//
// StartsAt and EndsAt keep the raw value entered in the admin form
// ("2006-01-02 15:04", "2006-01-02T15:04" or RFC 3339). They are parsed at
// read time so that a malformed value only disables the notice.
type Notice struct {
	ID              string   `json:"id"`
	Title           string   `json:"title" validate:"required,max=200"`
	Body            string   `json:"body" validate:"required"`
	StartsAt        string   `json:"startsAt" validate:"required"`
	EndsAt          string   `json:"endsAt" validate:"required"`
	Link            string   `json:"link,omitempty" validate:"omitempty,url"`
	ImageURL        string   `json:"imageUrl,omitempty"`
	TargetScreenIDs []string `json:"targetScreenIds,omitempty"`
}

// IsGlobal reports whether the notice targets every screen
func (n Notice) IsGlobal() bool {
	return len(n.TargetScreenIDs) == 0
}

// Targets reports whether the notice is shown on the given screen
func (n Notice) Targets(screenID string) bool {
	if n.IsGlobal() {
		return true
	}
	for _, id := range n.TargetScreenIDs {
		if id == screenID {
			return true
		}
	}
	return false
}
