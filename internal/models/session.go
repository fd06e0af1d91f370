package models

// Role is the normalized marketplace role of the current user.
type Role string

const (
	RoleCandidate Role = "candidate"
	RoleRecruiter Role = "recruiter"
	RoleUnknown   Role = "unknown"
)

// Session is the single normalized view of authentication state. All
// consumers read this shape instead of re-deriving role and auth status
// from raw provider metadata.
type Session struct {
	Authenticated bool
	UserID        string
	Role          Role
}
