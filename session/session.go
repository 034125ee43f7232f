package session

import "strings"

// Role is a coarse authorization tag assigned by the backend. It gates
// write affordances in the UI; the server enforces it independently.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// User is the profile record returned by the auth endpoints.
type User struct {
	ID        int64  `json:"id,omitempty"`
	FirstName string `json:"firstname,omitempty"`
	LastName  string `json:"lastname,omitempty"`
	Email     string `json:"email,omitempty"`
	Role      Role   `json:"role,omitempty"`
}

// IsZero reports whether the profile carries no identity at all.
func (u User) IsZero() bool {
	return u.ID == 0 && u.Email == ""
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Session is the in-memory representation of the current authenticated
// actor: an opaque bearer token plus the resolved user profile.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Consistent reports whether the session holds both a token and a
// resolved user. A token without a user (or vice versa) must be treated
// as anonymous and cleared by whoever loads it.
func (s *Session) Consistent() bool {
	if s == nil {
		return false
	}
	return s.Token != "" && !s.User.IsZero()
}
