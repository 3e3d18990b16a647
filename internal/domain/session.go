package domain

// Session is the authenticated identity derived from a stored token.
// A session exists if and only if a non-empty token is persisted for the
// browser context and has been hydrated by the session manager.
type Session struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Token    string `json:"-"`
}

// HasRole reports whether the session carries the given role.
func (s *Session) HasRole(role Role) bool {
	return s != nil && s.Role == role
}
