package domain

// Role is the coarse-grained permission class carried by a session.
// There is no hierarchy; neither role implies the other.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleCompany Role = "COMPANY"
)

// ParseRole maps a stored or wire value onto the closed enum.
func ParseRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleCompany:
		return RoleCompany, true
	default:
		return "", false
	}
}

// Valid reports whether r is a member of the closed enum.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}
