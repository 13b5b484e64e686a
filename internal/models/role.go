package models

import "github.com/yasinhessnawi1/Natours_Backend/internal/constants"

// Role is the fixed set of user roles.
type Role string

const (
	RoleUser      Role = constants.RoleUser
	RoleGuide     Role = constants.RoleGuide
	RoleLeadGuide Role = constants.RoleLeadGuide
	RoleAdmin     Role = constants.RoleAdmin
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin:
		return true
	}
	return false
}

// RoleSet is a set of roles used by permission checks.
type RoleSet map[Role]struct{}

// NewRoleSet builds a set from roles.
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Contains reports whether r is in the set.
func (s RoleSet) Contains(r Role) bool {
	_, ok := s[r]
	return ok
}
