// Package identity holds the closed sets of roles and user types a session
// can carry.
package identity

import "strings"

type Role string

const (
	RoleOwner   Role = "owner"
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleMember  Role = "member"
)

var roles = map[Role]struct{}{
	RoleOwner:   {},
	RoleAdmin:   {},
	RoleManager: {},
	RoleMember:  {},
}

// legacyPrefix is carried by role values written before roles were scoped
// to the agency implicitly, e.g. "agency_owner".
const legacyPrefix = "agency_"

// ParseRole maps a stored role string onto the enum. Unknown values are
// rejected rather than defaulted.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.TrimPrefix(strings.TrimSpace(s), legacyPrefix))
	if _, ok := roles[r]; !ok {
		return "", false
	}
	return r, true
}

func (r Role) Valid() bool {
	_, ok := roles[r]
	return ok
}

func (r Role) String() string {
	return string(r)
}

type UserType string

const (
	UserTypeAgency UserType = "agency"
	UserTypeClient UserType = "client"
)

func ParseUserType(s string) (UserType, bool) {
	switch UserType(strings.TrimSpace(s)) {
	case UserTypeAgency:
		return UserTypeAgency, true
	case UserTypeClient:
		return UserTypeClient, true
	}
	return "", false
}

func (t UserType) IsClient() bool {
	return t == UserTypeClient
}

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)
