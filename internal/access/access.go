// Package access decides what an authenticated session may do: role
// capabilities and tenant-scoped client visibility.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/frahmantamala/agency-dashboard/internal/core/identity"
	"github.com/frahmantamala/agency-dashboard/internal/session"
)

type Capability string

const (
	ManageUsers        Capability = "manage_users"
	ManageIntegrations Capability = "manage_integrations"
	ViewAllClients     Capability = "view_all_clients"
	ManageShareLinks   Capability = "manage_share_links"
)

var capabilityRoles = map[Capability]map[identity.Role]struct{}{
	ManageUsers:        {identity.RoleOwner: {}, identity.RoleAdmin: {}},
	ManageIntegrations: {identity.RoleOwner: {}, identity.RoleAdmin: {}},
	ViewAllClients:     {identity.RoleOwner: {}, identity.RoleAdmin: {}, identity.RoleManager: {}},
	ManageShareLinks:   {identity.RoleOwner: {}, identity.RoleAdmin: {}, identity.RoleManager: {}},
}

// HasCapability is total: unknown roles or capabilities are simply false.
func HasCapability(role identity.Role, capability Capability) bool {
	roles, ok := capabilityRoles[capability]
	if !ok {
		return false
	}
	_, ok = roles[role]
	return ok
}

const (
	ReasonClientUser        = "client_user"
	ReasonMissingCapability = "missing_capability"
	ReasonClientOutOfScope  = "client_out_of_scope"
	ReasonUnauthenticated   = "unauthenticated"
)

var ErrAccessDenied = errors.New("access denied")

// DeniedError tells the transport which check failed. Callers match it
// with errors.Is(err, ErrAccessDenied).
type DeniedError struct {
	Reason     string
	Capability Capability
	ClientID   int64
}

func (e *DeniedError) Error() string {
	switch {
	case e.Capability != "":
		return fmt.Sprintf("access denied: %s (%s)", e.Reason, e.Capability)
	case e.ClientID != 0:
		return fmt.Sprintf("access denied: %s (client %d)", e.Reason, e.ClientID)
	default:
		return "access denied: " + e.Reason
	}
}

func (e *DeniedError) Unwrap() error {
	return ErrAccessDenied
}

// DenyClientUsers refuses client-type sessions regardless of role.
func DenyClientUsers(s *session.Session) error {
	if s.IsClientUser() {
		return &DeniedError{Reason: ReasonClientUser}
	}
	return nil
}

// RequireCapability refuses sessions whose role lacks capability.
func RequireCapability(s *session.Session, capability Capability) error {
	if !HasCapability(s.Role, capability) {
		return &DeniedError{Reason: ReasonMissingCapability, Capability: capability}
	}
	return nil
}

// ActingUser is the subset of the users row needed for client checks.
type ActingUser struct {
	UserType identity.UserType
	ClientID *int64
}

type RepositoryAPI interface {
	// FindActiveUser returns nil, nil when no active user matches.
	FindActiveUser(ctx context.Context, agencyID, userID int64) (*ActingUser, error)
	IsActiveClient(ctx context.Context, agencyID, clientID int64) (bool, error)
	// HasGrant requires the grant row and an active client of the agency.
	HasGrant(ctx context.Context, agencyID, userID, clientID int64) (bool, error)
}
