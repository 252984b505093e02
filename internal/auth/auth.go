// Package auth verifies credentials and turns a successful login into a
// populated session.
package auth

import (
	"context"
	"errors"
	"time"

	agencyDatamodel "github.com/frahmantamala/agency-dashboard/internal/core/datamodel/agency"
	userDatamodel "github.com/frahmantamala/agency-dashboard/internal/core/datamodel/user"
)

var (
	ErrInvalidAgency        = errors.New("agency not found or inactive")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrMisconfiguredAccount = errors.New("account is misconfigured")
	ErrInactiveClient       = errors.New("client is inactive or belongs to another agency")
)

// GenericLoginMessage is the only text a caller ever sees for a failed
// login, whatever the cause.
const GenericLoginMessage = "Invalid login."

// LoginError carries the failure cause and whatever ids were known when the
// attempt failed. The ids are for auditing only.
type LoginError struct {
	Reason   error
	AgencyID int64
	UserID   int64
}

func (e *LoginError) Error() string {
	return GenericLoginMessage
}

func (e *LoginError) Unwrap() error {
	return e.Reason
}

// ReasonCode is the short label written to audit context and metrics.
func (e *LoginError) ReasonCode() string {
	switch {
	case errors.Is(e.Reason, ErrInvalidAgency):
		return "invalid_agency"
	case errors.Is(e.Reason, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(e.Reason, ErrMisconfiguredAccount):
		return "misconfigured_account"
	case errors.Is(e.Reason, ErrInactiveClient):
		return "inactive_client"
	default:
		return "unknown"
	}
}

type RepositoryAPI interface {
	// FindActiveAgencyBySlug returns nil, nil when no active agency matches.
	FindActiveAgencyBySlug(ctx context.Context, slug string) (*agencyDatamodel.Agency, error)
	// FindActiveUser returns nil, nil when no active user matches.
	FindActiveUser(ctx context.Context, agencyID int64, email string) (*userDatamodel.User, error)
	IsActiveClient(ctx context.Context, agencyID, clientID int64) (bool, error)
	TouchLastLogin(ctx context.Context, userID int64, at time.Time) error
}
