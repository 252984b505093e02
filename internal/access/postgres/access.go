package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/frahmantamala/agency-dashboard/internal/access"
	"github.com/frahmantamala/agency-dashboard/internal/core/identity"
	"github.com/jmoiron/sqlx"
)

type AccessRepository struct {
	db *sqlx.DB
}

func NewAccessRepository(db *sqlx.DB) access.RepositoryAPI {
	return &AccessRepository{db: db}
}

type actingUserRow struct {
	UserType string        `db:"user_type"`
	ClientID sql.NullInt64 `db:"client_id"`
}

func (r *AccessRepository) FindActiveUser(ctx context.Context, agencyID, userID int64) (*access.ActingUser, error) {
	var row actingUserRow
	err := r.db.GetContext(ctx, &row,
		`SELECT user_type, client_id FROM users WHERE id = $1 AND agency_id = $2 AND is_active = TRUE LIMIT 1`,
		userID, agencyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	// Unrecognised types are left empty so the caller denies.
	userType, _ := identity.ParseUserType(row.UserType)
	user := &access.ActingUser{UserType: userType}
	if row.ClientID.Valid {
		id := row.ClientID.Int64
		user.ClientID = &id
	}
	return user, nil
}

func (r *AccessRepository) IsActiveClient(ctx context.Context, agencyID, clientID int64) (bool, error) {
	var ok bool
	err := r.db.GetContext(ctx, &ok,
		`SELECT EXISTS (SELECT 1 FROM clients WHERE id = $1 AND agency_id = $2 AND status = 'active')`,
		clientID, agencyID)
	return ok, err
}

func (r *AccessRepository) HasGrant(ctx context.Context, agencyID, userID, clientID int64) (bool, error) {
	var ok bool
	err := r.db.GetContext(ctx, &ok, `
		SELECT EXISTS (
			SELECT 1
			FROM client_user_access cua
			INNER JOIN clients c ON c.id = cua.client_id
			WHERE cua.user_id = $1 AND cua.client_id = $2 AND c.agency_id = $3 AND c.status = 'active'
		)`,
		userID, clientID, agencyID)
	return ok, err
}
