package user

import (
	"errors"
	"time"

	userDatamodel "github.com/frahmantamala/agency-dashboard/internal/core/datamodel/user"
	"github.com/frahmantamala/agency-dashboard/internal/core/identity"
)

// User is the profile view of an account. The password hash never leaves
// the repository layer.
type User struct {
	ID          int64             `json:"id"`
	AgencyID    int64             `json:"agency_id"`
	Email       string            `json:"email"`
	Name        string            `json:"name"`
	Role        identity.Role     `json:"role"`
	UserType    identity.UserType `json:"user_type"`
	ClientID    *int64            `json:"client_id"`
	IsActive    bool              `json:"is_active"`
	LastLoginAt *time.Time        `json:"last_login_at"`
	CreatedAt   time.Time         `json:"created_at"`
}

var ErrNotFound = errors.New("user not found")

func (u *User) IsClientUser() bool {
	return u.UserType.IsClient()
}

func FromDataModel(u *userDatamodel.User) *User {
	role, _ := identity.ParseRole(u.Role)
	userType, _ := identity.ParseUserType(u.UserType)
	return &User{
		ID:          u.ID,
		AgencyID:    u.AgencyID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        role,
		UserType:    userType,
		ClientID:    u.ClientID,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

type ProfileResponse struct {
	OK   bool  `json:"ok"`
	User *User `json:"user"`
}
