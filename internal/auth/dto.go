package auth

import (
	"strings"

	"github.com/frahmantamala/agency-dashboard/internal"
	"github.com/frahmantamala/agency-dashboard/internal/core/common/validation"
)

// LoginDTO is accepted as JSON or as a posted form.
type LoginDTO struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	AgencySlug string `json:"agency_slug"`
}

func (d *LoginDTO) Normalize() {
	d.Email = strings.TrimSpace(d.Email)
	d.AgencySlug = strings.TrimSpace(d.AgencySlug)
}

// Validate only checks shape. It never reveals anything about accounts.
func (d LoginDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("email", d.Email).Required().Email().MaxLength(255)
	v.Field("password", d.Password).Required().MaxLength(1024)
	v.Field("agency_slug", d.AgencySlug).Required().MaxLength(100)
	return v.Validate()
}

type UserResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	UserType string `json:"user_type"`
	ClientID *int64 `json:"client_id"`
}

type AgencyResponse struct {
	ID           int64  `json:"id"`
	Slug         string `json:"slug"`
	LogoURL      string `json:"logo_url"`
	PrimaryColor string `json:"primary_color"`
}

type SessionResponse struct {
	OK        bool           `json:"ok"`
	User      UserResponse   `json:"user"`
	Agency    AgencyResponse `json:"agency"`
	CSRFToken string         `json:"csrf_token"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}
