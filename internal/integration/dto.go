package integration

import (
	"strings"
	"time"

	"github.com/frahmantamala/agency-dashboard/internal"
	"github.com/frahmantamala/agency-dashboard/internal/core/common/validation"
)

type CredentialDTO struct {
	Credential string `json:"credential"`
}

func (d *CredentialDTO) Normalize() {
	d.Credential = strings.TrimSpace(d.Credential)
}

func (d CredentialDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("credential", d.Credential).Required().MaxLength(4096)
	return v.Validate()
}

type IntegrationResponse struct {
	ID        int64     `json:"id"`
	ClientID  int64     `json:"client_id"`
	Provider  string    `json:"provider"`
	Hint      string    `json:"hint"`
	UpdatedAt time.Time `json:"updated_at"`
}

type IntegrationsResponse struct {
	OK           bool                  `json:"ok"`
	Integrations []IntegrationResponse `json:"integrations"`
}

type IntegrationDetailResponse struct {
	OK          bool                `json:"ok"`
	Integration IntegrationResponse `json:"integration"`
}
