package client

import (
	"github.com/frahmantamala/agency-dashboard/internal"
	"github.com/frahmantamala/agency-dashboard/internal/core/common/validation"
)

type ClientResponse struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type ClientsResponse struct {
	OK      bool             `json:"ok"`
	Clients []ClientResponse `json:"clients"`
}

type ClientDetailResponse struct {
	OK     bool           `json:"ok"`
	Client ClientResponse `json:"client"`
}

type GrantDTO struct {
	UserID int64 `json:"user_id"`
}

func (d GrantDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("user_id", d.UserID).Required().MinInt(1)
	return v.Validate()
}

type GrantResponse struct {
	OK       bool  `json:"ok"`
	ClientID int64 `json:"client_id"`
	UserID   int64 `json:"user_id"`
}
