package client

import (
	"time"

	clientDatamodel "github.com/frahmantamala/agency-dashboard/internal/core/datamodel/client"
	"github.com/frahmantamala/agency-dashboard/internal/core/identity"
)

type Client struct {
	ID        int64
	AgencyID  int64
	Name      string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Client) IsActive() bool {
	return c.Status == identity.StatusActive
}

func (c *Client) ToResponse() ClientResponse {
	return ClientResponse{
		ID:     c.ID,
		Name:   c.Name,
		Status: c.Status,
	}
}

func FromDataModel(c *clientDatamodel.Client) *Client {
	return &Client{
		ID:        c.ID,
		AgencyID:  c.AgencyID,
		Name:      c.Name,
		Status:    c.Status,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
