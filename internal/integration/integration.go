// Package integration stores third-party credentials for clients. Secrets
// are sealed with the cryptobox before they reach the database and are only
// ever returned as a masked hint.
package integration

import (
	"errors"
	"regexp"
	"time"
	"unicode/utf8"

	integrationDatamodel "github.com/frahmantamala/agency-dashboard/internal/core/datamodel/integration"
)

const maskPrefix = "••••"

var providerPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

var ErrInvalidProvider = errors.New("invalid provider")

type Integration struct {
	ID        int64
	AgencyID  int64
	ClientID  int64
	Provider  string
	Hint      string
	UpdatedAt time.Time
}

func (i *Integration) ToResponse() IntegrationResponse {
	return IntegrationResponse{
		ID:        i.ID,
		ClientID:  i.ClientID,
		Provider:  i.Provider,
		Hint:      i.Hint,
		UpdatedAt: i.UpdatedAt,
	}
}

func fromDataModel(row *integrationDatamodel.Integration, hint string) *Integration {
	return &Integration{
		ID:        row.ID,
		AgencyID:  row.AgencyID,
		ClientID:  row.ClientID,
		Provider:  row.Provider,
		Hint:      hint,
		UpdatedAt: row.UpdatedAt,
	}
}

// Mask keeps the last four characters of a secret. Secrets of four
// characters or fewer are fully hidden.
func Mask(secret string) string {
	n := utf8.RuneCountInString(secret)
	if n <= 4 {
		return maskPrefix
	}
	runes := []rune(secret)
	return maskPrefix + string(runes[n-4:])
}

func ValidProvider(provider string) bool {
	return len(provider) <= 64 && providerPattern.MatchString(provider)
}
