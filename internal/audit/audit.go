// Package audit appends security-relevant events to the audit_log table.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/frahmantamala/agency-dashboard/internal"
	auditDatamodel "github.com/frahmantamala/agency-dashboard/internal/core/datamodel/audit"
	"github.com/frahmantamala/agency-dashboard/internal/metrics"
)

const (
	ActionLoginSuccess      = "auth.login.success"
	ActionLoginFailed       = "auth.login.failed"
	ActionLogout            = "auth.logout"
	ActionAuthRequired      = "auth.required"
	ActionAccessDenied      = "access.denied"
	ActionCSRFFailed        = "csrf.failed"
	ActionCronAuthFailed    = "cron.auth_failed"
	ActionClientGranted     = "client.access.granted"
	ActionClientRevoked     = "client.access.revoked"
	ActionCredentialUpdated = "integration.credential.updated"
)

// PlatformAgencyID marks events that happen before any tenant is known.
const PlatformAgencyID int64 = 0

type Entry struct {
	AgencyID int64
	UserID   *int64
	Action   string
	Context  map[string]any
	IP       string
}

// RepositoryAPI is append-only on purpose: audit rows are never updated or
// deleted by the application.
type RepositoryAPI interface {
	Create(ctx context.Context, entry *auditDatamodel.AuditLog) error
}

// Recorder is the interface consumers depend on.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Record writes the entry synchronously. A failed write is logged and
// counted but never surfaced to the caller.
func (s *Service) Record(ctx context.Context, entry Entry) {
	payload := entry.Context
	if payload == nil {
		payload = map[string]any{}
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("audit: context not serializable", "action", entry.Action, "error", err)
		encoded = []byte("{}")
	}

	row := &auditDatamodel.AuditLog{
		AgencyID:  entry.AgencyID,
		UserID:    entry.UserID,
		Action:    entry.Action,
		Context:   encoded,
		IP:        entry.IP,
		CreatedAt: s.now(),
	}

	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()

	if err := s.repo.Create(ctx, row); err != nil {
		metrics.AuditWriteFailures.Inc()
		s.logger.Error("audit: failed to persist entry",
			"action", entry.Action,
			"agency_id", entry.AgencyID,
			"user_id", entry.UserID,
			"ip", entry.IP,
			"context", string(encoded),
			"error", err,
		)
	}
}

// UserID is a small helper for the many call sites holding a plain id.
func UserID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}
