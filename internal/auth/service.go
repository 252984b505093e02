package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/frahmantamala/agency-dashboard/internal"
	"github.com/frahmantamala/agency-dashboard/internal/core/identity"
	"github.com/frahmantamala/agency-dashboard/internal/session"
	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	repo       RepositoryAPI
	logger     *slog.Logger
	bcryptCost int
	now        func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

func NewService(repo RepositoryAPI, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		logger:     logger,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// LoginAttempt checks the credentials against the agency and returns a
// populated session that has not been started yet. Failures are always a
// *LoginError; anything else is an infrastructure error.
func (s *Service) LoginAttempt(ctx context.Context, dto LoginDTO) (*session.Session, error) {
	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()

	agency, err := s.repo.FindActiveAgencyBySlug(ctx, dto.AgencySlug)
	if err != nil {
		return nil, fmt.Errorf("find agency: %w", err)
	}
	if agency == nil {
		s.burnComparison(dto.Password)
		return nil, &LoginError{Reason: ErrInvalidAgency}
	}

	user, err := s.repo.FindActiveUser(ctx, agency.ID, dto.Email)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		s.burnComparison(dto.Password)
		return nil, &LoginError{Reason: ErrInvalidCredentials, AgencyID: agency.ID}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(dto.Password)); err != nil {
		return nil, &LoginError{Reason: ErrInvalidCredentials, AgencyID: agency.ID, UserID: user.ID}
	}

	role, ok := identity.ParseRole(user.Role)
	if !ok {
		s.logger.Error("login: user has a role outside the known set", "user_id", user.ID, "role", user.Role)
		return nil, &LoginError{Reason: ErrMisconfiguredAccount, AgencyID: agency.ID, UserID: user.ID}
	}
	userType, ok := identity.ParseUserType(user.UserType)
	if !ok {
		s.logger.Error("login: user has an unknown user type", "user_id", user.ID, "user_type", user.UserType)
		return nil, &LoginError{Reason: ErrMisconfiguredAccount, AgencyID: agency.ID, UserID: user.ID}
	}

	var clientID *int64
	if userType.IsClient() {
		if user.ClientID == nil || *user.ClientID <= 0 {
			return nil, &LoginError{Reason: ErrMisconfiguredAccount, AgencyID: agency.ID, UserID: user.ID}
		}
		active, err := s.repo.IsActiveClient(ctx, agency.ID, *user.ClientID)
		if err != nil {
			return nil, fmt.Errorf("check client: %w", err)
		}
		if !active {
			return nil, &LoginError{Reason: ErrInactiveClient, AgencyID: agency.ID, UserID: user.ID}
		}
		id := *user.ClientID
		clientID = &id
	}

	sess := &session.Session{
		UserID:             user.ID,
		AgencyID:           agency.ID,
		Role:               role,
		UserType:           userType,
		ClientID:           clientID,
		Name:               user.Name,
		Email:              user.Email,
		AgencySlug:         agency.Slug,
		AgencyLogoURL:      deref(agency.LogoURL),
		AgencyPrimaryColor: deref(agency.PrimaryColor),
	}
	if sess.AgencyPrimaryColor == "" {
		sess.AgencyPrimaryColor = session.DefaultPrimaryColor
	}

	if err := s.repo.TouchLastLogin(ctx, user.ID, s.now()); err != nil {
		s.logger.Warn("login: failed to record last login", "user_id", user.ID, "error", err)
	}

	return sess, nil
}

// HashPassword creates a bcrypt hash of the password
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// burnComparison spends the same bcrypt work as a real check so timing does
// not reveal whether the agency or account exists.
func (s *Service) burnComparison(password string) {
	s.dummyOnce.Do(func() {
		seed := make([]byte, 32)
		_, _ = rand.Read(seed)
		hash, err := bcrypt.GenerateFromPassword(seed, s.bcryptCost)
		if err != nil {
			s.logger.Error("login: failed to build dummy hash", "error", err)
			return
		}
		s.dummyHash = hash
	})
	if s.dummyHash != nil {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
