package user_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	userDatamodel "github.com/frahmantamala/agency-dashboard/internal/core/datamodel/user"
	"github.com/frahmantamala/agency-dashboard/internal/core/identity"
	"github.com/frahmantamala/agency-dashboard/internal/session"
	"github.com/frahmantamala/agency-dashboard/internal/transport"
	"github.com/frahmantamala/agency-dashboard/internal/user"
	userPostgres "github.com/frahmantamala/agency-dashboard/internal/user/postgres"
	"github.com/frahmantamala/agency-dashboard/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestUser(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Suite")
}

var _ = Describe("Current user", func() {
	var (
		db      *gorm.DB
		handler *user.Handler
		stored  *userDatamodel.User
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate(&userDatamodel.User{})).To(Succeed())

		lastLogin := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		clientID := int64(42)
		stored = &userDatamodel.User{
			AgencyID:     1,
			Email:        "jo@client.test",
			Name:         "Jo",
			PasswordHash: "$2a$12$hash",
			Role:         "agency_member",
			UserType:     "client",
			ClientID:     &clientID,
			IsActive:     true,
			LastLoginAt:  &lastLogin,
		}
		Expect(db.Create(stored).Error).NotTo(HaveOccurred())

		lg := logger.Discard()
		svc := user.NewService(userPostgres.NewUserRepository(db), lg)
		handler = user.NewHandler(transport.NewBaseHandler(lg), svc)
	})

	request := func(sess *session.Session) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		req = req.WithContext(session.WithSession(context.Background(), sess))
		rec := httptest.NewRecorder()
		handler.GetCurrentUser(rec, req)
		return rec
	}

	It("returns the profile without the password hash", func() {
		rec := request(&session.Session{ID: "s", UserID: stored.ID, AgencyID: 1, Role: identity.RoleMember, UserType: identity.UserTypeClient})
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).NotTo(ContainSubstring("hash"))

		var resp user.ProfileResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.OK).To(BeTrue())
		Expect(resp.User.Email).To(Equal("jo@client.test"))
		Expect(resp.User.Role).To(Equal(identity.RoleMember))
		Expect(resp.User.IsClientUser()).To(BeTrue())
		Expect(*resp.User.ClientID).To(Equal(int64(42)))
		Expect(resp.User.LastLoginAt.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))).To(BeTrue())
	})

	It("does not resolve users of another agency", func() {
		rec := request(&session.Session{ID: "s", UserID: stored.ID, AgencyID: 2, Role: identity.RoleOwner, UserType: identity.UserTypeAgency})
		Expect(rec.Code).To(Equal(http.StatusNotFound))
		Expect(rec.Body.String()).To(MatchJSON(`{"ok": false, "error": "User not found."}`))
	})

	It("requires an authenticated session", func() {
		rec := request(&session.Session{})
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})
})
