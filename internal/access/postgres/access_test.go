package postgres_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/frahmantamala/agency-dashboard/internal/access"
	accessPostgres "github.com/frahmantamala/agency-dashboard/internal/access/postgres"
	"github.com/frahmantamala/agency-dashboard/internal/core/identity"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestAccessPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Access Postgres Suite")
}

var _ = Describe("AccessRepository", func() {
	var (
		mock sqlmock.Sqlmock
		repo access.RepositoryAPI
		ctx  context.Context
	)

	BeforeEach(func() {
		rawDB, m, err := sqlmock.New()
		Expect(err).NotTo(HaveOccurred())
		mock = m
		repo = accessPostgres.NewAccessRepository(sqlx.NewDb(rawDB, "pgx"))
		ctx = context.Background()
	})

	AfterEach(func() {
		Expect(mock.ExpectationsWereMet()).To(Succeed())
	})

	Describe("FindActiveUser", func() {
		It("scopes the lookup by user and agency", func() {
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT user_type, client_id FROM users WHERE id = $1 AND agency_id = $2 AND is_active = TRUE`)).
				WithArgs(int64(5), int64(2)).
				WillReturnRows(sqlmock.NewRows([]string{"user_type", "client_id"}).AddRow("client", int64(40)))

			u, err := repo.FindActiveUser(ctx, 2, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.UserType).To(Equal(identity.UserTypeClient))
			Expect(*u.ClientID).To(Equal(int64(40)))
		})

		It("maps NULL client ids to nil", func() {
			mock.ExpectQuery(`SELECT user_type, client_id FROM users`).
				WillReturnRows(sqlmock.NewRows([]string{"user_type", "client_id"}).AddRow("agency", nil))

			u, err := repo.FindActiveUser(ctx, 2, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.ClientID).To(BeNil())
		})

		It("trims stored user types", func() {
			mock.ExpectQuery(`SELECT user_type, client_id FROM users`).
				WillReturnRows(sqlmock.NewRows([]string{"user_type", "client_id"}).AddRow("client ", int64(40)))

			u, err := repo.FindActiveUser(ctx, 2, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.UserType).To(Equal(identity.UserTypeClient))
		})

		DescribeTable("leaves unrecognised user types empty",
			func(stored string) {
				mock.ExpectQuery(`SELECT user_type, client_id FROM users`).
					WillReturnRows(sqlmock.NewRows([]string{"user_type", "client_id"}).AddRow(stored, int64(40)))

				u, err := repo.FindActiveUser(ctx, 2, 5)
				Expect(err).NotTo(HaveOccurred())
				Expect(u.UserType).To(BeEmpty())
			},
			Entry("blank", ""),
			Entry("wrong case", "Client"),
			Entry("unknown", "partner"),
		)

		It("returns nil when nothing matches", func() {
			mock.ExpectQuery(`SELECT user_type, client_id FROM users`).
				WillReturnRows(sqlmock.NewRows([]string{"user_type", "client_id"}))

			u, err := repo.FindActiveUser(ctx, 2, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(u).To(BeNil())
		})
	})

	It("checks client status and agency", func() {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM clients WHERE id = $1 AND agency_id = $2 AND status = 'active')`)).
			WithArgs(int64(40), int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		ok, err := repo.IsActiveClient(ctx, 2, 40)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
	})

	It("joins grants with clients in one query", func() {
		mock.ExpectQuery(`FROM client_user_access cua\s+INNER JOIN clients c ON c.id = cua.client_id`).
			WithArgs(int64(5), int64(40), int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		ok, err := repo.HasGrant(ctx, 2, 5, 40)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("propagates database errors", func() {
		mock.ExpectQuery(`SELECT EXISTS`).WillReturnError(errors.New("timeout"))

		_, err := repo.IsActiveClient(ctx, 2, 40)
		Expect(err).To(HaveOccurred())
	})
})
