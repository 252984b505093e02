package integration_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/frahmantamala/agency-dashboard/internal"
	integrationDatamodel "github.com/frahmantamala/agency-dashboard/internal/core/datamodel/integration"
	"github.com/frahmantamala/agency-dashboard/internal/cryptobox"
	"github.com/frahmantamala/agency-dashboard/internal/integration"
	integrationPostgres "github.com/frahmantamala/agency-dashboard/internal/integration/postgres"
	"github.com/frahmantamala/agency-dashboard/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestIntegration(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Integration Suite")
}

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	Expect(err).NotTo(HaveOccurred())
	Expect(db.AutoMigrate(&integrationDatamodel.Integration{})).To(Succeed())
	return db
}

var _ = Describe("Mask", func() {
	It("keeps the last four characters", func() {
		Expect(integration.Mask("sk_live_abcd")).To(Equal("••••abcd"))
	})

	It("hides short secrets entirely", func() {
		Expect(integration.Mask("abcd")).To(Equal("••••"))
		Expect(integration.Mask("")).To(Equal("••••"))
	})
})

var _ = Describe("ValidProvider", func() {
	It("accepts lowercase identifiers", func() {
		Expect(integration.ValidProvider("google_ads")).To(BeTrue())
		Expect(integration.ValidProvider("ga4")).To(BeTrue())
	})

	It("rejects anything else", func() {
		Expect(integration.ValidProvider("")).To(BeFalse())
		Expect(integration.ValidProvider("Google")).To(BeFalse())
		Expect(integration.ValidProvider("meta-ads")).To(BeFalse())
		Expect(integration.ValidProvider(strings.Repeat("a", 65))).To(BeFalse())
	})
})

var _ = Describe("Integration Service", func() {
	var (
		db      *gorm.DB
		box     *cryptobox.Box
		service *integration.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		var err error
		db = newDB()
		box, err = cryptobox.New(testKey)
		Expect(err).NotTo(HaveOccurred())
		service = integration.NewService(integrationPostgres.NewIntegrationRepository(db), box, logger.Discard())
		ctx = context.Background()
	})

	It("stores only ciphertext and lists masked hints", func() {
		item, err := service.SetCredential(ctx, 1, 10, "google_ads", "token-123456")
		Expect(err).NotTo(HaveOccurred())
		Expect(item.Hint).To(Equal("••••3456"))

		var row integrationDatamodel.Integration
		Expect(db.First(&row).Error).NotTo(HaveOccurred())
		Expect(row.CredentialCiphertext).NotTo(ContainSubstring("token-123456"))
		plain, err := box.DecryptString(row.CredentialCiphertext)
		Expect(err).NotTo(HaveOccurred())
		Expect(plain).To(Equal("token-123456"))

		items, err := service.List(ctx, 1, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(HaveLen(1))
		Expect(items[0].Provider).To(Equal("google_ads"))
		Expect(items[0].Hint).To(Equal("••••3456"))
	})

	It("replaces the credential for the same provider", func() {
		_, err := service.SetCredential(ctx, 1, 10, "meta", "first-secret-aaaa")
		Expect(err).NotTo(HaveOccurred())
		_, err = service.SetCredential(ctx, 1, 10, "meta", "second-secret-bbbb")
		Expect(err).NotTo(HaveOccurred())

		var count int64
		Expect(db.Model(&integrationDatamodel.Integration{}).Count(&count).Error).NotTo(HaveOccurred())
		Expect(count).To(Equal(int64(1)))

		items, err := service.List(ctx, 1, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(items[0].Hint).To(Equal("••••bbbb"))
	})

	It("scopes listing to the agency", func() {
		_, err := service.SetCredential(ctx, 1, 10, "meta", "secret-value")
		Expect(err).NotTo(HaveOccurred())

		items, err := service.List(ctx, 2, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(BeEmpty())
	})

	It("rejects invalid providers before touching storage", func() {
		_, err := service.SetCredential(ctx, 1, 10, "Bad Provider", "secret")
		Expect(errors.Is(err, integration.ErrInvalidProvider)).To(BeTrue())

		var count int64
		Expect(db.Model(&integrationDatamodel.Integration{}).Count(&count).Error).NotTo(HaveOccurred())
		Expect(count).To(BeZero())
	})

	It("fails closed when a stored credential was tampered with", func() {
		_, err := service.SetCredential(ctx, 1, 10, "meta", "secret-value")
		Expect(err).NotTo(HaveOccurred())

		var row integrationDatamodel.Integration
		Expect(db.First(&row).Error).NotTo(HaveOccurred())
		tampered := []byte(row.CredentialCiphertext)
		if tampered[20] == 'A' {
			tampered[20] = 'B'
		} else {
			tampered[20] = 'A'
		}
		Expect(db.Model(&row).Update("credential_ciphertext", string(tampered)).Error).NotTo(HaveOccurred())

		items, err := service.List(ctx, 1, 10)
		Expect(items).To(BeNil())
		Expect(errors.Is(err, internal.ErrCredentialUnreadable)).To(BeTrue())
		Expect(errors.Is(err, cryptobox.ErrAuthenticationFailure)).To(BeTrue())
	})
})
