package api_test

import (
	"context"
	"testing"

	"github.com/frahmantamala/agency-dashboard/api"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestAPI(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "API Suite")
}

var _ = Describe("OpenAPI document", func() {
	It("validates", func() {
		doc, err := api.Load(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Info.Title).To(Equal("Agency Dashboard API"))
	})

	It("documents every mounted route", func() {
		doc, err := api.Load(context.Background())
		Expect(err).NotTo(HaveOccurred())

		for _, path := range []string{
			"/ping",
			"/health",
			"/auth/login",
			"/auth/session",
			"/auth/logout",
			"/users/me",
			"/clients",
			"/clients/{clientID}",
			"/clients/{clientID}/grants",
			"/clients/{clientID}/grants/{userID}",
			"/clients/{clientID}/integrations",
			"/clients/{clientID}/integrations/{provider}",
			"/cron/sessions/purge",
		} {
			Expect(doc.Paths.Find(path)).NotTo(BeNil(), path)
		}
	})

	It("uses the session cookie name the server sets", func() {
		doc, err := api.Load(context.Background())
		Expect(err).NotTo(HaveOccurred())
		scheme := doc.Components.SecuritySchemes["sessionCookie"]
		Expect(scheme).NotTo(BeNil())
		Expect(scheme.Value.Name).To(Equal("agency_dash_sess"))
	})
})
