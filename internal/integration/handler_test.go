package integration_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/frahmantamala/agency-dashboard/internal/audit"
	"github.com/frahmantamala/agency-dashboard/internal/core/identity"
	"github.com/frahmantamala/agency-dashboard/internal/cryptobox"
	"github.com/frahmantamala/agency-dashboard/internal/integration"
	integrationPostgres "github.com/frahmantamala/agency-dashboard/internal/integration/postgres"
	"github.com/frahmantamala/agency-dashboard/internal/session"
	"github.com/frahmantamala/agency-dashboard/internal/transport"
	"github.com/frahmantamala/agency-dashboard/pkg/logger"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type recordingAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *recordingAudit) Record(_ context.Context, e audit.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

var _ = Describe("Integration Handler", func() {
	var (
		recorder *recordingAudit
		router   chi.Router
	)

	BeforeEach(func() {
		box, err := cryptobox.New(testKey)
		Expect(err).NotTo(HaveOccurred())
		lg := logger.Discard()
		recorder = &recordingAudit{}
		svc := integration.NewService(integrationPostgres.NewIntegrationRepository(newDB()), box, lg)
		handler := integration.NewHandler(transport.NewBaseHandler(lg), svc, recorder)

		sess := &session.Session{ID: "sid", UserID: 7, AgencyID: 1, Role: identity.RoleAdmin, UserType: identity.UserTypeAgency}
		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), sess)))
			})
		})
		router.Get("/clients/{clientID}/integrations", handler.ListIntegrations)
		router.Put("/clients/{clientID}/integrations/{provider}", handler.PutCredential)
	})

	serve := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("stores a credential, audits without the secret and lists the hint", func() {
		rec := serve(http.MethodPut, "/clients/10/integrations/google_ads", `{"credential": "ya29.secret-9876"}`)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).NotTo(ContainSubstring("ya29.secret"))

		Expect(recorder.entries).To(HaveLen(1))
		entry := recorder.entries[0]
		Expect(entry.Action).To(Equal(audit.ActionCredentialUpdated))
		Expect(entry.Context).To(Equal(map[string]any{"client_id": int64(10), "provider": "google_ads"}))

		rec = serve(http.MethodGet, "/clients/10/integrations", "")
		Expect(rec.Code).To(Equal(http.StatusOK))

		var resp integration.IntegrationsResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.OK).To(BeTrue())
		Expect(resp.Integrations).To(HaveLen(1))
		Expect(resp.Integrations[0].Hint).To(Equal("••••9876"))
	})

	It("requires a credential", func() {
		rec := serve(http.MethodPut, "/clients/10/integrations/google_ads", `{"credential": "   "}`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(recorder.entries).To(BeEmpty())
	})

	It("rejects malformed providers", func() {
		rec := serve(http.MethodPut, "/clients/10/integrations/Google-Ads", `{"credential": "x"}`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(recorder.entries).To(BeEmpty())
	})
})
