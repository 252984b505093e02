package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/frahmantamala/agency-dashboard/internal/audit"
	"github.com/frahmantamala/agency-dashboard/internal/client"
	"github.com/frahmantamala/agency-dashboard/internal/core/identity"
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

var _ = Describe("Client Handler", func() {
	var (
		f        *fixture
		recorder *recordingAudit
		router   chi.Router
		sess     *session.Session
	)

	BeforeEach(func() {
		f = newFixture()
		recorder = &recordingAudit{}
		lg := logger.Discard()
		handler := client.NewHandler(transport.NewBaseHandler(lg), client.NewService(f.repo, lg), recorder)

		sess = &session.Session{ID: "sid", UserID: 500, AgencyID: 1, Role: identity.RoleAdmin, UserType: identity.UserTypeAgency}
		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), sess)))
			})
		})
		router.Get("/clients", handler.ListClients)
		router.Get("/clients/{clientID}", handler.GetClient)
		router.Post("/clients/{clientID}/grants", handler.GrantAccess)
		router.Delete("/clients/{clientID}/grants/{userID}", handler.RevokeAccess)
	})

	serve := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("lists visible clients", func() {
		rec := serve(http.MethodGet, "/clients", "")
		Expect(rec.Code).To(Equal(http.StatusOK))

		var resp client.ClientsResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.OK).To(BeTrue())
		Expect(resp.Clients).To(HaveLen(2))
	})

	It("returns 404 with the envelope for an inactive client", func() {
		rec := serve(http.MethodGet, "/clients/"+strconv.FormatInt(f.dormant.ID, 10), "")
		Expect(rec.Code).To(Equal(http.StatusNotFound))
		Expect(rec.Body.String()).To(MatchJSON(`{"ok": false, "error": "Client not found."}`))
	})

	It("grants and revokes with audit entries", func() {
		path := "/clients/" + strconv.FormatInt(f.alpha.ID, 10) + "/grants"
		rec := serve(http.MethodPost, path, `{"user_id": `+strconv.FormatInt(f.member.ID, 10)+`}`)
		Expect(rec.Code).To(Equal(http.StatusOK))

		rec = serve(http.MethodDelete, path+"/"+strconv.FormatInt(f.member.ID, 10), "")
		Expect(rec.Code).To(Equal(http.StatusOK))

		Expect(recorder.entries).To(HaveLen(2))
		Expect(recorder.entries[0].Action).To(Equal("client.access.granted"))
		Expect(recorder.entries[0].Context).To(HaveKeyWithValue("target_user_id", f.member.ID))
		Expect(recorder.entries[1].Action).To(Equal("client.access.revoked"))
	})

	It("validates the grant body", func() {
		rec := serve(http.MethodPost, "/clients/"+strconv.FormatInt(f.alpha.ID, 10)+"/grants", `{}`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(recorder.entries).To(BeEmpty())
	})

	It("rejects non numeric ids", func() {
		Expect(serve(http.MethodGet, "/clients/abc", "").Code).To(Equal(http.StatusBadRequest))
	})
})
