package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/frahmantamala/agency-dashboard/internal/audit"
	"github.com/frahmantamala/agency-dashboard/internal/auth"
	authPostgres "github.com/frahmantamala/agency-dashboard/internal/auth/postgres"
	"github.com/frahmantamala/agency-dashboard/internal/csrf"
	"github.com/frahmantamala/agency-dashboard/internal/metrics"
	"github.com/frahmantamala/agency-dashboard/internal/session"
	"github.com/frahmantamala/agency-dashboard/internal/transport"
	"github.com/frahmantamala/agency-dashboard/pkg/logger"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
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

func (r *recordingAudit) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

var _ = Describe("Auth Handler", func() {
	var (
		w        *world
		store    *session.MemoryStore
		manager  *session.Manager
		guard    *csrf.Guard
		recorder *recordingAudit
		router   chi.Router
	)

	BeforeEach(func() {
		metrics.Init()
		w = newWorld()
		w.addUser("a@acme.com", "manager", "agency", nil, true)

		lg := logger.Discard()
		store = session.NewMemoryStore()
		recorder = &recordingAudit{}
		manager = session.NewManager(store, session.Config{TTL: time.Hour}, recorder, lg)
		guard = csrf.NewGuard(manager, recorder, lg)
		service := auth.NewService(authPostgres.NewRepository(w.db), bcrypt.MinCost, lg)
		handler := auth.NewHandler(transport.NewBaseHandler(lg), service, manager, guard, recorder)

		router = chi.NewRouter()
		router.Use(manager.Middleware)
		router.Post("/login", handler.Login)
		router.With(guard.AuthenticatedMiddleware).Post("/logout", handler.Logout)
		router.With(manager.RequireLogin).Get("/session", handler.Session)
	})

	do := func(req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
		if cookie != nil {
			req.AddCookie(cookie)
		}
		req.RemoteAddr = "198.51.100.7:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	loginJSON := func(email, pwd, slug string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(map[string]string{"email": email, "password": pwd, "agency_slug": slug})
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(string(body)))
		req.Header.Set("Content-Type", "application/json")
		return do(req, nil)
	}

	sessionCookie := func(rec *httptest.ResponseRecorder) *http.Cookie {
		for _, c := range rec.Result().Cookies() {
			if c.Name == manager.CookieName() {
				return c
			}
		}
		return nil
	}

	It("logs in, returns a csrf token and audits success", func() {
		rec := loginJSON("a@acme.com", password, "acme")
		Expect(rec.Code).To(Equal(http.StatusOK))

		var resp auth.SessionResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.OK).To(BeTrue())
		Expect(resp.User.Role).To(Equal("manager"))
		Expect(resp.Agency.Slug).To(Equal("acme"))
		Expect(resp.CSRFToken).To(HaveLen(64))

		c := sessionCookie(rec)
		Expect(c).NotTo(BeNil())
		stored, err := store.Get(context.Background(), c.Value)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.CSRFToken).To(Equal(resp.CSRFToken))

		Expect(recorder.actions()).To(Equal([]string{"auth.login.success"}))
		Expect(recorder.entries[0].IP).To(Equal("198.51.100.7"))
	})

	It("accepts form posts", func() {
		form := url.Values{"email": {"a@acme.com"}, "password": {password}, "agency_slug": {"acme"}}
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		Expect(do(req, nil).Code).To(Equal(http.StatusOK))
	})

	It("answers every failure with the same body", func() {
		wrongPwd := loginJSON("a@acme.com", "nope", "acme")
		wrongAgency := loginJSON("a@acme.com", password, "missing")
		wrongUser := loginJSON("x@acme.com", password, "acme")

		for _, rec := range []*httptest.ResponseRecorder{wrongPwd, wrongAgency, wrongUser} {
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(rec.Body.String()).To(MatchJSON(`{"ok": false, "error": "Invalid login."}`))
			Expect(sessionCookie(rec)).To(BeNil())
		}

		Expect(recorder.actions()).To(Equal([]string{"auth.login.failed", "auth.login.failed", "auth.login.failed"}))
		Expect(recorder.entries[0].Context).To(HaveKeyWithValue("reason", "invalid_credentials"))
		Expect(recorder.entries[1].Context).To(HaveKeyWithValue("reason", "invalid_agency"))
		Expect(recorder.entries[1].AgencyID).To(BeZero())
	})

	It("rejects malformed input with 400", func() {
		rec := loginJSON("", "", "")
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(recorder.entries).To(BeEmpty())
	})

	It("rotates the session id on login", func() {
		first := sessionCookie(loginJSON("a@acme.com", password, "acme"))

		body := `{"email":"a@acme.com","password":"` + password + `","agency_slug":"acme"}`
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		second := sessionCookie(do(req, first))

		Expect(second.Value).NotTo(Equal(first.Value))
		old, _ := store.Get(context.Background(), first.Value)
		Expect(old).To(BeNil())
	})

	It("returns the session snapshot for a logged in user", func() {
		c := sessionCookie(loginJSON("a@acme.com", password, "acme"))

		rec := do(httptest.NewRequest(http.MethodGet, "/session", nil), c)
		Expect(rec.Code).To(Equal(http.StatusOK))
		var resp auth.SessionResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.User.Email).To(Equal("a@acme.com"))
	})

	It("logs out with a valid token and invalidates that token", func() {
		loginRec := loginJSON("a@acme.com", password, "acme")
		c := sessionCookie(loginRec)
		var resp auth.SessionResponse
		Expect(json.Unmarshal(loginRec.Body.Bytes(), &resp)).To(Succeed())

		// Given a logout without the token
		rec := do(httptest.NewRequest(http.MethodPost, "/logout", nil), c)
		Expect(rec.Code).To(Equal(http.StatusForbidden))

		// When the token is echoed
		req := httptest.NewRequest(http.MethodPost, "/logout", nil)
		req.Header.Set("X-CSRF-Token", resp.CSRFToken)
		rec = do(req, c)

		// Then the session is gone and the cookie expired
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(sessionCookie(rec).MaxAge).To(BeNumerically("<", 0))
		gone, _ := store.Get(context.Background(), c.Value)
		Expect(gone).To(BeNil())
		Expect(recorder.actions()).To(ContainElement("auth.logout"))

		// And the old cookie no longer opens anything
		Expect(do(httptest.NewRequest(http.MethodGet, "/session", nil), c).Code).To(Equal(http.StatusUnauthorized))
	})

	It("treats logout of an anonymous session as a no-op", func() {
		rec := do(httptest.NewRequest(http.MethodPost, "/logout", nil), nil)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(MatchJSON(`{"ok": true}`))
		Expect(sessionCookie(rec).MaxAge).To(BeNumerically("<", 0))
		Expect(recorder.entries).To(BeEmpty())
	})
})
