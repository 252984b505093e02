package transport_test

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/frahmantamala/agency-dashboard/internal"
	"github.com/frahmantamala/agency-dashboard/internal/transport"
	"github.com/frahmantamala/agency-dashboard/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestTransport(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Transport Suite")
}

type grantForm struct {
	UserID int64  `json:"user_id"`
	Note   string `json:"note"`
}

var _ = Describe("BaseHandler", func() {
	var h *transport.BaseHandler

	BeforeEach(func() {
		h = transport.NewBaseHandler(logger.Discard())
	})

	Describe("DecodeBody", func() {
		It("decodes JSON", func() {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"user_id": 42, "note": "hi"}`))
			req.Header.Set("Content-Type", "application/json")

			var dst grantForm
			Expect(h.DecodeBody(req, &dst)).To(Succeed())
			Expect(dst).To(Equal(grantForm{UserID: 42, Note: "hi"}))
		})

		It("converts url-encoded form values to the field types", func() {
			form := url.Values{"user_id": {"42"}, "note": {"hi"}, "csrf_token": {"abc"}}
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			var dst grantForm
			Expect(h.DecodeBody(req, &dst)).To(Succeed())
			Expect(dst).To(Equal(grantForm{UserID: 42, Note: "hi"}))
		})

		It("parses multipart forms", func() {
			var body bytes.Buffer
			mw := multipart.NewWriter(&body)
			Expect(mw.WriteField("user_id", "7")).To(Succeed())
			Expect(mw.WriteField("note", "from a form")).To(Succeed())
			Expect(mw.Close()).To(Succeed())

			req := httptest.NewRequest(http.MethodPost, "/", &body)
			req.Header.Set("Content-Type", mw.FormDataContentType())

			var dst grantForm
			Expect(h.DecodeBody(req, &dst)).To(Succeed())
			Expect(dst).To(Equal(grantForm{UserID: 7, Note: "from a form"}))
		})

		It("rejects form values that do not fit the field", func() {
			form := url.Values{"user_id": {"seven"}}
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			var dst grantForm
			err := h.DecodeBody(req, &dst)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("reports an empty JSON body as missing", func() {
			req := httptest.NewRequest(http.MethodPost, "/", http.NoBody)

			var dst grantForm
			err := h.DecodeBody(req, &dst)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(Equal("Request body is required."))
		})

		It("stops reading JSON bodies past the size cap", func() {
			big := `{"note": "` + strings.Repeat("x", transport.MaxBodyBytes) + `"}`
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))

			var dst grantForm
			err := h.DecodeBody(req, &dst)
			var maxErr *http.MaxBytesError
			Expect(errors.As(err, &maxErr)).To(BeTrue())
		})
	})

	Describe("WriteAppError", func() {
		It("hides non-application errors behind a generic 500", func() {
			rec := httptest.NewRecorder()
			h.WriteAppError(rec, errors.New("pq: connection refused"))

			Expect(rec.Code).To(Equal(http.StatusInternalServerError))
			Expect(rec.Body.String()).To(MatchJSON(`{"ok": false, "error": "Internal server error."}`))
		})
	})
})
