package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/frahmantamala/agency-dashboard/internal/metrics"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Metrics Suite")
}

var _ = Describe("Instrument", func() {
	BeforeEach(func() {
		metrics.Init()
	})

	It("labels requests with the chi route pattern", func() {
		r := chi.NewRouter()
		r.Use(metrics.Instrument)
		r.Get("/clients/{clientID}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clients/42", nil))
		Expect(rec.Code).To(Equal(http.StatusTeapot))

		body := httptest.NewRecorder()
		metrics.Handler().ServeHTTP(body, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		Expect(body.Body.String()).To(ContainSubstring(`route="/clients/{clientID}"`))
		Expect(body.Body.String()).To(ContainSubstring(`status="418"`))
		Expect(body.Body.String()).NotTo(ContainSubstring(`/clients/42`))
	})

	It("can be initialised twice", func() {
		Expect(metrics.Init).NotTo(Panic())
	})

	It("exposes security counters", func() {
		before := testutil.ToFloat64(metrics.AuditWriteFailures)
		metrics.AuditWriteFailures.Inc()
		Expect(testutil.ToFloat64(metrics.AuditWriteFailures)).To(Equal(before + 1))
	})
})
