package logger_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/frahmantamala/agency-dashboard/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestLogger(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Logger Suite")
}

var _ = Describe("Request", func() {
	var (
		buf bytes.Buffer
		lg  *slog.Logger
	)

	BeforeEach(func() {
		buf.Reset()
		lg = slog.New(slog.NewJSONHandler(&buf, nil))
	})

	It("adds the trace id to an injected logger", func() {
		ctx := logger.WithTraceID(context.Background(), "trace-1")

		logger.Request(ctx, lg).Warn("denied")

		Expect(buf.String()).To(ContainSubstring(`"traceID":"trace-1"`))
		Expect(logger.TraceID(ctx)).To(Equal("trace-1"))
	})

	It("leaves the logger alone without a trace id", func() {
		Expect(logger.Request(context.Background(), lg)).To(BeIdenticalTo(lg))
		Expect(logger.TraceID(context.Background())).To(BeEmpty())
	})

	It("falls back to the context logger when none was injected", func() {
		ctx := logger.WithTraceID(context.Background(), "trace-2")
		Expect(logger.Request(ctx, nil)).To(BeIdenticalTo(logger.From(ctx)))
	})
})
