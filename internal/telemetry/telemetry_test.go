package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(MetricsMiddleware)
	r.Post("/api/timeline/select/{index}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	counter := APIRequestsTotal.WithLabelValues(http.MethodPost, "/api/timeline/select/{index}", "204")
	before := testutil.ToFloat64(counter)

	for _, idx := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/timeline/select/"+idx, nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}

	assert.Equal(t, before+3, testutil.ToFloat64(counter))
	assert.Equal(t, float64(0), testutil.ToFloat64(APIActiveConnections))
}

func TestRecordStepAndPlayback(t *testing.T) {
	before := testutil.ToFloat64(StepChanges.WithLabelValues("tick"))

	RecordStep("tick", 4)
	RecordPlayback(true)

	assert.Equal(t, before+1, testutil.ToFloat64(StepChanges.WithLabelValues("tick")))
	assert.Equal(t, float64(4), testutil.ToFloat64(StepIndex))
	assert.Equal(t, float64(1), testutil.ToFloat64(Playing))

	RecordPlayback(false)
	assert.Equal(t, float64(0), testutil.ToFloat64(Playing))
}

func TestHandlerExposesTimelineMetrics(t *testing.T) {
	RecordStep("select", 1)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "timeline_step_changes_total"))
}

func useRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func TestStartSpanRecordsStepAttributes(t *testing.T) {
	sr := useRecorder(t)

	step := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	_, span := StartSpan(context.Background(), "timeline.select", StepAttributes(1, step)...)
	RecordError(span, errors.New("boom"))
	RecordError(span, nil)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "timeline.select", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "1", attrs["timeline.index"])
	assert.Equal(t, "2020-01-02T00:00:00Z", attrs["timeline.step"])
}

func TestTracingMiddlewareNamesSpans(t *testing.T) {
	sr := useRecorder(t)

	h := TracingMiddleware("timeline-http")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/timeline", nil))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /api/timeline", spans[0].Name())
}

func TestInitTracerDisabled(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	tp, err := InitTracer(context.Background(), TracerConfig{Enabled: false}, zerolog.Nop())
	require.NoError(t, err)
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), sampler(0).Description())
	assert.Equal(t, sdktrace.TraceIDRatioBased(0.5).Description(), sampler(0.5).Description())
}
