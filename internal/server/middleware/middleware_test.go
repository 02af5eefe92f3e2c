package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/agentstation/integrations/internal/server/metrics"
	"github.com/agentstation/integrations/pkg/logging"
)

func TestLogger(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		status int
		level  string
	}{
		{"get", http.MethodGet, "/api/v1/integrations/repository", http.StatusOK, `"level":"info"`},
		{"post", http.MethodPost, "/api/v1/integrations/store/nginx", http.StatusCreated, `"level":"info"`},
		{"not found", http.MethodGet, "/api/v1/integrations/repository/x", http.StatusNotFound, `"level":"info"`},
		{"server error", http.MethodDelete, "/api/v1/integrations/store/1", http.StatusInternalServerError, `"level":"error"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := logging.NewTestLogger(t)
			var requestID string
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requestID = logging.RequestID(r.Context())
				w.WriteHeader(tt.status)
			})

			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			Logger(tl.Logger)(handler).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, requestID)
			assert.Equal(t, requestID, rec.Header().Get("X-Request-ID"))
			tl.AssertContains(t, "HTTP request")
			tl.AssertContains(t, tt.path)
			tl.AssertContains(t, tt.level)
		})
	}
}

func TestLoggerKeepsIncomingRequestID(t *testing.T) {
	var requestID string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = logging.RequestID(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-42")
	Logger(nopLogger())(handler).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "req-42", requestID)
}

func TestRecovery(t *testing.T) {
	tl := logging.NewTestLogger(t)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		Recovery(tl.Logger)(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
	tl.AssertContains(t, "Panic recovered")
}

func TestMetrics(t *testing.T) {
	m := metrics.New()
	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/repository/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for range 2 {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/repository/nginx", nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/repository/{name}", "GET", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("unmatched", "GET", "404")))
}

func TestResponseWriterKeepsFirstStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := wrap(rec)
	rw.WriteHeader(http.StatusCreated)
	rw.WriteHeader(http.StatusInternalServerError)

	assert.Equal(t, http.StatusCreated, rw.statusCode)
	assert.Same(t, http.ResponseWriter(rec), rw.Unwrap())
}

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
