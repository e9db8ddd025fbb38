package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aescanero/coyote/internal/application/guard"
	"github.com/aescanero/coyote/internal/application/resources"
	promadapter "github.com/aescanero/coyote/pkg/adapters/metrics/prometheus"
	"github.com/aescanero/coyote/pkg/adapters/storage/memory"
	"github.com/aescanero/coyote/pkg/domain"
	"github.com/aescanero/coyote/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

type testServer struct {
	server  *Server
	guard   *guard.Guard
	metrics *metrics.ServerMetrics
	store   *memory.ResourceStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	reg, err := metrics.NewRegistry(metrics.Config{})
	require.NoError(t, err)
	m := metrics.NewServerMetrics(reg)
	g := guard.New()
	store := memory.NewResourceStore()

	gatherer, err := promadapter.NewRegistry(reg)
	require.NoError(t, err)

	srv := NewServer(&Config{
		Port:      0,
		Guard:     g,
		Resources: resources.NewService(store, m, zap.NewNop()),
		Metrics:   m,
		Gatherer:  gatherer,
		RenderConfig: func() ([]byte, error) {
			return []byte("coyote:\n  api:\n    port: 3333\n"), nil
		},
		Logger: zap.NewNop(),
	})

	return &testServer{server: srv, guard: g, metrics: m, store: store}
}

func (ts *testServer) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestPutThenGet(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPut, "/v1/bucket", "payload")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "put a bucket", rec.Body.String())

	rec = ts.do(http.MethodGet, "/v1/bucket", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "payload", rec.Body.String())

	assert.EqualValues(t, 2, ts.metrics.Requests.Success().Count())
	assert.EqualValues(t, 2, ts.metrics.SuccessLatency.Count())
	assert.EqualValues(t, 0, ts.guard.InFlight())
}

func TestPutEmptyBody(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPut, "/v1/bucket", "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	detail := decodeError(t, rec)
	assert.Equal(t, "INVALID_CONTENT_SIZE", detail.Code)
	assert.Equal(t, "Content-Length = 0", detail.Message)
	assert.EqualValues(t, 1, ts.metrics.Requests.Error().Count())
	assert.EqualValues(t, 1, ts.metrics.ErrorLatency.Count())
}

func TestGetMissing(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/v1/missing", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "RESOURCE_DOES_NOT_EXIST", decodeError(t, rec).Code)
}

func TestInvalidUTF8KeyKeepsPrometheusScrapeable(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/v1/%ff", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_ARGUMENT", decodeError(t, rec).Code)

	rec = ts.do(http.MethodPut, "/v1/%ff", "payload")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	require.NotPanics(t, func() {
		rec = ts.do(http.MethodGet, "/metrics/prometheus", "")
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `coyote_meter_total{name="exceptions"} 2`)
}

func TestDelete(t *testing.T) {
	ts := newTestServer(t)
	ts.do(http.MethodPut, "/v1/bucket", "payload")

	rec := ts.do(http.MethodDelete, "/v1/bucket", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "deleted bucket", rec.Body.String())
	assert.Equal(t, 0, ts.store.Len())

	rec = ts.do(http.MethodDelete, "/v1/bucket", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "RESOURCE_DOES_NOT_EXIST", decodeError(t, rec).Code)
	assert.EqualValues(t, 1, ts.metrics.DeleteRequest.Error().Count())
}

func TestPutIfNoneMatchConflict(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPut, "/v1/bucket", "first", "If-None-Match", "*")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodPut, "/v1/bucket", "second", "If-None-Match", "*")
	require.Equal(t, http.StatusConflict, rec.Code)
	detail := decodeError(t, rec)
	assert.Equal(t, "RESOURCE_ALREADY_EXISTS", detail.Code)
	assert.Equal(t, "resource already exists: bucket", detail.Message)

	rec = ts.do(http.MethodPut, "/v1/bucket", "third")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, "/v1/bucket", "")
	assert.Equal(t, "third", rec.Body.String())
}

func TestMetricsJSON(t *testing.T) {
	ts := newTestServer(t)
	ts.do(http.MethodPut, "/v1/bucket", "payload")

	rec := ts.do(http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Gauges     map[string]any            `json:"gauges"`
		Meters     map[string]map[string]any `json:"meters"`
		Histograms map[string]map[string]any `json:"histograms"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 1, body.Meters["PutRequestSuccess"]["count"])
	assert.Contains(t, body.Histograms, "successLatency")
	assert.Contains(t, body.Histograms["successLatency"], "ninetyNine")
}

func TestMetricsMsgpack(t *testing.T) {
	ts := newTestServer(t)

	for _, rec := range []*httptest.ResponseRecorder{
		ts.do(http.MethodGet, "/metrics?format=msgpack", ""),
		ts.do(http.MethodGet, "/metrics", "", "Accept", "application/msgpack"),
	} {
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, msgpackContentType, rec.Header().Get("Content-Type"))

		var body map[string]any
		require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &body))
		assert.Contains(t, body, "meters")
		assert.Contains(t, body, "histograms")
	}
}

func TestPrometheusEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.do(http.MethodPut, "/v1/bucket", "payload")

	rec := ts.do(http.MethodGet, "/metrics/prometheus", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `coyote_meter_total{name="PutRequestSuccess"} 1`)
}

func TestConfigEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/config", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "port: 3333")
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	_, err := time.Parse(time.RFC3339, resp.Time)
	assert.NoError(t, err)

	ts.guard.BeginShutdown()

	rec = ts.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "stopping", resp.Status)
}

func TestRejectsAfterShutdown(t *testing.T) {
	ts := newTestServer(t)
	ts.guard.BeginShutdown()

	for _, rec := range []*httptest.ResponseRecorder{
		ts.do(http.MethodPut, "/v1/bucket", "payload"),
		ts.do(http.MethodGet, "/v1/bucket", ""),
		ts.do(http.MethodGet, "/metrics", ""),
	} {
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		detail := decodeError(t, rec)
		assert.Equal(t, "SERVICE_STOPPED", detail.Code)
		assert.Equal(t, "Service try to stop gracefully.", detail.Message)
	}

	assert.Equal(t, 0, ts.store.Len())
	assert.EqualValues(t, 0, ts.metrics.PutRequest.Total().Count())
	assert.EqualValues(t, 3, ts.metrics.Requests.Error().Count())
	assert.EqualValues(t, 3, ts.metrics.Registry().Meter("exceptions").Count())
	assert.EqualValues(t, 0, ts.guard.InFlight())

	// unguarded endpoints keep answering
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/config", "").Code)
}

func TestGuardedCountsInFlight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg, err := metrics.NewRegistry(metrics.Config{})
	require.NoError(t, err)
	m := metrics.NewServerMetrics(reg)
	g := guard.New()

	entered := make(chan struct{})
	release := make(chan struct{})
	router := gin.New()
	router.Use(recovery(m, zap.NewNop()))
	router.Use(guarded(g, m, zap.NewNop()))
	router.GET("/slow", func(c *gin.Context) {
		close(entered)
		<-release
		c.Status(http.StatusOK)
	})
	router.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	done := make(chan int)
	go func() {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slow", nil))
		done <- rec.Code
	}()

	<-entered
	assert.EqualValues(t, 1, g.InFlight())
	close(release)
	assert.Equal(t, http.StatusOK, <-done)
	assert.EqualValues(t, 0, g.InFlight())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Error!", decodeError(t, rec).Message)
	assert.EqualValues(t, 0, g.InFlight())
	assert.EqualValues(t, 1, reg.Meter("exceptions").Count())
}

func TestRequestIDHeader(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/health", "")
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	rec = ts.do(http.MethodGet, "/health", "", requestIDHeader, "abc-123")
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestStatusForEveryKind(t *testing.T) {
	for _, kind := range domain.Kinds() {
		_, _, ok := statusFor(kind)
		assert.True(t, ok, "kind %s has no HTTP mapping", kind)
	}

	tests := []struct {
		kind    domain.Kind
		status  int
		message string
	}{
		{domain.KindInvalidArgument, http.StatusBadRequest, ""},
		{domain.KindIncompleteHeaders, http.StatusBadRequest, ""},
		{domain.KindInvalidContentSize, http.StatusBadRequest, ""},
		{domain.KindBadChunkID, http.StatusBadRequest, ""},
		{domain.KindServiceStopped, http.StatusServiceUnavailable, ""},
		{domain.KindResourceNotAvailable, http.StatusServiceUnavailable, "Resource Temporarily Unavailable"},
		{domain.KindResourceDoesNotExist, http.StatusNotFound, ""},
		{domain.KindResourceAlreadyExists, http.StatusConflict, ""},
		{domain.KindOperationFailed, http.StatusInternalServerError, ""},
		{domain.KindInternal, http.StatusInternalServerError, "Internal Error!"},
	}
	for _, tt := range tests {
		status, message, _ := statusFor(tt.kind)
		assert.Equal(t, tt.status, status, tt.kind.String())
		assert.Equal(t, tt.message, message, tt.kind.String())
	}

	_, _, ok := statusFor(domain.Kind(99))
	assert.False(t, ok)
}

func TestWriteErrorMessages(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		err     error
		code    string
		message string
	}{
		{"operation failed keeps message", domain.NewOperationFailed("disk full", nil), "OPERATION_FAILED", "disk full"},
		{"foreign error is internal", io.ErrUnexpectedEOF, "INTERNAL", "Internal Error!"},
		{"not available", domain.NewResourceNotAvailable("busy"), "RESOURCE_NOT_AVAILABLE", "Resource Temporarily Unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			writeError(c, zap.NewNop(), tt.err)

			detail := decodeError(t, rec)
			assert.Equal(t, tt.code, detail.Code)
			assert.Equal(t, tt.message, detail.Message)
			assert.True(t, c.IsAborted())
		})
	}
}
