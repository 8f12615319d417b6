package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mediscan/internal/catalog"
	"mediscan/internal/matcher"
	"mediscan/internal/qrcode"
	"mediscan/internal/search"
	"mediscan/pkg/config"
	"mediscan/pkg/jwtutil"
	"mediscan/prometheus"
)

func newTestEcho(t *testing.T) (*echo.Echo, *prometheus.Metrics) {
	t.Helper()

	cat, err := catalog.Load(context.Background(), catalog.EmbeddedSource{}, zap.NewNop())
	require.NoError(t, err)

	m := prometheus.New("mediscan")
	m.RecordCatalog(cat.CountByCategory())
	cfg := &config.Config{
		ServiceName: "mediscan",
		Server:      config.ServerConfig{CORSAllowOrigins: []string{"https://ward.example.com"}},
	}
	store := search.NewStore(search.StoreConfig{Size: 4, TTL: time.Minute}, cat, matcher.Disabled{}, m, zap.NewNop(), m.SetActiveSessions)

	e := New(Deps{
		Config:  cfg,
		Catalog: cat,
		Store:   store,
		JWT:     jwtutil.NewJWTUtil(&jwtutil.JWTConfig{SigningKey: "k", Expiration: time.Minute}),
		QR:      qrcode.NewGenerator(qrcode.Config{}),
		Metrics: m,
	})
	return e, m
}

func TestServer_HealthAndMetrics(t *testing.T) {
	e, _ := newTestEcho(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ai_search_enabled":false`)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `mediscan_http_requests_total{method="GET",path="/health",status="200"} 1`)
	assert.Contains(t, rec.Body.String(), `mediscan_catalog_items`)
}

func TestServer_SessionLifecycleUpdatesGauge(t *testing.T) {
	e, m := newTestEcho(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveSessionsGauge))
}

func TestServer_CORS(t *testing.T) {
	e, _ := newTestEcho(t)

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	req.Header.Set(echo.HeaderOrigin, "https://ward.example.com")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://ward.example.com", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}
