package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/copilot-insights/internal/clock"
	"github.com/smallbiznis/copilot-insights/internal/config"
	dashboardservice "github.com/smallbiznis/copilot-insights/internal/dashboard/service"
	"github.com/smallbiznis/copilot-insights/internal/observability"
	obsmetrics "github.com/smallbiznis/copilot-insights/internal/observability/metrics"
	"github.com/smallbiznis/copilot-insights/internal/ratelimit"
	seatdomain "github.com/smallbiznis/copilot-insights/internal/seat/domain"
	seatrepository "github.com/smallbiznis/copilot-insights/internal/seat/repository"
	usagedomain "github.com/smallbiznis/copilot-insights/internal/usage/domain"
	usagerepository "github.com/smallbiznis/copilot-insights/internal/usage/repository"
	usageservice "github.com/smallbiznis/copilot-insights/internal/usage/service"
	"github.com/smallbiznis/copilot-insights/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testPayload = `[
	{"date":"2024-01-01","total_active_users":10,"total_engaged_users":6,
	 "copilot_ide_code_completions":{"editors":[{"name":"vscode","models":[{"name":"default","languages":[
		{"name":"Python","total_engaged_users":50},
		{"name":"Go","total_engaged_users":20}]}]}]}},
	{"date":"2024-01-03","total_active_users":5,"total_engaged_users":2}
]`

type testServer struct {
	engine *gin.Engine
	usage  usagedomain.Service
}

func newTestServer(t *testing.T, limiter *ratelimit.APILimiter) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&usagedomain.UsageMetric{}, &seatdomain.Seat{}))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zaptest.NewLogger(t)
	usageRepo := usagerepository.Provide(conn, node)
	usageSvc := usageservice.NewService(usageservice.ServiceParam{Log: log, Repo: usageRepo})
	dashboardSvc := dashboardservice.NewService(dashboardservice.Params{
		Log:       log,
		Usage:     usageSvc,
		UsageRepo: usageRepo,
		Seats:     seatrepository.Provide(conn, node),
		Catalog:   db.NewCatalog(conn),
	})

	registry := prometheus.NewRegistry()
	engine := NewEngine(observability.Config{}, obsmetrics.NewHTTPMetrics(registry), registry)
	NewServer(ServerParams{
		Gin:          engine,
		Clock:        clock.NewFakeClock(time.Date(2024, 1, 5, 15, 0, 0, 0, time.UTC)),
		DashboardSvc: dashboardSvc,
		APILimiter:   limiter,
	})
	return testServer{engine: engine, usage: usageSvc}
}

func (s testServer) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	s.engine.ServeHTTP(rec, req)
	return rec
}

func (s testServer) seed(t *testing.T) {
	t.Helper()
	_, err := s.usage.Ingest(context.Background(), []byte(testPayload))
	require.NoError(t, err)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestEmptyStoreAnswersWithErrorBody(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, path := range []string{"/api/organization", "/api/languages", "/api/editors", "/api/chat-prompts"} {
		rec := srv.get(t, path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.JSONEq(t, `{"error":"No data available"}`, rec.Body.String(), path)
	}

	rec := srv.get(t, "/api/debug")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"error":"No documents found"}`, rec.Body.String())
}

func TestOrganizationHonoursDays(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.seed(t)

	rec := srv.get(t, "/api/organization?days=3&start_date=2023-01-01")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	daily := body["active_vs_engaged_daily"].(map[string]any)
	data := daily["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "2024-01-03", data[0].(map[string]any)["date"])
	assert.NotEmpty(t, daily["title"])
}

func TestOrganizationExplicitWindowIsInclusive(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.seed(t)

	rec := srv.get(t, "/api/organization?start_date=2024-01-01&end_date=2024-01-03")
	require.Equal(t, http.StatusOK, rec.Code)

	weekly := decode(t, rec)["active_vs_engaged_weekly"].(map[string]any)["data"].([]any)
	require.Len(t, weekly, 1)
	assert.Equal(t, map[string]any{"week": "2024-01-01", "total_active_users": 15.0, "total_engaged_users": 8.0}, weekly[0])
}

func TestDateWindowEdges(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.seed(t)

	rec := srv.get(t, "/api/organization?days=0")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "No data available", decode(t, rec)["error"], "days=0 keeps only today")

	dates := func(target string) []string {
		rec := srv.get(t, target)
		require.Equal(t, http.StatusOK, rec.Code)
		var out []string
		for _, row := range decode(t, rec)["active_vs_engaged_daily"].(map[string]any)["data"].([]any) {
			out = append(out, row.(map[string]any)["date"].(string))
		}
		return out
	}
	assert.Equal(t, []string{"2024-01-03"}, dates("/api/organization?start_date=2024-01-02"))
	assert.Equal(t, []string{"2024-01-01"}, dates("/api/organization?end_date=2024-01-02"))
}

func TestOrganizationRejectsBadDays(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.get(t, "/api/organization?days=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_days")

	rec = srv.get(t, "/api/organization?start_date=2024-02-01&end_date=2024-01-01")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_date_range")
}

func TestLanguagesMultiValueFilter(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.seed(t)

	rec := srv.get(t, "/api/languages?languages=Go&languages=Go&languages=")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, []any{"Go"}, body["available_languages"])
	top := body["top_languages"].(map[string]any)["data"].(map[string]any)
	assert.Equal(t, map[string]any{"Python": 50.0, "Go": 20.0}, top)
}

func TestBillingWithoutSeats(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.get(t, "/api/billing")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, []any{}, body["seats"])
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.get(t, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = srv.get(t, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "copilot_http_requests_total")
}

func TestAPIRateLimitRejectsOverBurst(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := ratelimit.NewAPILimiter(client, config.Config{
		RateLimit: config.RateLimitConfig{APIRate: 0.001, APIBurst: 1},
	})
	srv := newTestServer(t, limiter)

	rec := srv.get(t, "/api/billing")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = srv.get(t, "/api/billing")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	rec = srv.get(t, "/health")
	assert.Equal(t, http.StatusOK, rec.Code, "health is not limited")
}
