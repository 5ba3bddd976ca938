package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/copilot-insights/internal/observability/context"
	"github.com/smallbiznis/copilot-insights/pkg/telemetry/correlation"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestGinMiddlewareAssignsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	var seen string
	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{}))
	r.GET("/api/organization", func(c *gin.Context) {
		seen = obscontext.RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/organization?days=7", nil))

	header := rec.Header().Get("X-Request-Id")
	if header == "" || header != seen {
		t.Fatalf("expected request id header %q to match context %q", header, seen)
	}

	entries := logs.FilterMessage("http_request").All()
	if len(entries) != 1 {
		t.Fatalf("expected one request log, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["route"] != "/api/organization" || fields["query"] != "days=7" {
		t.Fatalf("unexpected fields %v", fields)
	}
	if fields["request_id"] != header {
		t.Fatalf("expected request_id field %q, got %v", header, fields["request_id"])
	}
}

func TestGinMiddlewareKeepsIncomingRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{}))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-Id"); got != "abc-123" {
		t.Fatalf("expected incoming request id, got %q", got)
	}
}

func TestGinMiddlewareLogsCorrelationID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	var seen string
	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{}))
	r.GET("/api/billing", func(c *gin.Context) {
		seen = correlation.ExtractCorrelationID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/billing", nil)
	req.Header.Set(correlation.Header, "run-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if seen != "run-42" || rec.Header().Get(correlation.Header) != "run-42" {
		t.Fatalf("expected incoming correlation id, got context %q header %q", seen, rec.Header().Get(correlation.Header))
	}
	entries := logs.FilterMessage("http_request").All()
	if len(entries) != 1 || entries[0].ContextMap()["correlation_id"] != "run-42" {
		t.Fatalf("expected correlation_id on the request log, got %v", entries)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/billing", nil))
	if rec.Header().Get(correlation.Header) == "" {
		t.Fatal("expected a generated correlation id")
	}
}
