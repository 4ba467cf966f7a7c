package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/svcreg/component"
	apperrors "github.com/kbukum/svcreg/errors"
	"github.com/kbukum/svcreg/logger"
	"github.com/kbukum/svcreg/server/middleware"
)

func newTestServer(t *testing.T, port int) *Server {
	t.Helper()
	cfg := Config{Host: "127.0.0.1", Port: port}
	cfg.ApplyDefaults()
	cfg.Port = port
	return New(cfg, logger.NewNop())
}

func checker(statuses ...component.HealthStatus) func(context.Context) []component.Health {
	return func(context.Context) []component.Health {
		out := make([]component.Health, len(statuses))
		for i, s := range statuses {
			out[i] = component.Health{Name: fmt.Sprintf("c%d", i), Status: s}
		}
		return out
	}
}

func TestConfig(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Port != 8080 || cfg.HealthPath != "/health" || cfg.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	bad := cfg
	bad.HealthPath = "health"
	if err := bad.Validate(); err == nil {
		t.Error("expected error for health path without leading slash")
	}
	bad = cfg
	bad.Port = 70000
	if err := bad.Validate(); err == nil {
		t.Error("expected error for port out of range")
	}
}

func TestHealthEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		statuses   []component.HealthStatus
		wantCode   int
		wantStatus component.HealthStatus
	}{
		{"no components", nil, http.StatusOK, component.StatusHealthy},
		{"healthy", []component.HealthStatus{component.StatusHealthy}, http.StatusOK, component.StatusHealthy},
		{"degraded", []component.HealthStatus{component.StatusHealthy, component.StatusDegraded}, http.StatusOK, component.StatusDegraded},
		{"unhealthy", []component.HealthStatus{component.StatusDegraded, component.StatusUnhealthy}, http.StatusServiceUnavailable, component.StatusUnhealthy},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, 0)
			s.ApplyDefaults("orders", checker(tc.statuses...))

			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			if w.Code != tc.wantCode {
				t.Errorf("code = %d, want %d", w.Code, tc.wantCode)
			}
			var body struct {
				Status  component.HealthStatus `json:"status"`
				Service string                 `json:"service"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Status != tc.wantStatus || body.Service != "orders" {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestCustomHealthPath(t *testing.T) {
	cfg := Config{HealthPath: "/v1/status"}
	cfg.ApplyDefaults()
	s := New(cfg, logger.NewNop())
	s.ApplyDefaults("orders", nil)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/status", nil))
	if w.Code != http.StatusOK {
		t.Errorf("code = %d", w.Code)
	}

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, LivenessPath, nil))
	if w.Code != http.StatusOK {
		t.Errorf("liveness code = %d", w.Code)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	s := newTestServer(t, 0)
	s.ApplyDefaults("orders", nil)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, LivenessPath, nil))
	if w.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("expected generated request ID")
	}

	req := httptest.NewRequest(http.MethodGet, LivenessPath, nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if got := w.Header().Get(middleware.RequestIDHeader); got != "req-42" {
		t.Errorf("request ID = %q, want req-42", got)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	s := newTestServer(t, 0)
	s.ApplyMiddleware()
	s.Engine().GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("code = %d, want 500", w.Code)
	}
}

func TestRespondWithError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"empty result", apperrors.EmptyResult("payments"), http.StatusNotFound},
		{"transport", apperrors.TransportFailure("discover", "payments", fmt.Errorf("connection refused")), http.StatusBadGateway},
		{"transport timeout", apperrors.TransportFailure("discover", "payments", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"protocol", apperrors.ProtocolFailure("discover", "payments", 500, "boom"), http.StatusBadGateway},
		{"invalid input", apperrors.InvalidInput("service", "must not be empty"), http.StatusBadRequest},
		{"wrapped", fmt.Errorf("lookup: %w", apperrors.EmptyResult("payments")), http.StatusNotFound},
		{"plain", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	gin.SetMode(gin.TestMode)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			RespondWithError(c, tc.err)
			if w.Code != tc.want {
				t.Errorf("code = %d, want %d", w.Code, tc.want)
			}
			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error.Code == "" {
				t.Error("expected error code in body")
			}
		})
	}
}

func TestStartStop_EphemeralPort(t *testing.T) {
	s := newTestServer(t, 0)
	s.ApplyDefaults("orders", nil)
	comp := NewComponent(s)
	ctx := context.Background()

	if h := comp.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("health before start = %s", h.Status)
	}
	if err := comp.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = comp.Stop(context.Background()) })

	if s.Port() == 0 {
		t.Fatal("expected bound port")
	}
	if h := comp.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("health after start = %s", h.Status)
	}
	if d := comp.Describe(); d.Port != s.Port() || d.Type != "server" {
		t.Errorf("Describe = %+v", d)
	}

	resp, err := http.Get("http://" + s.Addr() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
