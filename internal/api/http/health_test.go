package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mindmesh/mindmesh-client/internal/backend"
)

func pinger(err error) Pinger {
	return PingFunc(func(context.Context) error { return err })
}

func TestHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	refused := errors.New("connection refused")

	cases := []struct {
		name          string
		path          string
		backend       Pinger
		store         Pinger
		wantStatus    string
		wantBackend   string
		wantStoreStat string
	}{
		{"all up", "/health", pinger(nil), pinger(nil), "healthy", "up", "up"},
		{"backend down", "/healthz", pinger(refused), pinger(nil), "degraded", "down", "up"},
		{"store down", "/health", pinger(nil), pinger(refused), "degraded", "up", "down"},
		{"no store configured", "/healthz", pinger(nil), nil, "healthy", "up", "disabled"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			NewHealthHandler("mindmesh-client", "2.3.0", tc.backend, tc.store).RegisterRoutes(router)

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tc.path, nil))

			if rr.Code != http.StatusOK {
				t.Fatalf("liveness must stay 200, got %d", rr.Code)
			}
			var got HealthResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode body %q: %v", rr.Body.String(), err)
			}
			if got.Status != tc.wantStatus || got.Backend != tc.wantBackend || got.Store != tc.wantStoreStat {
				t.Errorf("status/backend/store = %s/%s/%s, want %s/%s/%s",
					got.Status, got.Backend, got.Store, tc.wantStatus, tc.wantBackend, tc.wantStoreStat)
			}
			if got.Service != "mindmesh-client" || got.Version != "2.3.0" {
				t.Errorf("unexpected identity %s@%s", got.Service, got.Version)
			}
			if got.Calls != nil {
				t.Errorf("call stats reported without a stats source: %+v", got.Calls)
			}
		})
	}
}

func TestHealthCheckReportsCallStats(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	NewHealthHandler("mindmesh-client", "2.3.0", pinger(nil), nil).
		WithStats(func() backend.StatsSnapshot { return backend.StatsSnapshot{Calls: 3, Errors: 1} }).
		RegisterRoutes(router)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	var got HealthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.Calls == nil || got.Calls.Calls != 3 || got.Calls.Errors != 1 {
		t.Errorf("expected 3 calls with 1 error, got %+v", got.Calls)
	}
}

func TestHealthCheckOnlyAnswersGet(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.HandleMethodNotAllowed = true
	NewHealthHandler("mindmesh-client", "2.3.0", nil, nil).RegisterRoutes(router)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/healthz", nil))

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /healthz = %d, want %d", rr.Code, http.StatusMethodNotAllowed)
	}
}
