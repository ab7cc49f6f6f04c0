package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mindmesh/mindmesh-client/internal/backend"
)

// Pinger is anything the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	Backend   string                 `json:"backend,omitempty"`
	Store     string                 `json:"store,omitempty"`
	Calls     *backend.StatsSnapshot `json:"backend_calls,omitempty"`
}

type HealthHandler struct {
	serviceName string
	version     string
	backend     Pinger
	store       Pinger
	stats       func() backend.StatsSnapshot
}

func NewHealthHandler(serviceName, version string, backendPinger, store Pinger) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		backend:     backendPinger,
		store:       store,
	}
}

// WithStats attaches the backend client's call counters to the response.
func (h *HealthHandler) WithStats(stats func() backend.StatsSnapshot) *HealthHandler {
	h.stats = stats
	return h
}

// HealthCheck always answers 200 while the process is up; dependency
// status is reported per field so a dead backend does not fail liveness.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		Backend:   probe(c.Request.Context(), h.backend, 2*time.Second),
		Store:     probe(c.Request.Context(), h.store, time.Second),
	}
	if h.stats != nil {
		snap := h.stats()
		resp.Calls = &snap
	}
	if resp.Backend == "down" || resp.Store == "down" {
		resp.Status = "degraded"
	}

	c.JSON(http.StatusOK, resp)
}

func probe(ctx context.Context, p Pinger, timeout time.Duration) string {
	if p == nil {
		return "disabled"
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := p.Ping(pingCtx); err != nil {
		return "down"
	}
	return "up"
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
