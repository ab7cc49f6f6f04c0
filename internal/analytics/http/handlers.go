package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mindmesh/mindmesh-client/internal/analytics/domain"
	"github.com/mindmesh/mindmesh-client/internal/auth"
	"github.com/mindmesh/mindmesh-client/internal/backend"
	"github.com/mindmesh/mindmesh-client/internal/logging"
)

// Dashboard returns the analytics screen for ?days=
func (h *Handler) Dashboard(c *gin.Context) {
	days, ok := intQuery(c, "days")
	if !ok {
		return
	}
	d, err := h.svc.Dashboard(c.Request.Context(), auth.BackendClient(c), days)
	if err != nil {
		writeError(c, "analytics.dashboard", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"analytics": d})
}

func (h *Handler) Summary(c *gin.Context) {
	days, ok := intQuery(c, "days")
	if !ok {
		return
	}
	summary, err := h.svc.Summary(c.Request.Context(), auth.BackendClient(c), days)
	if err != nil {
		writeError(c, "analytics.summary", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// History lists daily logs for ?days=&limit=
func (h *Handler) History(c *gin.Context) {
	days, ok := intQuery(c, "days")
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit")
	if !ok {
		return
	}
	logs, err := h.svc.History(c.Request.Context(), auth.BackendClient(c), days, limit)
	if err != nil {
		writeError(c, "analytics.history", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// Insights lists insights for ?unread=&type=
func (h *Handler) Insights(c *gin.Context) {
	unread := false
	if raw := c.Query("unread"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unread must be true or false"})
			return
		}
		unread = v
	}
	list, err := h.svc.Insights(c.Request.Context(), auth.BackendClient(c), unread, c.Query("type"))
	if err != nil {
		writeError(c, "analytics.insights", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func intQuery(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": key + " must be a non-negative integer"})
		return 0, false
	}
	return v, true
}

func writeError(c *gin.Context, op string, err error) {
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, domain.ErrInvalidRange), errors.Is(err, domain.ErrInvalidFilter):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case backend.IsAuthError(err):
		auth.RejectSession(c)
	case errors.Is(err, backend.ErrUnavailable):
		logging.New(c.Request.Context()).Error(op, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "analytics unavailable, please try again"})
	case errors.As(err, &apiErr):
		logging.New(c.Request.Context()).Error(op, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": apiErr.Message})
	default:
		logging.New(c.Request.Context()).Error(op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
