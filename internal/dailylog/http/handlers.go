package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mindmesh/mindmesh-client/internal/auth"
	"github.com/mindmesh/mindmesh-client/internal/backend"
	"github.com/mindmesh/mindmesh-client/internal/dailylog/domain"
	"github.com/mindmesh/mindmesh-client/internal/logging"
)

// GetDraft returns today's draft
func (h *Handler) GetDraft(c *gin.Context) {
	draft, err := h.svc.Get(c.Request.Context(), auth.SessionID(c))
	h.respond(c, "dailylog.get", draft, err)
}

// UpdateDraft applies manual edits to the metrics or journal
func (h *Handler) UpdateDraft(c *gin.Context) {
	var patch domain.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	draft, err := h.svc.Update(c.Request.Context(), auth.SessionID(c), patch)
	h.respond(c, "dailylog.update", draft, err)
}

// AnalyzeJournal fills the metrics from the journal text
func (h *Handler) AnalyzeJournal(c *gin.Context) {
	draft, err := h.svc.AnalyzeJournal(c.Request.Context(), auth.SessionID(c), auth.BackendClient(c))
	h.respond(c, "dailylog.analyze_journal", draft, err)
}

// Submit creates the daily log and returns the generated protocol
func (h *Handler) Submit(c *gin.Context) {
	draft, err := h.svc.Submit(c.Request.Context(), auth.SessionID(c), auth.BackendClient(c))
	h.respond(c, "dailylog.submit", draft, err)
}

func (h *Handler) Reset(c *gin.Context) {
	draft, err := h.svc.Reset(c.Request.Context(), auth.SessionID(c))
	h.respond(c, "dailylog.reset", draft, err)
}

func (h *Handler) respond(c *gin.Context, op string, draft *domain.Draft, err error) {
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"draft": newDraftView(draft)})
		return
	}

	body := gin.H{"error": err.Error()}
	if draft != nil {
		body["draft"] = newDraftView(draft)
	}

	var ve *domain.ValidationError
	var apiErr *backend.APIError
	switch {
	case errors.As(err, &ve):
		body["field"] = ve.Field
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, domain.ErrRequestInFlight),
		errors.Is(err, domain.ErrAlreadySubmitted),
		errors.Is(err, domain.ErrStaleResponse):
		c.JSON(http.StatusConflict, body)
	case backend.IsAuthError(err):
		auth.RejectSession(c)
	case errors.Is(err, backend.ErrUnavailable):
		body["error"] = "service unavailable, please try again"
		c.JSON(http.StatusBadGateway, body)
	case errors.As(err, &apiErr):
		body["error"] = apiErr.Message
		c.JSON(http.StatusBadGateway, body)
	default:
		logging.New(c.Request.Context()).Error(op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
