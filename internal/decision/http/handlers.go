package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mindmesh/mindmesh-client/internal/auth"
	"github.com/mindmesh/mindmesh-client/internal/backend"
	"github.com/mindmesh/mindmesh-client/internal/decision/domain"
	"github.com/mindmesh/mindmesh-client/internal/logging"
)

// GetConversation returns the current conversation
func (h *Handler) GetConversation(c *gin.Context) {
	conv, err := h.svc.Get(c.Request.Context(), auth.SessionID(c))
	if err != nil {
		h.writeError(c, "decision.get", nil, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": h.view(conv)})
}

// UpdateForm edits the decision form
func (h *Handler) UpdateForm(c *gin.Context) {
	var patch domain.FormPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	conv, err := h.svc.UpdateForm(c.Request.Context(), auth.SessionID(c), patch)
	h.respond(c, "decision.form", conv, err)
}

// Submit starts the analysis
func (h *Handler) Submit(c *gin.Context) {
	conv, err := h.svc.Submit(c.Request.Context(), auth.SessionID(c), auth.BackendClient(c))
	h.respond(c, "decision.submit", conv, err)
}

// Answer answers the current clarifying question
func (h *Handler) Answer(c *gin.Context) {
	var body answerRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question_id is required"})
		return
	}
	conv, err := h.svc.Answer(c.Request.Context(), auth.SessionID(c), auth.BackendClient(c), body.QuestionID, body.Answer)
	h.respond(c, "decision.answer", conv, err)
}

// Skip asks for a verdict with the answers given so far
func (h *Handler) Skip(c *gin.Context) {
	conv, err := h.svc.Skip(c.Request.Context(), auth.SessionID(c), auth.BackendClient(c))
	h.respond(c, "decision.skip", conv, err)
}

// Retry re-issues the last failed request
func (h *Handler) Retry(c *gin.Context) {
	conv, err := h.svc.Retry(c.Request.Context(), auth.SessionID(c), auth.BackendClient(c))
	h.respond(c, "decision.retry", conv, err)
}

// Reset clears the conversation
func (h *Handler) Reset(c *gin.Context) {
	conv, err := h.svc.Reset(c.Request.Context(), auth.SessionID(c))
	h.respond(c, "decision.reset", conv, err)
}

// History lists past decisions
func (h *Handler) History(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	items, err := h.svc.History(c.Request.Context(), auth.BackendClient(c), limit)
	if err != nil {
		h.writeError(c, "decision.history", nil, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"decisions": items})
}

func (h *Handler) respond(c *gin.Context, op string, conv *domain.Conversation, err error) {
	if err != nil {
		h.writeError(c, op, conv, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": h.view(conv)})
}

// writeError maps err to a status. The conversation is echoed back whenever
// there is one so the client can render the state it fell back to.
func (h *Handler) writeError(c *gin.Context, op string, conv *domain.Conversation, err error) {
	body := gin.H{"error": err.Error()}
	if conv != nil {
		body["conversation"] = h.view(conv)
	}

	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		body["field"] = ve.Field
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, domain.ErrUnknownQuestion):
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, domain.ErrRequestInFlight),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrDuplicateAnswer),
		errors.Is(err, domain.ErrNothingToRetry),
		errors.Is(err, domain.ErrStaleResponse):
		c.JSON(http.StatusConflict, body)
	case backend.IsAuthError(err):
		auth.RejectSession(c)
	case errors.Is(err, backend.ErrUnavailable):
		logging.New(c.Request.Context()).Error(op, err)
		body["error"] = "decision service unavailable, please try again"
		c.JSON(http.StatusBadGateway, body)
	default:
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) {
			logging.New(c.Request.Context()).Error(op, err)
			body["error"] = apiErr.Message
			c.JSON(http.StatusBadGateway, body)
			return
		}
		logging.New(c.Request.Context()).Error(op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
