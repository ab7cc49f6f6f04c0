package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mindmesh/mindmesh-client/internal/auth"
	"github.com/mindmesh/mindmesh-client/internal/auth/domain"
	"github.com/mindmesh/mindmesh-client/internal/backend"
	"github.com/mindmesh/mindmesh-client/internal/logging"
	"github.com/mindmesh/mindmesh-client/internal/session"
)

// Login exchanges credentials for a session cookie
func (h *Handler) Login(c *gin.Context) {
	var body loginRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sess, err := h.authService.Login(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		h.writeError(c, "auth.login", err)
		return
	}
	h.start(c, sess)
}

// Signup registers a new account and logs it in
func (h *Handler) Signup(c *gin.Context) {
	var body registerRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sess, err := h.authService.Register(c.Request.Context(), body.Username, body.Email, body.Password)
	if err != nil {
		h.writeError(c, "auth.register", err)
		return
	}
	h.start(c, sess)
}

func (h *Handler) start(c *gin.Context, sess *session.Session) {
	auth.SetSessionCookie(c, sess.ID, h.sessionTTL, h.cookieSecure)
	c.JSON(http.StatusOK, gin.H{"user": sess.User})
}

// Logout ends the current session
func (h *Handler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), auth.SessionID(c)); err != nil {
		logging.New(c.Request.Context()).Error("auth.logout", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log out"})
		return
	}
	auth.ClearSessionCookie(c, h.cookieSecure)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Me returns the user of the current session
func (h *Handler) Me(c *gin.Context) {
	sess := auth.CurrentSession(c)
	if sess == nil {
		auth.Deny(c, "not authenticated")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": sess.User})
}

func (h *Handler) writeError(c *gin.Context, op string, err error) {
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, domain.ErrMissingCredentials), errors.Is(err, domain.ErrMissingUsername):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case backend.IsAuthError(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
	case errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError:
		c.JSON(apiErr.StatusCode, gin.H{"error": apiErr.Message})
	default:
		logging.New(c.Request.Context()).Error(op, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "authentication service unavailable"})
	}
}
