package http

import (
	"time"

	"github.com/mindmesh/mindmesh-client/internal/auth/service"
)

// Handler serves login, registration and the current session
type Handler struct {
	authService  *service.AuthService
	sessionTTL   time.Duration
	cookieSecure bool
}

func New(authService *service.AuthService, sessionTTL time.Duration, cookieSecure bool) *Handler {
	return &Handler{
		authService:  authService,
		sessionTTL:   sessionTTL,
		cookieSecure: cookieSecure,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
