package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mindmesh/mindmesh-client/internal/auth"
	"github.com/mindmesh/mindmesh-client/internal/auth/domain"
	"github.com/mindmesh/mindmesh-client/internal/auth/service"
	"github.com/mindmesh/mindmesh-client/internal/logging"
	"github.com/mindmesh/mindmesh-client/internal/session"
)

// RequireSession gates protected routes behind an authenticated session.
func RequireSession(svc *service.AuthService, cookieSecure bool) gin.HandlerFunc {
	return sessionMiddleware(svc, cookieSecure, true)
}

// OptionalSession attaches the session when there is one but lets anonymous
// requests through.
func OptionalSession(svc *service.AuthService, cookieSecure bool) gin.HandlerFunc {
	return sessionMiddleware(svc, cookieSecure, false)
}

func sessionMiddleware(svc *service.AuthService, cookieSecure, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(auth.CtxCookieSecure, cookieSecure)
		ctx := c.Request.Context()

		id, _ := c.Cookie(session.CookieName)
		sess, err := svc.Resolve(ctx, id)
		switch {
		case err == nil:
			c.Set(auth.CtxSession, sess)
			c.Set(auth.CtxBackendClient, svc.ClientFor(sess))
		case errors.Is(err, domain.ErrSessionExpired):
			auth.ClearSessionCookie(c, cookieSecure)
			if required {
				auth.Deny(c, err.Error())
				return
			}
		case errors.Is(err, domain.ErrNoSession):
			if id != "" {
				auth.ClearSessionCookie(c, cookieSecure)
			}
			if required {
				auth.Deny(c, "not authenticated")
				return
			}
		default:
			logging.New(ctx).Error("auth.session", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load session"})
			return
		}

		c.Next()

		if c.GetBool(auth.CtxSessionExpired) && sess != nil {
			if err := svc.Logout(ctx, sess.ID); err != nil {
				logging.New(ctx).Error("auth.session", err)
			}
		}
	}
}
