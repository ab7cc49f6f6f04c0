package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mindmesh/mindmesh-client/internal/backend"
	"github.com/mindmesh/mindmesh-client/internal/session"
)

const (
	CtxSession        = "session"
	CtxBackendClient  = "backend_client"
	CtxSessionExpired = "session_expired"
	CtxCookieSecure   = "cookie_secure"
)

// LoginPath is where unauthenticated browsers are sent.
const LoginPath = "/login"

// CurrentSession returns the session set by the session middleware.
func CurrentSession(c *gin.Context) *session.Session {
	v, ok := c.Get(CtxSession)
	if !ok {
		return nil
	}
	s, _ := v.(*session.Session)
	return s
}

func SessionID(c *gin.Context) string {
	if s := CurrentSession(c); s != nil {
		return s.ID
	}
	return ""
}

// BackendClient returns the backend client scoped to the request's session.
func BackendClient(c *gin.Context) *backend.Client {
	v, ok := c.Get(CtxBackendClient)
	if !ok {
		return nil
	}
	client, _ := v.(*backend.Client)
	return client
}

// WantsHTML reports whether the request comes from a browser navigation.
func WantsHTML(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}

// Deny answers an unauthenticated request: browsers are redirected to the
// login screen, API callers get a 401.
func Deny(c *gin.Context, message string) {
	if WantsHTML(c) {
		c.Redirect(http.StatusFound, LoginPath)
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}

// RejectSession is called by handlers when the backend refused the session's
// token. The cookie is cleared here and the session middleware drops the
// stored session once the handler returns.
func RejectSession(c *gin.Context) {
	c.Set(CtxSessionExpired, true)
	ClearSessionCookie(c, c.GetBool(CtxCookieSecure))
	Deny(c, "session expired, please log in again")
}

// SetSessionCookie writes the session id cookie.
func SetSessionCookie(c *gin.Context, id string, ttl time.Duration, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, id, int(ttl.Seconds()), "/", "", secure, true)
}

func ClearSessionCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, "", -1, "/", "", secure, true)
}
