package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mindmesh/mindmesh-client/internal/auth"
	"github.com/mindmesh/mindmesh-client/internal/screens"
)

// Handler resolves client-side paths to screens and applies the login gate.
type Handler struct{}

func New() *Handler {
	return &Handler{}
}

// Register mounts the resolver. sessionMiddleware should attach the
// session without requiring one.
func (h *Handler) Register(rg *gin.RouterGroup, sessionMiddleware gin.HandlerFunc) {
	rg.GET("/screens/*path", sessionMiddleware, h.Resolve)
}

type navItem struct {
	Screen string `json:"screen"`
	Title  string `json:"title"`
	Path   string `json:"path"`
}

// Resolve answers GET /screens/{path}
func (h *Handler) Resolve(c *gin.Context) {
	sess := auth.CurrentSession(c)
	decision := screens.Gate(c.Param("path"), sess.Authenticated())
	s := decision.Screen

	if !decision.Allowed {
		if !s.Public() {
			auth.Deny(c, "login required")
			return
		}
		if auth.WantsHTML(c) {
			c.Redirect(http.StatusFound, decision.Redirect)
			return
		}
		c.JSON(http.StatusOK, gin.H{"screen": s.String(), "redirect": decision.Redirect})
		return
	}

	body := gin.H{
		"screen": s.String(),
		"title":  s.Title(),
		"path":   s.Path(),
		"public": s.Public(),
	}
	if sess.Authenticated() {
		nav := make([]navItem, 0, len(screens.Navigation))
		for _, n := range screens.Navigation {
			nav = append(nav, navItem{Screen: n.String(), Title: n.Title(), Path: n.Path()})
		}
		body["navigation"] = nav
		body["user"] = sess.User
	}

	status := http.StatusOK
	if s == screens.NotFound {
		status = http.StatusNotFound
	}
	c.JSON(status, body)
}
