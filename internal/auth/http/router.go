package http

import "github.com/gin-gonic/gin"

// Register registers the auth routes. requireSession guards /me, optional
// lets /logout clear whatever session the browser still holds.
func (h *Handler) Register(rg *gin.RouterGroup, requireSession, optionalSession gin.HandlerFunc) {
	rg.POST("/login", h.Login)
	rg.POST("/register", h.Signup)
	rg.POST("/logout", optionalSession, h.Logout)
	rg.GET("/me", requireSession, h.Me)
}
