package http

import "github.com/gin-gonic/gin"

// Register registers the decision routes
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/conversation", h.GetConversation)
	rg.PATCH("/conversation/form", h.UpdateForm)
	rg.POST("/conversation/submit", h.Submit)
	rg.POST("/conversation/answer", h.Answer)
	rg.POST("/conversation/skip", h.Skip)
	rg.POST("/conversation/retry", h.Retry)
	rg.POST("/conversation/reset", h.Reset)
	rg.GET("/history", h.History)
}
