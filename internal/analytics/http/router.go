package http

import "github.com/gin-gonic/gin"

// Register registers the analytics, history and insights routes
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/analytics", h.Dashboard)
	rg.GET("/analytics/summary", h.Summary)
	rg.GET("/history", h.History)
	rg.GET("/insights", h.Insights)
}
