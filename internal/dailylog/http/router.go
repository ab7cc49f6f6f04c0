package http

import "github.com/gin-gonic/gin"

// Register registers the daily log routes
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/draft", h.GetDraft)
	rg.PATCH("/draft", h.UpdateDraft)
	rg.POST("/analyze-journal", h.AnalyzeJournal)
	rg.POST("/submit", h.Submit)
	rg.POST("/reset", h.Reset)
}
