package http

import "github.com/mindmesh/mindmesh-client/internal/analytics/service"

type Handler struct {
	svc *service.AnalyticsService
}

func New(svc *service.AnalyticsService) *Handler {
	return &Handler{svc: svc}
}
