package http

import (
	"github.com/mindmesh/mindmesh-client/internal/dailylog/domain"
	"github.com/mindmesh/mindmesh-client/internal/dailylog/service"
)

type Handler struct {
	svc *service.DraftService
}

func New(svc *service.DraftService) *Handler {
	return &Handler{svc: svc}
}

type draftView struct {
	*domain.Draft
	Labels         map[string]string `json:"labels"`
	Submitted      bool              `json:"submitted"`
	HasSafetyAlert bool              `json:"has_safety_alert"`
}

func newDraftView(d *domain.Draft) *draftView {
	if d == nil {
		return nil
	}
	return &draftView{
		Draft: d,
		Labels: map[string]string{
			"mood":   domain.Label("mood", d.Mood),
			"energy": domain.Label("energy", d.Energy),
			"stress": domain.Label("stress", d.Stress),
		},
		Submitted:      d.Submitted(),
		HasSafetyAlert: d.Protocol.HasSafetyAlert(),
	}
}
