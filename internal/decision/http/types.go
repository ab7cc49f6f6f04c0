package http

import (
	"github.com/mindmesh/mindmesh-client/internal/decision/domain"
	"github.com/mindmesh/mindmesh-client/internal/decision/service"
)

// Handler serves the decision conversation of the current session
type Handler struct {
	svc *service.ConversationService
}

func New(svc *service.ConversationService) *Handler {
	return &Handler{svc: svc}
}

type answerRequest struct {
	QuestionID string `json:"question_id" binding:"required"`
	Answer     string `json:"answer"`
}

type conversationView struct {
	*domain.Conversation
	CurrentQuestion   *domain.Question     `json:"current_question,omitempty"`
	Answered          int                  `json:"answered"`
	QuestionThreshold int                  `json:"question_threshold"`
	VerdictStyle      *domain.VerdictStyle `json:"verdict_style,omitempty"`
}

func (h *Handler) view(conv *domain.Conversation) *conversationView {
	if conv == nil {
		return nil
	}
	v := &conversationView{
		Conversation:      conv,
		Answered:          conv.Answered(),
		QuestionThreshold: h.svc.Policy().Threshold(),
	}
	if q, ok := conv.CurrentQuestion(); ok {
		v.CurrentQuestion = &q
	}
	if conv.Result != nil {
		style := domain.StyleFor(conv.Result.Verdict)
		v.VerdictStyle = &style
	}
	return v
}
