package service

import (
	"github.com/mindmesh/mindmesh-client/internal/backend"
	"github.com/mindmesh/mindmesh-client/internal/decision/domain"
)

func toBackendRequest(call *domain.AnalysisCall) backend.DecisionRequest {
	history := make([]backend.ConversationEntry, 0, len(call.History))
	for _, ex := range call.History {
		history = append(history, backend.ConversationEntry{
			QuestionID: ex.QuestionID,
			Question:   ex.Question,
			Answer:     ex.Answer,
		})
	}
	return backend.DecisionRequest{
		Title:               call.Request.Title,
		Description:         call.Request.Description,
		Category:            call.Request.Category,
		CostImpact:          call.Request.CostImpact,
		Value:               call.Request.Value,
		Urgency:             call.Request.Urgency,
		ConversationHistory: history,
		SkipQuestions:       call.Skip,
	}
}

func toOutcome(resp *backend.DecisionResponse) domain.Outcome {
	out := domain.Outcome{Capacity: resp.Capacity}
	if resp.PendingQuestions() {
		out.Questions = make([]domain.Question, 0, len(resp.Questions))
		for _, q := range resp.Questions {
			out.Questions = append(out.Questions, domain.Question{ID: q.ID, Text: q.Text})
		}
		return out
	}
	out.Result = domain.Result{
		Verdict:    resp.Verdict,
		Score:      resp.Score,
		Confidence: resp.Confidence,
		Raw:        resp.Raw,
	}
	return out
}
