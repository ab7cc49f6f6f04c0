package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mindmesh/mindmesh-client/internal/backend"
	"github.com/mindmesh/mindmesh-client/internal/decision/domain"
	"github.com/mindmesh/mindmesh-client/internal/logging"
	"github.com/mindmesh/mindmesh-client/internal/session"
)

// StateKind is the session state slot holding the conversation.
const StateKind = "decision"

// DefaultHistoryLimit is used when no decision history limit is given.
const DefaultHistoryLimit = 50

// callGrace is added to the backend timeout before an unrecorded analysis
// request is given up on.
const callGrace = 15 * time.Second

// DefaultStaleAfter applies until WithCallTimeout is called.
const DefaultStaleAfter = 30*time.Second + callGrace

// Analyzer is the slice of the backend API the conversation needs. It is
// passed per call because each session talks through its own client.
type Analyzer interface {
	AnalyzeDecision(ctx context.Context, req backend.DecisionRequest) (*backend.DecisionResponse, error)
	DecisionHistory(ctx context.Context, limit int) ([]json.RawMessage, error)
}

// StateStore persists per-session state.
type StateStore interface {
	SaveState(ctx context.Context, sessionID, kind string, v any) error
	LoadState(ctx context.Context, sessionID, kind string, v any) error
	DeleteState(ctx context.Context, sessionID, kind string) error
}

// ConversationService drives decision conversations: it applies actions to
// the stored state, issues the resulting analysis calls and records the
// outcome.
type ConversationService struct {
	store      StateStore
	policy     domain.Policy
	staleAfter time.Duration
	now        func() time.Time
	locks      session.Locks
}

// NewConversationService creates a new ConversationService
func NewConversationService(store StateStore, policy domain.Policy) *ConversationService {
	return &ConversationService{
		store:      store,
		policy:     policy,
		staleAfter: DefaultStaleAfter,
		now:        time.Now,
	}
}

// WithCallTimeout sizes the window after which an analysis request whose
// outcome was never recorded counts as failed. It should match the backend
// client's timeout.
func (s *ConversationService) WithCallTimeout(timeout time.Duration) *ConversationService {
	if timeout > 0 {
		s.staleAfter = timeout + callGrace
	}
	return s
}

// Policy returns the question policy in force.
func (s *ConversationService) Policy() domain.Policy {
	return s.policy
}

// Get returns the session's conversation, starting a fresh one if none exists.
func (s *ConversationService) Get(ctx context.Context, sessionID string) (*domain.Conversation, error) {
	return s.load(ctx, sessionID)
}

// UpdateForm edits the decision form before submission.
func (s *ConversationService) UpdateForm(ctx context.Context, sessionID string, patch domain.FormPatch) (*domain.Conversation, error) {
	conv, _, err := s.mutate(ctx, sessionID, func(c *domain.Conversation) (*domain.AnalysisCall, error) {
		return nil, c.UpdateForm(patch, s.now())
	})
	return conv, err
}

// Submit sends the form for its first analysis round.
func (s *ConversationService) Submit(ctx context.Context, sessionID string, analyzer Analyzer) (*domain.Conversation, error) {
	return s.act(ctx, sessionID, analyzer, "decision.submit", func(c *domain.Conversation) (*domain.AnalysisCall, error) {
		return c.Submit(s.now())
	})
}

// Answer answers the current clarifying question. A request is only issued
// once the round is over.
func (s *ConversationService) Answer(ctx context.Context, sessionID string, analyzer Analyzer, questionID, text string) (*domain.Conversation, error) {
	return s.act(ctx, sessionID, analyzer, "decision.answer", func(c *domain.Conversation) (*domain.AnalysisCall, error) {
		return c.Answer(s.policy, questionID, text, s.now())
	})
}

// Skip asks for a verdict without answering the remaining questions.
func (s *ConversationService) Skip(ctx context.Context, sessionID string, analyzer Analyzer) (*domain.Conversation, error) {
	return s.act(ctx, sessionID, analyzer, "decision.skip", func(c *domain.Conversation) (*domain.AnalysisCall, error) {
		return c.Skip(s.now())
	})
}

// Retry re-issues the last failed analysis request.
func (s *ConversationService) Retry(ctx context.Context, sessionID string, analyzer Analyzer) (*domain.Conversation, error) {
	return s.act(ctx, sessionID, analyzer, "decision.retry", func(c *domain.Conversation) (*domain.AnalysisCall, error) {
		return c.Retry(s.now())
	})
}

// Reset discards the conversation. Responses still in flight are ignored.
func (s *ConversationService) Reset(ctx context.Context, sessionID string) (*domain.Conversation, error) {
	conv, _, err := s.mutate(ctx, sessionID, func(c *domain.Conversation) (*domain.AnalysisCall, error) {
		c.Reset(s.now())
		return nil, nil
	})
	return conv, err
}

// Clear removes the stored conversation, e.g. on logout.
func (s *ConversationService) Clear(ctx context.Context, sessionID string) error {
	return s.store.DeleteState(ctx, sessionID, StateKind)
}

// History lists the user's past decisions.
func (s *ConversationService) History(ctx context.Context, analyzer Analyzer, limit int) ([]json.RawMessage, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	items, err := analyzer.DecisionHistory(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("decision history: %w", err)
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return items, nil
}

func (s *ConversationService) act(ctx context.Context, sessionID string, analyzer Analyzer, op string,
	fn func(*domain.Conversation) (*domain.AnalysisCall, error)) (*domain.Conversation, error) {
	conv, call, err := s.mutate(ctx, sessionID, fn)
	if err != nil || call == nil {
		return conv, err
	}
	return s.run(ctx, sessionID, analyzer, op, call)
}

// run issues call and applies its outcome to whatever state is current by
// the time the response arrives.
func (s *ConversationService) run(ctx context.Context, sessionID string, analyzer Analyzer, op string, call *domain.AnalysisCall) (*domain.Conversation, error) {
	logger := logging.New(ctx)
	logger.Infof(op, "session=%s generation=%d history=%d skip=%t", sessionID, call.Generation, len(call.History), call.Skip)

	resp, callErr := analyzer.AnalyzeDecision(ctx, toBackendRequest(call))

	// Record the outcome even if the caller has gone away.
	conv, _, err := s.mutate(context.WithoutCancel(ctx), sessionID, func(c *domain.Conversation) (*domain.AnalysisCall, error) {
		if callErr != nil {
			return nil, c.Fail(call.Generation, callErr, s.now())
		}
		return nil, c.Resolve(call.Generation, toOutcome(resp), s.now())
	})
	if errors.Is(err, domain.ErrStaleResponse) {
		logger.Warnf(op, "discarding response for generation %d", call.Generation)
		return conv, err
	}
	if err != nil {
		return conv, err
	}
	if callErr != nil {
		logger.Error(op, callErr)
		return conv, fmt.Errorf("analyze decision: %w", callErr)
	}
	return conv, nil
}

// mutate applies fn to the stored conversation under the session's lock and
// saves the result. Domain methods reject before changing anything, so on
// error the loaded state is returned unsaved.
func (s *ConversationService) mutate(ctx context.Context, sessionID string,
	fn func(*domain.Conversation) (*domain.AnalysisCall, error)) (*domain.Conversation, *domain.AnalysisCall, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	conv, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	call, err := fn(conv)
	if err != nil {
		return conv, nil, err
	}
	if err := s.store.SaveState(ctx, sessionID, StateKind, conv); err != nil {
		return nil, nil, fmt.Errorf("save conversation: %w", err)
	}
	return conv, call, nil
}

func (s *ConversationService) load(ctx context.Context, sessionID string) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := s.store.LoadState(ctx, sessionID, StateKind, &conv)
	if errors.Is(err, session.ErrStateNotFound) {
		return domain.NewConversation(s.now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	if conv.Answers == nil {
		conv.Answers = map[string]string{}
	}
	if conv.Abandon(s.staleAfter, s.now()) {
		logging.New(ctx).Warnf("decision.load", "session=%s generation=%d request never completed, marked failed", sessionID, conv.Generation)
	}
	return &conv, nil
}
