package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mindmesh/mindmesh-client/internal/backend"
	"github.com/mindmesh/mindmesh-client/internal/dailylog/domain"
	"github.com/mindmesh/mindmesh-client/internal/logging"
	"github.com/mindmesh/mindmesh-client/internal/session"
)

const StateKind = "daily_log"

// callGrace is added to the backend timeout before an unrecorded request is
// given up on.
const callGrace = 15 * time.Second

const DefaultStaleAfter = 30*time.Second + callGrace

// Backend is the slice of the backend API the daily log uses.
type Backend interface {
	AnalyzeJournal(ctx context.Context, text string) (*backend.JournalAnalysis, error)
	CreateDailyLog(ctx context.Context, req backend.DailyLogRequest) (*backend.DailyLogResponse, error)
}

type StateStore interface {
	SaveState(ctx context.Context, sessionID, kind string, v any) error
	LoadState(ctx context.Context, sessionID, kind string, v any) error
	DeleteState(ctx context.Context, sessionID, kind string) error
}

// DraftService keeps each session's daily log draft and runs journal
// analysis and submission against the backend.
type DraftService struct {
	store      StateStore
	staleAfter time.Duration
	now        func() time.Time
	locks      session.Locks
}

func NewDraftService(store StateStore) *DraftService {
	return &DraftService{store: store, staleAfter: DefaultStaleAfter, now: time.Now}
}

// WithCallTimeout matches the stale window to the backend client's timeout.
func (s *DraftService) WithCallTimeout(timeout time.Duration) *DraftService {
	if timeout > 0 {
		s.staleAfter = timeout + callGrace
	}
	return s
}

// Get returns the session's draft, or a fresh one.
func (s *DraftService) Get(ctx context.Context, sessionID string) (*domain.Draft, error) {
	return s.load(ctx, sessionID)
}

// Update applies a manual edit.
func (s *DraftService) Update(ctx context.Context, sessionID string, patch domain.Patch) (*domain.Draft, error) {
	return s.mutate(ctx, sessionID, func(d *domain.Draft) error {
		return d.Apply(patch, s.now())
	})
}

// AnalyzeJournal infers metrics from the journal text and writes back the
// ones the backend returned.
func (s *DraftService) AnalyzeJournal(ctx context.Context, sessionID string, api Backend) (*domain.Draft, error) {
	var (
		gen  uint64
		text string
	)
	draft, err := s.mutate(ctx, sessionID, func(d *domain.Draft) error {
		var err error
		gen, text, err = d.BeginJournalAnalysis(s.now())
		return err
	})
	if err != nil {
		return draft, err
	}

	resp, callErr := api.AnalyzeJournal(ctx, text)

	draft, err = s.mutate(context.WithoutCancel(ctx), sessionID, func(d *domain.Draft) error {
		if callErr != nil {
			return d.FailJournalAnalysis(gen, callErr, s.now())
		}
		return d.ApplyJournalAnalysis(gen, domain.JournalMetrics{
			Mood:   resp.Mood,
			Energy: resp.Energy,
			Stress: resp.Stress,
		}, s.now())
	})
	return s.finish(ctx, "dailylog.analyze_journal", draft, err, callErr)
}

// Submit posts the draft and stores the generated protocol.
func (s *DraftService) Submit(ctx context.Context, sessionID string, api Backend) (*domain.Draft, error) {
	var (
		gen   uint64
		entry domain.Entry
	)
	draft, err := s.mutate(ctx, sessionID, func(d *domain.Draft) error {
		var err error
		gen, entry, err = d.BeginSubmit(s.now())
		return err
	})
	if err != nil {
		return draft, err
	}

	resp, callErr := api.CreateDailyLog(ctx, backend.DailyLogRequest{
		Mood:   entry.Mood,
		Energy: entry.Energy,
		Stress: entry.Stress,
		Sleep:  entry.Sleep,
		Text:   entry.Text,
	})

	draft, err = s.mutate(context.WithoutCancel(ctx), sessionID, func(d *domain.Draft) error {
		if callErr != nil {
			return d.FailSubmit(gen, callErr, s.now())
		}
		return d.CompleteSubmit(gen, toProtocol(ctx, resp), s.now())
	})
	return s.finish(ctx, "dailylog.submit", draft, err, callErr)
}

// Reset starts a new draft.
func (s *DraftService) Reset(ctx context.Context, sessionID string) (*domain.Draft, error) {
	return s.mutate(ctx, sessionID, func(d *domain.Draft) error {
		d.Reset(s.now())
		return nil
	})
}

func (s *DraftService) finish(ctx context.Context, op string, draft *domain.Draft, err, callErr error) (*domain.Draft, error) {
	logger := logging.New(ctx)
	if errors.Is(err, domain.ErrStaleResponse) {
		logger.Warn(op, "discarding stale response")
		return draft, err
	}
	if err != nil {
		return draft, err
	}
	if callErr != nil {
		logger.Error(op, callErr)
		return draft, fmt.Errorf("%s: %w", op, callErr)
	}
	return draft, nil
}

func (s *DraftService) mutate(ctx context.Context, sessionID string, fn func(*domain.Draft) error) (*domain.Draft, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	draft, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(draft); err != nil {
		return draft, err
	}
	if err := s.store.SaveState(ctx, sessionID, StateKind, draft); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	return draft, nil
}

func (s *DraftService) load(ctx context.Context, sessionID string) (*domain.Draft, error) {
	var draft domain.Draft
	err := s.store.LoadState(ctx, sessionID, StateKind, &draft)
	if errors.Is(err, session.ErrStateNotFound) {
		return domain.NewDraft(s.now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	if draft.Abandon(s.staleAfter, s.now()) {
		logging.New(ctx).Warnf("dailylog.load", "session=%s request never completed, marked failed", sessionID)
	}
	return &draft, nil
}

func toProtocol(ctx context.Context, resp *backend.DailyLogResponse) domain.Protocol {
	p := domain.Protocol{
		Message:     resp.Message,
		Suggestions: resp.Suggestions,
		Context:     resp.Context,
		WebInsights: resp.WebInsights,
		Resources:   resp.Resources,
	}
	if len(resp.SafetyAlert) > 0 && string(resp.SafetyAlert) != "null" {
		var alert domain.SafetyAlert
		if err := json.Unmarshal(resp.SafetyAlert, &alert); err != nil {
			// keep the text so the alert is never dropped
			logging.New(ctx).Warnf("dailylog.submit", "unexpected safety_alert shape: %v", err)
			alert = domain.SafetyAlert{Title: "Safety alert", Message: string(resp.SafetyAlert)}
		}
		p.SafetyAlert = &alert
	}
	return p
}
