package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mindmesh/mindmesh-client/internal/analytics/domain"
	"github.com/mindmesh/mindmesh-client/internal/backend"
	"golang.org/x/sync/errgroup"
)

// Backend is the slice of the backend API the analytics screens read.
type Backend interface {
	History(ctx context.Context, days, limit int) ([]backend.LogEntry, error)
	AdvancedAnalytics(ctx context.Context, days int) (*backend.AdvancedAnalytics, error)
	Insights(ctx context.Context, unreadOnly bool) ([]backend.Insight, error)
	Analytics(ctx context.Context, days int) (map[string]any, error)
}

type AnalyticsService struct {
	now func() time.Time
}

func NewAnalyticsService() *AnalyticsService {
	return &AnalyticsService{now: time.Now}
}

// Dashboard loads history and advanced analytics for the window together.
func (s *AnalyticsService) Dashboard(ctx context.Context, api Backend, days int) (*domain.Dashboard, error) {
	days, err := domain.ParseRange(days)
	if err != nil {
		return nil, err
	}

	var (
		logs []backend.LogEntry
		adv  *backend.AdvancedAnalytics
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		logs, err = api.History(gctx, days, domain.DefaultHistoryLimit)
		if err != nil {
			return fmt.Errorf("history: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		adv, err = api.AdvancedAnalytics(gctx, days)
		if err != nil {
			return fmt.Errorf("advanced analytics: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d := domain.BuildDashboard(days, logs, adv, s.now())
	return &d, nil
}

// History returns the raw log entries for the window, newest first.
func (s *AnalyticsService) History(ctx context.Context, api Backend, days, limit int) ([]backend.LogEntry, error) {
	days, err := domain.ParseRange(days)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = domain.DefaultHistoryLimit
	}
	logs, err := api.History(ctx, days, limit)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	if logs == nil {
		logs = []backend.LogEntry{}
	}
	return logs, nil
}

// Insights lists stored insights of one type with per-type counts.
func (s *AnalyticsService) Insights(ctx context.Context, api Backend, unreadOnly bool, filter string) (*domain.InsightList, error) {
	filter, err := domain.ParseFilter(filter)
	if err != nil {
		return nil, err
	}
	all, err := api.Insights(ctx, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("insights: %w", err)
	}
	list := domain.FilterInsights(all, filter)
	return &list, nil
}

// Summary passes through the basic analytics aggregate.
func (s *AnalyticsService) Summary(ctx context.Context, api Backend, days int) (map[string]any, error) {
	days, err := domain.ParseRange(days)
	if err != nil {
		return nil, err
	}
	summary, err := api.Analytics(ctx, days)
	if err != nil {
		return nil, fmt.Errorf("analytics: %w", err)
	}
	if summary == nil {
		summary = map[string]any{}
	}
	return summary, nil
}
