package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mindmesh/mindmesh-client/internal/analytics/domain"
	"github.com/mindmesh/mindmesh-client/internal/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	logs     []backend.LogEntry
	adv      *backend.AdvancedAnalytics
	insights []backend.Insight
	advErr   error
}

func (f *fakeBackend) History(ctx context.Context, days, limit int) ([]backend.LogEntry, error) {
	return f.logs, nil
}

func (f *fakeBackend) AdvancedAnalytics(ctx context.Context, days int) (*backend.AdvancedAnalytics, error) {
	return f.adv, f.advErr
}

func (f *fakeBackend) Insights(ctx context.Context, unreadOnly bool) ([]backend.Insight, error) {
	return f.insights, nil
}

func (f *fakeBackend) Analytics(ctx context.Context, days int) (map[string]any, error) {
	return map[string]any{"days": days}, nil
}

func fixedService() *AnalyticsService {
	s := NewAnalyticsService()
	s.now = func() time.Time { return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestDashboard_NoDataRendersEmptyState(t *testing.T) {
	api := &fakeBackend{adv: &backend.AdvancedAnalytics{Status: backend.StatusNoData, Message: "Not enough data"}}

	d, err := fixedService().Dashboard(context.Background(), api, 0)
	require.NoError(t, err)
	assert.True(t, d.Empty)
	assert.Equal(t, domain.EmptyMessage, d.Message)
	assert.Equal(t, domain.DefaultDays, d.Days)
	assert.Empty(t, d.Chart)
}

func TestDashboard_WithData(t *testing.T) {
	api := &fakeBackend{
		logs: []backend.LogEntry{{Timestamp: "2026-10-18 08:00", Mood: 4}},
		adv:  &backend.AdvancedAnalytics{DataPoints: 1, HealthScore: &backend.HealthScore{Score: 91}},
	}

	d, err := fixedService().Dashboard(context.Background(), api, 7)
	require.NoError(t, err)
	assert.False(t, d.Empty)
	assert.Len(t, d.Chart, 1)
	assert.Equal(t, 1, d.Streak)
	assert.Equal(t, domain.BandExcellent, d.Health.Band)
}

func TestDashboard_Errors(t *testing.T) {
	_, err := fixedService().Dashboard(context.Background(), &fakeBackend{}, 12)
	assert.ErrorIs(t, err, domain.ErrInvalidRange)

	_, err = fixedService().Dashboard(context.Background(), &fakeBackend{advErr: backend.ErrUnavailable}, 30)
	require.Error(t, err)
	assert.True(t, errors.Is(err, backend.ErrUnavailable))
}

func TestInsights(t *testing.T) {
	api := &fakeBackend{insights: []backend.Insight{{InsightType: "alert"}, {InsightType: "trend"}}}

	list, err := fixedService().Insights(context.Background(), api, false, "alert")
	require.NoError(t, err)
	assert.Len(t, list.Insights, 1)
	assert.Equal(t, 2, list.Counts[domain.FilterAll])

	_, err = fixedService().Insights(context.Background(), api, false, "gossip")
	assert.ErrorIs(t, err, domain.ErrInvalidFilter)
}

func TestHistory_NeverNil(t *testing.T) {
	logs, err := fixedService().History(context.Background(), &fakeBackend{}, 30, 0)
	require.NoError(t, err)
	assert.NotNil(t, logs)
}

func TestSummary(t *testing.T) {
	summary, err := fixedService().Summary(context.Background(), &fakeBackend{}, 90)
	require.NoError(t, err)
	assert.Equal(t, 90, summary["days"])
}
