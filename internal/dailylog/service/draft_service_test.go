package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/mindmesh/mindmesh-client/internal/backend"
	"github.com/mindmesh/mindmesh-client/internal/dailylog/domain"
	"github.com/mindmesh/mindmesh-client/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	analysis   *backend.JournalAnalysis
	analyzeErr error
	texts      []string
	logged     []backend.DailyLogRequest
	response   *backend.DailyLogResponse
	logErr     error
	onCall     func()
}

func (f *fakeBackend) AnalyzeJournal(ctx context.Context, text string) (*backend.JournalAnalysis, error) {
	f.texts = append(f.texts, text)
	if f.onCall != nil {
		f.onCall()
	}
	return f.analysis, f.analyzeErr
}

func (f *fakeBackend) CreateDailyLog(ctx context.Context, req backend.DailyLogRequest) (*backend.DailyLogResponse, error) {
	f.logged = append(f.logged, req)
	return f.response, f.logErr
}

func newService(t *testing.T) *DraftService {
	t.Helper()
	store, err := session.NewMemoryStore(8, time.Hour)
	require.NoError(t, err)
	return NewDraftService(store)
}

func ptr[T any](v T) *T { return &v }

func TestAnalyzeJournal_KeepsOmittedMetrics(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	api := &fakeBackend{analysis: &backend.JournalAnalysis{Mood: ptr(2.0), Stress: ptr(4.0)}}

	_, err := svc.Update(ctx, "s1", domain.Patch{Energy: ptr(5), Journal: ptr("deadline tomorrow, barely slept")})
	require.NoError(t, err)

	draft, err := svc.AnalyzeJournal(ctx, "s1", api)
	require.NoError(t, err)
	assert.Equal(t, []string{"deadline tomorrow, barely slept"}, api.texts)
	assert.Equal(t, 2, draft.Mood)
	assert.Equal(t, 5, draft.Energy)
	assert.Equal(t, 4, draft.Stress)
	assert.Equal(t, domain.DefaultSleep, draft.Sleep)

	stored, err := svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Mood)
	assert.False(t, stored.AnalyzingJournal)
}

func TestAnalyzeJournal_EmptyJournalMakesNoCall(t *testing.T) {
	svc := newService(t)
	api := &fakeBackend{}

	_, err := svc.AnalyzeJournal(context.Background(), "s1", api)
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Empty(t, api.texts)
}

func TestAnalyzeJournal_ResetMakesResponseStale(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	api := &fakeBackend{analysis: &backend.JournalAnalysis{Mood: ptr(1.0)}}
	api.onCall = func() {
		_, err := svc.Reset(ctx, "s1")
		require.NoError(t, err)
	}

	_, err := svc.Update(ctx, "s1", domain.Patch{Journal: ptr("meh")})
	require.NoError(t, err)

	draft, err := svc.AnalyzeJournal(ctx, "s1", api)
	assert.ErrorIs(t, err, domain.ErrStaleResponse)
	assert.Equal(t, domain.DefaultMetric, draft.Mood)
	assert.Empty(t, draft.Journal)
}

func TestAnalyzeJournal_Failure(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	api := &fakeBackend{analyzeErr: backend.ErrUnavailable}

	_, err := svc.Update(ctx, "s1", domain.Patch{Journal: ptr("meh")})
	require.NoError(t, err)

	draft, err := svc.AnalyzeJournal(ctx, "s1", api)
	assert.ErrorIs(t, err, backend.ErrUnavailable)
	assert.False(t, draft.AnalyzingJournal)
	assert.NotEmpty(t, draft.LastError)

	api.analyzeErr = nil
	api.analysis = &backend.JournalAnalysis{Energy: ptr(1.0)}
	draft, err = svc.AnalyzeJournal(ctx, "s1", api)
	require.NoError(t, err)
	assert.Equal(t, 1, draft.Energy)
}

func TestSubmit_StoresProtocol(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	api := &fakeBackend{response: &backend.DailyLogResponse{
		Suggestions: json.RawMessage(`{"schedule":["Walk at 7"]}`),
		SafetyAlert: json.RawMessage(`{"title":"Critical: Ragging","message":"Your safety is the priority.","helpline":"UGC Anti-Ragging: 1800-180-5522"}`),
	}}

	_, err := svc.Update(ctx, "s1", domain.Patch{Mood: ptr(2), Sleep: ptr(5.5), Journal: ptr("bad night")})
	require.NoError(t, err)

	draft, err := svc.Submit(ctx, "s1", api)
	require.NoError(t, err)
	require.Len(t, api.logged, 1)
	assert.Equal(t, backend.DailyLogRequest{Mood: 2, Energy: 3, Stress: 3, Sleep: 5.5, Text: "bad night"}, api.logged[0])

	require.True(t, draft.Submitted())
	require.True(t, draft.Protocol.HasSafetyAlert())
	assert.Equal(t, "UGC Anti-Ragging: 1800-180-5522", draft.Protocol.SafetyAlert.Helpline)
	assert.JSONEq(t, `{"schedule":["Walk at 7"]}`, string(draft.Protocol.Suggestions))

	_, err = svc.Submit(ctx, "s1", api)
	assert.ErrorIs(t, err, domain.ErrAlreadySubmitted)
	assert.Len(t, api.logged, 1)

	draft, err = svc.Reset(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, draft.Submitted())
	assert.Equal(t, domain.DefaultMetric, draft.Mood)
}

func TestToProtocol_OddSafetyAlert(t *testing.T) {
	p := toProtocol(context.Background(), &backend.DailyLogResponse{SafetyAlert: json.RawMessage(`"call 112"`)})
	require.True(t, p.HasSafetyAlert())
	assert.Contains(t, p.SafetyAlert.Message, "call 112")

	p = toProtocol(context.Background(), &backend.DailyLogResponse{SafetyAlert: json.RawMessage(`null`)})
	assert.False(t, p.HasSafetyAlert())
}

// failingSaves fails the save calls whose 1-based index is listed.
type failingSaves struct {
	StateStore
	calls int
	fail  map[int]bool
}

func (f *failingSaves) SaveState(ctx context.Context, sessionID, kind string, v any) error {
	f.calls++
	if f.fail[f.calls] {
		return errors.New("redis: i/o timeout")
	}
	return f.StateStore.SaveState(ctx, sessionID, kind, v)
}

func TestSubmit_UnrecordedOutcomeExpires(t *testing.T) {
	ctx := context.Background()
	mem, err := session.NewMemoryStore(8, time.Hour)
	require.NoError(t, err)
	store := &failingSaves{StateStore: mem, fail: map[int]bool{2: true}}
	clock := time.Date(2026, 10, 18, 21, 0, 0, 0, time.UTC)
	svc := NewDraftService(store).WithCallTimeout(10 * time.Second)
	svc.now = func() time.Time { return clock }
	api := &fakeBackend{response: &backend.DailyLogResponse{Message: "Rest well"}}

	_, err = svc.Submit(ctx, "s1", api)
	require.ErrorContains(t, err, "i/o timeout")

	draft, err := svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, draft.Submitting)
	_, err = svc.Submit(ctx, "s1", api)
	assert.ErrorIs(t, err, domain.ErrRequestInFlight)

	clock = clock.Add(time.Minute)
	draft, err = svc.Submit(ctx, "s1", api)
	require.NoError(t, err)
	assert.False(t, draft.Submitting)
	require.NotNil(t, draft.Protocol)
	assert.Equal(t, "Rest well", draft.Protocol.Message)
	assert.Len(t, api.logged, 2)
}
