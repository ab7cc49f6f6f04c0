package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestMemoryStore(t *testing.T, max int) (*MemoryStore, *fakeClock) {
	t.Helper()
	store, err := NewMemoryStore(max, time.Hour)
	require.NoError(t, err)
	clock := &fakeClock{t: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	store.now = clock.Now
	return store, clock
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	store, _ := newTestMemoryStore(t, 10)
	ctx := context.Background()

	s := &Session{Token: "tok"}
	require.NoError(t, store.Create(ctx, s))
	require.NotEmpty(t, s.ID)

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "tok", got.Token)

	got.Token = "tok-2"
	require.NoError(t, store.Update(ctx, got))
	got, err = store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", got.Token)

	require.NoError(t, store.SaveState(ctx, s.ID, "draft", draftState{Mood: 2}))
	var d draftState
	require.NoError(t, store.LoadState(ctx, s.ID, "draft", &d))
	assert.Equal(t, 2, d.Mood)

	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Get(ctx, s.ID)
	assert.Equal(t, ErrSessionNotFound, err)
	assert.Equal(t, ErrStateNotFound, store.LoadState(ctx, s.ID, "draft", &d))
}

func TestMemoryStore_StateWithoutSession(t *testing.T) {
	store, _ := newTestMemoryStore(t, 10)
	ctx := context.Background()

	require.NoError(t, store.SaveState(ctx, "local", "decision", draftState{Mood: 5}))

	var d draftState
	require.NoError(t, store.LoadState(ctx, "local", "decision", &d))
	assert.Equal(t, 5, d.Mood)

	_, err := store.Get(ctx, "local")
	assert.Equal(t, ErrSessionNotFound, err)
}

func TestMemoryStore_Expiry(t *testing.T) {
	store, clock := newTestMemoryStore(t, 10)
	ctx := context.Background()

	old := &Session{Token: "old"}
	require.NoError(t, store.Create(ctx, old))

	clock.t = clock.t.Add(50 * time.Minute)
	fresh := &Session{Token: "fresh"}
	require.NoError(t, store.Create(ctx, fresh))

	clock.t = clock.t.Add(20 * time.Minute)
	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 1, store.Len())

	_, err := store.Get(ctx, old.ID)
	assert.Equal(t, ErrSessionNotFound, err)
	_, err = store.Get(ctx, fresh.ID)
	assert.NoError(t, err)
}

func TestMemoryStore_EvictsLeastRecentlyUsed(t *testing.T) {
	store, _ := newTestMemoryStore(t, 2)
	ctx := context.Background()

	a, b, c := &Session{Token: "a"}, &Session{Token: "b"}, &Session{Token: "c"}
	require.NoError(t, store.Create(ctx, a))
	require.NoError(t, store.Create(ctx, b))

	_, err := store.Get(ctx, a.ID)
	require.NoError(t, err)

	require.NoError(t, store.Create(ctx, c))

	_, err = store.Get(ctx, b.ID)
	assert.Equal(t, ErrSessionNotFound, err)
	_, err = store.Get(ctx, a.ID)
	assert.NoError(t, err)
}

func TestSweeper_RunOnce(t *testing.T) {
	store, clock := newTestMemoryStore(t, 10)
	require.NoError(t, store.Create(context.Background(), &Session{Token: "x"}))
	clock.t = clock.t.Add(2 * time.Hour)

	sweeper := NewSweeper(store, "")
	sweeper.RunOnce()
	assert.Equal(t, 0, store.Len())
}

func TestSweeper_RejectsBadSchedule(t *testing.T) {
	store, _ := newTestMemoryStore(t, 10)
	sweeper := NewSweeper(store, "not a schedule")
	assert.Error(t, sweeper.Start())
}

func TestSession_NeedsRevalidation(t *testing.T) {
	now := time.Now()
	s := &Session{ValidatedAt: now.Add(-10 * time.Minute)}
	assert.True(t, s.NeedsRevalidation(now, 5*time.Minute))
	assert.False(t, s.NeedsRevalidation(now, 15*time.Minute))
	assert.False(t, s.NeedsRevalidation(now, 0))
}
