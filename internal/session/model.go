package session

import (
	"context"
	"errors"
	"time"

	"github.com/mindmesh/mindmesh-client/internal/backend"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrStateNotFound   = errors.New("session state not found")
)

// CookieName is the fixed key under which the browser keeps its session id.
const CookieName = "mindmesh_session"

// Session is the client-side credential: the backend bearer token plus the
// user it was issued for.
type Session struct {
	ID          string       `json:"id"`
	Token       string       `json:"token"`
	User        backend.User `json:"user"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	ValidatedAt time.Time    `json:"validated_at"`
}

// Authenticated reports whether the session holds a credential.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

// NeedsRevalidation reports whether the credential should be re-checked
// against /auth/me.
func (s *Session) NeedsRevalidation(now time.Time, interval time.Duration) bool {
	if interval <= 0 {
		return false
	}
	return now.Sub(s.ValidatedAt) >= interval
}

// Store persists sessions and the per-session UI state (conversation,
// metric draft) keyed by kind.
type Store interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Update(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error

	SaveState(ctx context.Context, sessionID, kind string, v any) error
	LoadState(ctx context.Context, sessionID, kind string, v any) error
	DeleteState(ctx context.Context, sessionID, kind string) error

	Ping(ctx context.Context) error
	Close() error
}
