package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mindmesh/mindmesh-client/internal/auth/domain"
	"github.com/mindmesh/mindmesh-client/internal/backend"
	"github.com/mindmesh/mindmesh-client/internal/logging"
	"github.com/mindmesh/mindmesh-client/internal/session"
)

// AuthService issues client sessions from backend credentials and keeps
// them valid.
type AuthService struct {
	store      session.Store
	client     *backend.Client
	revalidate time.Duration
	now        func() time.Time
}

func NewAuthService(store session.Store, client *backend.Client, revalidate time.Duration) *AuthService {
	return &AuthService{
		store:      store,
		client:     client,
		revalidate: revalidate,
		now:        time.Now,
	}
}

// Login exchanges credentials for a new session
func (s *AuthService) Login(ctx context.Context, email, password string) (*session.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.ErrMissingCredentials
	}
	resp, err := s.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, resp)
}

// Register creates a backend account and opens a session for it
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*session.Session, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" {
		return nil, domain.ErrMissingUsername
	}
	if email == "" || password == "" {
		return nil, domain.ErrMissingCredentials
	}
	resp, err := s.client.Register(ctx, username, email, password)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, resp)
}

func (s *AuthService) open(ctx context.Context, resp *backend.AuthResponse) (*session.Session, error) {
	if resp.Token == "" {
		return nil, fmt.Errorf("%w: backend returned no token", backend.ErrUnauthorized)
	}
	sess := &session.Session{
		Token:       resp.Token,
		User:        resp.User,
		ValidatedAt: s.now(),
	}
	if err := s.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	logging.New(ctx).Infof("auth.login", "session=%s user=%s", sess.ID, sess.User.ID)
	return sess, nil
}

// Logout drops the session and everything stored with it.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.store.Delete(ctx, sessionID); err != nil && !errors.Is(err, session.ErrSessionNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Resolve loads the session behind sessionID, revalidating its token with the
// backend when it has not been checked recently. A token the backend rejects
// ends the session.
func (s *AuthService) Resolve(ctx context.Context, sessionID string) (*session.Session, error) {
	if sessionID == "" {
		return nil, domain.ErrNoSession
	}
	sess, err := s.store.Get(ctx, sessionID)
	if errors.Is(err, session.ErrSessionNotFound) {
		return nil, domain.ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !sess.Authenticated() {
		return nil, domain.ErrNoSession
	}
	if !sess.NeedsRevalidation(s.now(), s.revalidate) {
		return sess, nil
	}

	logger := logging.New(ctx)
	user, err := s.ClientFor(sess).Me(ctx)
	if backend.IsAuthError(err) {
		logger.Warnf("auth.revalidate", "token rejected for session=%s", sess.ID)
		if delErr := s.Logout(ctx, sess.ID); delErr != nil {
			logger.Error("auth.revalidate", delErr)
		}
		return nil, domain.ErrSessionExpired
	}
	if err != nil {
		// backend unreachable: keep the session, try again next request
		logger.Warnf("auth.revalidate", "skipping revalidation: %v", err)
		return sess, nil
	}

	sess.User = *user
	sess.ValidatedAt = s.now()
	if err := s.store.Update(ctx, sess); err != nil {
		logger.Error("auth.revalidate", err)
	}
	return sess, nil
}

// ClientFor returns a backend client authenticated as sess.
func (s *AuthService) ClientFor(sess *session.Session) *backend.Client {
	return s.client.WithToken(sess.Token)
}
