package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

type memoryEntry struct {
	session   []byte
	states    map[string][]byte
	expiresAt time.Time
}

// MemoryStore keeps sessions in a bounded LRU. The least recently used
// session is evicted once maxEntries is reached; expired entries are dropped
// on access and by Sweep.
type MemoryStore struct {
	mu    sync.Mutex
	cache *lru.Cache[string, *memoryEntry]
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryStore creates a new MemoryStore
func NewMemoryStore(maxEntries int, ttl time.Duration) (*MemoryStore, error) {
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	cache, err := lru.New[string, *memoryEntry](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	return &MemoryStore{cache: cache, ttl: ttl, now: time.Now}, nil
}

func (m *MemoryStore) Create(ctx context.Context, s *Session) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	now := m.now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Add(s.ID, &memoryEntry{
		session:   data,
		states:    make(map[string][]byte),
		expiresAt: now.Add(m.ttl),
	})
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	entry, ok := m.liveEntry(id)
	var data []byte
	if ok {
		data = entry.session
	}
	m.mu.Unlock()

	if !ok || data == nil {
		return nil, ErrSessionNotFound
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

func (m *MemoryStore) Update(ctx context.Context, s *Session) error {
	s.UpdatedAt = m.now()
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.liveEntry(s.ID)
	if !ok {
		return ErrSessionNotFound
	}
	entry.session = data
	entry.expiresAt = m.now().Add(m.ttl)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Remove(id)
	return nil
}

func (m *MemoryStore) SaveState(ctx context.Context, sessionID, kind string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s state: %w", kind, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.liveEntry(sessionID)
	if !ok {
		// state-only entry, used by the terminal client which has no session record
		entry = &memoryEntry{states: make(map[string][]byte)}
		m.cache.Add(sessionID, entry)
	}
	entry.states[kind] = data
	entry.expiresAt = m.now().Add(m.ttl)
	return nil
}

func (m *MemoryStore) LoadState(ctx context.Context, sessionID, kind string, v any) error {
	m.mu.Lock()
	var data []byte
	entry, ok := m.liveEntry(sessionID)
	if ok {
		data, ok = entry.states[kind]
	}
	m.mu.Unlock()

	if !ok {
		return ErrStateNotFound
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s state: %w", kind, err)
	}
	return nil
}

func (m *MemoryStore) DeleteState(ctx context.Context, sessionID, kind string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.liveEntry(sessionID); ok {
		delete(entry.states, kind)
	}
	return nil
}

// Sweep drops every expired entry and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for _, key := range m.cache.Keys() {
		entry, ok := m.cache.Peek(key)
		if ok && now.After(entry.expiresAt) {
			m.cache.Remove(key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	return m.cache.Len()
}

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

func (m *MemoryStore) Close() error {
	m.cache.Purge()
	return nil
}

// liveEntry must be called with mu held.
func (m *MemoryStore) liveEntry(id string) (*memoryEntry, bool) {
	entry, ok := m.cache.Get(id)
	if !ok {
		return nil, false
	}
	if m.now().After(entry.expiresAt) {
		m.cache.Remove(id)
		return nil, false
	}
	return entry, true
}
