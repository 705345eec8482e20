package mcp

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tayoshik/EnjoyGo/internal/engine"
	"github.com/tayoshik/EnjoyGo/internal/logging"
)

// Session is one game held by the server, addressed by a uuid handed to the
// client on creation.
type Session struct {
	ID        string
	Game      *engine.Game
	CreatedAt time.Time
	UpdatedAt time.Time

	// All game access goes through this lock: tool calls for the same
	// session may arrive concurrently.
	mu sync.Mutex
}

// Lock acquires the session for game access.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session.
func (s *Session) Unlock() {
	s.UpdatedAt = time.Now().UTC()
	s.mu.Unlock()
}

// SessionManager holds live games keyed by session ID.
type SessionManager struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	maxGames  int
	cacheOpts *engine.CacheOptions
	logger    logging.ContextLogger
}

// NewSessionManager creates a session manager holding at most maxGames games.
func NewSessionManager(maxGames int, logger logging.ContextLogger) *SessionManager {
	if maxGames < 1 {
		maxGames = 1
	}
	return &SessionManager{
		sessions: make(map[string]*Session),
		maxGames: maxGames,
		logger:   logger,
	}
}

// SetCacheOptions sets the chain cache bounds applied to games created
// from now on. Existing games keep their cache.
func (m *SessionManager) SetCacheOptions(opts engine.CacheOptions) {
	m.cacheOpts = &opts
}

// Create starts a new game of the given board size and returns its session.
// When the manager is full, the oldest finished game is evicted first; if
// every game is still ongoing the create is refused.
func (m *SessionManager) Create(boardSize int) (*Session, error) {
	var g *engine.Game
	var err error
	if m.cacheOpts != nil {
		g, err = engine.NewWithCache(boardSize, *m.cacheOpts)
	} else {
		g, err = engine.New(boardSize)
	}
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.maxGames {
		if !m.evictFinishedLocked() {
			return nil, fmt.Errorf("session limit reached (%d games)", m.maxGames)
		}
	}

	now := time.Now().UTC()
	s := &Session{
		ID:        uuid.NewString(),
		Game:      g,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.sessions[s.ID] = s
	m.logger.Info("Session created", "session", s.ID, "boardSize", boardSize)
	return s, nil
}

// evictFinishedLocked removes the least recently touched finished game.
// Caller holds m.mu; each session's own lock is taken for the status and
// timestamp reads since tool handlers mutate both without holding m.mu.
func (m *SessionManager) evictFinishedLocked() bool {
	var victim *Session
	var victimTouched time.Time
	for _, s := range m.sessions {
		s.mu.Lock()
		finished := s.Game.Status() == engine.Finished
		touched := s.UpdatedAt
		s.mu.Unlock()
		if !finished {
			continue
		}
		if victim == nil || touched.Before(victimTouched) {
			victim = s
			victimTouched = touched
		}
	}
	if victim == nil {
		return false
	}
	delete(m.sessions, victim.ID)
	m.logger.Info("Session evicted", "session", victim.ID)
	return true
}

// Get returns the session for id.
func (m *SessionManager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Delete removes a session.
func (m *SessionManager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	m.logger.Info("Session deleted", "session", id)
	return true
}

// Len returns the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// IDs returns the live session IDs, sorted for stable output.
func (m *SessionManager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
