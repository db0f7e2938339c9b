// Package session manages wizard sessions for the HTTP API. Each
// session owns its own step store, submission controller and poller.
// Sessions are process-local and in-memory only: a restarted server
// starts with none.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fiscaldesk/solicitacao/internal/backend"
	"github.com/fiscaldesk/solicitacao/internal/poller"
	"github.com/fiscaldesk/solicitacao/internal/submission"
	"github.com/fiscaldesk/solicitacao/internal/wizard"
)

// Session is one wizard pass owned by one user.
type Session struct {
	ID         string
	Store      *wizard.Store
	Controller *submission.Controller
	Poller     *poller.Poller
	CreatedAt  time.Time
}

// Reset restores the session for a new solicitação.
func (s *Session) Reset() {
	s.Store.ResetAll()
	s.Controller.Reset()
}

// Manager creates and tracks sessions.
type Manager struct {
	client backend.Client
	logger *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager backed by the given client.
func NewManager(client backend.Client, logger *zap.Logger) *Manager {
	return &Manager{
		client:   client,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new wizard session.
func (m *Manager) Create() *Session {
	store := wizard.NewStore()
	s := &Session{
		ID:         uuid.NewString(),
		Store:      store,
		Controller: submission.NewController(store, m.client, m.logger),
		Poller:     poller.New(store, m.client, m.logger),
		CreatedAt:  time.Now(),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Info("Wizard session created", zap.String("session_id", s.ID))
	return s
}

// Get looks up a session by id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Delete discards a session.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
