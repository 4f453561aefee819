package conversation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/threat-desk/backend/internal/model/chat"
	"github.com/zhouzirui/threat-desk/backend/internal/model/threat"
	chatservice "github.com/zhouzirui/threat-desk/backend/internal/service/chat"
)

var ErrSessionNotFound = errors.New("session not found")

// Manager is the in-memory registry of dashboard conversations. Sessions are
// never persisted.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Controller
	threats  threat.Source
	opts     Options
	logger   *zap.Logger
}

// NewManager bootstraps the registry. Every controller it creates reads
// alerts from threats and shares opts.
func NewManager(threats threat.Source, opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Manager{
		sessions: make(map[string]*Controller),
		threats:  threats,
		opts:     opts,
		logger:   opts.Logger,
	}
}

// CreateSession provisions a conversation seeded with the greeting.
func (m *Manager) CreateSession(_ context.Context) (*Controller, error) {
	session := chat.Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
	ctrl := New(session, chatservice.NewStore(session.ID), m.threats, m.opts)

	m.mu.Lock()
	m.sessions[session.ID] = ctrl
	m.mu.Unlock()

	m.logger.Info("session created", zap.String("session_id", session.ID))
	return ctrl, nil
}

// GetSession retrieves a conversation by session identifier.
func (m *Manager) GetSession(_ context.Context, sessionID string) (*Controller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ctrl, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return ctrl, nil
}

// DeleteSession discards a conversation once its pending turn completes.
func (m *Manager) DeleteSession(_ context.Context, sessionID string) error {
	m.mu.Lock()
	ctrl, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	ctrl.Wait()
	return nil
}

// ObserveThreats runs the watcher step of every live conversation. Wire it
// to the threat feed's change notification.
func (m *Manager) ObserveThreats(alerts []threat.Alert) {
	for _, ctrl := range m.controllers() {
		ctrl.ObserveThreats(alerts)
	}
}

// Wait blocks until no conversation has a turn in flight.
func (m *Manager) Wait() {
	for _, ctrl := range m.controllers() {
		ctrl.Wait()
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) controllers() []*Controller {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Controller, 0, len(m.sessions))
	for _, ctrl := range m.sessions {
		out = append(out, ctrl)
	}
	return out
}
