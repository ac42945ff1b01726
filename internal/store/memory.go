package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"skyplan/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
	mu       sync.Mutex
	sessions map[string]model.Session       // id -> session
	rounds   map[string][]model.RoundRecord // session id -> rounds in arrival order
}

func NewMemory() *Memory {
	return &Memory{
		sessions: map[string]model.Session{},
		rounds:   map[string][]model.RoundRecord{},
	}
}

func (m *Memory) CreateSession(ctx context.Context, s model.Session) (model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if _, ok := m.sessions[s.ID]; ok {
		return model.Session{}, fmt.Errorf("session %s already exists", s.ID)
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	if s.Status == "" {
		s.Status = model.SessionActive
	}
	m.sessions[s.ID] = s
	return s, nil
}

func (m *Memory) GetSession(ctx context.Context, id string) (model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return model.Session{}, ErrNotFound
	}
	return s, nil
}

// UpdateSession stores round progress; status and end time only change
// through EndSession.
func (m *Memory) UpdateSession(ctx context.Context, s model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.sessions[s.ID]
	if !ok {
		return ErrNotFound
	}
	s.Status, s.EndedAt = cur.Status, cur.EndedAt
	m.sessions[s.ID] = s
	return nil
}

func (m *Memory) EndSession(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	s.Status = model.SessionEnded
	s.EndedAt = &at
	m.sessions[id] = s
	return nil
}

func (m *Memory) SaveRound(ctx context.Context, rec model.RoundRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[rec.SessionID]; !ok {
		return ErrNotFound
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.Headings = append([]float64(nil), rec.Headings...)
	m.rounds[rec.SessionID] = append(m.rounds[rec.SessionID], rec)
	return nil
}

func (m *Memory) ListRounds(ctx context.Context, sessionID string, limit int) ([]model.RoundRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return nil, ErrNotFound
	}
	all := m.rounds[sessionID]
	limit = clampLimit(limit)
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return append([]model.RoundRecord{}, all...), nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }
