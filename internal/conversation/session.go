package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/agamariel/virtshop/internal/models"
)

// State - шаг диалога оформления заявки.
type State string

const (
	StateIdle             State = "idle"
	StateSelectingProject State = "selecting_project"
	StateSelectingServer  State = "selecting_server"
	StateSelectingAmount  State = "selecting_amount"
)

// Session - состояние диалога одного пользователя.
type Session struct {
	State   State            `json:"state"`
	Action  models.OrderType `json:"action,omitempty"`
	Project string           `json:"project,omitempty"`
	Server  string           `json:"server,omitempty"`
}

// IdleSession возвращает начальное состояние.
func IdleSession() Session {
	return Session{State: StateIdle}
}

// SessionStore хранит сессии. Отсутствующая сессия читается как idle.
type SessionStore interface {
	Get(ctx context.Context, userID int64) (Session, error)
	Save(ctx context.Context, userID int64, s Session) error
	Reset(ctx context.Context, userID int64) error
}

type memoryEntry struct {
	session Session
	expires time.Time
}

// MemorySessionStore держит сессии в памяти процесса с TTL.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[int64]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

// NewMemorySessionStore создаёт хранилище. ttl <= 0 отключает истечение.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[int64]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *MemorySessionStore) Get(_ context.Context, userID int64) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[userID]
	if !ok {
		return IdleSession(), nil
	}
	if !e.expires.IsZero() && s.now().After(e.expires) {
		delete(s.sessions, userID)
		return IdleSession(), nil
	}
	return e.session, nil
}

func (s *MemorySessionStore) Save(_ context.Context, userID int64, session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := memoryEntry{session: session}
	if s.ttl > 0 {
		e.expires = s.now().Add(s.ttl)
	}
	s.sessions[userID] = e
	return nil
}

func (s *MemorySessionStore) Reset(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, userID)
	return nil
}
