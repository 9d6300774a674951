package booking

import (
	"context"
	"sync"
	"time"

	"tourbot/models"

	"github.com/google/uuid"
)

// Session is the conversation state of one user: the step reached, the draft collected so
// far and the options last presented, against which the next answer is checked.
type Session struct {
	ID          string       `json:"id"`
	UserID      int64        `json:"userId"`
	State       State        `json:"state"`
	Draft       models.Draft `json:"draft"`
	DateOptions []DateOption `json:"dateOptions,omitempty"`
	TimeOptions []string     `json:"timeOptions,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

func newSession(user models.UserIdentity, now time.Time) *Session {
	return &Session{
		ID:        uuid.New().String(),
		UserID:    user.UserID,
		State:     StateAwaitingLocation,
		Draft:     models.Draft{User: user},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) clone() *Session {
	c := *s
	c.DateOptions = append([]DateOption(nil), s.DateOptions...)
	c.TimeOptions = append([]string(nil), s.TimeOptions...)
	return &c
}

// SessionStore is the session table keyed by user id. Entries are created when a
// conversation begins and removed when it terminates.
type SessionStore interface {
	// Get returns the user's session or ErrNoSession.
	Get(ctx context.Context, userID int64) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, userID int64) error
}

// MemorySessionStore keeps sessions in process memory. Sessions idle for longer than ttl are
// treated as absent; a zero ttl disables expiry.
type MemorySessionStore struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewMemorySessionStore(ttl time.Duration, now func() time.Time) *MemorySessionStore {
	if now == nil {
		now = time.Now
	}
	return &MemorySessionStore{
		ttl:      ttl,
		now:      now,
		sessions: make(map[int64]*Session),
	}
}

func (m *MemorySessionStore) Get(_ context.Context, userID int64) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok {
		return nil, ErrNoSession
	}
	if m.ttl > 0 && m.now().Sub(s.UpdatedAt) > m.ttl {
		delete(m.sessions, userID)
		return nil, ErrNoSession
	}
	return s.clone(), nil
}

func (m *MemorySessionStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.UserID] = s.clone()
	return nil
}

func (m *MemorySessionStore) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
