package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Manager creates, loads, saves and tears down sessions.
type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
	newID func() string
}

// NewManager returns a Manager keeping sessions alive for ttl after their
// last save.
func NewManager(store Store, ttl time.Duration) *Manager {
	return &Manager{
		store: store,
		ttl:   ttl,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// TTL is the idle lifetime applied on every save.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Start returns the live session named id, or a fresh signed-out session
// when id is empty, unknown or expired.  created reports the latter.
func (m *Manager) Start(ctx context.Context, id string) (s *Session, created bool, err error) {
	if id != "" {
		s, err = m.store.Load(ctx, id)
		switch {
		case err == nil && !s.Expired(m.now()):
			return s, false, nil
		case err != nil && !errors.Is(err, ErrNotFound):
			return nil, false, fmt.Errorf("load session: %w", err)
		}
	}
	s, err = m.create(ctx)
	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}

func (m *Manager) create(ctx context.Context) (*Session, error) {
	s := newSession(m.newID(), m.now(), m.ttl)
	if err := m.store.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return s, nil
}

// Save persists s and slides its expiry forward.  A session that was ended
// or has expired in the meantime is not brought back; the wrapped error
// then matches ErrNotFound.
func (m *Manager) Save(ctx context.Context, s *Session) error {
	s.ExpiresAt = m.now().Add(m.ttl)
	if err := m.store.Save(ctx, s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// End signs s out: identity and cached recommendations are cleared, the
// stored record is deleted, and a new signed-out session with a new id is
// returned in its place.
func (m *Manager) End(ctx context.Context, s *Session) (*Session, error) {
	s.signOut()
	if err := m.store.Delete(ctx, s.ID); err != nil {
		return nil, fmt.Errorf("delete session: %w", err)
	}
	return m.create(ctx)
}
