package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned by a Store when no live session has the id.
var ErrNotFound = errors.New("session not found")

// ErrExists is returned by Create when the id is already taken.
var ErrExists = errors.New("session id already in use")

// Store persists sessions.  Implementations drop a session once its
// ExpiresAt has passed.  Save only updates a live record: once an id has
// been deleted or has expired it stays gone, and Save reports ErrNotFound.
type Store interface {
	Load(ctx context.Context, id string) (*Session, error)
	Create(ctx context.Context, s *Session) error
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// RedisStore keeps each session as a JSON string under prefix:id with a
// TTL matching the session expiry.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) key(id string) string {
	if r.prefix == "" {
		return id
	}
	return r.prefix + ":" + id
}

func (r *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	raw, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		// A record we cannot read is treated as gone; the caller starts over.
		return nil, ErrNotFound
	}
	return &s, nil
}

func (r *RedisStore) Create(ctx context.Context, s *Session) error {
	return r.write(ctx, s, r.client.SetNX, ErrExists)
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	return r.write(ctx, s, r.client.SetXX, ErrNotFound)
}

type conditionalSet func(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd

func (r *RedisStore) write(ctx context.Context, s *Session, set conditionalSet, refused error) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		if err := r.Delete(ctx, s.ID); err != nil {
			return err
		}
		return ErrNotFound
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	ok, err := set(ctx, r.key(s.ID), raw, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return refused
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id)).Err()
}

// sweepEvery bounds how often MemoryStore scans for expired sessions.
const sweepEvery = time.Minute

// MemoryStore is a process-local Store used when Redis is unavailable and
// in tests.  Sessions are copied on the way in and out.  Expired entries
// are swept on write, at most once per sweepEvery.
type MemoryStore struct {
	mu        sync.Mutex
	sessions  map[string]Session
	now       func() time.Time
	lastSweep time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session), now: time.Now}
}

func (m *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if s.Expired(m.now()) {
		delete(m.sessions, id)
		return nil, ErrNotFound
	}
	s.Batch = append(s.Batch[:0:0], s.Batch...)
	return &s, nil
}

func (m *MemoryStore) Create(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.sweep(now)
	if cur, ok := m.sessions[s.ID]; ok && !cur.Expired(now) {
		return ErrExists
	}
	m.put(s)
	return nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.sweep(now)
	cur, ok := m.sessions[s.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Expired(now) {
		delete(m.sessions, s.ID)
		return ErrNotFound
	}
	m.put(s)
	return nil
}

func (m *MemoryStore) put(s *Session) {
	cp := *s
	cp.Batch = append(s.Batch[:0:0], s.Batch...)
	m.sessions[s.ID] = cp
}

// sweep drops expired sessions.  m.mu must be held.
func (m *MemoryStore) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < sweepEvery {
		return
	}
	m.lastSweep = now
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, id)
		}
	}
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len reports the number of stored sessions, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
