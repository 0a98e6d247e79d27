package session

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/pickflix/internal/model"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager(store Store, c *clock) *Manager {
	m := NewManager(store, time.Hour)
	m.now = c.now
	n := 0
	m.newID = func() string {
		n++
		return "sid-" + strconv.Itoa(n)
	}
	return m
}

func sampleBatch() []model.Recommendation {
	return []model.Recommendation{
		{Movie: model.Movie{ID: 1, Title: "One"}, Name: "One", PosterURL: "p1", Description: "d1"},
		{Movie: model.Movie{ID: 2, Title: "Two"}, Name: "Two", Description: "d2"},
	}
}

func TestStartCreatesOnFirstContact(t *testing.T) {
	store := NewMemoryStore()
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := newTestManager(store, c)

	s, created, err := m.Start(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "sid-1", s.ID)
	assert.False(t, s.LoggedIn)
	assert.True(t, s.ShowLogin)
	assert.Equal(t, 1, store.Len())

	again, created, err := m.Start(context.Background(), s.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, s.ID, again.ID)
}

func TestStartReplacesExpiredSession(t *testing.T) {
	store := NewMemoryStore()
	c := &clock{t: time.Now()}
	store.now = c.now
	m := newTestManager(store, c)

	s, _, err := m.Start(context.Background(), "")
	require.NoError(t, err)
	s.SignIn("alice")
	require.NoError(t, m.Save(context.Background(), s))

	c.advance(2 * time.Hour)
	next, created, err := m.Start(context.Background(), s.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, s.ID, next.ID)
	assert.False(t, next.LoggedIn)
}

func TestStartUnknownID(t *testing.T) {
	m := newTestManager(NewMemoryStore(), &clock{t: time.Now()})

	s, created, err := m.Start(context.Background(), "forged")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, "forged", s.ID)
}

type failingStore struct{ MemoryStore }

func (f *failingStore) Load(context.Context, string) (*Session, error) {
	return nil, errors.New("redis down")
}

func TestStartPropagatesStoreFailure(t *testing.T) {
	m := newTestManager(&failingStore{MemoryStore: *NewMemoryStore()}, &clock{t: time.Now()})

	_, _, err := m.Start(context.Background(), "sid-9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis down")
}

func TestSaveSlidesExpiry(t *testing.T) {
	c := &clock{t: time.Now()}
	m := newTestManager(NewMemoryStore(), c)

	s, _, err := m.Start(context.Background(), "")
	require.NoError(t, err)
	first := s.ExpiresAt

	c.advance(30 * time.Minute)
	require.NoError(t, m.Save(context.Background(), s))
	assert.Equal(t, first.Add(30*time.Minute), s.ExpiresAt)
}

func TestSignInClearsForms(t *testing.T) {
	s := newSession("x", time.Now(), time.Hour)
	s.ShowAuthForm(FormRegister)
	s.SignIn("alice")

	assert.True(t, s.LoggedIn)
	assert.Equal(t, "alice", s.Username)
	assert.False(t, s.ShowLogin)
	assert.False(t, s.ShowRegister)
}

func TestEndClearsEverything(t *testing.T) {
	store := NewMemoryStore()
	m := newTestManager(store, &clock{t: time.Now()})
	ctx := context.Background()

	s, _, err := m.Start(ctx, "")
	require.NoError(t, err)
	s.SignIn("alice")
	s.ToggleWatchlist()
	s.SetRecommendations(sampleBatch())
	require.NoError(t, m.Save(ctx, s))

	fresh, err := m.End(ctx, s)
	require.NoError(t, err)

	assert.False(t, s.LoggedIn)
	assert.Empty(t, s.Username)
	assert.Empty(t, s.Recommendations())
	assert.NotEqual(t, s.ID, fresh.ID)
	assert.False(t, fresh.LoggedIn)
	assert.Empty(t, fresh.Recommendations())
	assert.True(t, fresh.ShowLogin)

	_, err = store.Load(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Another user signing in on the same browser sees no stale batch.
	fresh.SignIn("bob")
	assert.False(t, fresh.View().Recommendations)
}

func TestShowAuthFormExclusive(t *testing.T) {
	s := newSession("x", time.Now(), time.Hour)

	s.ShowAuthForm(FormRegister)
	assert.False(t, s.ShowLogin)
	assert.True(t, s.ShowRegister)

	s.ShowAuthForm(FormLogin)
	assert.True(t, s.ShowLogin)
	assert.False(t, s.ShowRegister)

	s.ShowAuthForm("bogus")
	assert.True(t, s.ShowLogin)
}

func TestViewPrecedence(t *testing.T) {
	testCases := []struct {
		name  string
		setup func(s *Session)
		want  View
	}{
		{
			name:  "signed out defaults to login",
			setup: func(s *Session) { s.ShowLogin = false },
			want:  View{AuthForm: FormLogin},
		},
		{
			name:  "signed out register",
			setup: func(s *Session) { s.ShowAuthForm(FormRegister) },
			want:  View{AuthForm: FormRegister},
		},
		{
			name: "signed out ignores watchlist and batch",
			setup: func(s *Session) {
				s.ShowWatchlist = true
				s.Batch = sampleBatch()
			},
			want: View{AuthForm: FormLogin},
		},
		{
			name: "signed in with watchlist",
			setup: func(s *Session) {
				s.SignIn("alice")
				s.ToggleWatchlist()
			},
			want: View{LoggedIn: true, Username: "alice", Watchlist: true},
		},
		{
			name: "signed in with batch",
			setup: func(s *Session) {
				s.SignIn("alice")
				s.SetRecommendations(sampleBatch())
			},
			want: View{LoggedIn: true, Username: "alice", Recommendations: true},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newSession("x", time.Now(), time.Hour)
			tc.setup(s)
			assert.Equal(t, tc.want, s.View())
		})
	}
}

func TestParallelViewsStayAligned(t *testing.T) {
	s := newSession("x", time.Now(), time.Hour)
	s.SetRecommendations(sampleBatch())

	assert.Len(t, s.SimilarMovies(), 2)
	assert.Equal(t, []string{"p1", ""}, s.Posters())
	assert.Equal(t, []string{"One", "Two"}, s.Names())
	assert.Equal(t, []string{"d1", "d2"}, s.Descriptions())

	r, ok := s.Recommendation(2)
	require.True(t, ok)
	assert.Equal(t, "Two", r.Name)
	_, ok = s.Recommendation(3)
	assert.False(t, ok)
}

func TestMemoryStoreCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	s := newSession("x", time.Now(), time.Hour)
	s.SetRecommendations(sampleBatch())
	require.NoError(t, store.Create(ctx, s))

	s.Batch[0].Name = "mutated"
	loaded, err := store.Load(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "One", loaded.Batch[0].Name)
}

func TestSaveDoesNotResurrectEndedSession(t *testing.T) {
	store := NewMemoryStore()
	m := newTestManager(store, &clock{t: time.Now()})
	ctx := context.Background()

	s, _, err := m.Start(ctx, "")
	require.NoError(t, err)
	s.SignIn("alice")
	require.NoError(t, m.Save(ctx, s))

	// A second request holding the same id signs out first.
	other, err := store.Load(ctx, s.ID)
	require.NoError(t, err)
	_, err = m.End(ctx, other)
	require.NoError(t, err)

	err = m.Save(ctx, s)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Load(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	next, created, err := m.Start(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.False(t, next.LoggedIn)
}

func TestMemoryStoreCreateRejectsLiveID(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	s := newSession("x", time.Now(), time.Hour)

	require.NoError(t, store.Create(ctx, s))
	assert.ErrorIs(t, store.Create(ctx, s), ErrExists)
	assert.ErrorIs(t, store.Save(ctx, newSession("y", time.Now(), time.Hour)), ErrNotFound)
}

func TestMemoryStoreSweepsExpired(t *testing.T) {
	store := NewMemoryStore()
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	store.now = c.now
	m := newTestManager(store, c)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _, err := m.Start(ctx, "")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, store.Len())

	// Abandoned sessions are never loaded again; the next write clears them.
	c.advance(2 * time.Hour)
	_, _, err := m.Start(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())

	// Sweeps run at most once per sweepEvery.
	require.NoError(t, store.Create(ctx, newSession("brief", c.t, time.Second)))
	c.advance(30 * time.Second)
	_, _, err = m.Start(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, store.Len())

	c.advance(time.Minute)
	_, _, err = m.Start(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, store.Len())
	_, err = store.Load(ctx, "brief")
	assert.ErrorIs(t, err, ErrNotFound)
}
