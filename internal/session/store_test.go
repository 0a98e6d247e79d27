package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "pickflix:session"), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()
	s := newSession("abc", time.Now(), time.Hour)
	s.SignIn("alice")
	s.SetRecommendations(sampleBatch())

	require.NoError(t, store.Create(ctx, s))
	assert.True(t, mr.Exists("pickflix:session:abc"))
	ttl := mr.TTL("pickflix:session:abc")
	assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 5)

	loaded, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "alice", loaded.Username)
	assert.Equal(t, s.Names(), loaded.Names())

	assert.ErrorIs(t, store.Create(ctx, s), ErrExists)

	s.ToggleWatchlist()
	s.ExpiresAt = time.Now().Add(2 * time.Hour)
	require.NoError(t, store.Save(ctx, s))
	assert.InDelta(t, (2 * time.Hour).Seconds(), mr.TTL("pickflix:session:abc").Seconds(), 5)
	loaded, err = store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, loaded.ShowWatchlist)
}

func TestRedisStoreSaveNeedsLiveRecord(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()
	s := newSession("gone", time.Now(), time.Hour)

	assert.ErrorIs(t, store.Save(ctx, s), ErrNotFound)
	assert.False(t, mr.Exists("pickflix:session:gone"))

	require.NoError(t, store.Create(ctx, s))
	require.NoError(t, store.Delete(ctx, s.ID))
	assert.ErrorIs(t, store.Save(ctx, s), ErrNotFound)
	assert.False(t, mr.Exists("pickflix:session:gone"))
}

func TestRedisStoreExpiry(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()
	s := newSession("short", time.Now(), time.Hour)
	require.NoError(t, store.Create(ctx, s))

	mr.FastForward(time.Hour + time.Second)
	_, err := store.Load(ctx, "short")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Save(ctx, s), ErrNotFound)

	past := newSession("past", time.Now().Add(-2*time.Hour), time.Hour)
	assert.ErrorIs(t, store.Save(ctx, past), ErrNotFound)
	assert.False(t, mr.Exists("pickflix:session:past"))
}

func TestRedisStoreUnreadableRecord(t *testing.T) {
	store, mr := newRedisStore(t)
	require.NoError(t, mr.Set("pickflix:session:junk", "{not json"))

	_, err := store.Load(context.Background(), "junk")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreUnavailable(t *testing.T) {
	store, mr := newRedisStore(t)
	mr.Close()

	_, err := store.Load(context.Background(), "abc")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestManagerEndOnRedisKeepsOldIDGone(t *testing.T) {
	store, mr := newRedisStore(t)
	m := NewManager(store, time.Hour)
	ctx := context.Background()

	s, _, err := m.Start(ctx, "")
	require.NoError(t, err)
	s.SignIn("alice")
	require.NoError(t, m.Save(ctx, s))

	other, err := store.Load(ctx, s.ID)
	require.NoError(t, err)
	fresh, err := m.End(ctx, other)
	require.NoError(t, err)

	assert.ErrorIs(t, m.Save(ctx, s), ErrNotFound)
	assert.False(t, mr.Exists("pickflix:session:"+s.ID))
	assert.True(t, mr.Exists("pickflix:session:"+fresh.ID))
}
