package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/portfolio/internal/repository"
)

func setupTestRedis(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewStore(client, "")
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestStore_RoundTrip(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	_, found, err := store.Get(ctx, repository.KeyAuthToken)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, repository.KeyAuthToken, "t1"))

	value, found, err := store.Get(ctx, repository.KeyAuthToken)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "t1", value)

	// Keys are namespaced on the server.
	raw, err := mr.Get(DefaultPrefix + repository.KeyAuthToken)
	require.NoError(t, err)
	assert.Equal(t, "t1", raw)
}

func TestStore_Delete(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, repository.KeyAuthUser, `{"id":1}`))
	require.NoError(t, store.Delete(ctx, repository.KeyAuthUser))

	assert.False(t, mr.Exists(DefaultPrefix+repository.KeyAuthUser))
}

func TestOpen_BadURL(t *testing.T) {
	_, err := Open(context.Background(), "not-a-url")
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := Open(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Set(context.Background(), repository.KeyThemePreference, "dark"))
	assert.True(t, mr.Exists(DefaultPrefix+repository.KeyThemePreference))
}
