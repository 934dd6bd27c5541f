package redisclient

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// setupRedisForTest starts a throwaway Redis container
func setupRedisForTest(t *testing.T) *Client {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping Redis integration tests in short mode")
	}

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err, "Failed to start Redis container")
	testcontainers.CleanupContainer(t, container)

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := NewClient(redis.NewClient(opts))
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestClient_SetGetDel(t *testing.T) {
	client := setupRedisForTest(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "test:key", `[{"name":"joao"}]`, 0).Err())

	value, err := client.Get(ctx, "test:key").Result()
	require.NoError(t, err)
	assert.Equal(t, `[{"name":"joao"}]`, value)

	deleted, err := client.Del(ctx, "test:key").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = client.Get(ctx, "test:key").Result()
	assert.ErrorIs(t, err, redis.Nil)
}

func TestClient_SetWithExpiration(t *testing.T) {
	client := setupRedisForTest(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "test:ttl", "v", 50*time.Millisecond).Err())
	time.Sleep(150 * time.Millisecond)

	_, err := client.Get(ctx, "test:ttl").Result()
	assert.ErrorIs(t, err, redis.Nil)
}

func TestClient_CommandErrorsAreReturned(t *testing.T) {
	// Nothing listens on this port; the wrapper must surface the dial error.
	client := NewClient(redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	}))

	assert.Error(t, client.Ping(context.Background()).Err())
	assert.Error(t, client.Get(context.Background(), "k").Err())
}
