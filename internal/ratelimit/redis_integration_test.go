//go:build integration

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedis_FixedWindow(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()
	limiter := NewRedis(client, 2, time.Second)

	for i := 0; i < 2; i++ {
		res, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	res, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.WithinDuration(t, time.Now().Add(time.Second), res.ResetAt, time.Second)

	ttl, err := client.PTTL(ctx, keyPrefix+"10.0.0.1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.Eventually(t, func() bool {
		res, err := limiter.Allow(ctx, "10.0.0.1")
		return err == nil && res.Allowed
	}, 3*time.Second, 100*time.Millisecond)
}

func TestRedis_KeyWithoutTTLRecovers(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()
	require.NoError(t, client.Set(ctx, keyPrefix+"stuck", 100, 0).Err())

	limiter := NewRedis(client, 5, time.Minute)
	_, err := limiter.Allow(ctx, "stuck")
	require.NoError(t, err)

	ttl, err := client.PTTL(ctx, keyPrefix+"stuck").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
