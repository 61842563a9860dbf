//go:build integration

// Package containers starts throwaway backing services for integration tests.
// Every container is terminated through t.Cleanup.
package containers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"userflat/internal/platform/config"
	platformredis "userflat/internal/platform/redis"
)

// RedisContainer is a Redis instance plus a client built the same way the
// server builds its own.
type RedisContainer struct {
	URL    string
	Client *platformredis.Client
}

func NewRedisContainer(t *testing.T) *RedisContainer {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err, "start redis container")

	url, err := ctr.ConnectionString(ctx)
	require.NoError(t, err, "redis connection string")

	client, err := platformredis.New(ctx, config.RedisConfig{
		URL:          url,
		PoolSize:     4,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	require.NoError(t, err, "connect redis")
	t.Cleanup(func() { _ = client.Close() })

	return &RedisContainer{URL: url, Client: client}
}

// FlushAll removes every key so tests start empty.
func (r *RedisContainer) FlushAll(ctx context.Context) error {
	return r.Client.FlushAll(ctx).Err()
}
