//go:build integration

package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/erp/woosync/internal/domain/woosync"
)

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisRunLock(t *testing.T) {
	ctx := context.Background()
	client := newRedisClient(t)
	cfg := RedisRunLockConfig{TTL: 300 * time.Millisecond, RefreshInterval: 100 * time.Millisecond}

	first, err := NewRedisRunLock(client, cfg, newTestLogger())
	require.NoError(t, err)
	second, err := NewRedisRunLock(client, cfg, newTestLogger())
	require.NoError(t, err)

	configID := uuid.New()
	release, err := first.Acquire(ctx, configID)
	require.NoError(t, err)

	t.Run("held across instances", func(t *testing.T) {
		_, err := second.Acquire(ctx, configID)
		assert.ErrorIs(t, err, woosync.ErrRunInProgress)
	})

	t.Run("refreshed beyond the ttl", func(t *testing.T) {
		time.Sleep(3 * cfg.TTL)
		_, err := second.Acquire(ctx, configID)
		assert.ErrorIs(t, err, woosync.ErrRunInProgress)
	})

	require.NoError(t, release(ctx))
	require.NoError(t, release(ctx))

	again, err := second.Acquire(ctx, configID)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}
