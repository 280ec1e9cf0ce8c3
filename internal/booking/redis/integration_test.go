package redis

import (
	"context"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestRedisIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Redis integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("Redis container unavailable: %v", err)
	}
	defer container.Terminate(ctx)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: host + ":" + port.Port()})
	defer client.Close()

	lock := NewRedis(client, 0, nil)

	locked, err := lock.LockPackage(ctx, "pkg-1", "booking-a")
	require.NoError(t, err)
	assert.True(t, locked)

	locked, err = lock.LockPackage(ctx, "pkg-1", "booking-b")
	require.NoError(t, err)
	assert.False(t, locked)

	require.NoError(t, lock.UnlockPackage(ctx, "pkg-1", "booking-a"))

	locked, err = lock.LockPackage(ctx, "pkg-1", "booking-b")
	require.NoError(t, err)
	assert.True(t, locked)
}
