package redis

import (
	"context"
	"testing"
	"time"

	"controle-acesso/internal/access"
	"controle-acesso/internal/logger"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestClaimer_RedisContainer(t *testing.T) {
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

	lock := NewRedis(client, 30*time.Second, logger.NewNopLogger())
	c := NewClaimer(lock, &onceClaimer{})

	require.NoError(t, c.ClaimTicket(ctx, "ING123FESTIVAL", time.Now()))
	assert.ErrorIs(t, c.ClaimTicket(ctx, "ING123FESTIVAL", time.Now()), access.ErrTicketAlreadyConsumed)

	claimed, err := lock.IsClaimed(ctx, "ING123FESTIVAL")
	require.NoError(t, err)
	assert.True(t, claimed)
}
