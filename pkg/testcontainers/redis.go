// Package testcontainers starts the external services that integration
// tests run against. Tests are skipped when no Docker provider is
// reachable.
package testcontainers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// RedisImage is the image the topic bus is tested against.
const RedisImage = "redis:7-alpine"

// RedisContainer is a running Redis container.
type RedisContainer struct {
	testcontainers.Container
	address string
}

// SetupRedisContainer starts Redis and returns it with its cleanup. The
// test is skipped when Docker is unavailable.
func SetupRedisContainer(t *testing.T) (*RedisContainer, func()) {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        RedisImage,
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForLog("Ready to accept connections"),
			wait.ForExposedPort(),
		).WithDeadline(30 * time.Second),
		Cmd: []string{"redis-server", "--save", "", "--appendonly", "no"},
	}

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "Failed to start Redis container")

	cleanup := func() {
		if err := c.Terminate(ctx); err != nil {
			t.Logf("Warning: failed to terminate Redis container: %v", err)
		}
	}

	address, err := c.Endpoint(ctx, "")
	if err != nil {
		cleanup()
		require.NoError(t, err, "Failed to get Redis endpoint")
	}

	return &RedisContainer{Container: c, address: address}, cleanup
}

// Address returns host:port of the mapped Redis port.
func (r *RedisContainer) Address() string {
	return r.address
}
