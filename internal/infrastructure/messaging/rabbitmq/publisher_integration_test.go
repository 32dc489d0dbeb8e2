//go:build integration

package rabbitmq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestPublisher_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	rabbitC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "rabbitmq:3-management",
			ExposedPorts: []string{"5672/tcp"},
			WaitingFor:   wait.ForLog("Server startup complete").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rabbitC.Terminate(ctx) })

	host, err := rabbitC.Host(ctx)
	require.NoError(t, err)
	port, err := rabbitC.MappedPort(ctx, "5672")
	require.NoError(t, err)

	p, err := NewPublisher("amqp://guest:guest@"+host+":"+port.Port()+"/", "test.mail")
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.Send(ctx, "alice@x.com", "subject", "body"))

	p.mu.Lock()
	msg, ok, err := p.ch.Get(MailQueue, true)
	p.mu.Unlock()
	require.NoError(t, err)
	require.True(t, ok, "expected a queued mail job")

	var job MailJob
	require.NoError(t, json.Unmarshal(msg.Body, &job))
	assert.Equal(t, "alice@x.com", job.To)
}
