//go:build integration

package events

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feyti/medreport/internal/domain/entities"
	"github.com/feyti/medreport/internal/domain/providers"
	redisclient "github.com/feyti/medreport/internal/infrastructure/clients/redis"
	"github.com/feyti/medreport/pkg/config"
)

func newTestRedisClient(t *testing.T) *redisclient.Client {
	t.Helper()
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	port, err := strconv.Atoi(os.Getenv("TEST_REDIS_PORT"))
	if err != nil {
		port = 6379
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := redisclient.NewClient(ctx, &config.RedisConfig{
		Host:     os.Getenv("TEST_REDIS_HOST"),
		Port:     port,
		Password: os.Getenv("TEST_REDIS_PASSWORD"),
	})
	require.NoError(t, err, "Failed to create redis client")
	t.Cleanup(func() { client.Close() })
	return client
}

func waitForReportEvent(t *testing.T, ch <-chan *entities.ReportEvent) *entities.ReportEvent {
	t.Helper()
	select {
	case event, ok := <-ch:
		require.True(t, ok, "event channel closed")
		return event
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for report event")
		return nil
	}
}

func TestRedisEventBusFanoutIntegration(t *testing.T) {
	bus := NewRedisEventBus(newTestRedisClient(t))
	defer bus.Close()

	ctx1, cancel1 := context.WithCancel(context.Background())
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel1()
	defer cancel2()

	sub1, err := bus.Subscribe(ctx1, providers.EventChannelReports)
	require.NoError(t, err)
	sub2, err := bus.Subscribe(ctx2, providers.EventChannelReports)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	event := entities.NewReportEvent(&entities.Report{ID: 42, Drug: "Drug X", Severity: "severe", Outcome: "fatal"})
	require.NoError(t, bus.Publish(context.Background(), providers.EventChannelReports, event))

	received1 := waitForReportEvent(t, sub1)
	received2 := waitForReportEvent(t, sub2)
	assert.Equal(t, event.ID, received1.ID)
	assert.Equal(t, event.ID, received2.ID)
	assert.Equal(t, int64(42), received1.ReportID)
}

func TestRedisEventBusCancelClosesSubscriberIntegration(t *testing.T) {
	bus := NewRedisEventBus(newTestRedisClient(t))
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := bus.Subscribe(ctx, providers.EventChannelReports)
	require.NoError(t, err)

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-sub:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}
