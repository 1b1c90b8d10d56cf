package main

import (
	"context"
	"net/http"
	"testing"
	"time"

	"SubletHubPlatform/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noTracing(context.Context) error { return nil }

// TestShutdown_WaitsForConsumer проверяет, что остановка ждет завершения обработчиков расчетов
func TestShutdown_WaitsForConsumer(t *testing.T) {
	consumerDone := make(chan struct{})
	released := make(chan time.Time, 1)
	go func() {
		time.Sleep(100 * time.Millisecond)
		released <- time.Now()
		close(consumerDone)
	}()

	err := shutdown(&http.Server{}, nil, consumerDone, noTracing, time.Second, logger.NewNop())
	returned := time.Now()

	require.NoError(t, err)
	assert.False(t, returned.Before(<-released), "shutdown returned before the consumer stopped")
}

// TestShutdown_ConsumerTimeout проверяет ошибку, если обработчики не успели завершиться
func TestShutdown_ConsumerTimeout(t *testing.T) {
	consumerDone := make(chan struct{})
	t.Cleanup(func() { close(consumerDone) })

	err := shutdown(&http.Server{}, nil, consumerDone, noTracing, 50*time.Millisecond, logger.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// TestShutdown_NoConsumer проверяет остановку без RabbitMQ
func TestShutdown_NoConsumer(t *testing.T) {
	consumerDone := make(chan struct{})
	close(consumerDone)

	assert.NoError(t, shutdown(&http.Server{}, nil, consumerDone, noTracing, time.Second, logger.NewNop()))
}
