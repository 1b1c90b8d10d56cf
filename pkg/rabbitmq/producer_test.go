package rabbitmq

import (
	"context"
	"testing"
	"time"

	"SubletHubPlatform/pkg/config"

	"github.com/stretchr/testify/assert"
)

// TestProducer_PublishWithoutConnection проверяет ошибку при отсутствии подключения
func TestProducer_PublishWithoutConnection(t *testing.T) {
	producer := NewProducer(&Connection{}, NewConfig())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := producer.Publish(ctx, []byte(`{}`), WithRoutingKey("tip.created"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "rabbitmq channel is not initialized")
	assert.NoError(t, producer.Close())
}

// TestPublishOptions проверяет применение опций
func TestPublishOptions(t *testing.T) {
	opts := &PublishOptions{}
	for _, option := range []PublishOption{
		WithExchange("sublethub.tips"),
		WithRoutingKey("tip.completed"),
		WithMandatory(true),
		WithMessageID("tip-1"),
		WithType("tip.completed"),
	} {
		option(opts)
	}

	assert.Equal(t, "sublethub.tips", opts.Exchange)
	assert.Equal(t, "tip.completed", opts.RoutingKey)
	assert.True(t, opts.Mandatory)
	assert.Equal(t, "tip-1", opts.MessageID)
	assert.Equal(t, "tip.completed", opts.Type)
}

// TestFromAppConfig проверяет перенос настроек из конфигурации приложения
func TestFromAppConfig(t *testing.T) {
	app := config.Default().RabbitMQ
	app.URL = "amqp://user:pass@mq:5672/"
	app.MaxRetries = 5

	cfg := FromAppConfig(app)

	assert.Equal(t, "amqp://user:pass@mq:5672/", cfg.URL)
	assert.Equal(t, "sublethub.tips", cfg.Exchange)
	assert.Equal(t, 5, cfg.MaxRetryAttempts)
	assert.Equal(t, "topic", cfg.ExchangeType)
}

// TestConnection_NotInitialized проверяет проверки состояния без подключения
func TestConnection_NotInitialized(t *testing.T) {
	conn := &Connection{}

	_, err := conn.Channel()
	assert.Error(t, err)
	assert.Error(t, conn.HealthCheck(context.Background()))
	assert.NoError(t, conn.Close())
}
