package rabbitmq

import (
	"context"
	"encoding/json"
	"time"

	"SubletHubPlatform/internal/domain"
	"SubletHubPlatform/pkg/errors"
	"SubletHubPlatform/pkg/logger"
	"SubletHubPlatform/pkg/rabbitmq"

	"github.com/sony/gobreaker"
)

// Publisher публикует сырые сообщения в брокер
type Publisher interface {
	Publish(ctx context.Context, body []byte, options ...rabbitmq.PublishOption) error
}

// BreakerSettings параметры circuit breaker продюсера
type BreakerSettings struct {
	Name string
	// Время в состоянии open перед пробным запросом
	Timeout time.Duration
	// Количество последовательных ошибок, после которого breaker открывается
	ConsecutiveFailures uint32
}

// DefaultBreakerSettings настройки по умолчанию
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:                "tip-events",
		Timeout:             10 * time.Second,
		ConsecutiveFailures: 2,
	}
}

// TipEventProducer публикует события жизненного цикла чаевых
type TipEventProducer struct {
	publisher Publisher
	breaker   *gobreaker.CircuitBreaker
	logger    logger.Logger
}

// NewTipEventProducer создает продюсера событий чаевых
func NewTipEventProducer(publisher Publisher, settings BreakerSettings, log logger.Logger) *TipEventProducer {
	log = log.With(logger.String("component", "tip_event_producer"))

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: 1,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > settings.ConsecutiveFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	})

	return &TipEventProducer{publisher: publisher, breaker: breaker, logger: log}
}

// PublishTipEvent публикует событие с ключом маршрутизации, равным типу события
func (p *TipEventProducer) PublishTipEvent(ctx context.Context, event *domain.TipEvent) error {
	if event == nil {
		return errors.New(errors.ErrValidation, "tip event is required")
	}

	body, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to encode tip event")
	}

	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.publisher.Publish(ctx, body,
			rabbitmq.WithRoutingKey(string(event.Type)),
			rabbitmq.WithMessageID(event.ID),
			rabbitmq.WithType(string(event.Type)),
		)
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrUnavailable, "failed to publish tip event").
			WithDetails(string(event.Type))
	}

	p.logger.Debug("Tip event published",
		logger.CtxField(ctx),
		logger.String("event_id", event.ID),
		logger.String("event_type", string(event.Type)),
		logger.String("tip_id", event.TipID),
		logger.Int("event_size", len(body)),
	)
	return nil
}

// State возвращает текущее состояние circuit breaker
func (p *TipEventProducer) State() gobreaker.State {
	return p.breaker.State()
}
