package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"SubletHubPlatform/internal/domain"
	"SubletHubPlatform/pkg/errors"
	"SubletHubPlatform/pkg/logger"
	"SubletHubPlatform/pkg/metrics"
	"SubletHubPlatform/pkg/rabbitmq"

	"github.com/rabbitmq/amqp091-go"
)

const (
	DefaultSettlementQueue = "tip.settlements"
	DefaultSettlementKey   = "tip.settlement"
)

// Исходы обработки сообщения для метрик, кроме конечных статусов чаевых
const (
	outcomeRejected = "rejected"
	outcomeRetry    = "retry"
)

// SettlementService применяет результаты расчета к чаевым
type SettlementService interface {
	CompleteTip(ctx context.Context, tipID, transactionID string) (*domain.Tip, error)
	FailTip(ctx context.Context, tipID, reason string) (*domain.Tip, error)
}

// SettlementConsumer обрабатывает сообщения о результатах расчета
type SettlementConsumer struct {
	tips    SettlementService
	queue   string
	metrics *metrics.Metrics
	logger  logger.Logger
}

// NewSettlementConsumer создает обработчик очереди расчетов; m может быть nil
func NewSettlementConsumer(tips SettlementService, queue string, m *metrics.Metrics, log logger.Logger) *SettlementConsumer {
	if queue == "" {
		queue = DefaultSettlementQueue
	}
	return &SettlementConsumer{
		tips:    tips,
		queue:   queue,
		metrics: m,
		logger:  log.With(logger.String("component", "settlement_consumer"), logger.String("queue", queue)),
	}
}

// Register подписывает обработчик на очередь расчетов
func (c *SettlementConsumer) Register(consumer *rabbitmq.Consumer, routingKey string) {
	if routingKey == "" {
		routingKey = DefaultSettlementKey
	}
	consumer.RegisterHandler(c.queue, routingKey, c.Handle)
}

// Handle разбирает сообщение и переводит чаевые в конечный статус.
// Ошибки предметной области не повторяются: сообщение подтверждается и попадает только в лог.
func (c *SettlementConsumer) Handle(ctx context.Context, msg amqp091.Delivery) error {
	if c.metrics != nil {
		c.metrics.IncrementQueueSize(c.queue)
		defer c.metrics.DecrementQueueSize(c.queue)
	}

	var settlement domain.Settlement
	if err := json.Unmarshal(msg.Body, &settlement); err != nil {
		c.observe(outcomeRejected)
		return rabbitmq.Permanent(fmt.Errorf("malformed settlement message: %w", err))
	}
	settlement.TipID = strings.TrimSpace(settlement.TipID)

	fields := []logger.Field{
		logger.String("message_id", msg.MessageId),
		logger.String("tip_id", settlement.TipID),
		logger.String("status", string(settlement.Status)),
	}

	var err error
	switch settlement.Status {
	case domain.TipCompleted:
		_, err = c.tips.CompleteTip(ctx, settlement.TipID, settlement.TransactionID)
	case domain.TipFailed:
		_, err = c.tips.FailTip(ctx, settlement.TipID, settlement.Reason)
	default:
		c.observe(outcomeRejected)
		return rabbitmq.Permanent(fmt.Errorf("unsupported settlement status %q", settlement.Status))
	}

	if err != nil {
		if permanent(err) {
			c.observe(outcomeRejected)
			c.logger.Warn("Settlement rejected", append(fields, logger.Error(err))...)
			return nil
		}
		c.observe(outcomeRetry)
		return err
	}

	c.observe(string(settlement.Status))
	c.logger.Info("Settlement applied", fields...)
	return nil
}

func (c *SettlementConsumer) observe(outcome string) {
	if c.metrics != nil {
		c.metrics.ObserveSettlement(outcome)
	}
}

// permanent сообщает, что повтор не изменит результат
func permanent(err error) bool {
	return errors.HasCode(err, errors.ErrNotFound) ||
		errors.HasCode(err, errors.ErrInvalidOperation) ||
		errors.HasCode(err, errors.ErrValidation)
}
