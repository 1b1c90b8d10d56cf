package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"SubletHubPlatform/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

// retryCountHeader хранит число повторных доставок сообщения
const retryCountHeader = "x-retry-count"

// MessageHandler функция для обработки сообщения
type MessageHandler func(context.Context, amqp091.Delivery) error

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent помечает ошибку как неисправимую: сообщение уходит в DLQ без повторов
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent сообщает, помечена ли ошибка как неисправимая
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// republisher публикует сообщение повторно; реализуется *amqp091.Channel
type republisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

type registration struct {
	routingKey string
	handler    MessageHandler
}

// Consumer представляет консьюмера сообщений
type Consumer struct {
	conn     *Connection
	config   *Config
	log      logger.Logger
	mu       sync.RWMutex
	handlers map[string]registration
}

// NewConsumer создает нового консьюмера
func NewConsumer(conn *Connection, config *Config, log logger.Logger) *Consumer {
	return &Consumer{
		conn:     conn,
		config:   config,
		log:      log,
		handlers: make(map[string]registration),
	}
}

// RegisterHandler регистрирует обработчик очереди, привязанной к exchange по routing key
func (c *Consumer) RegisterHandler(queueName, routingKey string, handler MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[queueName] = registration{routingKey: routingKey, handler: handler}
}

// Start запускает консьюмера для всех зарегистрированных очередей и блокируется до отмены контекста
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.RLock()
	handlers := make(map[string]registration, len(c.handlers))
	for queue, reg := range c.handlers {
		handlers[queue] = reg
	}
	c.mu.RUnlock()

	var wg sync.WaitGroup
	for queueName, reg := range handlers {
		wg.Add(1)
		go func(queue string, reg registration) {
			defer wg.Done()
			for {
				err := c.consume(ctx, queue, reg)
				if ctx.Err() != nil {
					return
				}
				c.log.Error("Error consuming from queue, reconnecting",
					logger.String("queue", queue),
					logger.Duration("retry_in", c.config.ReconnectInterval),
					logger.Error(err),
				)
				select {
				case <-ctx.Done():
					return
				case <-time.After(c.config.ReconnectInterval):
				}
			}
		}(queueName, reg)
	}

	<-ctx.Done()
	wg.Wait()
	return ctx.Err()
}

// consume объявляет очередь и обрабатывает сообщения до закрытия канала
func (c *Consumer) consume(ctx context.Context, queueName string, reg registration) error {
	channel, err := c.conn.Channel()
	if err != nil {
		return err
	}
	defer channel.Close()

	if err := channel.Qos(c.config.PrefetchCount, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	var args amqp091.Table
	if c.config.DLX != "" {
		args = amqp091.Table{"x-dead-letter-exchange": c.config.DLX}
	}
	if _, err := channel.QueueDeclare(queueName, true, false, false, false, args); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}

	if c.config.Exchange != "" && reg.routingKey != "" {
		if err := channel.QueueBind(queueName, reg.routingKey, c.config.Exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s to exchange %s: %w", queueName, c.config.Exchange, err)
		}
	}

	msgs, err := channel.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	c.log.Info("Consumer started", logger.String("queue", queueName))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("consumer channel closed")
			}
			c.handleDelivery(ctx, channel, queueName, reg.handler, msg)
		}
	}
}

// handleDelivery выполняет обработчик и решает судьбу сообщения:
// успех - ack, неисправимая ошибка - в DLQ, иначе повторная публикация до MaxRetryAttempts
func (c *Consumer) handleDelivery(ctx context.Context, pub republisher, queueName string, handler MessageHandler, msg amqp091.Delivery) {
	msgCtx, cancel := context.WithTimeout(ctx, c.config.HandlerTimeout)
	defer cancel()

	err := handler(msgCtx, msg)
	if err == nil {
		if ackErr := msg.Ack(false); ackErr != nil {
			c.log.Error("Error sending ack", logger.Int64("delivery_tag", int64(msg.DeliveryTag)), logger.Error(ackErr))
		}
		return
	}

	retries := retryCount(msg.Headers)
	fields := []logger.Field{
		logger.String("queue", queueName),
		logger.String("message_id", msg.MessageId),
		logger.Int("retries", retries),
		logger.Error(err),
	}

	if IsPermanent(err) || retries >= c.config.MaxRetryAttempts {
		c.log.Error("Message dead-lettered", fields...)
		if nackErr := msg.Nack(false, false); nackErr != nil {
			c.log.Error("Error sending nack", logger.Error(nackErr))
		}
		return
	}

	c.log.Warn("Message processing failed, scheduling retry", fields...)

	headers := amqp091.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[retryCountHeader] = int32(retries + 1)

	retry := amqp091.Publishing{
		Headers:      headers,
		ContentType:  msg.ContentType,
		DeliveryMode: amqp091.Persistent,
		MessageId:    msg.MessageId,
		Timestamp:    msg.Timestamp,
		Type:         msg.Type,
		Body:         msg.Body,
	}
	if pubErr := pub.PublishWithContext(ctx, "", queueName, false, false, retry); pubErr != nil {
		c.log.Error("Failed to republish message, requeueing", logger.Error(pubErr))
		if nackErr := msg.Nack(false, true); nackErr != nil {
			c.log.Error("Error sending nack", logger.Error(nackErr))
		}
		return
	}

	if ackErr := msg.Ack(false); ackErr != nil {
		c.log.Error("Error sending ack", logger.Error(ackErr))
	}
}

// retryCount извлекает счетчик повторов из заголовков
func retryCount(headers amqp091.Table) int {
	switch v := headers[retryCountHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
