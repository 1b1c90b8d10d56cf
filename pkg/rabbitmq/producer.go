package rabbitmq

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Producer публикует сообщения в режиме подтверждений
type Producer struct {
	conn   *Connection
	config *Config

	mu      sync.Mutex
	channel *amqp091.Channel
	now     func() time.Time
}

// NewProducer создает нового продюсера
func NewProducer(conn *Connection, config *Config) *Producer {
	return &Producer{conn: conn, config: config, now: time.Now}
}

// Publish публикует сообщение в RabbitMQ и ждет подтверждения брокера
func (p *Producer) Publish(ctx context.Context, body []byte, options ...PublishOption) error {
	opts := &PublishOptions{
		Exchange:    p.config.Exchange,
		ContentType: "application/json",
	}
	for _, option := range options {
		option(opts)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	channel, err := p.confirmChannel()
	if err != nil {
		return err
	}

	msg := amqp091.Publishing{
		ContentType:  opts.ContentType,
		Body:         body,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    p.now(),
		MessageId:    opts.MessageID,
		Type:         opts.Type,
	}
	if len(opts.Headers) > 0 {
		msg.Headers = opts.Headers
	}

	confirmation, err := channel.PublishWithDeferredConfirmWithContext(ctx, opts.Exchange, opts.RoutingKey, opts.Mandatory, false, msg)
	if err != nil {
		p.resetChannel()
		return fmt.Errorf("failed to publish message: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, p.config.ConfirmTimeout)
	defer cancel()

	acked, err := confirmation.WaitContext(waitCtx)
	if err != nil {
		return fmt.Errorf("failed waiting for confirmation: %w", err)
	}
	if !acked {
		return fmt.Errorf("message rejected by broker")
	}
	return nil
}

// confirmChannel возвращает канал в режиме confirm, открывая его при необходимости
func (p *Producer) confirmChannel() (*amqp091.Channel, error) {
	if p.channel != nil && !p.channel.IsClosed() {
		return p.channel, nil
	}

	if p.conn == nil {
		return nil, fmt.Errorf("rabbitmq channel is not initialized")
	}
	channel, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel is not initialized: %w", err)
	}
	if err := channel.Confirm(false); err != nil {
		channel.Close()
		return nil, fmt.Errorf("failed to enable confirm mode: %w", err)
	}

	p.channel = channel
	return channel, nil
}

func (p *Producer) resetChannel() {
	if p.channel != nil {
		p.channel.Close()
		p.channel = nil
	}
}

// Close закрывает канал продюсера
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil {
		return nil
	}
	err := p.channel.Close()
	p.channel = nil
	return err
}

// PublishOptions представляет опции для публикации сообщения
type PublishOptions struct {
	Exchange    string
	RoutingKey  string
	Mandatory   bool
	ContentType string
	MessageID   string
	Type        string
	Headers     amqp091.Table
}

// PublishOption функция для настройки опций публикации
type PublishOption func(*PublishOptions)

// WithExchange устанавливает exchange
func WithExchange(exchange string) PublishOption {
	return func(opts *PublishOptions) {
		opts.Exchange = exchange
	}
}

// WithRoutingKey устанавливает routing key
func WithRoutingKey(routingKey string) PublishOption {
	return func(opts *PublishOptions) {
		opts.RoutingKey = routingKey
	}
}

// WithMandatory устанавливает mandatory флаг
func WithMandatory(mandatory bool) PublishOption {
	return func(opts *PublishOptions) {
		opts.Mandatory = mandatory
	}
}

// WithMessageID устанавливает идентификатор сообщения
func WithMessageID(id string) PublishOption {
	return func(opts *PublishOptions) {
		opts.MessageID = id
	}
}

// WithType устанавливает тип события
func WithType(eventType string) PublishOption {
	return func(opts *PublishOptions) {
		opts.Type = eventType
	}
}

// WithHeaders устанавливает заголовки
func WithHeaders(headers amqp091.Table) PublishOption {
	return func(opts *PublishOptions) {
		opts.Headers = headers
	}
}
