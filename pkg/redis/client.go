package redis

import (
	"context"
	"fmt"
	"time"

	"SubletHubPlatform/pkg/config"
	"SubletHubPlatform/pkg/connection"
	"SubletHubPlatform/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// Client представляет подключение к Redis
type Client struct {
	Client *redis.Client
}

// Config представляет конфигурацию Redis
type Config struct {
	Addr     string
	Password string
	DB       int
	// Connection pool settings
	PoolSize    int
	MinIdleConn int
	// Retry settings
	MaxRetries    int
	RetryInterval time.Duration
	// Health check
	HealthCheck time.Duration
}

// NewConfig создает конфигурацию по умолчанию
func NewConfig() *Config {
	return &Config{
		Addr:          "localhost:6379",
		DB:            0,
		PoolSize:      10,
		MinIdleConn:   2,
		MaxRetries:    3,
		RetryInterval: 1 * time.Second,
		HealthCheck:   30 * time.Second,
	}
}

// FromAppConfig строит конфигурацию клиента из секции redis конфигурации приложения
func FromAppConfig(cfg config.RedisConfig) *Config {
	c := NewConfig()
	c.Addr = cfg.Addr
	c.Password = cfg.Password
	c.DB = cfg.DB
	if cfg.PoolSize > 0 {
		c.PoolSize = cfg.PoolSize
	}
	c.MinIdleConn = cfg.MinIdleConn
	c.MaxRetries = cfg.MaxRetries
	if d := config.Duration(cfg.RetryInterval); d > 0 {
		c.RetryInterval = d
	}
	return c
}

// Options возвращает параметры go-redis клиента
func (c *Config) Options() *redis.Options {
	return &redis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConn,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		// Таймаут для получения соединения из пула
		PoolTimeout:        4 * time.Second,
		IdleCheckFrequency: c.HealthCheck,
	}
}

// Connect устанавливает подключение к Redis с retry логикой
func Connect(ctx context.Context, cfg *Config, log logger.Logger) (*Client, error) {
	retry := connection.RetryConfig{
		MaxAttempts:  cfg.MaxRetries + 1,
		InitialDelay: cfg.RetryInterval,
		MaxDelay:     10 * cfg.RetryInterval,
		Multiplier:   2,
		Jitter:       true,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			log.Warn("Redis connection attempt failed",
				logger.Int("attempt", attempt),
				logger.Duration("retry_in", delay),
				logger.Error(err),
			)
		},
	}

	var client *redis.Client
	err := connection.WithRetry(ctx, retry, func(ctx context.Context) error {
		c := redis.NewClient(cfg.Options())
		if err := c.Ping(ctx).Err(); err != nil {
			c.Close()
			return fmt.Errorf("failed to ping redis: %w", err)
		}
		client = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("Connected to Redis", logger.String("addr", cfg.Addr))
	return &Client{Client: client}, nil
}

// Close закрывает подключение к Redis
func (r *Client) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// HealthCheck проверяет состояние подключения к Redis
func (r *Client) HealthCheck(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Ping(ctx).Err()
}
