package database

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"SubletHubPlatform/pkg/config"
	"SubletHubPlatform/pkg/connection"
	"SubletHubPlatform/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres представляет подключение к PostgreSQL
type Postgres struct {
	Pool *pgxpool.Pool
}

// Config представляет конфигурацию PostgreSQL
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	// Connection pool settings
	MaxConns    int
	MinConns    int
	MaxConnLife time.Duration
	MaxConnIdle time.Duration
	HealthCheck time.Duration
	// Retry settings
	MaxRetries    int
	RetryInterval time.Duration
}

// NewConfig создает конфигурацию по умолчанию
func NewConfig() *Config {
	return &Config{
		Host:          "localhost",
		Port:          5432,
		User:          "sublethub",
		Password:      "sublethub",
		Database:      "sublethub",
		SSLMode:       "disable",
		MaxConns:      20,
		MinConns:      2,
		MaxConnLife:   30 * time.Minute,
		MaxConnIdle:   5 * time.Minute,
		HealthCheck:   30 * time.Second,
		MaxRetries:    3,
		RetryInterval: 1 * time.Second,
	}
}

// FromAppConfig строит конфигурацию пула из секции database конфигурации приложения
func FromAppConfig(cfg config.DatabaseConfig) *Config {
	c := NewConfig()
	c.Host = cfg.Host
	c.Port = cfg.Port
	c.User = cfg.User
	c.Password = cfg.Password
	c.Database = cfg.Name
	c.SSLMode = cfg.SSLMode
	if cfg.MaxConns > 0 {
		c.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns >= 0 {
		c.MinConns = cfg.MinConns
	}
	c.MaxRetries = cfg.MaxRetries
	if d := config.Duration(cfg.RetryInterval); d > 0 {
		c.RetryInterval = d
	}
	return c
}

// ConnString возвращает DSN в формате postgres://
func (c *Config) ConnString() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   c.Host + ":" + strconv.Itoa(c.Port),
		Path:   "/" + c.Database,
	}
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// PoolConfig разбирает DSN и применяет параметры пула
func (c *Config) PoolConfig() (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(c.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool config: %w", err)
	}

	poolConfig.MaxConns = int32(c.MaxConns)
	poolConfig.MinConns = int32(c.MinConns)
	poolConfig.MaxConnLifetime = c.MaxConnLife
	poolConfig.MaxConnIdleTime = c.MaxConnIdle
	poolConfig.HealthCheckPeriod = c.HealthCheck
	poolConfig.MaxConnLifetimeJitter = 30 * time.Second

	return poolConfig, nil
}

// Connect устанавливает подключение к PostgreSQL с retry логикой
func Connect(ctx context.Context, cfg *Config, log logger.Logger) (*Postgres, error) {
	poolConfig, err := cfg.PoolConfig()
	if err != nil {
		return nil, err
	}

	retry := connection.RetryConfig{
		MaxAttempts:  cfg.MaxRetries + 1,
		InitialDelay: cfg.RetryInterval,
		MaxDelay:     10 * cfg.RetryInterval,
		Multiplier:   2,
		Jitter:       true,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			log.Warn("Postgres connection attempt failed",
				logger.Int("attempt", attempt),
				logger.Duration("retry_in", delay),
				logger.Error(err),
			)
		},
	}

	var pool *pgxpool.Pool
	err = connection.WithRetry(ctx, retry, func(ctx context.Context) error {
		p, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return fmt.Errorf("failed to ping database: %w", err)
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("Connected to Postgres",
		logger.String("host", cfg.Host),
		logger.String("database", cfg.Database),
	)
	return &Postgres{Pool: pool}, nil
}

// Close закрывает подключение к базе данных
func (p *Postgres) Close() {
	if p.Pool != nil {
		p.Pool.Close()
	}
}

// HealthCheck проверяет состояние подключения к базе данных
func (p *Postgres) HealthCheck(ctx context.Context) error {
	if p.Pool == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	var result string
	return p.Pool.QueryRow(ctx, "SELECT 'healthy'").Scan(&result)
}
