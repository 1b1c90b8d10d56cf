package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestLoadConfig_DefaultValues проверяет загрузку значений по умолчанию
func TestLoadConfig_DefaultValues(t *testing.T) {
	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if config.Server.Port != 8080 {
		t.Errorf("Expected server port to be 8080, got %d", config.Server.Port)
	}
	if config.Database.QueryTimeout != "5s" {
		t.Errorf("Expected query timeout 5s, got %s", config.Database.QueryTimeout)
	}
	if config.Auth.BcryptCost != 12 {
		t.Errorf("Expected bcrypt cost 12, got %d", config.Auth.BcryptCost)
	}
	if Duration(config.JWT.TokenTTL) != 7*24*time.Hour {
		t.Errorf("Expected token ttl of 7 days, got %s", config.JWT.TokenTTL)
	}
	if config.Listings.MaxPageSize != 100 {
		t.Errorf("Expected max page size 100, got %d", config.Listings.MaxPageSize)
	}
	if config.RabbitMQ.Exchange != "sublethub.tips" {
		t.Errorf("Expected exchange sublethub.tips, got %s", config.RabbitMQ.Exchange)
	}
	if config.Environment != "dev" {
		t.Errorf("Expected environment to be \"dev\", got %s", config.Environment)
	}
}

// TestLoadConfig_FileOverride проверяет переопределение значений по умолчанию значениями из файла
func TestLoadConfig_FileOverride(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "config.yaml")
	configContent := `server:
  host: "127.0.0.1"
  port: 9090
database:
  host: "prod-db"
  name: "sublets"
jwt:
  secret: "a-very-long-production-secret-value"
  token_ttl: "24h"
listings:
  max_page_size: 50
logger:
  level: "debug"
environment: "prod"
`
	if err := os.WriteFile(tempFile, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to create temp config file: %v", err)
	}

	config, err := LoadConfig(tempFile)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if config.Server.Host != "127.0.0.1" {
		t.Errorf("Expected server host to be \"127.0.0.1\", got %s", config.Server.Host)
	}
	if config.Server.Port != 9090 {
		t.Errorf("Expected server port to be 9090, got %d", config.Server.Port)
	}
	if config.Database.Name != "sublets" {
		t.Errorf("Expected database name sublets, got %s", config.Database.Name)
	}
	// Значения, не указанные в файле, остаются по умолчанию
	if config.Database.Port != 5432 {
		t.Errorf("Expected database port to stay 5432, got %d", config.Database.Port)
	}
	if config.Listings.MaxPageSize != 50 {
		t.Errorf("Expected max page size 50, got %d", config.Listings.MaxPageSize)
	}
	if config.Environment != "prod" {
		t.Errorf("Expected environment prod, got %s", config.Environment)
	}
}

// TestLoadConfig_EnvOverride проверяет приоритет переменных окружения над файлом
func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("DATABASE_HOST", "env-db")
	t.Setenv("JWT_SECRET", "secret-from-env")
	t.Setenv("REDIS_ENABLED", "false")

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if config.Server.Port != 7070 {
		t.Errorf("Expected server port 7070, got %d", config.Server.Port)
	}
	if config.Database.Host != "env-db" {
		t.Errorf("Expected database host env-db, got %s", config.Database.Host)
	}
	if config.JWT.Secret != "secret-from-env" {
		t.Errorf("Expected jwt secret from env, got %s", config.JWT.Secret)
	}
	if config.Redis.Enabled {
		t.Error("Expected redis to be disabled")
	}
}

// TestLoadConfig_DotEnv проверяет чтение .env файла и приоритет окружения над ним
func TestLoadConfig_DotEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "DATABASE_NAME=from_dotenv\nLOGGER_LEVEL=warn\n"
	if err := os.WriteFile(envFile, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create env file: %v", err)
	}
	t.Setenv("LOGGER_LEVEL", "error")

	config, err := LoadConfig("", envFile, filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if config.Database.Name != "from_dotenv" {
		t.Errorf("Expected database name from .env, got %s", config.Database.Name)
	}
	if config.Logger.Level != "error" {
		t.Errorf("Expected environment to win over .env, got %s", config.Logger.Level)
	}
}

// TestLoadConfig_InvalidEnvironment проверяет валидацию окружения
func TestLoadConfig_InvalidEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "qa")

	if _, err := LoadConfig(""); err == nil {
		t.Error("Expected error for invalid environment")
	}
}

// TestLoadConfig_InvalidPort проверяет ошибку разбора порта
func TestLoadConfig_InvalidPort(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-port")

	if _, err := LoadConfig(""); err == nil {
		t.Error("Expected error for invalid port")
	}
}

// TestLoadConfig_MissingFile проверяет ошибку для отсутствующего файла
func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for missing config file")
	}
}

// TestValidateConfig проверяет правила валидации
func TestValidateConfig(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"default secret in prod", func(c *Config) { c.Environment = "prod" }},
		{"empty secret", func(c *Config) { c.JWT.Secret = "" }},
		{"bcrypt cost too low", func(c *Config) { c.Auth.BcryptCost = 2 }},
		{"max page size below default", func(c *Config) { c.Listings.MaxPageSize = 5 }},
		{"bad token ttl", func(c *Config) { c.JWT.TokenTTL = "seven days" }},
		{"zero query timeout", func(c *Config) { c.Database.QueryTimeout = "0s" }},
		{"empty database password", func(c *Config) { c.Database.Password = "" }},
	}

	if err := validateConfig(Default()); err != nil {
		t.Fatalf("Expected default config to be valid, got %v", err)
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			config := Default()
			tc.mutate(config)
			if err := validateConfig(config); err == nil {
				t.Errorf("Expected validation error for %s", tc.name)
			}
		})
	}
}

// TestSave проверяет сохранение конфигурации и повторную загрузку
func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	config := Default()
	config.Server.Port = 9191

	if err := config.Save(path); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}
	if loaded.Server.Port != 9191 {
		t.Errorf("Expected saved port 9191, got %d", loaded.Server.Port)
	}
}
