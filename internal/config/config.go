// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Bot      BotConfig
	Database DatabaseConfig
	Reminder ReminderConfig
}

type BotConfig struct {
	Token       string
	Environment string
}

type DatabaseConfig struct {
	Driver string // "sqlite" or "postgres"

	// sqlite
	Path string

	// postgres
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type ReminderConfig struct {
	Hour   int
	Minute int
}

func Load() (*Config, error) {
	return &Config{
		Bot: BotConfig{
			Token:       os.Getenv("BOT_TOKEN"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "sqlite"),
			Path:     getEnv("DB_PATH", "tasks.db"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "fieldbot"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Reminder: ReminderConfig{
			Hour:   getEnvAsInt("REMINDER_HOUR", 9),
			Minute: getEnvAsInt("REMINDER_MINUTE", 0),
		},
	}, nil
}

// Validate rejects configurations the process cannot start with.
// The bot token is the one hard requirement.
func (c *Config) Validate() error {
	if c.Bot.Token == "" {
		return fmt.Errorf("BOT_TOKEN environment variable is not set")
	}
	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Reminder.Hour < 0 || c.Reminder.Hour > 23 {
		return fmt.Errorf("REMINDER_HOUR %d out of range", c.Reminder.Hour)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Bot.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
