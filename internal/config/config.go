package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DBConfig struct {
		Host     string `env:"PANEL_DB_HOST"`
		Port     int    `env:"PANEL_DB_PORT"`
		User     string `env:"PANEL_DB_USER"`
		Password string `env:"PANEL_DB_PASSWORD"`
		Name     string `env:"PANEL_DB_NAME"`
		SSLMode  string `env:"PANEL_DB_SSLMODE"`
	}

	HTTPPort           int      `env:"PANEL_HTTP_PORT"`
	MigrationsDir      string   `env:"PANEL_MIGRATIONS_DIR"`
	CORSAllowedOrigins []string `env:"PANEL_CORS_ALLOWED_ORIGINS"`

	KafkaBrokerURL              string `env:"KAFKA_BROKER_URL"`
	KafkaTransactionEventsTopic string `env:"KAFKA_TRANSACTION_EVENTS_TOPIC"`
	KafkaAccountEventsTopic     string `env:"KAFKA_ACCOUNT_EVENTS_TOPIC"`
	KafkaConsumerGroup          string `env:"KAFKA_CONSUMER_GROUP"`

	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL"`
	OutboxPollTimeout  time.Duration `env:"OUTBOX_POLL_TIMEOUT"`
	OutboxBatchSize    int           `env:"OUTBOX_BATCH_SIZE"`

	Transactions TransactionsConfig
	Registration RegistrationConfig
	Settings     SettingsConfig
}

// TransactionsConfig holds the store-level defaults used when a filter does
// not set limit.
type TransactionsConfig struct {
	DefaultLimit int `env:"TRANSACTIONS_DEFAULT_LIMIT"`
	MaxLimit     int `env:"TRANSACTIONS_MAX_LIMIT"`
}

type RegistrationConfig struct {
	AllowedKeys  []string `env:"REGISTRATION_ALLOWED_KEYS"`
	RequiredKeys []string `env:"REGISTRATION_REQUIRED_KEYS"`
}

// SettingsConfig restricts which settings keys a patch may touch. An empty
// AllowedKeys accepts any key.
type SettingsConfig struct {
	AllowedKeys []string `env:"SETTINGS_ALLOWED_KEYS"`
}

var (
	DefaultRegistrationAllowedKeys = []string{
		"domain",
		"email_account_contact",
		"email_customer_contact",
		"name",
		"accept_terms",
		"submit",
	}
	DefaultRegistrationRequiredKeys = []string{
		"domain",
		"email_account_contact",
	}
)

func LoadConfig() (*Config, error) {
	cfg := &Config{}

	cfg.DBConfig.Host = getEnvOrDefault("PANEL_DB_HOST", "localhost")
	cfg.DBConfig.Port = getEnvAsInt("PANEL_DB_PORT", 5432)
	cfg.DBConfig.User = getEnvOrDefault("PANEL_DB_USER", "user")
	cfg.DBConfig.Password = getEnvOrDefault("PANEL_DB_PASSWORD", "password")
	cfg.DBConfig.Name = getEnvOrDefault("PANEL_DB_NAME", "panel_db")
	cfg.DBConfig.SSLMode = getEnvOrDefault("PANEL_DB_SSLMODE", "disable")

	cfg.HTTPPort = getEnvAsInt("PANEL_HTTP_PORT", 8083)
	cfg.MigrationsDir = getEnvOrDefault("PANEL_MIGRATIONS_DIR", "file:///app/migrations")
	cfg.CORSAllowedOrigins = getEnvAsList("PANEL_CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"})

	cfg.KafkaBrokerURL = getEnvOrDefault("KAFKA_BROKER_URL", "localhost:9092")
	cfg.KafkaTransactionEventsTopic = getEnvOrDefault("KAFKA_TRANSACTION_EVENTS_TOPIC", "transaction_events")
	cfg.KafkaAccountEventsTopic = getEnvOrDefault("KAFKA_ACCOUNT_EVENTS_TOPIC", "account_events")
	cfg.KafkaConsumerGroup = getEnvOrDefault("KAFKA_CONSUMER_GROUP", "panel-service-group")

	cfg.OutboxPollInterval = getEnvAsDuration("OUTBOX_POLL_INTERVAL", 1*time.Second)
	cfg.OutboxPollTimeout = getEnvAsDuration("OUTBOX_POLL_TIMEOUT", 500*time.Millisecond)
	cfg.OutboxBatchSize = getEnvAsInt("OUTBOX_BATCH_SIZE", 10)

	cfg.Transactions.DefaultLimit = getEnvAsInt("TRANSACTIONS_DEFAULT_LIMIT", 20)
	cfg.Transactions.MaxLimit = getEnvAsInt("TRANSACTIONS_MAX_LIMIT", 200)

	cfg.Registration.AllowedKeys = getEnvAsList("REGISTRATION_ALLOWED_KEYS", DefaultRegistrationAllowedKeys)
	cfg.Registration.RequiredKeys = getEnvAsList("REGISTRATION_REQUIRED_KEYS", DefaultRegistrationRequiredKeys)

	cfg.Settings.AllowedKeys = getEnvAsList("SETTINGS_ALLOWED_KEYS", nil)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Transactions.DefaultLimit <= 0 {
		return fmt.Errorf("invalid TRANSACTIONS_DEFAULT_LIMIT: must be greater than zero")
	}
	if c.Transactions.MaxLimit < c.Transactions.DefaultLimit {
		return fmt.Errorf("invalid TRANSACTIONS_MAX_LIMIT: must not be below TRANSACTIONS_DEFAULT_LIMIT")
	}

	allowed := make(map[string]struct{}, len(c.Registration.AllowedKeys))
	for _, k := range c.Registration.AllowedKeys {
		allowed[k] = struct{}{}
	}
	for _, k := range c.Registration.RequiredKeys {
		if _, ok := allowed[k]; !ok {
			return fmt.Errorf("invalid REGISTRATION_REQUIRED_KEYS: %q is not in REGISTRATION_ALLOWED_KEYS", k)
		}
	}
	return nil
}

func (c *Config) GetDBConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DBConfig.Host, c.DBConfig.Port, c.DBConfig.User, c.DBConfig.Password, c.DBConfig.Name, c.DBConfig.SSLMode)
}

func (c *Config) GetDBMigrationConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBConfig.User, c.DBConfig.Password, c.DBConfig.Host, c.DBConfig.Port, c.DBConfig.Name, c.DBConfig.SSLMode)
}

func (c *Config) GetKafkaBrokers() []string {
	return strings.Split(c.KafkaBrokerURL, ",")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnvOrDefault(key, strconv.Itoa(defaultValue))
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnvOrDefault(key, defaultValue.String())
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList reads a comma separated list. An unset variable yields the
// default; a set but empty variable yields an empty list.
func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
