package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/anytimesk/stock-ml-front-end/internal/audit"
	"github.com/anytimesk/stock-ml-front-end/internal/model"
	"github.com/anytimesk/stock-ml-front-end/internal/prefs"
	"github.com/anytimesk/stock-ml-front-end/internal/session"
	"github.com/anytimesk/stock-ml-front-end/internal/tracing"
)

// EnvPrefix prefixes every environment override, e.g. STOCKDASH_BACKEND_URL.
const EnvPrefix = "STOCKDASH"

// Config holds all configuration for the dashboard
type Config struct {
	Server    ServerConfig
	Backend   BackendConfig
	Session   session.Config
	Table     TableConfig
	Chart     ChartConfig
	Training  model.TrainParams
	UI        UIConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
	Postgres  prefs.PostgresConfig
	Kafka     audit.KafkaConfig
	Tracing   tracing.Config
	Logging   LoggingConfig
}

// ServerConfig holds server specific configuration
type ServerConfig struct {
	Port            string        `validate:"required"`
	ReadTimeout     time.Duration `validate:"gt=0"`
	WriteTimeout    time.Duration `validate:"gt=0"`
	IdleTimeout     time.Duration `validate:"gt=0"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
}

// BackendConfig holds the stock and ML REST backend settings
type BackendConfig struct {
	URL          string        `validate:"required,url"`
	Timeout      time.Duration `validate:"gt=0"`
	TrainTimeout time.Duration `validate:"gt=0"`
}

// TableConfig holds the page sizes of the two tables
type TableConfig struct {
	SearchPageSize int `validate:"min=1"`
	FilesPageSize  int `validate:"min=1"`
}

// ChartConfig holds the default chart size in pixels
type ChartConfig struct {
	Width     int `validate:"min=200"`
	Height    int `validate:"min=120"`
	MaxWidth  int `validate:"gtefield=Width"`
	MaxHeight int `validate:"gtefield=Height"`
}

// UIConfig controls how long actions may run before a page is rendered
// as pending, and how often pending pages reload.
type UIConfig struct {
	SettleTimeout  time.Duration `validate:"gte=0"`
	RefreshSeconds int           `validate:"min=1"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled            bool
	RequestsPerMinute  int `validate:"min=1"`
	BurstSize          int `validate:"min=1"`
	ClientIPHeaderName string
}

// RedisConfig holds the theme preference store settings
type RedisConfig struct {
	Enabled   bool
	URL       string
	Password  string
	DB        int
	PrefixKey string
	TTL       time.Duration
}

// LoggingConfig holds logging specific configuration
type LoggingConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json console"`
}

// LoadConfig loads the configuration from file and environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Environment variables override
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.readTimeout", "10s")
	v.SetDefault("server.writeTimeout", "30s")
	v.SetDefault("server.idleTimeout", "120s")
	v.SetDefault("server.shutdownTimeout", "10s")

	// Backend defaults
	v.SetDefault("backend.url", "http://localhost:8000")
	v.SetDefault("backend.timeout", "10s")
	v.SetDefault("backend.trainTimeout", "10m")

	// Session defaults
	v.SetDefault("session.cookieName", "stockdash_session")
	v.SetDefault("session.clientCookieName", "stockdash_client")
	v.SetDefault("session.idleTtl", "30m")
	v.SetDefault("session.unusedTtl", "2m")
	v.SetDefault("session.sweepInterval", "1m")
	v.SetDefault("session.secure", false)

	// Table and chart defaults
	v.SetDefault("table.searchPageSize", 10)
	v.SetDefault("table.filesPageSize", 5)
	v.SetDefault("chart.width", 900)
	v.SetDefault("chart.height", 420)
	v.SetDefault("chart.maxWidth", 2400)
	v.SetDefault("chart.maxHeight", 1600)

	// Training defaults
	params := model.DefaultTrainParams()
	v.SetDefault("training.timeSteps", params.TimeSteps)
	v.SetDefault("training.epochs", params.Epochs)
	v.SetDefault("training.batchSize", params.BatchSize)
	v.SetDefault("training.validationSplit", params.ValidationSplit)

	// UI defaults
	v.SetDefault("ui.settleTimeout", "3s")
	v.SetDefault("ui.refreshSeconds", 2)

	// Rate limit defaults
	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMinute", 60)
	v.SetDefault("rateLimit.burstSize", 10)
	v.SetDefault("rateLimit.clientIPHeaderName", "X-Real-IP")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefixKey", "stockdash:prefs:")
	v.SetDefault("redis.ttl", "8760h")

	// Postgres defaults
	v.SetDefault("postgres.enabled", false)
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.dbname", "stockdash")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.maxOpenConns", 10)
	v.SetDefault("postgres.maxIdleConns", 2)
	v.SetDefault("postgres.connMaxLifetime", "30m")

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "stockdash.ml-actions")
	v.SetDefault("kafka.clientId", "stock-dashboard")

	// Tracing defaults
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.serviceName", "stock-dashboard")
	v.SetDefault("tracing.version", "1.0.0")
	v.SetDefault("tracing.prettyPrint", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
