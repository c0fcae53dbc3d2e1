package internal

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env           string              `mapstructure:"env"`
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security" validate:"required"`
	Scheduler     SchedulerConfig     `mapstructure:"scheduler"`
	Payment       PaymentConfig       `mapstructure:"payment"`
	Telegram      TelegramConfig      `mapstructure:"telegram"`
	Delivery      DeliveryConfig      `mapstructure:"delivery"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Seed          SeedConfig          `mapstructure:"seed"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver" validate:"oneof=postgres sqlite"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" validate:"required,min=1m"`
	Source          string        `mapstructure:"source"`
}

type SecurityConfig struct {
	JWTSecret           string        `mapstructure:"jwt_secret" validate:"required,min=32"`
	AccessTokenDuration time.Duration `mapstructure:"access_token_duration" validate:"required,min=1m"`
	AdminUsername       string        `mapstructure:"admin_username" validate:"required"`
	AdminPasswordHash   string        `mapstructure:"admin_password_hash" validate:"required"`
}

// SchedulerConfig holds the Jalali day-of-month for each trigger kind.
type SchedulerConfig struct {
	Enabled             bool   `mapstructure:"enabled"`
	ReminderDay         int    `mapstructure:"reminder_day" validate:"min=1,max=31"`
	FollowUpDay         int    `mapstructure:"follow_up_day" validate:"min=1,max=31"`
	ReportDay           int    `mapstructure:"report_day" validate:"min=1,max=31"`
	Timezone            string `mapstructure:"timezone" validate:"required"`
	PollIntervalSeconds int    `mapstructure:"poll_interval_seconds" validate:"min=1"`
}

type PaymentConfig struct {
	AllowResubmitAfterFailure bool `mapstructure:"allow_resubmit_after_failure"`
}

type TelegramConfig struct {
	BotToken      string `mapstructure:"bot_token"`
	AdminChatID   int64  `mapstructure:"admin_chat_id"`
	AdminUsername string `mapstructure:"admin_username"`
	CardNumber    string `mapstructure:"card_number"`
	CardHolder    string `mapstructure:"card_holder"`
	UpdateTimeout int    `mapstructure:"update_timeout"`
}

type DeliveryConfig struct {
	MaxWorkers   int           `mapstructure:"max_workers"`
	JobQueueSize int           `mapstructure:"job_queue_size"`
	SendTimeout  time.Duration `mapstructure:"send_timeout"`
}

type StorageConfig struct {
	Driver   string `mapstructure:"driver" validate:"oneof=local s3"`
	LocalDir string `mapstructure:"local_dir"`
	S3Bucket string `mapstructure:"s3_bucket"`
	S3Region string `mapstructure:"s3_region"`
	S3Prefix string `mapstructure:"s3_prefix"`
}

type SeedConfig struct {
	Path string `mapstructure:"path"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// PollInterval is the scheduler tick.
func (c SchedulerConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// ----------------- ENVIRONMENT -----------------

// LoadConfigFromEnv builds the configuration for container deployments where no
// config file is mounted.
func LoadConfigFromEnv() *Config {
	return &Config{
		Env: getEnv("APP_ENV", "production"),
		Server: ServerConfig{
			Port:              getEnvAsInt("HTTP_PORT", 8080),
			BaseURL:           getEnv("BASE_URL", ""),
			ReadHeaderTimeout: getEnvAsDuration("HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			IdleTimeout:       getEnvAsDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "postgres"),
			Source:          getEnv("DB_SOURCE", ""),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		Security: SecurityConfig{
			JWTSecret:           getEnv("JWT_SECRET", ""),
			AccessTokenDuration: getEnvAsDuration("ACCESS_TOKEN_DURATION", time.Hour),
			AdminUsername:       getEnv("ADMIN_USERNAME", "admin"),
			AdminPasswordHash:   getEnv("ADMIN_PASSWORD_HASH", ""),
		},
		Scheduler: SchedulerConfig{
			Enabled:             getEnvAsBool("SCHEDULER_ENABLED", true),
			ReminderDay:         getEnvAsInt("REMINDER_DAY", 3),
			FollowUpDay:         getEnvAsInt("FOLLOW_UP_DAY", 7),
			ReportDay:           getEnvAsInt("REPORT_DAY", 10),
			Timezone:            getEnv("TIMEZONE", "Asia/Tehran"),
			PollIntervalSeconds: getEnvAsInt("POLL_INTERVAL_SECONDS", 300),
		},
		Payment: PaymentConfig{
			AllowResubmitAfterFailure: getEnvAsBool("ALLOW_RESUBMIT_AFTER_FAILURE", true),
		},
		Telegram: TelegramConfig{
			BotToken:      getEnv("BOT_TOKEN", ""),
			AdminChatID:   getEnvAsInt64("ADMIN_CHAT_ID", 0),
			AdminUsername: getEnv("ADMIN_TELEGRAM_USERNAME", ""),
			CardNumber:    getEnv("CARD_NUMBER", ""),
			CardHolder:    getEnv("CARD_HOLDER", ""),
			UpdateTimeout: getEnvAsInt("TELEGRAM_UPDATE_TIMEOUT", 60),
		},
		Delivery: DeliveryConfig{
			MaxWorkers:   getEnvAsInt("DELIVERY_MAX_WORKERS", 4),
			JobQueueSize: getEnvAsInt("DELIVERY_QUEUE_SIZE", 100),
			SendTimeout:  getEnvAsDuration("DELIVERY_SEND_TIMEOUT", 10*time.Second),
		},
		Storage: StorageConfig{
			Driver:   getEnv("STORAGE_DRIVER", "local"),
			LocalDir: getEnv("STORAGE_LOCAL_DIR", "receipts"),
			S3Bucket: getEnv("STORAGE_S3_BUCKET", ""),
			S3Region: getEnv("STORAGE_S3_REGION", ""),
			S3Prefix: getEnv("STORAGE_S3_PREFIX", "receipts/"),
		},
		Seed: SeedConfig{
			Path: getEnv("SEED_PATH", "donors.csv"),
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: getEnvAsBool("METRICS_ENABLED", true),
				Path:    getEnv("METRICS_PATH", "/metrics"),
			},
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
	}
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Scheduler.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("scheduler config: %v", err))
	}

	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("storage config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	switch c.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported driver %q", c.Driver)
	}
	if c.Source == "" {
		return errors.New("source is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SecurityConfig) Validate() error {
	if len(c.JWTSecret) < 32 {
		return errors.New("jwt_secret must be at least 32 characters")
	}
	if c.AdminUsername == "" {
		return errors.New("admin_username is required")
	}
	if !strings.HasPrefix(c.AdminPasswordHash, "$2") {
		return errors.New("admin_password_hash must be a bcrypt hash")
	}
	return nil
}

func (c *SchedulerConfig) Validate() error {
	days := map[string]int{
		"reminder_day":  c.ReminderDay,
		"follow_up_day": c.FollowUpDay,
		"report_day":    c.ReportDay,
	}
	for name, day := range days {
		if day < 1 || day > 31 {
			return fmt.Errorf("%s must be in [1, 31], got %d", name, day)
		}
	}
	if c.PollIntervalSeconds <= 0 {
		return errors.New("poll_interval_seconds must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return nil
}

func (c *StorageConfig) Validate() error {
	switch c.Driver {
	case "local":
		if c.LocalDir == "" {
			return errors.New("local_dir is required for the local driver")
		}
	case "s3":
		if c.S3Bucket == "" || c.S3Region == "" {
			return errors.New("s3_bucket and s3_region are required for the s3 driver")
		}
	default:
		return fmt.Errorf("unsupported driver %q", c.Driver)
	}
	return nil
}
