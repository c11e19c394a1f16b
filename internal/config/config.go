package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/toolshed-rental/service-booking/internal/pkg/database"
)

const envDevelopment = "development"

// DatabaseConfig selects and addresses the booking store.
type DatabaseConfig struct {
	Driver   string // postgres or sqlite
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	DSN      string // sqlite DSN, e.g. file:booking.db
}

// Postgres returns the connection settings for database.Connect.
func (d DatabaseConfig) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:     d.Host,
		Port:     d.Port,
		User:     d.User,
		Password: d.Password,
		DBName:   d.Name,
		SSLMode:  d.SSLMode,
	}
}

// JWTConfig holds token settings.
type JWTConfig struct {
	Secret    string
	AccessTTL time.Duration
}

// KafkaConfig holds broker settings. An empty broker list disables messaging.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// Enabled reports whether brokers are configured.
func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// PricingConfig selects the deposit policy applied to every quote.
type PricingConfig struct {
	DepositPolicy  string
	DepositPercent int64
}

// JobsConfig holds cron specs (seconds precision).
type JobsConfig struct {
	CompletionSchedule string
}

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port        string
	AppEnv      string
	DBConfig    DatabaseConfig
	JWTConfig   JWTConfig
	KafkaConfig KafkaConfig
	Pricing     PricingConfig
	Jobs        JobsConfig
}

// IsDevelopment reports whether the service runs in development mode.
func (c *ServiceConfig) IsDevelopment() bool { return c.AppEnv == envDevelopment }

// Load reads configuration from BOOKING_-prefixed environment variables and
// an optional config.yaml in the working directory or ./config.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("BOOKING")
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	setDefaults(v)
	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", envDevelopment)
	v.SetDefault("SERVICE_PORT", "8080")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "toolshed_booking")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_DSN", "file:booking.db?_foreign_keys=on")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_GROUP_PREFIX", "")
	v.SetDefault("DEPOSIT_POLICY", "fixed")
	v.SetDefault("DEPOSIT_PERCENT", 20)
	v.SetDefault("COMPLETION_SCHEDULE", "0 */15 * * * *")
}

func fromViper(v *viper.Viper) (*ServiceConfig, error) {
	cfg := &ServiceConfig{
		Port:   ":" + strings.TrimPrefix(v.GetString("SERVICE_PORT"), ":"),
		AppEnv: v.GetString("APP_ENV"),
		DBConfig: DatabaseConfig{
			Driver:   strings.ToLower(v.GetString("DB_DRIVER")),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			DSN:      v.GetString("DB_DSN"),
		},
		JWTConfig: JWTConfig{
			Secret:    v.GetString("JWT_SECRET"),
			AccessTTL: v.GetDuration("JWT_ACCESS_TTL"),
		},
		KafkaConfig: KafkaConfig{
			Brokers:     splitList(v.GetString("KAFKA_BROKERS")),
			GroupPrefix: v.GetString("KAFKA_GROUP_PREFIX"),
		},
		Pricing: PricingConfig{
			DepositPolicy:  strings.ToLower(v.GetString("DEPOSIT_POLICY")),
			DepositPercent: v.GetInt64("DEPOSIT_PERCENT"),
		},
		Jobs: JobsConfig{
			CompletionSchedule: v.GetString("COMPLETION_SCHEDULE"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ServiceConfig) validate() error {
	switch c.DBConfig.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBConfig.Driver)
	}
	if c.JWTConfig.Secret == "" {
		if !c.IsDevelopment() {
			return errors.New("JWT_SECRET is required outside development")
		}
		c.JWTConfig.Secret = "dev-secret-change-me"
	}
	if c.JWTConfig.AccessTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be positive")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
