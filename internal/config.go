package internal

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env           string              `mapstructure:"env" env:"APP_ENV" envDefault:"development"`
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security" validate:"required"`
	Identity      IdentityConfig      `mapstructure:"identity"`
	Broker        BrokerConfig        `mapstructure:"broker"`
	Mail          MailConfig          `mapstructure:"mail"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port" env:"HTTP_PORT" envDefault:"8080" validate:"required,min=1,max=65535"`
	BaseURL           string        `mapstructure:"base_url" env:"HTTP_BASE_URL" envDefault:"http://localhost:8080"`
	AllowedOrigins    string        `mapstructure:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" envDefault:"http://localhost:3000"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout" env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout" env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	OpenAPIPath       string        `mapstructure:"openapi_path" env:"HTTP_OPENAPI_PATH" envDefault:"./api/openapi.yml"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" env:"DB_MAX_OPEN_CONNS" envDefault:"20" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" envDefault:"5" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" env:"DB_CONN_MAX_IDLE_TIME" envDefault:"5m"`
	Source          string        `mapstructure:"source" env:"DB_SOURCE" validate:"required"`
}

type SecurityConfig struct {
	AccessTokenSecret    string        `mapstructure:"access_token_secret" env:"JWT_ACCESS_SECRET" validate:"required,min=32"`
	RefreshTokenSecret   string        `mapstructure:"refresh_token_secret" env:"JWT_REFRESH_SECRET" validate:"required,min=32"`
	AccessTokenDuration  time.Duration `mapstructure:"access_token_duration" env:"JWT_ACCESS_TTL" envDefault:"1h" validate:"required"`
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration" env:"JWT_REFRESH_TTL" envDefault:"168h" validate:"required"`
	BCryptCost           int           `mapstructure:"bcrypt_cost" env:"BCRYPT_COST" envDefault:"10" validate:"min=4,max=15"`
	AdminEmail           string        `mapstructure:"admin_email" env:"ADMIN_EMAIL" envDefault:"admin"`
	AdminPassword        string        `mapstructure:"admin_password" env:"ADMIN_PASSWORD" envDefault:"admin"`
}

// IdentityConfig covers both sides of the identity provider: the port the
// auth service listens on and how the personnel service reaches it.
type IdentityConfig struct {
	Port        int           `mapstructure:"port" env:"IDENTITY_PORT" envDefault:"8081" validate:"min=1,max=65535"`
	BaseURL     string        `mapstructure:"base_url" env:"IDENTITY_BASE_URL" envDefault:"http://localhost:8081/api/v1" validate:"required,url"`
	Timeout     time.Duration `mapstructure:"timeout" env:"IDENTITY_TIMEOUT" envDefault:"5s"`
	SyncTimeout time.Duration `mapstructure:"sync_timeout" env:"IDENTITY_SYNC_TIMEOUT" envDefault:"5s"`
}

type BrokerConfig struct {
	Enabled        bool          `mapstructure:"enabled" env:"BROKER_ENABLED" envDefault:"true"`
	RedisAddr      string        `mapstructure:"redis_addr" env:"REDIS_ADDR" envDefault:"localhost:6379" validate:"required_if=Enabled true"`
	RedisPassword  string        `mapstructure:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB        int           `mapstructure:"redis_db" env:"REDIS_DB" envDefault:"0"`
	StreamPrefix   string        `mapstructure:"stream_prefix" env:"BROKER_STREAM_PREFIX" envDefault:"personnel:"`
	ConsumerGroup  string        `mapstructure:"consumer_group" env:"BROKER_CONSUMER_GROUP" envDefault:"notification-service"`
	ConsumerName   string        `mapstructure:"consumer_name" env:"BROKER_CONSUMER_NAME" envDefault:"notification-1"`
	BlockTimeout   time.Duration `mapstructure:"block_timeout" env:"BROKER_BLOCK_TIMEOUT" envDefault:"5s"`
	BatchSize      int64         `mapstructure:"batch_size" env:"BROKER_BATCH_SIZE" envDefault:"16"`
	MaxLen         int64         `mapstructure:"max_len" env:"BROKER_MAX_LEN" envDefault:"10000"`
	PublishTimeout time.Duration `mapstructure:"publish_timeout" env:"BROKER_PUBLISH_TIMEOUT" envDefault:"3s"`
}

type MailConfig struct {
	Host        string        `mapstructure:"host" env:"SMTP_HOST"`
	Port        int           `mapstructure:"port" env:"SMTP_PORT" envDefault:"587"`
	Username    string        `mapstructure:"username" env:"SMTP_USERNAME"`
	Password    string        `mapstructure:"password" env:"SMTP_PASSWORD"`
	From        string        `mapstructure:"from" env:"MAIL_FROM" envDefault:"no-reply@personnel.local" validate:"required"`
	Workers     int           `mapstructure:"workers" env:"MAIL_WORKERS" envDefault:"4"`
	QueueSize   int           `mapstructure:"queue_size" env:"MAIL_QUEUE_SIZE" envDefault:"100"`
	SendTimeout time.Duration `mapstructure:"send_timeout" env:"MAIL_SEND_TIMEOUT" envDefault:"10s"`
}

type RateLimitConfig struct {
	Enabled   bool   `mapstructure:"enabled" env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	LoginRate string `mapstructure:"login_rate" env:"RATE_LIMIT_LOGIN" envDefault:"10-M" validate:"required_if=Enabled true"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" env:"METRICS_ENABLED" envDefault:"true"`
	Path    string `mapstructure:"path" env:"METRICS_PATH" envDefault:"/metrics" validate:"required_if=Enabled true"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" env:"LOG_LEVEL" envDefault:"info" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" env:"LOG_FORMAT" envDefault:"json" validate:"required,oneof=json text"`
}

// LoadConfigFromEnv builds the configuration purely from environment
// variables, used for container deployments.
func LoadConfigFromEnv() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	for _, origin := range c.Origins() {
		if origin == "*" {
			continue
		}
		if _, err := url.Parse(origin); err != nil {
			return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *ServerConfig) Origins() []string {
	if c.AllowedOrigins == "" {
		return nil
	}
	var out []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SecurityConfig) Validate() error {
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return errors.New("access and refresh token secrets must differ")
	}
	if c.RefreshTokenDuration <= c.AccessTokenDuration {
		return errors.New("refresh_token_duration must be longer than access_token_duration")
	}
	return nil
}
