// Package config loads shop settings from defaults, an optional YAML file and
// SHOP_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SHOP_AUTH_SECRET
const EnvPrefix = "SHOP"

// Config is the full application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Mail      MailConfig      `mapstructure:"mail"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// PprofAddr serves profiling endpoints on a separate listener when set
	PprofAddr       string        `mapstructure:"pprof_addr"`
}

// DatabaseConfig selects the SQL driver and connection
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// AuthConfig holds session token settings. Secret has no default.
type AuthConfig struct {
	Secret   string        `mapstructure:"secret"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
	HashCost int           `mapstructure:"hash_cost"`
}

// RedisConfig enables the shared cache and rate limiter when Addr is set
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Enabled reports whether a Redis server is configured
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// CacheConfig tunes catalog caching
type CacheConfig struct {
	Prefix string        `mapstructure:"prefix"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig limits signup and login attempts per client IP
type RateLimitConfig struct {
	AuthLimit int           `mapstructure:"auth_limit"`
	Window    time.Duration `mapstructure:"window"`
}

// MailConfig selects the mail provider and dispatcher sizing
type MailConfig struct {
	Provider    string         `mapstructure:"provider"`
	FromAddress string         `mapstructure:"from_address"`
	FromName    string         `mapstructure:"from_name"`
	Workers     int            `mapstructure:"workers"`
	QueueSize   int            `mapstructure:"queue_size"`
	MaxAttempts int            `mapstructure:"max_attempts"`
	Backoff     time.Duration  `mapstructure:"backoff"`
	SMTP        SMTPConfig     `mapstructure:"smtp"`
	SendGrid    SendGridConfig `mapstructure:"sendgrid"`
}

// SMTPConfig holds SMTP relay credentials
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// SendGridConfig holds SendGrid API settings
type SendGridConfig struct {
	APIKey string `mapstructure:"api_key"`
	Host   string `mapstructure:"host"`
}

// CORSConfig lists the browser origins allowed to call the API
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig selects log level and encoding
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Mail providers
const (
	MailProviderLog      = "log"
	MailProviderSMTP     = "smtp"
	MailProviderSendGrid = "sendgrid"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.pprof_addr", "")

	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "file:shop.db?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.token_ttl", 30*time.Minute)
	v.SetDefault("auth.hash_cost", 10)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("cache.prefix", "shop:")
	v.SetDefault("cache.ttl", 5*time.Minute)

	v.SetDefault("ratelimit.auth_limit", 10)
	v.SetDefault("ratelimit.window", time.Minute)

	v.SetDefault("mail.provider", MailProviderLog)
	v.SetDefault("mail.from_address", "amaironohi@example.com")
	v.SetDefault("mail.from_name", "天色の日-AmaironoHi-")
	v.SetDefault("mail.workers", 2)
	v.SetDefault("mail.queue_size", 100)
	v.SetDefault("mail.max_attempts", 3)
	v.SetDefault("mail.backoff", 2*time.Second)
	v.SetDefault("mail.smtp.host", "")
	v.SetDefault("mail.smtp.port", 587)
	v.SetDefault("mail.smtp.username", "")
	v.SetDefault("mail.smtp.password", "")
	v.SetDefault("mail.sendgrid.api_key", "")
	v.SetDefault("mail.sendgrid.host", "")

	v.SetDefault("cors.allowed_origins", []string{"https://itoyuki-snow.github.io"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load reads configuration. path names a YAML file; when empty, shop.yaml is
// looked up in the working directory and skipped if absent.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("shop")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("database.dsn", EnvPrefix+"_DATABASE_DSN", "DATABASE_URL"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that have no safe fallback
func (c *Config) Validate() error {
	if c.Auth.Secret == "" {
		return fmt.Errorf("auth.secret is required (set %s_AUTH_SECRET)", EnvPrefix)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive, got %s", c.Auth.TokenTTL)
	}

	switch c.Database.Driver {
	case "sqlite3", "pgx":
	default:
		return fmt.Errorf("database.driver must be sqlite3 or pgx, got %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}

	switch c.Mail.Provider {
	case MailProviderLog:
	case MailProviderSMTP:
		if c.Mail.SMTP.Host == "" {
			return fmt.Errorf("mail.smtp.host is required for the smtp provider")
		}
	case MailProviderSendGrid:
		if c.Mail.SendGrid.APIKey == "" {
			return fmt.Errorf("mail.sendgrid.api_key is required for the sendgrid provider")
		}
	default:
		return fmt.Errorf("mail.provider must be log, smtp or sendgrid, got %q", c.Mail.Provider)
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL)
	}
	if c.RateLimit.AuthLimit <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("ratelimit.auth_limit and ratelimit.window must be positive")
	}
	return nil
}
