package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Gateway   GatewayConfig
	Device    DeviceConfig
	Admission AdmissionConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings for the shared
// processed-notification store
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// GatewayConfig holds payment-provider client settings
type GatewayConfig struct {
	BaseURL     string
	AccessToken string
	SiteID      string
	Timeout     time.Duration
}

// DeviceConfig holds network-device client settings
type DeviceConfig struct {
	Host           string
	Username       string
	Password       string
	Timeout        time.Duration
	RetryAttempts  int
	RetryBackoff   time.Duration
	UseScheduler   bool // use the device's delayed-script scheduler for revocation
	SchedulerOwner string
}

// AdmissionConfig holds access-grant settings
type AdmissionConfig struct {
	// DefaultGrantDuration applies when a transaction did not record its own duration
	DefaultGrantDuration time.Duration
	// DedupTTL bounds how long a processed notification key is remembered
	DedupTTL time.Duration
	// DedupBackend selects the processed-notification store: memory or redis
	DedupBackend string
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with NETPASS_ prefix (e.g., NETPASS_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("NETPASS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Gateway: GatewayConfig{
			BaseURL:     v.GetString("gateway.base_url"),
			AccessToken: v.GetString("gateway.access_token"),
			SiteID:      v.GetString("gateway.site_id"),
			Timeout:     v.GetDuration("gateway.timeout"),
		},
		Device: DeviceConfig{
			Host:           v.GetString("device.host"),
			Username:       v.GetString("device.username"),
			Password:       v.GetString("device.password"),
			Timeout:        v.GetDuration("device.timeout"),
			RetryAttempts:  v.GetInt("device.retry_attempts"),
			RetryBackoff:   v.GetDuration("device.retry_backoff"),
			UseScheduler:   v.GetBool("device.use_scheduler"),
			SchedulerOwner: v.GetString("device.scheduler_owner"),
		},
		Admission: AdmissionConfig{
			DefaultGrantDuration: v.GetDuration("admission.default_grant_duration"),
			DedupTTL:             v.GetDuration("admission.dedup_ttl"),
			DedupBackend:         v.GetString("admission.dedup_backend"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "netpass-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "3200"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "netpass"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB, webhook and checkout payloads are small
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Gateway.BaseURL == "" {
		cfg.Gateway.BaseURL = "https://api.mercadopago.com"
	}
	if cfg.Gateway.SiteID == "" {
		cfg.Gateway.SiteID = "MLB"
	}
	if cfg.Gateway.Timeout == 0 {
		cfg.Gateway.Timeout = 30 * time.Second
	}
	if cfg.Device.Timeout == 0 {
		cfg.Device.Timeout = 5 * time.Second
	}
	if cfg.Device.RetryAttempts == 0 {
		cfg.Device.RetryAttempts = 3
	}
	if cfg.Device.RetryBackoff == 0 {
		cfg.Device.RetryBackoff = 2 * time.Second
	}
	if cfg.Device.SchedulerOwner == "" {
		cfg.Device.SchedulerOwner = "netpass"
	}
	if cfg.Admission.DefaultGrantDuration == 0 {
		cfg.Admission.DefaultGrantDuration = time.Hour
	}
	if cfg.Admission.DedupTTL == 0 {
		cfg.Admission.DedupTTL = 24 * time.Hour
	}
	if cfg.Admission.DedupBackend == "" {
		cfg.Admission.DedupBackend = "memory"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Admission.DedupBackend != "memory" && c.Admission.DedupBackend != "redis" {
		return fmt.Errorf("admission.dedup_backend must be 'memory' or 'redis', got %q", c.Admission.DedupBackend)
	}

	if c.App.Env == "production" {
		if c.Gateway.AccessToken == "" {
			return fmt.Errorf("gateway.access_token is required in production")
		}
		if c.Device.Host == "" {
			return fmt.Errorf("device.host is required in production")
		}
		if c.Device.Username == "" || c.Device.Password == "" {
			return fmt.Errorf("device credentials are required in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the host:port address of the Redis server
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
