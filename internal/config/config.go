package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
		// AllowedOrigins empty allows any origin.
		AllowedOrigins  []string `yaml:"allowed_origins"`
		ShutdownSeconds int      `yaml:"shutdown_seconds"`
	} `yaml:"server"`

	Database struct {
		Driver string `yaml:"driver"` // postgres, mysql, sqlite
		DSN    string `yaml:"url"`
	} `yaml:"database"`

	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
		Enabled      bool   `yaml:"enabled"`
		TemplatesDir string `yaml:"templates_dir"`
		Currency     string `yaml:"currency"`
		Locale       string `yaml:"locale"`
	} `yaml:"email"`

	JWT struct {
		Secret   string `yaml:"secret"`
		TTLHours int    `yaml:"ttl_hours"`
	} `yaml:"jwt"`

	Gateway struct {
		BaseURL        string `yaml:"base_url"`
		SecretKey      string `yaml:"secret_key"`
		WebhookSecret  string `yaml:"webhook_secret"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"gateway"`

	Events struct {
		Workers   int `yaml:"workers"`
		QueueSize int `yaml:"queue_size"`
	} `yaml:"events"`

	Settlement struct {
		PayoutDelayDays int `yaml:"payout_delay_days"`
		IntervalMinutes int `yaml:"interval_minutes"`
	} `yaml:"settlement"`

	Reconciliation struct {
		PendingTimeoutMinutes int `yaml:"pending_timeout_minutes"`
		IntervalMinutes       int `yaml:"interval_minutes"`
		BatchSize             int `yaml:"batch_size"`
	} `yaml:"reconciliation"`

	Subscription struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		MaxFailures     int `yaml:"max_failures"`
	} `yaml:"subscription"`
}

var AppConfig *Config

// LoadConfig reads config/config.yaml (or CONFIG_PATH). When DATABASE_URL is set the
// file is skipped and everything comes from the environment, which is how tests run.
func LoadConfig() {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	AppConfig = cfg
}

// Load is LoadConfig returning the error instead of exiting.
func Load() (*Config, error) {
	var cfg Config

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		parsed, err := LoadFile(configPath)
		if err != nil {
			return nil, err
		}
		return parsed, nil
	}

	cfg.Database.DSN = dbURL
	cfg.Database.Driver = os.Getenv("DATABASE_DRIVER")
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	cfg.Gateway.BaseURL = os.Getenv("GATEWAY_BASE_URL")
	cfg.Gateway.SecretKey = os.Getenv("GATEWAY_SECRET_KEY")
	cfg.Gateway.WebhookSecret = os.Getenv("GATEWAY_WEBHOOK_SECRET")

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFile parses a yaml config file and fills in defaults
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config file %s: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 4000
	}
	if c.Server.Env == "" {
		c.Server.Env = "development"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Server.ShutdownSeconds == 0 {
		c.Server.ShutdownSeconds = 15
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Email.Currency == "" {
		c.Email.Currency = "KRW"
	}
	if c.Email.Locale == "" {
		c.Email.Locale = "ko"
	}
	if c.JWT.TTLHours == 0 {
		c.JWT.TTLHours = 24
	}
	if c.Gateway.TimeoutSeconds == 0 {
		c.Gateway.TimeoutSeconds = 10
	}
	if c.Events.Workers == 0 {
		c.Events.Workers = 4
	}
	if c.Events.QueueSize == 0 {
		c.Events.QueueSize = 256
	}
	if c.Settlement.PayoutDelayDays == 0 {
		c.Settlement.PayoutDelayDays = 7
	}
	if c.Settlement.IntervalMinutes == 0 {
		c.Settlement.IntervalMinutes = 24 * 60
	}
	if c.Reconciliation.PendingTimeoutMinutes == 0 {
		c.Reconciliation.PendingTimeoutMinutes = 30
	}
	if c.Reconciliation.IntervalMinutes == 0 {
		c.Reconciliation.IntervalMinutes = 10
	}
	if c.Reconciliation.BatchSize == 0 {
		c.Reconciliation.BatchSize = 100
	}
	if c.Subscription.IntervalMinutes == 0 {
		c.Subscription.IntervalMinutes = 60
	}
	if c.Subscription.MaxFailures == 0 {
		c.Subscription.MaxFailures = 3
	}
}

func (c *Config) GatewayTimeout() time.Duration {
	return time.Duration(c.Gateway.TimeoutSeconds) * time.Second
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWT.TTLHours) * time.Hour
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownSeconds) * time.Second
}

func (c *Config) PendingTimeout() time.Duration {
	return time.Duration(c.Reconciliation.PendingTimeoutMinutes) * time.Minute
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
