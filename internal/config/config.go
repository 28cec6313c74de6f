// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the runtime settings of the server and the worker.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Queue    QueueConfig    `yaml:"queue"`
	Backend  BackendConfig  `yaml:"backend"`
	Stripe   StripeConfig   `yaml:"stripe"`
	Unsplash UnsplashConfig `yaml:"unsplash"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig accepts either a full URL or the discrete DB_* parts.
type DatabaseConfig struct {
	URL      string `yaml:"url"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type QueueConfig struct {
	// AMQPURL empty means the in-memory queue is used.
	AMQPURL string `yaml:"amqp_url"`
	Topic   string `yaml:"topic"`
}

type BackendConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type StripeConfig struct {
	SecretKey string `yaml:"secret_key"`
	APIURL    string `yaml:"api_url"`
}

type UnsplashConfig struct {
	AccessKey string `yaml:"access_key"`
	APIURL    string `yaml:"api_url"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    "5432",
			SSLMode: "disable",
		},
		Queue: QueueConfig{
			Topic: "campaign_sends",
		},
		Backend: BackendConfig{
			URL:     "http://localhost:8000",
			Timeout: 15 * time.Second,
		},
		Stripe: StripeConfig{
			APIURL: "https://api.stripe.com",
		},
		Unsplash: UnsplashConfig{
			APIURL: "https://api.unsplash.com",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads .env (if present), then the YAML file named by CONFIG_FILE (if set),
// then applies environment overrides.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	setString(&c.Server.Port, "PORT")
	setDuration(&c.Server.RequestTimeout, "REQUEST_TIMEOUT")

	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.Port, "DB_PORT")
	setString(&c.Database.Name, "DB_NAME")
	setString(&c.Database.SSLMode, "DB_SSLMODE")

	setString(&c.Queue.AMQPURL, "AMQP_URL")

	setString(&c.Backend.URL, "BACKEND_API_URL")
	setDuration(&c.Backend.Timeout, "BACKEND_API_TIMEOUT")

	setString(&c.Stripe.SecretKey, "STRIPE_SECRET_KEY")
	setString(&c.Stripe.APIURL, "STRIPE_API_URL")

	setString(&c.Unsplash.AccessKey, "UNSPLASH_ACCESS_KEY")
	setString(&c.Unsplash.APIURL, "UNSPLASH_API_URL")

	setString(&c.Logging.Level, "LOG_LEVEL")
	if v, ok := os.LookupEnv("LOG_DEVELOPMENT"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Logging.Development = b
		}
	}

	c.Backend.URL = strings.TrimRight(c.Backend.URL, "/")
	c.Stripe.APIURL = strings.TrimRight(c.Stripe.APIURL, "/")
	c.Unsplash.APIURL = strings.TrimRight(c.Unsplash.APIURL, "/")
}

// Validate checks the settings every binary needs.
func (c *Config) Validate() error {
	if c.Database.URL == "" && c.Database.Name == "" {
		return fmt.Errorf("DATABASE_URL or DB_NAME must be set")
	}
	if c.Backend.URL == "" {
		return fmt.Errorf("BACKEND_API_URL must not be empty")
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
