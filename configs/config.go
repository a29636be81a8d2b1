package configs

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds the gateway HTTP listener settings.
type ServerConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
}

// DatabaseConfig holds the MySQL settings shared by the service binaries.
type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Name         string `yaml:"name"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// DSN renders the go-sql-driver connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=UTC",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// RabbitConfig holds the broker connection settings.
type RabbitConfig struct {
	URL            string        `yaml:"url"`
	PrefetchCount  int           `yaml:"prefetch_count"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	MaxReconnects  int           `yaml:"max_reconnects"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// AuthConfig holds token signing settings for the auth service and the
// gateway middleware.
type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	BcryptCost int           `yaml:"bcrypt_cost"`
}

// Config is the root configuration for every binary. Each binary reads
// the sections it needs and ignores the rest.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Rabbit   RabbitConfig   `yaml:"rabbit"`
	Auth     AuthConfig     `yaml:"auth"`
}

// LoadConfig reads the YAML file at path and applies environment
// overrides (RMQ_URL, DB_PASSWORD, JWT_SECRET, SERVER_PORT) on top.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config: %w", err)
	}

	if url := os.Getenv("RMQ_URL"); url != "" {
		cfg.Rabbit.URL = url
	}
	if pw := os.Getenv("DB_PASSWORD"); pw != "" {
		cfg.Database.Password = pw
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if portStr := os.Getenv("SERVER_PORT"); portStr != "" {
		if p, err := strconv.Atoi(portStr); err == nil {
			cfg.Server.Port = p
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Rabbit.PrefetchCount == 0 {
		c.Rabbit.PrefetchCount = 16
	}
	if c.Rabbit.ReconnectDelay == 0 {
		c.Rabbit.ReconnectDelay = 5 * time.Second
	}
	if c.Rabbit.RequestTimeout == 0 {
		c.Rabbit.RequestTimeout = 10 * time.Second
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}
}

// Validate checks every section after file and env sources were applied.
func (c Config) Validate() error {
	var errs []error

	if err := c.validateServer(); err != nil {
		errs = append(errs, fmt.Errorf("server: %w", err))
	}
	if err := c.validateDatabase(); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}
	if err := c.validateRabbit(); err != nil {
		errs = append(errs, fmt.Errorf("rabbit: %w", err))
	}
	return errors.Join(errs...)
}

func (c Config) validateServer() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d is out of range (1..65535)", c.Server.Port))
	}
	if c.Server.ReadTimeoutSec < 0 {
		errs = append(errs, fmt.Errorf("read_timeout_sec %d must be >= 0", c.Server.ReadTimeoutSec))
	}
	if c.Server.WriteTimeoutSec < 0 {
		errs = append(errs, fmt.Errorf("write_timeout_sec %d must be >= 0", c.Server.WriteTimeoutSec))
	}
	return errors.Join(errs...)
}

func (c Config) validateDatabase() error {
	var errs []error

	if c.Database.Host == "" {
		errs = append(errs, errors.New("host is required"))
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d is out of range (1..65535)", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, errors.New("user is required"))
	}
	if c.Database.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if c.Database.MaxOpenConns < 0 {
		errs = append(errs, fmt.Errorf("max_open_conns %d must be >= 0", c.Database.MaxOpenConns))
	}
	if c.Database.MaxOpenConns > 0 && c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		errs = append(errs, fmt.Errorf("max_idle_conns %d must be <= max_open_conns %d",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns))
	}
	return errors.Join(errs...)
}

func (c Config) validateRabbit() error {
	var errs []error

	if c.Rabbit.URL == "" {
		errs = append(errs, errors.New("url is required"))
	}
	if c.Rabbit.PrefetchCount < 1 {
		errs = append(errs, fmt.Errorf("prefetch_count %d must be >= 1", c.Rabbit.PrefetchCount))
	}
	if c.Rabbit.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("request_timeout %v must be > 0", c.Rabbit.RequestTimeout))
	}
	return errors.Join(errs...)
}
