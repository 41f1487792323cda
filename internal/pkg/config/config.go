package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig   `mapstructure:"server"`
	Database   DatabaseConfig `mapstructure:"database"`
	Redis      RedisConfig    `mapstructure:"redis"`
	Fraud      FraudConfig    `mapstructure:"fraud"`
	Gateway    GatewayConfig  `mapstructure:"gateway"`
	Log        LogConfig      `mapstructure:"log"`
	Standalone bool           `mapstructure:"standalone"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN renders the PostgreSQL connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr renders the Redis host:port address.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// FraudConfig holds fraud evaluation configuration
type FraudConfig struct {
	// Score bands: [0, MediumFrom) is low risk, [MediumFrom, HighFrom)
	// is medium, [HighFrom, 100] is high.
	MediumFrom int `mapstructure:"medium_from"`
	HighFrom   int `mapstructure:"high_from"`

	// ActionThreshold is the minimum risk level that raises an alert:
	// BAJ, MED or ALT.
	ActionThreshold string `mapstructure:"action_threshold"`

	RuleCacheTTL time.Duration `mapstructure:"rule_cache_ttl"`
}

// GatewayConfig holds outbound collaborator configuration
type GatewayConfig struct {
	FraudDecisionURL string        `mapstructure:"fraud_decision_url"`
	ProcessorURL     string        `mapstructure:"processor_url"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	RetryMax         int           `mapstructure:"retry_max"`
	BreakerThreshold uint32        `mapstructure:"breaker_threshold"`
	BreakerCooldown  time.Duration `mapstructure:"breaker_cooldown"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level         string `mapstructure:"level"`
	Format        string `mapstructure:"format"`
	IncludeCaller bool   `mapstructure:"include_caller"`
}

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "processor",
			Name:            "processor",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			Host:         "localhost",
			Port:         6379,
			DB:           0,
			PoolSize:     10,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Fraud: FraudConfig{
			MediumFrom:      40,
			HighFrom:        70,
			ActionThreshold: "MED",
			RuleCacheTTL:    5 * time.Minute,
		},
		Gateway: GatewayConfig{
			FraudDecisionURL: "http://localhost:8081",
			ProcessorURL:     "http://localhost:8082",
			RequestTimeout:   5 * time.Second,
			RetryMax:         3,
			BreakerThreshold: 5,
			BreakerCooldown:  30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Standalone: false,
	}
}
