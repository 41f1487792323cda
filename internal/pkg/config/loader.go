package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from an optional file and from PROCESSOR_*
// environment variables, layered over the defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	setDefaults(v, cfg)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// A missing config file is fine, defaults and env vars apply.
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix("PROCESSOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.host", cfg.Server.Host)
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout)

	v.SetDefault("database.host", cfg.Database.Host)
	v.SetDefault("database.port", cfg.Database.Port)
	v.SetDefault("database.user", cfg.Database.User)
	v.SetDefault("database.name", cfg.Database.Name)
	v.SetDefault("database.ssl_mode", cfg.Database.SSLMode)
	v.SetDefault("database.max_open_conns", cfg.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", cfg.Database.MaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", cfg.Database.ConnMaxLifetime)

	v.SetDefault("redis.host", cfg.Redis.Host)
	v.SetDefault("redis.port", cfg.Redis.Port)
	v.SetDefault("redis.db", cfg.Redis.DB)
	v.SetDefault("redis.pool_size", cfg.Redis.PoolSize)
	v.SetDefault("redis.read_timeout", cfg.Redis.ReadTimeout)
	v.SetDefault("redis.write_timeout", cfg.Redis.WriteTimeout)

	v.SetDefault("fraud.medium_from", cfg.Fraud.MediumFrom)
	v.SetDefault("fraud.high_from", cfg.Fraud.HighFrom)
	v.SetDefault("fraud.action_threshold", cfg.Fraud.ActionThreshold)
	v.SetDefault("fraud.rule_cache_ttl", cfg.Fraud.RuleCacheTTL)

	v.SetDefault("gateway.fraud_decision_url", cfg.Gateway.FraudDecisionURL)
	v.SetDefault("gateway.processor_url", cfg.Gateway.ProcessorURL)
	v.SetDefault("gateway.request_timeout", cfg.Gateway.RequestTimeout)
	v.SetDefault("gateway.retry_max", cfg.Gateway.RetryMax)
	v.SetDefault("gateway.breaker_threshold", cfg.Gateway.BreakerThreshold)
	v.SetDefault("gateway.breaker_cooldown", cfg.Gateway.BreakerCooldown)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.include_caller", cfg.Log.IncludeCaller)

	v.SetDefault("standalone", cfg.Standalone)
}
