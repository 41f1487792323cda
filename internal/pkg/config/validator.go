package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for values the processor cannot run with
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	if c.Fraud.MediumFrom < 0 || c.Fraud.MediumFrom > 100 {
		return errors.New("fraud.medium_from must be between 0 and 100")
	}
	if c.Fraud.HighFrom < 0 || c.Fraud.HighFrom > 100 {
		return errors.New("fraud.high_from must be between 0 and 100")
	}
	if c.Fraud.MediumFrom >= c.Fraud.HighFrom {
		return errors.New("fraud.medium_from must be less than fraud.high_from")
	}

	switch c.Fraud.ActionThreshold {
	case "BAJ", "MED", "ALT":
	default:
		return fmt.Errorf("fraud.action_threshold must be BAJ, MED or ALT, got %q", c.Fraud.ActionThreshold)
	}

	if c.Fraud.RuleCacheTTL <= 0 {
		return errors.New("fraud.rule_cache_ttl must be positive")
	}

	if c.Gateway.RequestTimeout <= 0 {
		return errors.New("gateway.request_timeout must be positive")
	}
	if c.Gateway.RetryMax < 0 {
		return errors.New("gateway.retry_max must not be negative")
	}

	return nil
}
