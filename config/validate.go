package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("rpc endpoint must not be empty")
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("rpc endpoint %q is not an http(s) URL", c.Endpoint)
	}

	switch c.Commitment {
	case "processed", "confirmed", "finalized":
	default:
		return fmt.Errorf("unknown commitment level %q", c.Commitment)
	}

	if c.ConfirmPollInterval <= 0 {
		return fmt.Errorf("confirm poll interval must be positive")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}

	if c.DataDir == "" {
		return fmt.Errorf("data directory must not be empty")
	}
	return nil
}
