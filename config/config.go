// Package config handles application configuration.
package config

import (
	"path/filepath"
	"time"
)

// Config holds runtime settings for the wallet.
type Config struct {
	// Endpoint is the Solana JSON-RPC endpoint all ledger calls use.
	Endpoint string

	// DataDir is where the wallet state file lives.
	DataDir string

	// Commitment is the confirmation level used for balance queries
	// and transaction confirmation: "processed", "confirmed", or
	// "finalized".
	Commitment string

	// ConfirmPollInterval is how often transaction confirmation polls
	// the ledger.
	ConfirmPollInterval time.Duration

	// Log holds logging settings.
	Log LogConfig
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string // debug, info, warn, error
	JSON  bool   // JSON output instead of colored console
}

// StateFile returns the path of the wallet state file under DataDir.
func (c *Config) StateFile() string {
	return filepath.Join(c.DataDir, "wallet.json")
}
