package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default values.
const (
	// DefaultEndpoint targets the public devnet cluster. Point this at
	// a paid RPC provider for anything beyond experimentation.
	DefaultEndpoint = "https://api.devnet.solana.com"

	DefaultCommitment          = "confirmed"
	DefaultConfirmPollInterval = 500 * time.Millisecond
)

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Endpoint:            DefaultEndpoint,
		DataDir:             defaultDataDir(),
		Commitment:          DefaultCommitment,
		ConfirmPollInterval: DefaultConfirmPollInterval,
		Log: LogConfig{
			Level: "info",
		},
	}
}

// defaultDataDir returns ~/.solwallet, falling back to the working
// directory when the home directory cannot be resolved.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".solwallet"
	}
	return filepath.Join(home, ".solwallet")
}
