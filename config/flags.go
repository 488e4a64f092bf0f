package config

import "flag"

// BindFlags registers command-line flags that override cfg in place.
func BindFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Endpoint, "rpc", cfg.Endpoint, "Solana JSON-RPC endpoint URL")
	fs.StringVar(&cfg.DataDir, "datadir", cfg.DataDir, "Directory for the wallet state file")
	fs.StringVar(&cfg.Commitment, "commitment", cfg.Commitment, "Commitment level: processed, confirmed, finalized")
	fs.DurationVar(&cfg.ConfirmPollInterval, "confirm-poll", cfg.ConfirmPollInterval, "Confirmation poll interval")
	fs.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "Log level: debug, info, warn, error")
	fs.BoolVar(&cfg.Log.JSON, "log-json", cfg.Log.JSON, "Log in JSON instead of colored console output")
}
