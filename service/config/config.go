package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Default program addresses. These are the deployed programs; they can be
// overridden through the environment for local validators.
const (
	DefaultForgeProgramID    = "HwB325tYBpE7pAzZshMBCZo3PRCpdwwwLtsRy6t8NjDg"
	DefaultLockerProgramID   = "AVfmdPiqXfc15Pt8PPRXxTP5oMs4D1CdijARiz8mFMFD"
	DefaultMetadataProgramID = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"
)

// Config holds all application configuration loaded from environment variables.
// All required fields are validated at load time to ensure fail-fast behavior.
type Config struct {
	// Ledger configuration
	RPCURL   string
	LogLevel string

	// Program addresses
	ForgeProgramID    string
	LockerProgramID   string
	MetadataProgramID string

	// Signing identity
	KeypairPath string

	// Off-chain content store (Pinata-compatible pinning API)
	PinataEndpoint string
	PinataGateway  string
	PinataJWT      string

	// Confirmation polling cadence. The polling deadline itself is the
	// blockhash's last-valid height, not a wall-clock timer.
	ConfirmPollInterval time.Duration

	// Off-chain metadata fetch timeout (per asset)
	MetadataFetchTimeout time.Duration
}

// Load reads configuration from environment variables. Malformed values are
// an error; missing values that flags can supply are left for Validate.
func Load() (*Config, error) {
	cfg := &Config{}
	var errs []error

	// The RPC URL may also arrive as a CLI flag, so its absence is caught
	// by Validate after overrides are applied, not here.
	cfg.RPCURL = os.Getenv("FORGE_RPC_URL")

	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	cfg.ForgeProgramID = getEnvOrDefault("FORGE_PROGRAM_ID", DefaultForgeProgramID)
	cfg.LockerProgramID = getEnvOrDefault("LOCKER_PROGRAM_ID", DefaultLockerProgramID)
	cfg.MetadataProgramID = getEnvOrDefault("METADATA_PROGRAM_ID", DefaultMetadataProgramID)

	cfg.KeypairPath = os.Getenv("FORGE_KEYPAIR")
	if cfg.KeypairPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			errs = append(errs, fmt.Errorf("FORGE_KEYPAIR not set and home directory unavailable: %w", err))
		} else {
			cfg.KeypairPath = filepath.Join(home, ".config", "solana", "id.json")
		}
	}

	cfg.PinataEndpoint = getEnvOrDefault("PINATA_ENDPOINT", "https://api.pinata.cloud/pinning/pinFileToIPFS")
	cfg.PinataGateway = getEnvOrDefault("PINATA_GATEWAY", "https://gateway.pinata.cloud/ipfs")
	// The JWT is only needed for token creation; commands that never upload
	// work without it, so absence is not a load error.
	cfg.PinataJWT = os.Getenv("PINATA_JWT")

	pollInterval, err := parseDuration("CONFIRM_POLL_INTERVAL", "2s")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.ConfirmPollInterval = pollInterval
	}

	fetchTimeout, err := parseDuration("METADATA_FETCH_TIMEOUT", "10s")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.MetadataFetchTimeout = fetchTimeout
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %v", errs)
	}

	return cfg, nil
}

// MustLoad is like Load but panics if configuration is invalid.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks if the configuration is valid. This is useful for testing
// configuration without loading from env.
func (c *Config) Validate() error {
	var errs []error

	if c.RPCURL == "" {
		errs = append(errs, fmt.Errorf("RPCURL is required"))
	}
	if c.ForgeProgramID == "" {
		errs = append(errs, fmt.Errorf("ForgeProgramID is required"))
	}
	if c.LockerProgramID == "" {
		errs = append(errs, fmt.Errorf("LockerProgramID is required"))
	}
	if c.MetadataProgramID == "" {
		errs = append(errs, fmt.Errorf("MetadataProgramID is required"))
	}
	if c.KeypairPath == "" {
		errs = append(errs, fmt.Errorf("KeypairPath is required"))
	}
	if c.ConfirmPollInterval <= 0 {
		errs = append(errs, fmt.Errorf("ConfirmPollInterval must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}
	return nil
}

// getEnvOrDefault returns the value of the environment variable or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration from an environment variable with a default.
func parseDuration(key, defaultValue string) (time.Duration, error) {
	value := getEnvOrDefault(key, defaultValue)
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return d, nil
}
