package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// HTTP configuration
	HTTPAddr    string
	MetricsAddr string

	// Fee configuration, basis points against the losing pool
	PlatformFeeBps     int64
	CreatorFeeBps      int64
	CancellationFeeBps int64 // charged on stake cancellation; 0 refunds face value

	// PlatformTreasuryID is the internal account credited with platform fees
	// and settlement residuals
	PlatformTreasuryID int64

	// Escrow source configuration
	EscrowRPCURL       string
	EscrowContractAddr string
	ReconcileTimeout   time.Duration
	LockTTL            time.Duration
	SweepInterval      time.Duration

	// Environment
	Environment string // "development" or "production"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Database
		DatabaseURL: os.Getenv("DATABASE_URL"),

		// HTTP defaults
		HTTPAddr:    ":8080",
		MetricsAddr: ":9090",

		// Fee defaults
		PlatformFeeBps:     250,
		CreatorFeeBps:      100,
		CancellationFeeBps: 0,

		// Treasury account 0 is reserved for the platform
		PlatformTreasuryID: 0,

		// Escrow source
		EscrowRPCURL:       os.Getenv("ESCROW_RPC_URL"),
		EscrowContractAddr: os.Getenv("ESCROW_CONTRACT_ADDRESS"),
		ReconcileTimeout:   5 * time.Second,
		LockTTL:            15 * time.Minute,
		SweepInterval:      1 * time.Minute,

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	if addr := os.Getenv("HTTP_ADDR"); addr != "" {
		config.HTTPAddr = addr
	}
	if addr := os.Getenv("METRICS_ADDR"); addr != "" {
		config.MetricsAddr = addr
	}

	// Override defaults if environment variables are set
	if bps := os.Getenv("PLATFORM_FEE_BPS"); bps != "" {
		if parsed, err := strconv.ParseInt(bps, 10, 64); err == nil {
			config.PlatformFeeBps = parsed
		}
	}
	if bps := os.Getenv("CREATOR_FEE_BPS"); bps != "" {
		if parsed, err := strconv.ParseInt(bps, 10, 64); err == nil {
			config.CreatorFeeBps = parsed
		}
	}
	if bps := os.Getenv("CANCELLATION_FEE_BPS"); bps != "" {
		if parsed, err := strconv.ParseInt(bps, 10, 64); err == nil {
			config.CancellationFeeBps = parsed
		}
	}
	if id := os.Getenv("PLATFORM_TREASURY_ID"); id != "" {
		if parsed, err := strconv.ParseInt(id, 10, 64); err == nil {
			config.PlatformTreasuryID = parsed
		}
	}
	if d := os.Getenv("RECONCILE_TIMEOUT"); d != "" {
		if parsed, err := time.ParseDuration(d); err == nil {
			config.ReconcileTimeout = parsed
		}
	}
	if d := os.Getenv("LOCK_TTL"); d != "" {
		if parsed, err := time.ParseDuration(d); err == nil {
			config.LockTTL = parsed
		}
	}
	if d := os.Getenv("SWEEP_INTERVAL"); d != "" {
		if parsed, err := time.ParseDuration(d); err == nil {
			config.SweepInterval = parsed
		}
	}

	if config.PlatformFeeBps < 0 || config.CreatorFeeBps < 0 || config.CancellationFeeBps < 0 {
		return nil, fmt.Errorf("fee rates must be non-negative")
	}
	if config.PlatformFeeBps+config.CreatorFeeBps >= 10000 {
		return nil, fmt.Errorf("combined fee rate must stay below 10000 bps")
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}
