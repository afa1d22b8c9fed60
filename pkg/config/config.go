package config

import (
	"log"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/swapool-hq/swapool/pkg/logger"
)

// Config holds the configuration for the pool engine service
type Config struct {
	AdminAddress   common.Address
	CustodyAddress common.Address

	DeadlineHorizon time.Duration
	GracePeriod     time.Duration
	MaxParticipants int

	// ConfidentialTokens lists the tokens served by the confidential
	// vault backend. Empty means the vault is disabled and every token
	// resolves to the transparent path.
	ConfidentialTokens []common.Address

	SweepInterval time.Duration
	WorkerCount   int
	MaxRetries    int

	MetricsPort    string
	CircuitBreaker CircuitBreakerConfig
	LoggerConfig   LoggerConfig

	// RPCURL and PrivateKey are only needed when the transparent path is
	// backed by a real chain; left empty, the service runs on the
	// in-memory bank.
	RPCURL     string
	PrivateKey string
}

// CircuitBreakerConfig holds circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled        bool
	Threshold      int
	WindowDuration time.Duration
	ResetTimeout   time.Duration
}

// LoggerConfig holds the configuration for logging
type LoggerConfig struct {
	Level    logger.Level
	Coloring bool
}

// LoadConfig loads the configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	adminAddress, err := GetEnvAdminAddress()
	if err != nil {
		return nil, err
	}

	custodyAddress, err := GetEnvCustodyAddress()
	if err != nil {
		return nil, err
	}

	deadlineHorizon, err := GetEnvDeadlineHorizon()
	if err != nil {
		return nil, err
	}

	gracePeriod, err := GetEnvGracePeriod()
	if err != nil {
		return nil, err
	}

	maxParticipants, err := GetEnvMaxParticipants()
	if err != nil {
		return nil, err
	}

	confidentialTokens, err := GetEnvConfidentialTokens()
	if err != nil {
		return nil, err
	}

	sweepInterval, err := GetEnvSweepInterval()
	if err != nil {
		return nil, err
	}

	workerCount, err := GetEnvWorkerCount()
	if err != nil {
		return nil, err
	}

	maxRetries, err := GetEnvMaxRetries()
	if err != nil {
		return nil, err
	}

	metricsPort, err := GetEnvMetricsPort()
	if err != nil {
		return nil, err
	}

	cbEnabled, err := GetEnvCircuitBreakerEnabled()
	if err != nil {
		return nil, err
	}

	cbThreshold, err := GetEnvCircuitBreakerThreshold()
	if err != nil {
		return nil, err
	}

	cbWindow, err := GetEnvCircuitBreakerWindow()
	if err != nil {
		return nil, err
	}

	cbReset, err := GetEnvCircuitBreakerReset()
	if err != nil {
		return nil, err
	}

	logLevel, err := GetEnvLogLevel()
	if err != nil {
		return nil, err
	}

	logColoring, err := GetEnvLogColoring()
	if err != nil {
		return nil, err
	}

	return &Config{
		AdminAddress:    adminAddress,
		CustodyAddress:  custodyAddress,
		DeadlineHorizon: deadlineHorizon,
		GracePeriod:     gracePeriod,
		MaxParticipants: maxParticipants,

		ConfidentialTokens: confidentialTokens,
		SweepInterval:   sweepInterval,
		WorkerCount:     workerCount,
		MaxRetries:      maxRetries,
		MetricsPort:     metricsPort,
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:        cbEnabled,
			Threshold:      cbThreshold,
			WindowDuration: cbWindow,
			ResetTimeout:   cbReset,
		},
		LoggerConfig: LoggerConfig{
			Level:    logLevel,
			Coloring: logColoring,
		},
		RPCURL:     os.Getenv("RPC_URL"),
		PrivateKey: os.Getenv("PRIVATE_KEY"),
	}, nil
}
