package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/swapool-hq/swapool/pkg/logger"
)

const (
	// DefaultSweepInterval defines the default expiry sweep interval in seconds
	DefaultSweepInterval = 60

	// DefaultWorkerCount defines the default number of workers reclaiming expired intents
	DefaultWorkerCount = 5

	// DefaultMetricsPort defines the default port for the health and metrics server
	DefaultMetricsPort = "8080"

	// DefaultMaxParticipants caps the participant list per intent
	DefaultMaxParticipants = 100

	// DefaultDeadlineHorizonHours bounds how far out an intent deadline may lie
	DefaultDeadlineHorizonHours = 720 // 30 days

	// DefaultGracePeriodHours defines how long after the deadline an intent becomes reclaimable
	DefaultGracePeriodHours = 24

	// DefaultCircuitBreakerEnabled defines whether the circuit breaker is enabled
	DefaultCircuitBreakerEnabled = true

	// DefaultCircuitBreakerThreshold defines the number of failures before the circuit breaker trips
	DefaultCircuitBreakerThreshold = 5

	// DefaultCircuitBreakerWindow defines the time window for the circuit breaker in minutes
	DefaultCircuitBreakerWindow = 5

	// DefaultCircuitBreakerReset defines the reset timeout for the circuit breaker in minutes
	DefaultCircuitBreakerReset = 15

	// DefaultMaxRetries defines the maximum number of retries for failed cleanup jobs
	DefaultMaxRetries = 10
)

// GetEnvSweepInterval returns the expiry sweep interval
func GetEnvSweepInterval() (time.Duration, error) {
	seconds, err := getEnvInt("SWEEP_INTERVAL", DefaultSweepInterval)
	if err != nil {
		return 0, err
	}
	return time.Duration(seconds) * time.Second, nil
}

// GetEnvWorkerCount returns the number of sweep workers
func GetEnvWorkerCount() (int, error) {
	return getEnvInt("WORKER_COUNT", DefaultWorkerCount)
}

// GetEnvMetricsPort returns the port for the health and metrics server
func GetEnvMetricsPort() (string, error) {
	port := os.Getenv("METRICS_PORT")
	if port == "" {
		return DefaultMetricsPort, nil
	}
	if _, err := strconv.Atoi(port); err != nil {
		return "", fmt.Errorf("invalid METRICS_PORT '%s': %v", port, err)
	}
	return port, nil
}

// GetEnvMaxParticipants returns the per-intent participant cap
func GetEnvMaxParticipants() (int, error) {
	return getEnvInt("MAX_PARTICIPANTS", DefaultMaxParticipants)
}

// GetEnvDeadlineHorizon returns the maximum deadline horizon
func GetEnvDeadlineHorizon() (time.Duration, error) {
	hours, err := getEnvInt("DEADLINE_HORIZON_HOURS", DefaultDeadlineHorizonHours)
	if err != nil {
		return 0, err
	}
	return time.Duration(hours) * time.Hour, nil
}

// GetEnvGracePeriod returns the post-deadline grace period
func GetEnvGracePeriod() (time.Duration, error) {
	hours, err := getEnvInt("GRACE_PERIOD_HOURS", DefaultGracePeriodHours)
	if err != nil {
		return 0, err
	}
	return time.Duration(hours) * time.Hour, nil
}

// GetEnvAdminAddress returns the administrative identity
func GetEnvAdminAddress() (common.Address, error) {
	val := os.Getenv("ADMIN_ADDRESS")
	if val == "" {
		return common.Address{}, fmt.Errorf("ADMIN_ADDRESS environment variable is required")
	}
	if !common.IsHexAddress(val) {
		return common.Address{}, fmt.Errorf("invalid ADMIN_ADDRESS '%s'", val)
	}
	return common.HexToAddress(val), nil
}

// GetEnvCustodyAddress returns the engine custody account
func GetEnvCustodyAddress() (common.Address, error) {
	val := os.Getenv("CUSTODY_ADDRESS")
	if val == "" {
		return common.Address{}, fmt.Errorf("CUSTODY_ADDRESS environment variable is required")
	}
	if !common.IsHexAddress(val) {
		return common.Address{}, fmt.Errorf("invalid CUSTODY_ADDRESS '%s'", val)
	}
	return common.HexToAddress(val), nil
}

// GetEnvConfidentialTokens returns the token addresses managed under
// confidential custody, as a comma-separated list. Empty means every token
// stays on the transparent path.
func GetEnvConfidentialTokens() ([]common.Address, error) {
	val := os.Getenv("CONFIDENTIAL_TOKENS")
	if val == "" {
		return nil, nil
	}

	var tokens []common.Address
	for _, part := range strings.Split(val, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !common.IsHexAddress(part) {
			return nil, fmt.Errorf("invalid CONFIDENTIAL_TOKENS entry '%s'", part)
		}
		tokens = append(tokens, common.HexToAddress(part))
	}
	return tokens, nil
}

// GetEnvCircuitBreakerEnabled returns whether the circuit breaker is enabled
func GetEnvCircuitBreakerEnabled() (bool, error) {
	val := os.Getenv("CIRCUIT_BREAKER_ENABLED")
	if val == "" {
		return DefaultCircuitBreakerEnabled, nil
	}
	enabled, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid CIRCUIT_BREAKER_ENABLED '%s': %v", val, err)
	}
	return enabled, nil
}

// GetEnvCircuitBreakerThreshold returns the circuit breaker failure threshold
func GetEnvCircuitBreakerThreshold() (int, error) {
	return getEnvInt("CIRCUIT_BREAKER_THRESHOLD", DefaultCircuitBreakerThreshold)
}

// GetEnvCircuitBreakerWindow returns the circuit breaker failure window
func GetEnvCircuitBreakerWindow() (time.Duration, error) {
	minutes, err := getEnvInt("CIRCUIT_BREAKER_WINDOW", DefaultCircuitBreakerWindow)
	if err != nil {
		return 0, err
	}
	return time.Duration(minutes) * time.Minute, nil
}

// GetEnvCircuitBreakerReset returns the circuit breaker reset timeout
func GetEnvCircuitBreakerReset() (time.Duration, error) {
	minutes, err := getEnvInt("CIRCUIT_BREAKER_RESET", DefaultCircuitBreakerReset)
	if err != nil {
		return 0, err
	}
	return time.Duration(minutes) * time.Minute, nil
}

// GetEnvMaxRetries returns the maximum retries for failed cleanup jobs
func GetEnvMaxRetries() (int, error) {
	return getEnvInt("MAX_RETRIES", DefaultMaxRetries)
}

// GetEnvLogLevel returns the configured log level
func GetEnvLogLevel() (logger.Level, error) {
	val := os.Getenv("LOG_LEVEL")
	switch val {
	case "", "info":
		return logger.InfoLevel, nil
	case "debug":
		return logger.DebugLevel, nil
	case "notice":
		return logger.NoticeLevel, nil
	case "error":
		return logger.ErrorLevel, nil
	default:
		return 0, fmt.Errorf("invalid LOG_LEVEL '%s'", val)
	}
}

// GetEnvLogColoring returns whether log coloring is enabled
func GetEnvLogColoring() (bool, error) {
	val := os.Getenv("LOG_COLORING")
	if val == "" {
		return true, nil
	}
	coloring, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid LOG_COLORING '%s': %v", val, err)
	}
	return coloring, nil
}

func getEnvInt(key string, def int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return def, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s '%s': %v", key, val, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, parsed)
	}
	return parsed, nil
}
