package config

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swapool-hq/swapool/pkg/logger"
)

func TestGetEnvSweepInterval(t *testing.T) {
	t.Setenv("SWEEP_INTERVAL", "")
	interval, err := GetEnvSweepInterval()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(DefaultSweepInterval)*time.Second, interval)

	t.Setenv("SWEEP_INTERVAL", "30")
	interval, err = GetEnvSweepInterval()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, interval)

	t.Setenv("SWEEP_INTERVAL", "abc")
	_, err = GetEnvSweepInterval()
	assert.Error(t, err)

	t.Setenv("SWEEP_INTERVAL", "-5")
	_, err = GetEnvSweepInterval()
	assert.Error(t, err)
}

func TestGetEnvMetricsPort(t *testing.T) {
	t.Setenv("METRICS_PORT", "")
	port, err := GetEnvMetricsPort()
	require.NoError(t, err)
	assert.Equal(t, DefaultMetricsPort, port)

	t.Setenv("METRICS_PORT", "9090")
	port, err = GetEnvMetricsPort()
	require.NoError(t, err)
	assert.Equal(t, "9090", port)

	t.Setenv("METRICS_PORT", "not-a-port")
	_, err = GetEnvMetricsPort()
	assert.Error(t, err)
}

func TestGetEnvAdminAddress(t *testing.T) {
	t.Setenv("ADMIN_ADDRESS", "")
	_, err := GetEnvAdminAddress()
	assert.Error(t, err)

	t.Setenv("ADMIN_ADDRESS", "not-an-address")
	_, err = GetEnvAdminAddress()
	assert.Error(t, err)

	t.Setenv("ADMIN_ADDRESS", "0xAd111111111111111111111111111111111111d1")
	addr, err := GetEnvAdminAddress()
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xAd111111111111111111111111111111111111d1"), addr)
}

func TestGetEnvGracePeriod(t *testing.T) {
	t.Setenv("GRACE_PERIOD_HOURS", "")
	grace, err := GetEnvGracePeriod()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(DefaultGracePeriodHours)*time.Hour, grace)

	t.Setenv("GRACE_PERIOD_HOURS", "48")
	grace, err = GetEnvGracePeriod()
	require.NoError(t, err)
	assert.Equal(t, 48*time.Hour, grace)
}

func TestGetEnvConfidentialTokens(t *testing.T) {
	t.Setenv("CONFIDENTIAL_TOKENS", "")
	tokens, err := GetEnvConfidentialTokens()
	require.NoError(t, err)
	assert.Empty(t, tokens)

	t.Setenv("CONFIDENTIAL_TOKENS", "0x7000000000000000000000000000000000000010, 0x7000000000000000000000000000000000000020")
	tokens, err = GetEnvConfidentialTokens()
	require.NoError(t, err)
	assert.Equal(t, []common.Address{
		common.HexToAddress("0x7000000000000000000000000000000000000010"),
		common.HexToAddress("0x7000000000000000000000000000000000000020"),
	}, tokens)

	t.Setenv("CONFIDENTIAL_TOKENS", "not-an-address")
	_, err = GetEnvConfidentialTokens()
	assert.Error(t, err)
}

func TestGetEnvCircuitBreakerEnabled(t *testing.T) {
	t.Setenv("CIRCUIT_BREAKER_ENABLED", "")
	enabled, err := GetEnvCircuitBreakerEnabled()
	require.NoError(t, err)
	assert.Equal(t, DefaultCircuitBreakerEnabled, enabled)

	t.Setenv("CIRCUIT_BREAKER_ENABLED", "false")
	enabled, err = GetEnvCircuitBreakerEnabled()
	require.NoError(t, err)
	assert.False(t, enabled)

	t.Setenv("CIRCUIT_BREAKER_ENABLED", "maybe")
	_, err = GetEnvCircuitBreakerEnabled()
	assert.Error(t, err)
}

func TestGetEnvLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	level, err := GetEnvLogLevel()
	require.NoError(t, err)
	assert.Equal(t, logger.InfoLevel, level)

	t.Setenv("LOG_LEVEL", "debug")
	level, err = GetEnvLogLevel()
	require.NoError(t, err)
	assert.Equal(t, logger.DebugLevel, level)

	t.Setenv("LOG_LEVEL", "verbose")
	_, err = GetEnvLogLevel()
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("ADMIN_ADDRESS", "0xAd111111111111111111111111111111111111d1")
	t.Setenv("CUSTODY_ADDRESS", "0xC0de000000000000000000000000000000000001")
	t.Setenv("SWEEP_INTERVAL", "15")
	t.Setenv("MAX_PARTICIPANTS", "50")
	t.Setenv("CONFIDENTIAL_TOKENS", "0x7000000000000000000000000000000000000010")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.SweepInterval)
	assert.Equal(t, 50, cfg.MaxParticipants)
	assert.Equal(t, []common.Address{common.HexToAddress("0x7000000000000000000000000000000000000010")}, cfg.ConfidentialTokens)
	assert.Equal(t, common.HexToAddress("0xC0de000000000000000000000000000000000001"), cfg.CustodyAddress)
	assert.Equal(t, DefaultWorkerCount, cfg.WorkerCount)
}

func TestLoadConfigRequiresAdmin(t *testing.T) {
	t.Setenv("ADMIN_ADDRESS", "")
	t.Setenv("CUSTODY_ADDRESS", "0xC0de000000000000000000000000000000000001")

	_, err := LoadConfig()
	assert.Error(t, err)
}
