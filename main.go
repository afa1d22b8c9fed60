package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/swapool-hq/swapool/pkg/circuitbreaker"
	"github.com/swapool-hq/swapool/pkg/config"
	"github.com/swapool-hq/swapool/pkg/custody"
	"github.com/swapool-hq/swapool/pkg/engine"
	"github.com/swapool-hq/swapool/pkg/health"
	"github.com/swapool-hq/swapool/pkg/logger"
	"github.com/swapool-hq/swapool/pkg/sweeper"
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	stdLogger := logger.NewStdLogger(cfg.LoggerConfig.Coloring, cfg.LoggerConfig.Level)

	// Set up context with cancellation on SIGINT/SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Pick the transparent ledger backend: a real chain when RPC settings
	// are present, the in-memory bank otherwise.
	var bank custody.TransparentLedger
	if cfg.RPCURL != "" {
		evmLedger, err := custody.NewEVMLedger(ctx, cfg.RPCURL, cfg.PrivateKey, stdLogger)
		if err != nil {
			log.Fatalf("Failed to create EVM ledger: %v", err)
		}
		bank = evmLedger
		stdLogger.Notice("Transparent path backed by chain RPC at %s", cfg.RPCURL)
	} else {
		bank = custody.NewMemoryBank()
		stdLogger.Notice("Transparent path backed by in-memory bank")
	}

	// The confidential path is served by the in-memory vault when tokens
	// are configured for it; with none, every token stays transparent.
	var vault custody.ConfidentialVault
	if len(cfg.ConfidentialTokens) > 0 {
		memVault := custody.NewMemoryVault()
		for _, token := range cfg.ConfidentialTokens {
			memVault.Register(token)
		}
		vault = memVault
		stdLogger.Notice("Confidential path enabled for %d token(s)", len(cfg.ConfidentialTokens))
	}

	eng := engine.New(engine.Params{
		Admin:              cfg.AdminAddress,
		CustodyAddress:     cfg.CustodyAddress,
		MaxDeadlineHorizon: cfg.DeadlineHorizon,
		GracePeriod:        cfg.GracePeriod,
		MaxParticipants:    cfg.MaxParticipants,
	}, bank, vault, stdLogger)

	breaker := circuitbreaker.NewCircuitBreaker(
		cfg.CircuitBreaker.Enabled,
		cfg.CircuitBreaker.Threshold,
		cfg.CircuitBreaker.WindowDuration,
		cfg.CircuitBreaker.ResetTimeout,
		stdLogger,
	)

	// Start API and metrics server
	apiServer := health.NewServer(cfg.MetricsPort, eng, stdLogger)
	go apiServer.Start()

	// Set up signal handling for graceful shutdown
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalCh
		stdLogger.Notice("Received termination signal, shutting down gracefully...")
		cancel()
	}()

	// Run the expiry sweeper in the foreground
	stdLogger.Notice("Starting the swapool engine service...")
	sweep := sweeper.New(eng, cfg.SweepInterval, cfg.WorkerCount, cfg.MaxRetries, breaker, stdLogger)
	sweep.Start(ctx)
}
