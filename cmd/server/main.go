package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brojonat/solpipe/service/config"
	"github.com/brojonat/solpipe/service/metrics"
	"github.com/brojonat/solpipe/service/nats"
	"github.com/brojonat/solpipe/service/server"
	"github.com/brojonat/solpipe/service/solana"
	"github.com/brojonat/solpipe/service/transfer"
	"github.com/brojonat/solpipe/service/wallet"
)

func main() {
	// Load and validate configuration from environment
	// This fails fast if any required config is missing or invalid
	cfg := config.MustLoad()

	// Setup structured logging
	logger := setupLogger(cfg.LogLevel)
	logger.Info("starting server",
		"addr", cfg.ServerAddr,
		"log_level", cfg.LogLevel,
		"cluster", cfg.SolanaCluster,
	)

	m := metrics.NewMetrics(nil)

	// Initialize Solana RPC client
	// Note: For premium RPC endpoints, include API key in the URL
	rpcURL, err := solana.SelectRandomEndpoint(cfg.SolanaRPCURLs)
	if err != nil {
		logger.Error("failed to select RPC endpoint", "error", err)
		os.Exit(1)
	}
	solanaClient := solana.NewClient(solana.NewRPCClient(rpcURL), cfg.SolanaCluster, m, logger).
		WithPollInterval(cfg.ConfirmPollInterval)
	logger.Info("initialized solana RPC client", "endpoints", len(cfg.SolanaRPCURLs))

	// Result notifications are optional
	var publisher nats.Publisher
	if cfg.NATSURL != "" {
		p, err := nats.NewPublisher(cfg.NATSURL, m, logger)
		if err != nil {
			logger.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer p.Close()
		publisher = p
	} else {
		logger.Warn("NATS_URL not set, result notifications disabled")
	}

	svc := transfer.NewService(solanaClient, transfer.Options{
		DefaultTokenMint: cfg.DefaultTokenMint,
		TokenSymbol:      cfg.TokenSymbol,
		Cluster:          cfg.SolanaCluster,
		ExplorerBaseURL:  cfg.ExplorerBaseURL,
		AirdropLamports:  cfg.AirdropLamports,
		ConfirmTimeout:   cfg.ConfirmTimeout,
	}, publisher, m, logger)

	// The hot wallet signs without prompting; there is no one to ask.
	var signer wallet.Signer
	if cfg.WalletKeypairPath != "" {
		w, err := wallet.LoadKeypairWallet(cfg.WalletKeypairPath, solanaClient, wallet.AutoApprove, logger)
		if err != nil {
			logger.Error("failed to load hot wallet", "error", err)
			os.Exit(1)
		}
		signer = w
	}

	httpServer := server.New(cfg.ServerAddr, svc, signer, m, logger).
		WithAPIToken(cfg.APIToken).
		WithAllowedOrigins(cfg.CORSAllowedOrigins).
		WithWriteTimeout(server.WriteTimeoutFor(cfg.ConfirmTimeout))

	// Start HTTP server in background
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- httpServer.Start()
	}()

	// Wait for shutdown signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("server error", "error", err)
		os.Exit(1)
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())

		// Give in-flight transfers time to finish their confirmation wait
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ConfirmTimeout+10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown server gracefully", "error", err)
			os.Exit(1)
		}

		logger.Info("server shutdown complete")
	}
}

// setupLogger creates a structured logger with the given log level.
func setupLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
