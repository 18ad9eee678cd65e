package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/pressroom/snowball/internal/core"
	"github.com/pressroom/snowball/internal/di"
	"github.com/pressroom/snowball/internal/factory"
	"github.com/pressroom/snowball/internal/ports"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	source ports.CandidateSource,
	verifier core.DomainVerifier,
	store *factory.Store,
) error {
	defer logger.Sync()

	// Start consuming candidates
	if err := source.Start(); err != nil {
		logger.Fatal("Failed to start candidate source", zap.Error(err))
		return err
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	// Stop the source
	if err := source.Stop(); err != nil {
		logger.Error("Failed to stop candidate source", zap.Error(err))
	}

	// Close any resources that need closing
	if closer, ok := verifier.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close domain verifier", zap.Error(err))
		}
	}
	if err := store.Close(); err != nil {
		logger.Error("Failed to close store", zap.Error(err))
	}

	logger.Info("Shutdown complete")
	return nil
}
