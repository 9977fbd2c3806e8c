package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/anomaly-classifier/internal/config"
	"github.com/mikey/anomaly-classifier/internal/di"
	"github.com/mikey/anomaly-classifier/internal/logging"
	"github.com/mikey/anomaly-classifier/internal/ports"
	"go.uber.org/zap"
)

var configFile = flag.String("config", "", "Path to config file (default: search standard locations)")

func main() {
	flag.Parse()

	// Build the dependency injection container
	container, err := di.BuildContainer(*configFile)
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
	cfg *config.Config,
	level zap.AtomicLevel,
	logger *zap.Logger,
	frontends []ports.Frontend,
) error {
	defer logger.Sync()

	logging.WatchLevel(cfg, level, logger)

	// Start the front ends, stopping any already running if one fails
	started := make([]ports.Frontend, 0, len(frontends))
	for _, fe := range frontends {
		if err := fe.Start(); err != nil {
			logger.Error("Failed to start front end", zap.String("frontend", fe.Name()), zap.Error(err))
			stopAll(started, logger)
			return err
		}
		started = append(started, fe)
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("Shutting down...", zap.String("signal", sig.String()))

	stopAll(started, logger)

	logger.Info("Shutdown complete")
	return nil
}

// stopAll stops front ends in reverse start order
func stopAll(frontends []ports.Frontend, logger *zap.Logger) {
	for i := len(frontends) - 1; i >= 0; i-- {
		if err := frontends[i].Stop(); err != nil {
			logger.Error("Failed to stop front end", zap.String("frontend", frontends[i].Name()), zap.Error(err))
		}
	}
}
