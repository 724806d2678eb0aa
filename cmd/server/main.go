package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akeren/wiwi-waitlist/config"
	"github.com/akeren/wiwi-waitlist/domain"
	"github.com/akeren/wiwi-waitlist/internal/log"
	"github.com/akeren/wiwi-waitlist/pkg/utils"
)

const defaultShutdownTimeout = 30 * time.Second

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	logger := log.NewLoggerWithJSONOutput()

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	var autoMigrate bool
	fs.BoolVar(&autoMigrate, "auto-migrate", false, "create or update tables from the models on startup (development only)")
	fs.BoolVar(&autoMigrate, "m", false, "shorthand for -auto-migrate")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	logger.Info("wiwi-waitlist server starting", "auto_migrate", autoMigrate)

	appConfig, err := config.LoadApplicationConfiguration(logger, autoMigrate)
	if err != nil {
		logger.Error("Failed to load application configuration", "error", err.Error())
		return 1
	}
	defer appConfig.Cleanup()

	domain.SetupCoreDomain(appConfig)

	jobs, err := domain.SetupScheduledJobs(appConfig)
	if err != nil {
		logger.Error("Failed to schedule waitlist snapshots", "error", err)
		return 1
	}
	if jobs != nil {
		defer jobs.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- appConfig.RouterService.RunHTTPServer()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server error", "error", err)
			return 1
		}
		return 0
	case <-ctx.Done():
	}

	timeout, err := utils.GetEnvPositiveDuration("SHUTDOWN_TIMEOUT", defaultShutdownTimeout)
	if err != nil {
		logger.Warn("Invalid SHUTDOWN_TIMEOUT, using default", "error", err, "default", defaultShutdownTimeout.String())
	}

	logger.Info("Shutdown signal received, draining connections", "timeout", timeout.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := appConfig.RouterService.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
		return 1
	}

	logger.Info("HTTP server shut down gracefully")
	return 0
}
