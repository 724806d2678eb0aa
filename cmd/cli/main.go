package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akeren/wiwi-waitlist/config"
	"github.com/akeren/wiwi-waitlist/internal/log"
	"gorm.io/gorm"
)

func main() {
	// Stdout carries command output; logs go to stderr so they can be piped apart.
	logger := log.NewLoggerWithWriter(os.Stderr)

	config.InitializeEnvFile(logger) // Load envs early for CLI consistency

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch args[0] {
	case "migrate":
		err = withDatabase(logger, func(db *gorm.DB) error {
			ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
			defer cancel()
			return runMigrate(ctx, logger, db, args[1:], os.Stdout)
		})

	case "list":
		err = withDatabase(logger, func(db *gorm.DB) error {
			return runList(ctx, db, args[1:], os.Stdout)
		})

	case "export":
		var exportSettings *config.ExportSettings
		exportSettings, err = config.NewExportSettings()
		if err != nil {
			break
		}
		err = withDatabase(logger, func(db *gorm.DB) error {
			return runExport(ctx, logger, db, exportSettings.Location, args[1:], time.Now())
		})

	case "hash-password":
		err = runHashPassword(os.Stdin, os.Stdout)

	case "help", "-h", "--help":
		printUsage()
		return

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.Error("Command failed", "command", args[0], "error", err.Error())
		stop()
		os.Exit(1)
	}
}

func withDatabase(logger *log.Logger, fn func(db *gorm.DB) error) error {
	db, err := config.NewDatabase(logger, nil)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer config.CloseDatabase(db, logger)

	return fn(db)
}

func printUsage() {
	fmt.Println("Usage: cli <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  migrate [up|down -steps N|version]  Manage the database schema (default: up)")
	fmt.Println("  list [-order asc|desc] [-search q]   Print waitlist entries as a table")
	fmt.Println("  export [-order] [-search] [-out]     Write waitlist entries to a CSV file")
	fmt.Println("  hash-password                        Read a password from stdin and print its bcrypt hash")
}
