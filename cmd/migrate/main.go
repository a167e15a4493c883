package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/payrecon/internal/config"
	"github.com/MrJamesThe3rd/payrecon/internal/database"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	if err := run(os.Args[1], os.Args[2:]); err != nil {
		slog.Error("migration failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func run(command string, args []string) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	m, err := database.NewMigrator(cfg.MigrationURL())
	if err != nil {
		return err
	}

	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			slog.Warn("failed to close migrator", "source_error", srcErr, "db_error", dbErr)
		}
	}()

	switch command {
	case "up":
		err := m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Info("database already up to date")
			return nil
		}

		if err != nil {
			return err
		}

		slog.Info("migrations applied")
	case "down":
		if err := m.Steps(-1); err != nil {
			return err
		}

		slog.Info("rolled back one migration")
	case "goto":
		if len(args) < 1 {
			return errors.New("goto needs a version")
		}

		version, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}

		if err := m.Migrate(uint(version)); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}

		slog.Info("migrated", "version", version)
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			slog.Info("no migrations applied yet")
			return nil
		}

		if err != nil {
			return err
		}

		slog.Info("current version", "version", version, "dirty", dirty)
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}

	return nil
}

func printUsage() {
	fmt.Println("usage: migrate <command>")
	fmt.Println("commands:")
	fmt.Println("  up            apply all pending migrations")
	fmt.Println("  down          roll back the last migration")
	fmt.Println("  goto VERSION  migrate up or down to VERSION")
	fmt.Println("  version       print the current schema version")
}
