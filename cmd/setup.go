package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/kidsbox/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes config.toml from the template when missing and migrates the sqlite token store.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config, err := shared.LoadConfig(configPath)
	switch {
	case err == nil:
	case errors.Is(err, shared.ErrMissingConfig):
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.writePlain("✓ Created %s\n", configPath)
		r.writePlain("  Fill in credentials.spotify or set %s and %s\n", shared.EnvClientID, shared.EnvClientSecret)
		config = shared.DefaultConfig()
	default:
		return fmt.Errorf("failed to load config: %w", err)
	}

	if config.Storage.Driver != "sqlite" {
		r.logger.Info("file token store needs no migrations", "path", config.Storage.Path)
		return r.writePlain("✓ Token store: file %s\n", config.Storage.Path)
	}

	r.logger.Info("initializing database", "path", config.Storage.Path)

	db, err := shared.NewDatabase(config.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	if cmd.Bool("rollback") {
		if err := shared.RollbackMigration(db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		return r.writePlain("✓ Rolled back latest migration on %s\n", config.Storage.Path)
	}

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", config.Storage.Path)
	return r.writePlain("✓ Token store: sqlite %s\n", config.Storage.Path)
}
