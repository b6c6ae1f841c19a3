package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/kopisync/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file when missing, then opens the database and migrates it.
//
// With --rollback the most recent migration is reverted instead.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
		}
	}

	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	dbc := r.config.Database
	r.logger.Info("initializing database", "driver", dbc.Driver, "path", dbc.Path)

	db, dialect, err := shared.OpenDatabase(dbc)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	if cmd.Bool("rollback") {
		r.logger.Info("rolling back latest migration")
		if err := shared.RollbackMigration(db, dialect); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		return r.writePlainln("✓ Rolled back the latest migration")
	}

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db, dialect); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", dbc.Driver)

	r.writePlain("✓ Database ready (%s)\n", dialect)
	if r.config.Kopis.APIKey == "" {
		r.writePlainln("Next steps:")
		r.writePlain("1. Set KOPIS_API_KEY in the environment or a .env file\n")
		r.writePlain("2. Run 'kopisync sync all' to load venues and concerts\n")
	}
	return nil
}
