package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/redmonkez12/identity-api/internal/config"
	"github.com/redmonkez12/identity-api/internal/database"
	"github.com/redmonkez12/identity-api/internal/logging"
)

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.NewLogger(cfg.Server.IsDevelopment())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := initDB(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := database.CreateSchema(ctx, db); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Info("database schema ready", "database", cfg.Database.DBName)
	return nil
}
