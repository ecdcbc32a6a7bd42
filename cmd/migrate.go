package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dtroode/alumni-server/database"
	"github.com/dtroode/alumni-server/internal/config"
	"github.com/dtroode/alumni-server/internal/logger"
	"github.com/dtroode/alumni-server/internal/repository/postgres"
)

func newMigrateCmd() *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	for _, dir := range []struct {
		direction database.Direction
		short     string
	}{
		{database.Up, "Apply all pending migrations"},
		{database.Down, "Roll back the most recent migration"},
		{database.Status, "Print the state of every migration"},
	} {
		migrate.AddCommand(&cobra.Command{
			Use:   string(dir.direction),
			Short: dir.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runMigrations(cmd, dir.direction)
			},
		})
	}

	return migrate
}

func runMigrations(cmd *cobra.Command, dir database.Direction) error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)

	conn, err := postgres.NewConnection(cmd.Context(), cfg.Database.DSN, false, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer conn.Close()

	return database.Run(cmd.Context(), conn.DB, log, dir)
}
