package main

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/forensys/evidence-custody/internal/config"
	"github.com/forensys/evidence-custody/internal/store"
	"github.com/forensys/evidence-custody/pkg/log"
	"github.com/forensys/evidence-custody/pkg/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the db",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return err
		}

		logger := log.InitLog(cfg.Service.LogLevel)
		defer func() { _ = logger.Sync() }()

		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Named("migrate").Fatalf("initializing data store: %v", err)
		}

		st := store.NewStore(db)
		defer st.Close()

		if err := st.InitialMigration(); err != nil {
			zap.S().Named("migrate").Fatalf("running initial migration: %v", err)
		}

		// queue tables live in the same database but are managed by their
		// own migrator
		if cfg.Queue.Enabled && cfg.Database.Type == "pgsql" {
			dsn := fmt.Sprintf("host=%s user=%s password=%s port=%s dbname=%s",
				cfg.Database.Hostname,
				cfg.Database.User,
				cfg.Database.Password,
				cfg.Database.Port,
				cfg.Database.Name,
			)
			pool, err := pgxpool.New(cmd.Context(), dsn)
			if err != nil {
				zap.S().Named("migrate").Fatalf("creating queue pool: %v", err)
			}
			defer pool.Close()

			if err := migrations.MigrateQueue(cmd.Context(), pool); err != nil {
				zap.S().Named("migrate").Fatalf("migrating queue schema: %v", err)
			}
		}

		zap.S().Named("migrate").Info("db migrated")
		return nil
	},
}
