package main

import (
	"errors"
	"fmt"

	"farewatch/cfg"
	"farewatch/db/migrations"
	"farewatch/pkg/db"
	"farewatch/pkg/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/spf13/cobra"
)

var migrateSteps int

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down]",
	Short:     "Apply or roll back the database schema",
	ValidArgs: []string{"up", "down"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	// Overrides the root hook: migrations only need the database settings.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cfg.LoadDatabase)
	},
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().IntVar(&migrateSteps, "steps", 0,
		"Number of migrations to apply or roll back (0 means all)")
}

func runMigrate(_ *cobra.Command, args []string) error {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, db.PostgresConfig(config.Postgres).DSN())
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	defer m.Close()

	switch {
	case args[0] == "up" && migrateSteps > 0:
		err = m.Steps(migrateSteps)
	case args[0] == "up":
		err = m.Up()
	case migrateSteps > 0:
		err = m.Steps(-migrateSteps)
	default:
		err = m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s: %w", args[0], err)
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return verr
	}
	zlog.Info("migrate_done",
		logger.Field{Key: "direction", Value: args[0]},
		logger.Field{Key: "version", Value: version},
		logger.Field{Key: "dirty", Value: dirty},
	)
	return nil
}
