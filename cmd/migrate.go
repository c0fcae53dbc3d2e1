package cmd

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/charity-reminder/internal/core/datamodel"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "to run db migration files under db/migrations directory",
	}
	migrateRollback bool
	migrateDir      string
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
	migrateCmd.PersistentFlags().StringVarP(&migrateDir, "dir", "d", "db/migrations", "sql migrations directory")
}

func runMigration(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, lg, err := setup()
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	// sqlite is the local and test backend; its schema comes from the models.
	if cfg.Database.Driver == "sqlite" {
		if migrateRollback {
			return fmt.Errorf("rollback is not supported for sqlite")
		}
		if err := datamodel.AutoMigrate(db.Gorm); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		lg.Info("sqlite schema migrated")
		return nil
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	goose.SetTableName("schema_migrations")

	command := "up"
	if migrateRollback {
		command = "down"
	}
	if err := goose.RunContext(ctx, command, db.SQLX.DB, migrateDir); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	lg.Info("migrations applied", "command", command, "dir", migrateDir)
	return nil
}
