package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/personnel-suite/db"
)

const migrationsTable = "schema_migrations"

var (
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long: `Apply pending schema migrations. Migrations are compiled into the binary;
--dir reads them from disk instead, which is handy while writing a new one.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if migrateRollback {
				return runGoose(cmd.Context(), "down")
			}
			return runGoose(cmd.Context(), "up")
		},
	}
	migrateDownCmd = &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGoose(cmd.Context(), "down")
		},
	}
	migrateStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Print applied and pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGoose(cmd.Context(), "status")
		},
	}
	migrateVersionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGoose(cmd.Context(), "version")
		},
	}

	migrateRollback bool
	migrateDir      string
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "roll back the latest migration (same as migrate down)")
	migrateCmd.PersistentFlags().StringVarP(&migrateDir, "dir", "d", "", "read migrations from this directory instead of the embedded set")

	migrateCmd.AddCommand(migrateDownCmd, migrateStatusCmd, migrateVersionCmd)
}

func runGoose(ctx context.Context, command string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	conn, err := goose.OpenDBWithDriver("pgx", cfg.Database.GetDSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer conn.Close()

	dir := configureGoose(migrateDir)
	return migrate(ctx, conn, command, dir)
}

// configureGoose points goose at the embedded migrations unless dir is set
// and returns the directory goose should read.
func configureGoose(dir string) string {
	goose.SetTableName(migrationsTable)
	if dir != "" {
		goose.SetBaseFS(nil)
		return dir
	}
	goose.SetBaseFS(db.Migrations)
	return db.MigrationsDir
}

func migrate(ctx context.Context, conn *sql.DB, command, dir string) error {
	if err := goose.RunContext(ctx, command, conn, dir); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}
