package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nxtrade/tbutils/internal/infra/storage/postgres"
)

var setupDBCmd = &cobra.Command{
	Use:   "setup-db",
	Short: "Create the database schema",
	Run:   runSetupDB,
}

func init() {
	rootCmd.AddCommand(setupDBCmd)
}

func runSetupDB(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	slog.Info("Connected to database", "url", cfg.Database.MaskedDSN())

	if err := postgres.Migrate(db); err != nil {
		slog.Error("Failed to set up database", "error", err)
		os.Exit(1)
	}

	slog.Info("Database setup completed successfully")
}
