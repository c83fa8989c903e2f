package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nxtrade/tbutils/internal/infra/storage/postgres"
)

var (
	statusProvider int
	statusLimit    int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent outbound API call telemetry",
	Run:   runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusProvider, "provider", 0, "filter by provider id (0 = all)")
	statusCmd.Flags().IntVar(&statusLimit, "limit", 20, "number of records to show")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
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

	repo := postgres.NewTelemetryRepo(db)
	calls, err := repo.Recent(ctx, statusProvider, statusLimit)
	if err != nil {
		slog.Error("Failed to query telemetry", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "TIME\tPROVIDER\tMETHOD\tENDPOINT\tSTATUS\tDURATION\tRETRIES\tBREAKER")

	for _, c := range calls {
		status := "-"
		if c.StatusCode != 0 {
			status = fmt.Sprintf("%d", c.StatusCode)
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%dms\t%d\t%s\n",
			c.RequestedAt.Format("15:04:05"),
			c.Provider,
			c.Method,
			c.Endpoint,
			status,
			c.DurationMS,
			c.RetryCount,
			c.BreakerState,
		)
	}
	_ = w.Flush()
}
