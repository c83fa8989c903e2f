package cli

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Print the resolved configuration without connecting",
	Run:   runCheckConfig,
}

func init() {
	rootCmd.AddCommand(checkConfigCmd)
}

func runCheckConfig(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintf(w, "Database URL\t%s\n", cfg.Database.MaskedDSN())
	_, _ = fmt.Fprintf(w, "Host\t%s\n", cfg.Database.Host)
	_, _ = fmt.Fprintf(w, "Port\t%d\n", cfg.Database.Port)
	_, _ = fmt.Fprintf(w, "Database\t%s\n", cfg.Database.Database)
	_, _ = fmt.Fprintf(w, "User\t%s\n", cfg.Database.User)
	_, _ = fmt.Fprintf(w, "API base URL\t%s\n", cfg.API.BaseURL)
	_, _ = fmt.Fprintf(w, "API provider\t%d\n", cfg.API.Provider)
	_ = w.Flush()
}
