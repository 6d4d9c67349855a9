package commands

import (
	"log/slog"
	"path/filepath"

	"auctionwatch-backend/internal/caseregistry"
	"auctionwatch-backend/lib/osutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(exportSqliteCmd)
}

var exportSqliteCmd = &cobra.Command{
	Use:   "export-sqlite",
	Short: "Rebuilds the sqlite case registry from cases.csv.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()

		registry, db := cfg.openRegistry()
		defer db.Close()

		csvPath := filepath.Join(cfg.ForeclosuresDir, "cases.csv")
		n, err := caseregistry.ImportCSV(cmd.Context(), registry, csvPath)
		if err != nil {
			osutil.Fatal("failed to import cases.csv", err)
		}
		slog.Info("registry rebuilt from csv", "rows", n, "db", cfg.RegistryDb)
	},
}
