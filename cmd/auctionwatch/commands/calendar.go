package commands

import (
	"log/slog"
	"os"
	"path/filepath"

	"auctionwatch-backend/internal/browser"
	"auctionwatch-backend/internal/calendar"
	"auctionwatch-backend/internal/caseregistry"
	"auctionwatch-backend/lib/osutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(calendarCmd)
}

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Scrapes the borough auction calendars and reconciles the sightings into the case registry.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := readConfig()

		sweeper := calendar.Sweeper{
			Connect:  browser.Dial,
			Endpoint: cfg.endpoint(),
			Boroughs: calendar.DefaultBoroughs(),
		}
		sightings := sweeper.Sweep(ctx)
		slog.Info("calendar sweep finished", "sightings", len(sightings))

		registry, db := cfg.openRegistry()
		defer db.Close()
		if err := calendar.Reconcile(ctx, registry, sightings); err != nil {
			osutil.Fatal("failed to reconcile registry", err)
		}

		csvPath := filepath.Join(cfg.ForeclosuresDir, "cases.csv")
		rows, err := caseregistry.ReadCSV(csvPath)
		if err != nil && !os.IsNotExist(err) {
			osutil.Fatal("failed to read cases.csv", err)
		}
		merged := caseregistry.MergeCases(rows, sightings)
		if err := os.MkdirAll(cfg.ForeclosuresDir, 0o755); err != nil {
			osutil.Fatal("failed to create foreclosures dir", err)
		}
		if err := caseregistry.WriteCSV(csvPath, merged); err != nil {
			osutil.Fatal("failed to write cases.csv", err)
		}
		slog.Info("registry reconciled", "csv", csvPath, "total", len(merged))
	},
}
