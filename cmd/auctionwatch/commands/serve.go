package commands

import (
	"auctionwatch-backend/internal/dashboard"
	"auctionwatch-backend/lib/osutil"
	"auctionwatch-backend/lib/telemetry"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the case dashboard and the downloaded document tree.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		telemetry.InstrumentPerfStats(cmd.Context())

		registry, db := cfg.openRegistry()
		defer db.Close()

		server := dashboard.Server{Registry: registry, Store: cfg.docStore()}
		if err := server.ListenAndServe(cfg.ListenAddr); err != nil {
			osutil.Fatal("dashboard server exited", err)
		}
	},
}
