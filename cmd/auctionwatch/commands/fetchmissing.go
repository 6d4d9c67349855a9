package commands

import (
	"log/slog"

	"auctionwatch-backend/internal/filings"
	"auctionwatch-backend/lib/osutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(fetchMissingCmd)
}

var fetchMissingCmd = &cobra.Command{
	Use:   "fetch-missing",
	Short: "Walks the case registry and fetches every filing not yet on disk.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := readConfig()

		registry, db := cfg.openRegistry()
		cases, err := registry.List(ctx)
		db.Close()
		if err != nil {
			osutil.Fatal("failed to list case registry", err)
		}

		store := cfg.docStore()
		var reqs []filings.Request
		for _, c := range cases {
			missing := filings.MissingFilings(store, c.CaseNumber, c.AuctionDate)
			if len(missing) == 0 {
				continue
			}
			reqs = append(reqs, filings.Request{
				CaseNumber:  c.CaseNumber,
				County:      c.Borough,
				AuctionDate: c.AuctionDate,
				Missing:     missing,
			})
		}
		slog.Info("fetching missing filings", "cases", len(reqs), "concurrency", cfg.Concurrency)
		if len(reqs) == 0 {
			return
		}

		results := newAcquirer(cfg).RunBatch(ctx, reqs, cfg.Concurrency)

		var fetched, failed int
		for _, unit := range results {
			if unit.Err != nil {
				failed++
				continue
			}
			for _, outcome := range unit.Result.Outcomes {
				if outcome.Status == filings.StatusFetched {
					fetched++
				}
			}
		}
		slog.Info("batch finished", "cases", len(results), "documents_fetched", fetched, "cases_failed", failed)
	},
}
