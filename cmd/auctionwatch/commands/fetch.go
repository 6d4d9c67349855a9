package commands

import (
	"log/slog"

	"auctionwatch-backend/internal/browser"
	"auctionwatch-backend/internal/civil"
	"auctionwatch-backend/internal/download"
	"auctionwatch-backend/internal/filings"
	"auctionwatch-backend/lib/osutil"

	"github.com/spf13/cobra"
)

var fetchCounty *string
var fetchDate *string

func init() {
	fetchCounty = fetchCmd.Flags().String("county", "", "The borough the case was filed in.")
	fetchDate = fetchCmd.Flags().String("date", "", "The known auction date (YYYY-MM-DD), if any.")
	fetchCmd.MarkFlagRequired("county")
	rootCmd.AddCommand(fetchCmd)
}

func newAcquirer(cfg Config) filings.Acquirer {
	endpoint := cfg.endpoint()
	return filings.Acquirer{
		Connect:  browser.Dial,
		Endpoint: endpoint,
		Counties: filings.DefaultCounties(),
		Store:    cfg.docStore(),
		Fetcher:  download.Downloader{Connect: browser.Dial, Endpoint: endpoint},
	}
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <index-number> --county <borough> [--date <yyyy-mm-dd>]",
	Short: "Fetches the missing filings of a single case.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := readConfig()

		var auctionDate civil.Date
		if *fetchDate != "" {
			var err error
			auctionDate, err = civil.Parse(*fetchDate)
			if err != nil {
				osutil.Fatal("invalid --date", err)
			}
		}

		store := cfg.docStore()
		req := filings.Request{
			CaseNumber:  args[0],
			County:      *fetchCounty,
			AuctionDate: auctionDate,
			Missing:     filings.MissingFilings(store, args[0], auctionDate),
		}
		if len(req.Missing) == 0 {
			slog.Info("all filings already stored", "case", req.CaseNumber)
			return
		}

		result, err := newAcquirer(cfg).Acquire(ctx, req)
		if err != nil {
			osutil.Fatal("case acquisition failed", err)
		}
		slog.Info("case processed", "case", result.CaseNumber, "status", result.Status)
		for _, outcome := range result.Outcomes {
			slog.Info("filing outcome",
				"filing", outcome.Type, "status", outcome.Status,
				"path", outcome.Path, "reason", outcome.Reason)
		}
	},
}
