package commands

import (
	"log/slog"

	"auctionwatch-backend/internal/organize"
	"auctionwatch-backend/lib/osutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(organizeCmd)
}

var organizeCmd = &cobra.Command{
	Use:   "organize",
	Short: "Sorts flat notice-of-sale documents into auction-date partitions by reading their text.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := readConfig()

		results, err := organize.New(cfg.docStore()).Run(ctx)
		if err != nil {
			osutil.Fatal("organize pass failed", err)
		}

		counts := map[organize.Status]int{}
		for _, r := range results {
			counts[r.Status]++
		}
		slog.Info("organize pass finished",
			"moved", counts[organize.StatusMoved],
			"duplicates", counts[organize.StatusDuplicate],
			"skipped", counts[organize.StatusSkipped])
	},
}
