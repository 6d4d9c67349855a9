package commands

import (
	"os"

	"auctionwatch-backend/internal/filings"
	"auctionwatch-backend/lib/osutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(casesCmd)
}

var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "Prints the case registry with per-filing download state.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()

		registry, db := cfg.openRegistry()
		defer db.Close()
		cases, err := registry.List(cmd.Context())
		if err != nil {
			osutil.Fatal("failed to list case registry", err)
		}

		store := cfg.docStore()

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)

		header := table.Row{"Case", "Borough", "Auction Date", "Name"}
		for _, f := range filings.AllFilingTypes {
			header = append(header, f.Dir())
		}
		t.AppendHeader(header)

		for _, c := range cases {
			auctionDate := ""
			if !c.AuctionDate.IsZero() {
				auctionDate = c.AuctionDate.String()
			}
			row := table.Row{c.CaseNumber, c.Borough, auctionDate, c.CaseName}
			for _, f := range filings.AllFilingTypes {
				mark := ""
				if store.Has(filings.StoragePath(store, f, c.CaseNumber, c.AuctionDate)) {
					mark = "yes"
				}
				row = append(row, mark)
			}
			t.AppendRow(row)
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
