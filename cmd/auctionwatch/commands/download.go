package commands

import (
	"log/slog"

	"auctionwatch-backend/internal/browser"
	"auctionwatch-backend/internal/download"
	"auctionwatch-backend/lib/osutil"

	"github.com/spf13/cobra"
)

var downloadOut *string

func init() {
	downloadOut = downloadCmd.Flags().String("out", "", "The destination path; defaults to the served filename.")
	rootCmd.AddCommand(downloadCmd)
}

var downloadCmd = &cobra.Command{
	Use:   "download <url> [--out <path>]",
	Short: "Downloads a single court document by intercepting its response stream.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()

		downloader := download.Downloader{Connect: browser.Dial, Endpoint: cfg.endpoint()}
		path, err := downloader.FromStream(cmd.Context(), args[0], *downloadOut)
		if err != nil {
			osutil.Fatal("download failed", err)
		}
		slog.Info("downloaded", "path", path)
	},
}
