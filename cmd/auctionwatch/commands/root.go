package commands

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"auctionwatch-backend/internal/browser"
	"auctionwatch-backend/internal/caseregistry"
	"auctionwatch-backend/internal/docstore"
	"auctionwatch-backend/lib/configutil"
	"auctionwatch-backend/lib/osutil"

	"github.com/spf13/cobra"
)

type Config struct {
	// Browser is the scraping-browser websocket endpoint; empty defers to
	// the WSS / BRIGHTDATA_AUTH environment.
	Browser string `json:"browser"`
	// SaleDocsDir is the downloaded-document tree, e.g. web/saledocs.
	SaleDocsDir string `json:"saledocs_dir"`
	// ForeclosuresDir holds cases.csv and the append-only side logs.
	ForeclosuresDir string `json:"foreclosures_dir"`
	RegistryDb      string `json:"registry_db"`
	ListenAddr      string `json:"listen_addr"`
	Concurrency     int    `json:"concurrency"`
}

var rootCmd = &cobra.Command{
	Use:   "auctionwatch",
	Short: "auctionwatch is a CLI for tracking NYC foreclosure auctions and collecting their court filings.",
}

var browserFlag *string

func init() {
	browserFlag = rootCmd.PersistentFlags().String("browser", "", "The scraping-browser websocket endpoint.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func readConfig() Config {
	cfg, err := configutil.ReadConfig[Config]("auctionwatch.json5")
	if err != nil && !os.IsNotExist(err) {
		osutil.Fatal("failed to read config", err)
	}
	if cfg.SaleDocsDir == "" {
		cfg.SaleDocsDir = "web/saledocs"
	}
	if cfg.ForeclosuresDir == "" {
		cfg.ForeclosuresDir = "web/foreclosures"
	}
	if cfg.RegistryDb == "" {
		cfg.RegistryDb = "foreclosures.db"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 3
	}
	return cfg
}

func (c Config) docStore() docstore.Store {
	return docstore.Store{Root: c.SaleDocsDir, LogDir: c.ForeclosuresDir}
}

// the --browser flag wins over the config, which wins over the
// WSS / BRIGHTDATA_AUTH environment
func (c Config) endpoint() string {
	explicit := *browserFlag
	if explicit == "" {
		explicit = c.Browser
	}
	endpoint, err := browser.ResolveEndpoint(explicit)
	if err != nil {
		osutil.Fatal("no browser endpoint", err)
	}
	return endpoint
}

func (c Config) openRegistry() (caseregistry.Store, *sql.DB) {
	db, err := caseregistry.Open(c.RegistryDb)
	if err != nil {
		osutil.Fatal("failed to open case registry", err)
	}
	return caseregistry.NewStore(db), db
}
