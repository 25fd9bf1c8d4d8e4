package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/illinispots/pipeline/pkg/config"
	"github.com/illinispots/pipeline/pkg/scrape"
	"github.com/spf13/cobra"
)

// Files written to and read from the data directory.
const (
	subjectsFile  = "subjects.json"
	buildingsFile = "buildings.json"
	filteredFile  = "filtered_buildings.json"
	hoursFile     = "building_hours.json"
	geojsonFile   = "uiuc_buildings.geojson"
	tableauFile   = "events_buildings.json"
)

var cacheDir = "/illinispots/web-cache"

var (
	dataDir    string
	configPath string
	envFile    string
	noCache    bool

	cfg *config.Config
	loc *time.Location
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "illinispots",
	Short: "Batch jobs that keep the campus room schedule up to date",
	Long: `Scrapes the course schedule and the daily events dashboard, reshapes
the results into per-building documents and loads them into the rooms
database. Each subcommand is one job; sync runs the course jobs end to end.`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "./data", "Directory holding the intermediate JSON files")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML file overriding the built-in pipeline config")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env.local", "Dotenv file with database and cloud credentials")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "Bypass the web cache (default: false)")
}

func initConfig(cmd *cobra.Command, args []string) error {
	log.SetPrefix("[illinispots] ")

	if err := config.LoadEnv(envFile); err != nil {
		return err
	}
	var err error
	if cfg, err = config.Load(configPath); err != nil {
		return err
	}
	if loc, err = cfg.Location(); err != nil {
		return err
	}
	return nil
}

// newFetcher builds the retrieval loop from the scraper config. The web cache
// is only used when cached is set and --no-cache is not. extraProxies are
// tried after the configured ones.
func newFetcher(cached bool, extraProxies ...string) (*scrape.Fetcher, error) {
	opts := scrape.FetchOptions{
		UserAgent:   cfg.Scraper.UserAgent,
		Proxies:     append(append([]string{}, cfg.Scraper.Proxies...), extraProxies...),
		MaxAttempts: cfg.Scraper.MaxAttempts,
		Backoff:     cfg.Scraper.Backoff,
		Delay:       cfg.Scraper.Delay,
		Timeout:     cfg.Scraper.Timeout,
	}
	if cached && !noCache {
		userCacheDir, _ := os.UserCacheDir()
		opts.CacheDir = userCacheDir + cacheDir
	}
	return scrape.NewFetcher(opts)
}

func dataPath(name string) string {
	return filepath.Join(dataDir, name)
}
