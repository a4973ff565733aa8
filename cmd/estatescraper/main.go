package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/RecoveryAshes/estatecrawl/internal/config"
	"github.com/RecoveryAshes/estatecrawl/internal/coordinator"
	"github.com/RecoveryAshes/estatecrawl/internal/models"
	"github.com/RecoveryAshes/estatecrawl/internal/utils"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

var (
	configFile string
	verbose    bool
	logLevel   string

	city             string
	mode             string
	baseHost         string
	maxPages         int
	individualPages  bool
	forceRescrape    bool
	outputDir        string
	prevHighWaterStr string
)

var rootCmd = &cobra.Command{
	Use:   "estatescraper",
	Short: "Resilient real-estate listing scraper",
	Long: `estatescraper walks a city's paginated property listings, optionally
enriches each result with its individual detail page, and exports the
cleaned records to CSV, JSON, a spreadsheet bundle, or Postgres.

Scraping modes:
  full         walk every page up to max-pages, ignoring prior runs
  incremental  stop once newly-seen listings are consistently older than
               the previous run's high-water mark
  conservative like incremental, with the same stop thresholds
  date_range   like incremental, scoped to an explicit high-water date
  custom       walk pages in the site's default order; the incremental
               stop_predicate still applies when --since is given

Version: ` + Version + `
Built:   ` + BuildTime,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logCfg := utils.LogConfig{
			Level:      cfg.Logging.Level,
			LogDir:     cfg.Logging.LogDir,
			MaxSize:    cfg.Logging.Rotation.MaxSize,
			MaxBackups: cfg.Logging.Rotation.MaxBackups,
			MaxAge:     cfg.Logging.Rotation.MaxAge,
			Compress:   cfg.Logging.Rotation.Compress,
		}
		if logLevel != "" {
			logCfg.Level = logLevel
		}
		if err := utils.InitLogger(logCfg); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		if verbose {
			utils.Info("verbose mode enabled")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			sig := <-sigCh
			utils.Warnf("received signal %v, shutting down gracefully", sig)
			cancel()
		}()

		if city == "" {
			return cmd.Help()
		}

		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if outputDir != "" {
			cfg.OutputDir = outputDir
		}

		scrapeMode, err := models.ParseMode(mode)
		if err != nil {
			return fmt.Errorf("invalid --mode: %w", err)
		}

		var prevHighWater *time.Time
		if prevHighWaterStr != "" {
			t, err := time.Parse("2006-01-02", prevHighWaterStr)
			if err != nil {
				return fmt.Errorf("invalid --since (want YYYY-MM-DD): %w", err)
			}
			prevHighWater = &t
		}

		if maxPages > 0 {
			cfg.Traversal.MaxPages = maxPages
		}

		opts := coordinator.Options{
			City:            city,
			Mode:            scrapeMode,
			IndividualPages: individualPages,
			ForceRescrape:   forceRescrape,
			BaseHost:        baseHost,
			PrevHighWater:   prevHighWater,
		}

		records, paths, stats, err := coordinator.Run(ctx, cfg, opts)
		if err != nil {
			if _, ok := err.(*models.FatalError); ok {
				utils.Error(err, "session aborted")
				os.Exit(2)
			}
			return err
		}

		fmt.Println()
		fmt.Println("================== session summary ==================")
		fmt.Printf("city:                %s\n", stats.City)
		fmt.Printf("mode:                %s\n", stats.Mode)
		fmt.Printf("pages scraped:       %d\n", stats.PagesScraped)
		fmt.Printf("properties found:    %d\n", stats.PropertiesFound)
		fmt.Printf("properties saved:    %d\n", len(records))
		fmt.Printf("detail pages scraped:%d\n", stats.IndividualPropertiesScraped)
		fmt.Printf("incremental stopped: %v (%s)\n", stats.IncrementalStopped, stats.StopReason)
		fmt.Printf("detection events:    %d\n", stats.DetectionEvents)
		fmt.Printf("duration:            %s\n", stats.Duration())
		if paths.CSV != "" {
			fmt.Printf("csv:                 %s\n", paths.CSV)
		}
		if paths.JSON != "" {
			fmt.Printf("json:                %s\n", paths.JSON)
		}
		for _, p := range paths.Spreadsheet {
			fmt.Printf("spreadsheet:         %s\n", p)
		}
		if paths.SQLWritten {
			fmt.Println("sql:                 written")
		}
		fmt.Println("======================================================")

		utils.Info("session complete")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("estatescraper %s\n", Version)
		fmt.Printf("built %s\n", BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose console output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace|debug|info|warn|error)")

	rootCmd.Flags().StringVar(&city, "city", "", "target city, e.g. pune (required)")
	rootCmd.Flags().StringVarP(&mode, "mode", "m", "full", "scraping mode (full|incremental|conservative|date_range|custom)")
	rootCmd.Flags().StringVar(&baseHost, "host", "www.magicbricks.com", "listing site host")
	rootCmd.Flags().IntVar(&maxPages, "max-pages", 0, "override traversal.max_pages from config (0 = use config)")
	rootCmd.Flags().BoolVar(&individualPages, "individual-pages", false, "enrich each listing with its detail page (PDP stage)")
	rootCmd.Flags().BoolVar(&forceRescrape, "force-rescrape", false, "skip smart-filter tracker skip decisions")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "override output_dir from config")
	rootCmd.Flags().StringVar(&prevHighWaterStr, "since", "", "previous run's high-water date (YYYY-MM-DD), for incremental/date_range modes")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(validateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
