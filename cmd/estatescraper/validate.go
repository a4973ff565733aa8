package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RecoveryAshes/estatecrawl/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and validate the configuration without scraping anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("config is invalid: %w", err)
		}

		fmt.Println("configuration is valid")
		fmt.Printf("output_dir:          %s\n", cfg.OutputDir)
		fmt.Printf("browser.backend:     %s\n", cfg.Browser.Backend)
		fmt.Printf("browser.headless:    %v\n", cfg.Browser.Headless)
		fmt.Printf("traversal.max_pages: %d\n", cfg.Traversal.MaxPages)
		fmt.Printf("pdp.concurrency:     %d\n", cfg.PDP.Concurrency)
		fmt.Printf("pdp.resource_aware:  %v\n", cfg.PDP.ResourceAware)
		fmt.Printf("tracker.enabled:     %v\n", cfg.Tracker.Enabled)
		fmt.Printf("export.formats:      %v\n", cfg.Export.Formats)
		fmt.Printf("filter.enabled:      %v\n", cfg.Filter.Enabled)
		return nil
	},
}
