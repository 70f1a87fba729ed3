package main

import (
	"fmt"
	"log/slog"

	"github.com/medatlas/geoenrich/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "geoenrich",
	Short: "Geocoding enrichment for legacy clinical datasets",
	Long: "Validates semicolon-delimited clinical exports, expands multi-measurement rows " +
		"and prepends coordinates resolved through a fallback chain of geocoding providers.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c
		logger = setupLogger(cfg.Env)

		return nil
	},
}
