package main

import (
	"fmt"
	"time"

	"github.com/medatlas/geoenrich/internal/geocoding"
	"github.com/medatlas/geoenrich/internal/metrics"
	"github.com/medatlas/geoenrich/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var (
	enrichInput    string
	enrichOutput   string
	enrichWorkers  int
	enrichCharset  string
	enrichProgress bool
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Resolve coordinates for every record of a dataset",
	Long: `Reads the source dataset, validates and expands every row, resolves each
distinct address through the configured provider chain and writes the rows
back with latitude and longitude prepended. Rows that fail validation are
logged and dropped; addresses no provider can resolve keep empty
coordinate fields.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		// Create a separate registry for metrics with exemplar
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		appMetrics := metrics.NewMetrics(reg)

		providers, err := buildProviders()
		if err != nil {
			return err
		}
		logger.InfoContext(ctx, "Provider chain initialized", "providers", cfg.Providers)

		resolver := geocoding.NewResolver(logger, providers, resolverOptions(appMetrics)...)
		cache := geocoding.NewCache(appMetrics)

		workers := cfg.Workers
		if enrichWorkers > 0 {
			workers = enrichWorkers
		}
		charset := cfg.Charset
		if enrichCharset != "" {
			charset = enrichCharset
		}

		enricher := service.NewEnricher(logger, cache, resolver, appMetrics, workers)
		pipeline := service.NewPipeline(logger, enricher, appMetrics,
			enrichInput, enrichOutput, charset, enrichProgress)

		// Start the monitoring server in a goroutine so the run itself stays
		// in the foreground.
		if cfg.MetricsAddr != "" {
			go startMonitoringServer(ctx, logger, reg, cfg.MetricsAddr)
		}

		summary, err := pipeline.Run(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(),
			"%d rows read, %d skipped; %d records: %d resolved, %d unresolved in %s\n",
			summary.RowsRead, summary.RowsSkipped, summary.Records,
			summary.Resolved, summary.Unresolved, summary.Elapsed.Round(time.Millisecond))

		return nil
	},
}

func init() {
	enrichCmd.Flags().StringVarP(&enrichInput, "input", "i", "", "path to the source dataset (required)")
	enrichCmd.Flags().StringVarP(&enrichOutput, "output", "o", "", "path for the enriched dataset (required)")
	enrichCmd.Flags().IntVar(&enrichWorkers, "workers", 0, "concurrent enrichment workers (default from config)")
	enrichCmd.Flags().StringVar(&enrichCharset, "charset", "", "dataset character encoding (default from config)")
	enrichCmd.Flags().BoolVar(&enrichProgress, "progress", true, "show a progress bar when stderr is a terminal")
	_ = enrichCmd.MarkFlagRequired("input")
	_ = enrichCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(enrichCmd)
}

// buildProviders assembles the fallback chain in configured order.
func buildProviders() ([]geocoding.Provider, error) {
	configs := make([]geocoding.ProviderConfig, 0, len(cfg.Providers))
	for _, name := range cfg.Providers {
		settings := cfg.Provider(name)
		configs = append(configs, geocoding.ProviderConfig{
			Type:      geocoding.ProviderType(name),
			APIKey:    settings.APIKey,
			RateLimit: settings.RateLimit,
			Logger:    logger,
		})
	}

	return geocoding.NewProviders(configs)
}

// resolverOptions translates the retry configuration and any per-provider
// quotas into resolver options.
func resolverOptions(m *metrics.Metrics) []geocoding.ResolverOption {
	opts := []geocoding.ResolverOption{
		geocoding.WithAttempts(cfg.Retry.Attempts),
		geocoding.WithBackoff(cfg.Retry.Backoff),
		geocoding.WithProviderDelay(cfg.Retry.ProviderDelay),
		geocoding.WithMetrics(m),
	}

	for _, name := range cfg.Providers {
		if quota := cfg.Provider(name).Quota; quota > 0 {
			opts = append(opts, geocoding.WithQuota(name, quota))
		}
	}

	return opts
}
