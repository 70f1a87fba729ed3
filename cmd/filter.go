package main

import (
	"fmt"
	"time"

	"github.com/medatlas/geoenrich/internal/service"
	"github.com/spf13/cobra"
)

var (
	filterInput   string
	filterOutput  string
	filterCharset string
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Validate a dataset and keep only the rows that pass",
	Long: `Runs the validation stage without geocoding: rows that would be rejected
by enrichment are logged and dropped, the survivors are written out
unchanged. Useful for checking an export before spending provider quota
on it.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		charset := cfg.Charset
		if filterCharset != "" {
			charset = filterCharset
		}

		summary, err := service.Filter(cmd.Context(), logger, filterInput, filterOutput, charset)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d rows read, %d skipped, %d records in %s\n",
			summary.RowsRead, summary.RowsSkipped, summary.Records,
			summary.Elapsed.Round(time.Millisecond))

		return nil
	},
}

func init() {
	filterCmd.Flags().StringVarP(&filterInput, "input", "i", "", "path to the source dataset (required)")
	filterCmd.Flags().StringVarP(&filterOutput, "output", "o", "", "path for the filtered dataset (required)")
	filterCmd.Flags().StringVar(&filterCharset, "charset", "", "dataset character encoding (default from config)")
	_ = filterCmd.MarkFlagRequired("input")
	_ = filterCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(filterCmd)
}
