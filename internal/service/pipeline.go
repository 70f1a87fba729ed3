package service

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/medatlas/geoenrich/internal/dataset"
	"github.com/medatlas/geoenrich/internal/metrics"
	"github.com/medatlas/geoenrich/internal/models"
	"github.com/schollz/progressbar/v3"
)

// Summary reports what one run did to the dataset.
type Summary struct {
	RowsRead    int           // Data rows read from the input file
	RowsSkipped int           // Rows rejected by validation
	Records     int           // Normalized records produced
	Resolved    int           // Records that received coordinates
	Unresolved  int           // Records left without coordinates
	Elapsed     time.Duration // Wall-clock duration of the run
}

// Pipeline runs one dataset file end to end: read, validate and expand,
// enrich, write.
type Pipeline struct {
	log          *slog.Logger
	enricher     *Enricher
	metrics      *metrics.Metrics
	input        string
	output       string
	charset      string
	showProgress bool
}

// NewPipeline creates a new Pipeline instance over the given enricher and
// file pair.
func NewPipeline(
	log *slog.Logger,
	enricher *Enricher,
	metrics *metrics.Metrics,
	input string,
	output string,
	charset string,
	showProgress bool,
) *Pipeline {
	return &Pipeline{
		log:          log,
		enricher:     enricher,
		metrics:      metrics,
		input:        input,
		output:       output,
		charset:      charset,
		showProgress: showProgress,
	}
}

// Run processes the input file and writes the enriched output file. Row
// validation failures are counted and skipped; only reading or writing the
// files themselves can fail the run.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	start := time.Now()

	data, err := dataset.ReadFile(p.input, p.charset)
	if err != nil {
		return Summary{}, err
	}

	p.log.InfoContext(ctx, "Read dataset", "file", p.input, "rows", len(data.Rows))

	records, skipped := p.expandRows(ctx, data.Rows)

	bar := p.progressBar(len(records))
	var onRecord func()
	if bar != nil {
		onRecord = func() { _ = bar.Add(1) }
	}

	enriched := p.enricher.EnrichBatch(ctx, records, onRecord)
	if bar != nil {
		_ = bar.Finish()
	}
	if err = ctx.Err(); err != nil {
		return Summary{}, err
	}

	if err = dataset.WriteFile(p.output, p.charset, data.Header, enriched); err != nil {
		return Summary{}, err
	}

	summary := Summary{
		RowsRead:    len(data.Rows),
		RowsSkipped: skipped,
		Records:     len(enriched),
		Elapsed:     time.Since(start),
	}
	for _, rec := range enriched {
		if rec.Resolved {
			summary.Resolved++
		} else {
			summary.Unresolved++
		}
	}

	p.log.InfoContext(ctx, "Pipeline finished",
		"rows", summary.RowsRead,
		"skipped", summary.RowsSkipped,
		"records", summary.Records,
		"resolved", summary.Resolved,
		"unresolved", summary.Unresolved,
		"elapsed", summary.Elapsed)

	return summary, nil
}

// expandRows validates every raw row and flattens the survivors into
// normalized records numbered in input order.
func (p *Pipeline) expandRows(ctx context.Context, rows []models.RawRow) ([]models.Record, int) {
	var records []models.Record
	skipped := 0

	for _, row := range rows {
		expanded, err := dataset.ExpandRow(row)
		if err != nil {
			skipped++
			p.metrics.RowsProcessed.WithLabelValues("rejected").Inc()
			p.log.WarnContext(ctx, "Skipping row", "line", row.Line, "error", err)
			continue
		}

		p.metrics.RowsProcessed.WithLabelValues("expanded").Inc()
		records = append(records, expanded...)
	}

	for i := range records {
		records[i].Seq = i
	}

	return records, skipped
}

// progressBar builds the interactive bar, or returns nil when progress is
// off or stderr is not a terminal.
func (p *Pipeline) progressBar(total int) *progressbar.ProgressBar {
	if !p.showProgress || !isatty.IsTerminal(os.Stderr.Fd()) {
		return nil
	}

	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Enriching"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

// Filter runs the validation stage alone: rows that would be rejected by
// enrichment are dropped and the survivors are written out unchanged.
func Filter(ctx context.Context, log *slog.Logger, input, output, charset string) (Summary, error) {
	start := time.Now()

	data, err := dataset.ReadFile(input, charset)
	if err != nil {
		return Summary{}, err
	}

	var kept []models.RawRow
	summary := Summary{RowsRead: len(data.Rows)}

	for _, row := range data.Rows {
		expanded, err := dataset.ExpandRow(row)
		if err != nil {
			summary.RowsSkipped++
			log.WarnContext(ctx, "Skipping row", "line", row.Line, "error", err)
			continue
		}

		summary.Records += len(expanded)
		kept = append(kept, row)
	}

	if err = dataset.WriteRawFile(output, charset, data.Header, kept); err != nil {
		return Summary{}, err
	}

	summary.Elapsed = time.Since(start)
	log.InfoContext(ctx, "Filter finished",
		"rows", summary.RowsRead,
		"skipped", summary.RowsSkipped,
		"records", summary.Records,
		"elapsed", summary.Elapsed)

	return summary, nil
}
