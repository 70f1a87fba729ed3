package service

import (
	"context"
	"log/slog"

	"github.com/medatlas/geoenrich/internal/geocoding"
	"github.com/medatlas/geoenrich/internal/metrics"
	"github.com/medatlas/geoenrich/internal/models"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds the enrichment pool when the configuration does
// not say otherwise.
const DefaultWorkers = 5

// Resolver is the address-resolution seam the enricher drives. In
// production it is the provider chain; tests substitute stubs.
type Resolver interface {
	Resolve(ctx context.Context, address string) (models.Resolution, error)
}

// Enricher resolves record locations through a bounded worker pool. Every
// lookup goes through the shared cache, so duplicate addresses inside one
// batch cost a single provider call.
type Enricher struct {
	log      *slog.Logger     // Logger for logging enrichment activity
	cache    *geocoding.Cache // Per-run memoization of outcomes
	resolver Resolver         // Underlying resolution chain
	metrics  *metrics.Metrics // Metrics for tracking enrichment
	workers  int              // Number of concurrent workers
}

// NewEnricher creates a new Enricher instance over the given cache and
// resolver with at most workers concurrent resolutions.
func NewEnricher(
	log *slog.Logger,
	cache *geocoding.Cache,
	resolver Resolver,
	metrics *metrics.Metrics,
	workers int,
) *Enricher {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	return &Enricher{
		log:      log,
		cache:    cache,
		resolver: resolver,
		metrics:  metrics,
		workers:  workers,
	}
}

// EnrichBatch resolves every record's location and returns exactly one
// enriched record per input record, in input order regardless of
// completion order. onRecord, when non-nil, is invoked once per finished
// record; per-record failures degrade to an unresolved outcome and never
// abort the batch.
func (e *Enricher) EnrichBatch(
	ctx context.Context,
	records []models.Record,
	onRecord func(),
) []models.EnrichedRecord {
	results := make([]models.EnrichedRecord, len(records))
	if len(records) == 0 {
		return results
	}

	e.log.InfoContext(ctx, "Starting enrichment pool", "records", len(records), "workers", e.workers)

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(e.workers)

	for i, record := range records {
		group.Go(func() error {
			e.metrics.ActiveWorkers.Inc()
			defer e.metrics.ActiveWorkers.Dec()

			resolution := e.resolveRecord(gctx, record)
			e.countOutcome(resolution)
			results[i] = models.EnrichedRecord{Record: record, Resolution: resolution}

			if onRecord != nil {
				onRecord()
			}

			return nil
		})
	}

	// Workers never return errors; failures are folded into unresolved
	// outcomes above.
	_ = group.Wait()

	return results
}

// resolveRecord guards one resolution. A provider implementation that
// errors unexpectedly or panics costs this record its coordinates, never
// the batch.
func (e *Enricher) resolveRecord(ctx context.Context, record models.Record) (res models.Resolution) {
	defer func() {
		if rec := recover(); rec != nil {
			e.log.ErrorContext(ctx, "Recovered panic while resolving record",
				"line", record.Row.Line, "address", record.Location, "panic", rec)
			res = models.Resolution{}
		}
	}()

	res, err := e.cache.GetOrResolve(ctx, record.Location, e.resolver.Resolve)
	if err != nil {
		e.log.ErrorContext(ctx, "Resolution aborted, leaving record unresolved",
			"line", record.Row.Line, "address", record.Location, "error", err)
		return models.Resolution{}
	}

	return res
}

func (e *Enricher) countOutcome(res models.Resolution) {
	outcome := "unresolved"
	if res.Resolved {
		outcome = "resolved"
	}
	e.metrics.RecordsEnriched.WithLabelValues(outcome).Inc()
}
