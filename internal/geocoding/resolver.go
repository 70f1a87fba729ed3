package geocoding

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/medatlas/geoenrich/internal/metrics"
	"github.com/medatlas/geoenrich/internal/models"
)

// Defaults for the fallback loop.
const (
	DefaultAttempts      = 3
	DefaultBackoff       = time.Second
	DefaultProviderDelay = time.Second
)

// Resolver tries an ordered chain of providers until one produces
// coordinates. Transient failures are retried against the same provider
// with a linearly growing backoff; definitive misses move the chain on;
// quota exhaustion removes a provider for the rest of the run. Running out
// of providers is not an error: the address is just unresolved.
type Resolver struct {
	providers     []Provider
	quotas        map[string]*Quota
	attempts      int
	backoff       time.Duration
	providerDelay time.Duration
	log           *slog.Logger
	metrics       *metrics.Metrics
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithAttempts sets how many times one provider is tried on transient
// failures before the chain moves on.
func WithAttempts(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.attempts = n
		}
	}
}

// WithBackoff sets the base delay between retries of one provider. The
// delay grows linearly with the attempt number, never exponentially.
func WithBackoff(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d >= 0 {
			r.backoff = d
		}
	}
}

// WithProviderDelay sets the pause between two consecutive providers, so a
// fallback cascade does not burst several public services at once.
func WithProviderDelay(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d >= 0 {
			r.providerDelay = d
		}
	}
}

// WithQuota meters the named provider with at most limit calls per run.
func WithQuota(provider string, limit int) ResolverOption {
	return func(r *Resolver) {
		r.quotas[provider] = NewQuota(limit)
	}
}

// WithMetrics wires per-provider request counters and timings.
func WithMetrics(m *metrics.Metrics) ResolverOption {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// NewResolver builds a resolver over providers, tried in the given order.
func NewResolver(log *slog.Logger, providers []Provider, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		providers:     providers,
		quotas:        make(map[string]*Quota),
		attempts:      DefaultAttempts,
		backoff:       DefaultBackoff,
		providerDelay: DefaultProviderDelay,
		log:           log,
	}

	for _, opt := range opts {
		opt(r)
	}

	// Every provider gets a quota object, unmetered unless configured, so
	// a service reporting its quota gone leaves the rotation either way.
	for _, provider := range providers {
		if _, ok := r.quotas[provider.Name()]; !ok {
			r.quotas[provider.Name()] = NewQuota(0)
		}
	}

	return r
}

// Quota returns the quota tracking the named provider, or nil when the
// provider is unmetered.
func (r *Resolver) Quota(provider string) *Quota {
	return r.quotas[provider]
}

// Resolve maps an address to coordinates through the provider chain. The
// returned error is non-nil only when ctx ends; every provider-side
// failure degrades to an unresolved Resolution.
func (r *Resolver) Resolve(ctx context.Context, address string) (models.Resolution, error) {
	tried := false
	for _, provider := range r.providers {
		name := provider.Name()

		quota := r.quotas[name]
		if quota.Exhausted() {
			r.log.DebugContext(ctx, "Skipping provider with exhausted quota", "provider", name)
			continue
		}

		if tried {
			if err := r.sleep(ctx, r.providerDelay); err != nil {
				return models.Resolution{}, err
			}
		}
		tried = true

		coords, err := r.tryProvider(ctx, provider, quota, address)
		if err != nil {
			return models.Resolution{}, err
		}
		if coords != nil {
			return models.Resolution{
				Latitude:  coords.Latitude,
				Longitude: coords.Longitude,
				Provider:  name,
				Resolved:  true,
			}, nil
		}
	}

	r.log.DebugContext(ctx, "No provider resolved the address", "address", address)

	return models.Resolution{}, nil
}

// tryProvider runs the per-provider attempt loop. A nil, nil return means
// the provider definitively has nothing for this address and the chain
// should move on.
func (r *Resolver) tryProvider(
	ctx context.Context,
	provider Provider,
	quota *Quota,
	address string,
) (*models.Coordinates, error) {
	name := provider.Name()

	for attempt := 1; attempt <= r.attempts; attempt++ {
		if !quota.Spend() {
			r.log.WarnContext(ctx, "Provider quota exhausted, skipping for the rest of the run",
				"provider", name, "used", quota.Used())
			return nil, nil
		}

		start := time.Now()
		coords, err := provider.Geocode(ctx, address)
		r.observe(name, time.Since(start))

		if err == nil {
			r.count(name, "success")
			return coords, nil
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		switch {
		case errors.Is(err, ErrQuotaExceeded):
			quota.Exhaust()
			r.count(name, "quota")
			r.log.WarnContext(ctx, "Provider reported exhausted quota, removing from rotation",
				"provider", name, "error", err)
			return nil, nil
		case IsNetwork(err):
			r.count(name, "network")
			r.log.DebugContext(ctx, "Transient provider failure",
				"provider", name, "attempt", attempt, "error", err)
			if attempt < r.attempts {
				if err = r.sleep(ctx, time.Duration(attempt)*r.backoff); err != nil {
					return nil, err
				}
			}
		default:
			// NoResult and malformed responses are definitive for this
			// provider; give the next one a chance.
			r.count(name, "miss")
			r.log.DebugContext(ctx, "Provider has no result for address",
				"provider", name, "address", address, "error", err)
			return nil, nil
		}
	}

	r.log.DebugContext(ctx, "Provider retries exhausted", "provider", name, "attempts", r.attempts)

	return nil, nil
}

// sleep waits for d or until ctx ends, whichever comes first.
func (r *Resolver) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (r *Resolver) observe(provider string, elapsed time.Duration) {
	if r.metrics == nil {
		return
	}
	r.metrics.RequestSeconds.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func (r *Resolver) count(provider, outcome string) {
	if r.metrics == nil {
		return
	}
	r.metrics.ProviderRequests.WithLabelValues(provider, outcome).Inc()
}
