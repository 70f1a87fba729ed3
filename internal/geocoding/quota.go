package geocoding

import "sync"

// Quota tracks per-run usage of a metered provider. Spending past the
// limit, or an explicit Exhaust when the service itself reports the quota
// gone, removes the provider from the rotation for the rest of the run.
//
// A nil *Quota is valid and means unmetered.
type Quota struct {
	mu        sync.Mutex
	used      int
	limit     int
	exhausted bool
}

// NewQuota returns a quota allowing limit calls per run. A non-positive
// limit means unmetered.
func NewQuota(limit int) *Quota {
	return &Quota{limit: limit}
}

// Spend consumes one call. It returns false when the quota is gone, in
// which case the caller must skip the provider.
func (q *Quota) Spend() bool {
	if q == nil {
		return true
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.exhausted {
		return false
	}
	if q.limit > 0 && q.used >= q.limit {
		q.exhausted = true
		return false
	}

	q.used++
	return true
}

// Exhaust permanently disables the provider for this run.
func (q *Quota) Exhaust() {
	if q == nil {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.exhausted = true
}

// Exhausted reports whether the provider is out of calls.
func (q *Quota) Exhausted() bool {
	if q == nil {
		return false
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	return q.exhausted
}

// Used reports how many calls were spent so far.
func (q *Quota) Used() int {
	if q == nil {
		return 0
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	return q.used
}
