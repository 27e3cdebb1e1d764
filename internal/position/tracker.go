package position

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"geotask-backend/pkg/geo"
)

// DefaultMaxSampleAge is how old a cached fix may be and still answer a
// CurrentPosition call without waiting for a fresh report
const DefaultMaxSampleAge = 2 * time.Minute

// ErrUnavailable indicates no fix arrived within the caller's deadline
var ErrUnavailable = errors.New("position unavailable")

// Well-known sample providers, in order of preference
const (
	ProviderGPS     = "gps"
	ProviderNetwork = "network"
)

// Sample is a single position fix reported by a device
type Sample struct {
	Point          geo.Point `json:"point"`
	AccuracyMeters float64   `json:"accuracy_meters"`
	Provider       string    `json:"provider"`
	ReportedAt     time.Time `json:"reported_at"`
}

// Requester asks the user's devices for a fresh fix, best effort
type Requester interface {
	RequestPosition(ctx context.Context) error
}

// Tracker collects device-reported position samples and answers
// CurrentPosition calls either from a fresh cached fix or by waiting,
// bounded by the caller's context, for the next report to arrive.
type Tracker struct {
	requester Requester
	maxAge    time.Duration

	mu         sync.Mutex
	latest     map[string]Sample // keyed by provider
	waiters    map[int64]chan Sample
	nextWaiter int64
}

// NewTracker creates a Tracker. requester may be nil.
func NewTracker(requester Requester) *Tracker {
	return &Tracker{
		requester: requester,
		maxAge:    DefaultMaxSampleAge,
		latest:    make(map[string]Sample),
		waiters:   make(map[int64]chan Sample),
	}
}

// SetMaxSampleAge overrides the cache freshness window
func (t *Tracker) SetMaxSampleAge(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.maxAge = d
}

// Report records a device-reported sample and wakes any pending waiters.
// Coordinate sanity is the validator's concern; the tracker stores reports
// as-is so data-integrity problems surface where they are checked.
func (t *Tracker) Report(sample Sample) {
	if sample.ReportedAt.IsZero() {
		sample.ReportedAt = time.Now()
	}

	t.mu.Lock()
	t.latest[sample.Provider] = sample
	waiters := t.waiters
	t.waiters = make(map[int64]chan Sample)
	t.mu.Unlock()

	for _, ch := range waiters {
		ch <- sample // buffered, never blocks
	}

	log.Printf("[Position] Sample reported: provider=%s lat=%f lng=%f accuracy=%.0fm",
		sample.Provider, sample.Point.Latitude, sample.Point.Longitude, sample.AccuracyMeters)
}

// CurrentPosition returns the best available fix: a fresh cached sample if
// one exists, otherwise the next report to arrive before ctx expires.
func (t *Tracker) CurrentPosition(ctx context.Context) (geo.Point, error) {
	if sample, ok := t.freshest(); ok {
		return sample.Point, nil
	}

	ch := make(chan Sample, 1)
	t.mu.Lock()
	id := t.nextWaiter
	t.nextWaiter++
	t.waiters[id] = ch
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(t.waiters, id)
		t.mu.Unlock()
	}()

	if t.requester != nil {
		if err := t.requester.RequestPosition(ctx); err != nil {
			log.Printf("[Position] Position request push failed: %v", err)
		}
	}

	select {
	case sample := <-ch:
		return sample.Point, nil
	case <-ctx.Done():
		return geo.Point{}, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
	}
}

// freshest picks the newest sample within the freshness window.
// On equal timestamps GPS wins over network.
func (t *Tracker) freshest() (Sample, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var best Sample
	found := false
	cutoff := time.Now().Add(-t.maxAge)

	for _, provider := range []string{ProviderGPS, ProviderNetwork} {
		sample, ok := t.latest[provider]
		if !ok || sample.ReportedAt.Before(cutoff) {
			continue
		}
		if !found || sample.ReportedAt.After(best.ReportedAt) {
			best = sample
			found = true
		}
	}

	// Samples from providers outside the well-known set still count
	for provider, sample := range t.latest {
		if provider == ProviderGPS || provider == ProviderNetwork {
			continue
		}
		if sample.ReportedAt.Before(cutoff) {
			continue
		}
		if !found || sample.ReportedAt.After(best.ReportedAt) {
			best = sample
			found = true
		}
	}

	return best, found
}
