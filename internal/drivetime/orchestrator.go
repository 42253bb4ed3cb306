// Package drivetime resolves road drive times for edge-zone candidates in
// paced batches, backed by a session-scoped cache.
package drivetime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/delivery-radius-service/internal/domain"
	"github.com/couchcryptid/delivery-radius-service/internal/observability"
)

// Defaults for Options fields left at zero.
const (
	DefaultBatchSize    = 10
	DefaultBatchDelay   = 100 * time.Millisecond
	DefaultBatchTimeout = 30 * time.Second
)

// Options tunes batching. A zero BatchDelay disables pacing.
type Options struct {
	BatchSize    int
	BatchDelay   time.Duration
	BatchTimeout time.Duration

	// Shared, when set, is consulted on session-cache misses and receives
	// every reachable outcome fetched from the provider.
	Shared SharedStore
}

// SharedStore is a drive-time cache that outlives a session. Errors are
// logged and treated as misses.
type SharedStore interface {
	GetMany(ctx context.Context, keys []string) (map[string]domain.DriveTime, error)
	PutMany(ctx context.Context, entries map[string]domain.DriveTime) error
}

// Resolution is the outcome of one Resolve call.
type Resolution struct {
	// DriveTimes holds one outcome per candidate code that was resolved,
	// from the cache or from the provider.
	DriveTimes map[string]domain.DriveTime
	Errors     []string
	CacheHits  int
	Requested  int
}

// Orchestrator dispatches drive-time lookups to a provider.
type Orchestrator struct {
	provider domain.DriveTimeProvider
	cache    *Cache
	clock    clockwork.Clock
	opts     Options
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewOrchestrator creates an Orchestrator. A zero BatchSize or BatchTimeout
// takes the default.
func NewOrchestrator(provider domain.DriveTimeProvider, cache *Cache, clock clockwork.Clock, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Orchestrator {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.BatchTimeout <= 0 {
		opts.BatchTimeout = DefaultBatchTimeout
	}
	return &Orchestrator{
		provider: provider,
		cache:    cache,
		clock:    clock,
		opts:     opts,
		logger:   logger,
		metrics:  metrics,
	}
}

// Cache returns the session cache backing the orchestrator.
func (o *Orchestrator) Cache() *Cache { return o.cache }

// pending is one uncached key and the candidates waiting on it.
type pending struct {
	pair  domain.CoordinatePair
	key   string
	codes []string
}

// Resolve obtains drive times for every edge case. Cache hits resolve
// immediately; misses go to the provider in sequential batches. A failed
// batch degrades its pairs to unreachable. Resolve never fails: problems are
// reported in Resolution.Errors. If ctx is cancelled, unsent pairs are left
// unresolved and are not cached.
func (o *Orchestrator) Resolve(ctx context.Context, edgeCases []domain.CandidateResult, report domain.ProgressFunc) Resolution {
	res := Resolution{DriveTimes: make(map[string]domain.DriveTime, len(edgeCases))}
	total := len(edgeCases)
	if total == 0 {
		return res
	}

	var (
		misses []*pending
		byKey  = make(map[string]*pending)
	)
	for _, ec := range edgeCases {
		pair := ec.Pair()
		key := pair.Key()
		if dt, ok := o.cache.Get(key); ok {
			res.DriveTimes[ec.Candidate.Code] = dt
			res.CacheHits++
			o.metrics.DriveTimeCache.WithLabelValues("hit").Inc()
			continue
		}
		o.metrics.DriveTimeCache.WithLabelValues("miss").Inc()
		if p, ok := byKey[key]; ok {
			p.codes = append(p.codes, ec.Candidate.Code)
			continue
		}
		p := &pending{pair: pair, key: key, codes: []string{ec.Candidate.Code}}
		byKey[key] = p
		misses = append(misses, p)
	}

	misses = o.fromShared(ctx, misses, &res)

	done := res.CacheHits
	report.Report(progress(done, total))

	for start := 0; start < len(misses); start += o.opts.BatchSize {
		if start > 0 && !o.pace(ctx) {
			break
		}
		if ctx.Err() != nil {
			break
		}
		end := min(start+o.opts.BatchSize, len(misses))
		batch := misses[start:end]
		res.Requested += len(batch)
		errs, resolved := o.runBatch(ctx, start/o.opts.BatchSize, batch, res.DriveTimes)
		res.Errors = append(res.Errors, errs...)

		done += resolved
		report.Report(progress(done, total))
	}

	if err := ctx.Err(); err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("drive time lookup stopped: %v", err))
	}
	return res
}

// runBatch sends one batch and records every pair's outcome in the cache and
// out. It returns the batch errors and the number of candidates resolved. If
// the caller's ctx ends mid-batch, only outcomes that already arrived are
// recorded; the rest stay unresolved.
func (o *Orchestrator) runBatch(ctx context.Context, n int, batch []*pending, out map[string]domain.DriveTime) ([]string, int) {
	pairs := make([]domain.CoordinatePair, len(batch))
	for i, p := range batch {
		pairs[i] = p.pair
	}

	bctx, cancel := context.WithTimeout(ctx, o.opts.BatchTimeout)
	defer cancel()

	start := o.clock.Now()
	resp, err := o.provider.DriveTimes(bctx, pairs)
	o.metrics.DriveTimeBatchDuration.Observe(o.clock.Since(start).Seconds())

	// Caller cancellation is not a provider failure.
	cancelled := err != nil && ctx.Err() != nil

	var errs []string
	switch {
	case cancelled:
	case err != nil:
		o.metrics.DriveTimeBatches.WithLabelValues("error").Inc()
		o.logger.Warn("drive time batch failed", "batch", n, "pairs", len(batch), "partial", len(resp.Results), "error", err)
		errs = append(errs, fmt.Sprintf("batch %d: %v", n, err))
	default:
		o.metrics.DriveTimeBatches.WithLabelValues("success").Inc()
		errs = append(errs, resp.Errors...)
	}

	outcomes := make([]domain.DriveTime, len(batch))
	arrived := make([]bool, len(batch))
	for _, r := range resp.Results {
		if r.Index < 0 || r.Index >= len(batch) {
			errs = append(errs, fmt.Sprintf("batch %d: result index %d out of range", n, r.Index))
			continue
		}
		outcomes[r.Index] = r.DriveTime()
		arrived[r.Index] = true
		if r.Status != domain.StatusOK {
			o.logger.Debug("drive time pair failed", "batch", n, "index", r.Index, "message", r.Message)
		}
	}

	resolved := 0
	reachable := make(map[string]domain.DriveTime, len(batch))
	for i, p := range batch {
		if cancelled && !arrived[i] {
			continue
		}
		o.cache.Put(p.key, outcomes[i])
		for _, code := range p.codes {
			out[code] = outcomes[i]
		}
		resolved += len(p.codes)
		if outcomes[i].Reachable {
			reachable[p.key] = outcomes[i]
		}
	}
	o.toShared(ctx, reachable)
	return errs, resolved
}

// fromShared resolves what it can of misses from the shared store and
// returns the rest. Shared hits are copied into the session cache.
func (o *Orchestrator) fromShared(ctx context.Context, misses []*pending, res *Resolution) []*pending {
	if o.opts.Shared == nil || len(misses) == 0 {
		return misses
	}
	keys := make([]string, len(misses))
	for i, p := range misses {
		keys[i] = p.key
	}
	found, err := o.opts.Shared.GetMany(ctx, keys)
	if err != nil {
		o.metrics.DriveTimeCache.WithLabelValues("shared_error").Inc()
		o.logger.Warn("shared drive time cache read failed", "keys", len(keys), "error", err)
		return misses
	}

	rest := misses[:0]
	for _, p := range misses {
		dt, ok := found[p.key]
		if !ok {
			rest = append(rest, p)
			continue
		}
		o.metrics.DriveTimeCache.WithLabelValues("shared_hit").Inc()
		o.cache.Put(p.key, dt)
		for _, code := range p.codes {
			res.DriveTimes[code] = dt
		}
		res.CacheHits += len(p.codes)
	}
	return rest
}

func (o *Orchestrator) toShared(ctx context.Context, entries map[string]domain.DriveTime) {
	if o.opts.Shared == nil || len(entries) == 0 || ctx.Err() != nil {
		return
	}
	if err := o.opts.Shared.PutMany(ctx, entries); err != nil {
		o.metrics.DriveTimeCache.WithLabelValues("shared_error").Inc()
		o.logger.Warn("shared drive time cache write failed", "keys", len(entries), "error", err)
	}
}

// pace waits the batch delay, returning false if ctx ends first.
func (o *Orchestrator) pace(ctx context.Context) bool {
	if o.opts.BatchDelay <= 0 {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-o.clock.After(o.opts.BatchDelay):
		return true
	}
}

func progress(current, total int) domain.Progress {
	return domain.Progress{
		Phase:       domain.PhaseCheckingDriveTimes,
		CurrentItem: current,
		TotalItems:  total,
		Message:     fmt.Sprintf("Checking drive times... %d of %d", current, total),
	}
}
