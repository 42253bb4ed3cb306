// Package radius scans the reference dataset for candidates around a source.
package radius

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/delivery-radius-service/internal/domain"
	"github.com/couchcryptid/delivery-radius-service/internal/geo"
	"github.com/couchcryptid/delivery-radius-service/internal/observability"
)

// ProgressInterval is how many scanned points pass between progress events.
const ProgressInterval = 1000

// SpatialIndex is implemented by reference sets that can prefilter by area.
type SpatialIndex interface {
	Within(lat, lng, miles float64) ([]domain.ReferencePoint, bool)
}

// Engine computes distances from a source to every reference point and
// applies the distance-only classification.
type Engine struct {
	refs    domain.ReferenceSet
	logger  *slog.Logger
	metrics *observability.Metrics
	workers int
}

// NewEngine creates an Engine over a reference set.
func NewEngine(refs domain.ReferenceSet, logger *slog.Logger, metrics *observability.Metrics) *Engine {
	return &Engine{
		refs:    refs,
		logger:  logger,
		metrics: metrics,
		workers: runtime.NumCPU(),
	}
}

// Scan returns every candidate within 1.2x the radius, sorted by distance
// then code. An unknown source code yields domain.ErrInvalidSourceCode.
// Progress events are non-decreasing and the last one reports
// CurrentItem == TotalItems. With a spatial index, TotalItems counts the
// prefiltered points rather than the whole reference set.
func (e *Engine) Scan(ctx context.Context, params domain.QueryParams, report domain.ProgressFunc) ([]domain.CandidateResult, error) {
	source, ok := e.refs.Lookup(params.SourceCode)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidSourceCode, params.SourceCode)
	}

	points := e.candidates(source, params.RadiusMiles*domain.OuterThreshold)
	total := len(points)

	report.Report(domain.Progress{
		Phase:      domain.PhaseCalculatingDistances,
		TotalItems: total,
		Message:    "Calculating distances...",
	})

	chunks := chunk(total, ProgressInterval)
	perChunk := make([][]domain.CandidateResult, len(chunks))

	var (
		mu        sync.Mutex
		processed int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for ci, c := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perChunk[ci] = scanChunk(source, points[c.start:c.end], params)

			mu.Lock()
			processed += c.end - c.start
			if processed < total {
				report.Report(domain.Progress{
					Phase:       domain.PhaseCalculatingDistances,
					CurrentItem: processed,
					TotalItems:  total,
					Message:     fmt.Sprintf("Calculating distances... %d of %d", processed, total),
				})
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var results []domain.CandidateResult
	for _, c := range perChunk {
		results = append(results, c...)
	}
	domain.SortResults(results)

	e.metrics.CandidatesScanned.Add(float64(total))
	report.Report(domain.Progress{
		Phase:       domain.PhaseCalculatingDistances,
		CurrentItem: total,
		TotalItems:  total,
		Message:     fmt.Sprintf("Found %d zip codes within range", len(results)),
	})
	e.logger.Debug("distance scan complete",
		"source_code", source.Code,
		"scanned", total,
		"candidates", len(results),
	)
	return results, nil
}

// candidates narrows the scan with the spatial index when one is available.
func (e *Engine) candidates(source domain.ReferencePoint, miles float64) []domain.ReferencePoint {
	if idx, ok := e.refs.(SpatialIndex); ok {
		if points, ok := idx.Within(source.Lat, source.Lng, miles); ok {
			return points
		}
	}
	return e.refs.All()
}

func scanChunk(source domain.ReferencePoint, points []domain.ReferencePoint, params domain.QueryParams) []domain.CandidateResult {
	var out []domain.CandidateResult
	for _, p := range points {
		if p.Code == source.Code {
			continue
		}
		d := geo.DistanceRounded(source.Lat, source.Lng, p.Lat, p.Lng)
		if !domain.WithinSearchArea(d, params.RadiusMiles) {
			continue
		}
		out = append(out, domain.NewCandidateResult(source, p, d, params))
	}
	return out
}

type span struct{ start, end int }

func chunk(n, size int) []span {
	spans := make([]span, 0, n/size+1)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		spans = append(spans, span{start, end})
	}
	return spans
}
