// Package session holds the state of one operator session: the current
// query parameters, its result set, progress, and the drive-time cache.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/delivery-radius-service/internal/domain"
	"github.com/couchcryptid/delivery-radius-service/internal/drivetime"
	"github.com/couchcryptid/delivery-radius-service/internal/observability"
	"github.com/couchcryptid/delivery-radius-service/internal/radius"
)

// ErrQueryInFlight is returned when a query is started while another runs.
var ErrQueryInFlight = errors.New("a query is already running")

// Publisher receives every completed query.
type Publisher interface {
	Publish(ctx context.Context, q domain.CompletedQuery) error
}

// Config holds the optional collaborators of a Session.
type Config struct {
	// Defaults are the parameters a new search starts with.
	Defaults  domain.QueryParams
	Publisher Publisher
	Clock     clockwork.Clock
}

// Outcome is the result of RunQuery.
type Outcome struct {
	QueryID       string                   `json:"query_id"`
	Phase         domain.Phase             `json:"phase"`
	Results       []domain.CandidateResult `json:"results"`
	Summary       domain.Summary           `json:"summary"`
	InvalidSource bool                     `json:"invalid_source"`
	Errors        []string                 `json:"errors,omitempty"`
}

// Session runs queries one at a time and keeps their results for override
// and export.
type Session struct {
	id        string
	refs      domain.ReferenceSet
	engine    *radius.Engine
	drive     *drivetime.Orchestrator
	publisher Publisher
	clock     clockwork.Clock
	defaults  domain.QueryParams
	logger    *slog.Logger
	metrics   *observability.Metrics

	running atomic.Bool

	mu       sync.RWMutex
	params   domain.QueryParams
	set      *domain.ResultSet
	progress domain.Progress
	queryID  string
}

// New creates a Session. Zero Defaults fall back to domain.DefaultParams and
// a nil Clock to the real clock.
func New(refs domain.ReferenceSet, engine *radius.Engine, drive *drivetime.Orchestrator, cfg Config, logger *slog.Logger, metrics *observability.Metrics) *Session {
	if cfg.Defaults.RadiusMiles <= 0 || cfg.Defaults.DriveTimeThresholdMinutes <= 0 {
		cfg.Defaults = domain.DefaultParams()
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	id := uuid.NewString()
	return &Session{
		id:        id,
		refs:      refs,
		engine:    engine,
		drive:     drive,
		publisher: cfg.Publisher,
		clock:     cfg.Clock,
		defaults:  cfg.Defaults,
		logger:    logger.With("session_id", id),
		metrics:   metrics,
		params:    cfg.Defaults,
		progress:  idle(""),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// CheckReadiness returns nil once reference data is loaded.
func (s *Session) CheckReadiness(_ context.Context) error {
	if s.refs == nil || len(s.refs.All()) == 0 {
		return errors.New("reference data is not loaded")
	}
	return nil
}

// RunQuery computes distances from the source, resolves drive times for edge
// cases, and replaces the session's result set. An unknown source code is
// not an error: the outcome has InvalidSource set and phase idle. Invalid
// parameters return domain.ErrInvalidParams and a concurrent call returns
// ErrQueryInFlight; neither changes session state.
func (s *Session) RunQuery(ctx context.Context, params domain.QueryParams, observer domain.ProgressFunc) (Outcome, error) {
	if err := params.Validate(); err != nil {
		s.metrics.QueriesTotal.WithLabelValues("invalid_params").Inc()
		return Outcome{}, err
	}
	queryID := uuid.NewString()

	// running flips under mu so NewSearch cannot interleave with the setup.
	s.mu.Lock()
	if !s.running.CompareAndSwap(false, true) {
		s.mu.Unlock()
		return Outcome{}, ErrQueryInFlight
	}
	s.params = params
	s.set = nil
	s.queryID = queryID
	s.mu.Unlock()
	defer s.running.Store(false)
	s.metrics.QueryInFlight.Set(1)
	defer s.metrics.QueryInFlight.Set(0)

	start := s.clock.Now()
	logger := s.logger.With("query_id", queryID, "source_code", params.SourceCode)

	report := func(p domain.Progress) {
		s.setProgress(p)
		observer.Report(p)
	}
	report(domain.Progress{Phase: domain.PhaseCalculatingDistances, Message: "Calculating distances..."})

	results, err := s.engine.Scan(ctx, params, report)
	if errors.Is(err, domain.ErrInvalidSourceCode) {
		logger.Info("query rejected: unknown source code")
		s.metrics.QueriesTotal.WithLabelValues("invalid_source").Inc()
		report(idle("Invalid source zip code"))
		return Outcome{QueryID: queryID, Phase: domain.PhaseIdle, InvalidSource: true}, nil
	}
	if err != nil {
		logger.Error("distance scan failed", "error", err)
		s.metrics.QueriesTotal.WithLabelValues("error").Inc()
		report(idle("An error occurred"))
		return Outcome{}, fmt.Errorf("scan candidates: %w", err)
	}

	set := domain.NewResultSet(params, results)
	edge := set.EdgeCases()
	s.metrics.EdgeCases.Observe(float64(len(edge)))

	var errs []string
	if len(edge) > 0 {
		report(domain.Progress{
			Phase:      domain.PhaseCheckingDriveTimes,
			TotalItems: len(edge),
			Message:    fmt.Sprintf("Checking drive times for %d edge cases...", len(edge)),
		})
		res := s.drive.Resolve(ctx, edge, report)
		set.ApplyDriveTimes(res.DriveTimes)
		errs = res.Errors
		logger.Info("drive times resolved",
			"edge_cases", len(edge),
			"cache_hits", res.CacheHits,
			"requested", res.Requested,
			"errors", len(res.Errors),
		)
	}

	s.mu.Lock()
	s.set = set
	s.mu.Unlock()
	report(domain.Progress{Phase: domain.PhaseComplete, Message: "Complete"})

	out := set.Results()
	summary := domain.Summarize(out)
	s.metrics.QueriesTotal.WithLabelValues("complete").Inc()
	s.metrics.QueryDuration.Observe(s.clock.Since(start).Seconds())
	logger.Info("query complete",
		"total", summary.Total,
		"included", summary.Included,
		"excluded", summary.Excluded,
	)

	s.publish(ctx, domain.NewCompletedQuery(queryID, s.id, set, errs, s.clock.Now()), logger)

	return Outcome{
		QueryID: queryID,
		Phase:   domain.PhaseComplete,
		Results: out,
		Summary: summary,
		Errors:  errs,
	}, nil
}

// publish hands the query to the publisher. Failures are logged only.
func (s *Session) publish(ctx context.Context, q domain.CompletedQuery, logger *slog.Logger) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, q); err != nil {
		logger.Warn("publish completed query failed", "error", err)
		s.metrics.ResultsPublished.WithLabelValues("error").Inc()
		return
	}
	s.metrics.ResultsPublished.WithLabelValues("success").Inc()
}

// ToggleOverride flips the manual override of one result and returns the
// updated results. Unknown codes, or no results, leave everything unchanged
// and report false.
func (s *Session) ToggleOverride(code string) ([]domain.CandidateResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set == nil {
		return nil, false
	}
	if !s.set.ToggleOverride(code) {
		return s.set.Results(), false
	}
	s.metrics.OverridesTotal.Inc()
	return s.set.Results(), true
}

// Results returns the current results, nil before any completed query.
func (s *Session) Results() []domain.CandidateResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.set == nil {
		return nil
	}
	return s.set.Results()
}

// Summary counts the current results.
func (s *Session) Summary() domain.Summary {
	return domain.Summarize(s.Results())
}

// Export projects the current results for CSV export.
func (s *Session) Export(includeAll bool) []domain.ExportRow {
	return domain.ExportRows(s.Results(), includeAll)
}

// Progress returns the latest progress snapshot.
func (s *Session) Progress() domain.Progress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress
}

// Params returns the parameters of the current or last query.
func (s *Session) Params() domain.QueryParams {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params
}

// QueryID returns the ID of the current or last query, empty if none ran.
func (s *Session) QueryID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryID
}

// HasUnsavedOverrides reports whether the current results carry overrides.
func (s *Session) HasUnsavedOverrides() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set != nil && s.set.HasOverrides()
}

// NewSearch restores default parameters and drops the results. The drive-time
// cache is kept for later queries.
func (s *Session) NewSearch() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running.Load() {
		return ErrQueryInFlight
	}
	s.params = s.defaults
	s.set = nil
	s.queryID = ""
	s.progress = idle("")
	return nil
}

// Reset is NewSearch that also clears the drive-time cache.
func (s *Session) Reset() error {
	if err := s.NewSearch(); err != nil {
		return err
	}
	s.drive.Cache().Clear()
	s.logger.Info("session reset")
	return nil
}

// CachedDriveTimes returns the number of cached drive-time keys.
func (s *Session) CachedDriveTimes() int {
	return s.drive.Cache().Len()
}

func (s *Session) setProgress(p domain.Progress) {
	s.mu.Lock()
	s.progress = p
	s.mu.Unlock()
}

func idle(msg string) domain.Progress {
	return domain.Progress{Phase: domain.PhaseIdle, Message: msg}
}
