// Package app wires configuration into the runtime collaborators shared by
// the daemon and the CLI.
package app

import (
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/delivery-radius-service/internal/adapter/driveapi"
	"github.com/couchcryptid/delivery-radius-service/internal/adapter/osrm"
	"github.com/couchcryptid/delivery-radius-service/internal/config"
	"github.com/couchcryptid/delivery-radius-service/internal/domain"
	"github.com/couchcryptid/delivery-radius-service/internal/drivetime"
	"github.com/couchcryptid/delivery-radius-service/internal/observability"
	"github.com/couchcryptid/delivery-radius-service/internal/radius"
	"github.com/couchcryptid/delivery-radius-service/internal/reference"
	"github.com/couchcryptid/delivery-radius-service/internal/session"
)

// App holds the loaded reference data and a ready session.
type App struct {
	Refs     *reference.Set
	Provider domain.DriveTimeProvider
	Session  *session.Session
	Clock    clockwork.Clock
}

// NewProvider selects the remote drive-time service when DRIVE_TIME_API_URL
// is set and OSRM otherwise.
func NewProvider(cfg *config.Config, logger *slog.Logger) domain.DriveTimeProvider {
	if cfg.DriveTimeAPIURL != "" {
		logger.Info("drive times from remote service", "url", cfg.DriveTimeAPIURL)
		return driveapi.NewClient(cfg.DriveTimeAPIURL, cfg.DriveTimeBatchTimeout, logger)
	}
	logger.Info("drive times from osrm", "url", cfg.OSRMBaseURL, "rate_limit", cfg.OSRMRateLimit)
	return osrm.NewClient(cfg.OSRMBaseURL, cfg.OSRMTimeout, cfg.OSRMRateLimit, logger)
}

// Deps are the optional outbound collaborators. Nil fields are disabled.
type Deps struct {
	Publisher session.Publisher
	Shared    drivetime.SharedStore
}

// New loads reference data and builds a session.
func New(cfg *config.Config, deps Deps, logger *slog.Logger, metrics *observability.Metrics) (*App, error) {
	refs, err := reference.LoadFile(cfg.ReferenceDataPath, logger)
	if err != nil {
		return nil, fmt.Errorf("load reference data: %w", err)
	}

	clock := clockwork.NewRealClock()
	provider := NewProvider(cfg, logger)
	engine := radius.NewEngine(refs, logger, metrics)
	drive := drivetime.NewOrchestrator(provider, drivetime.NewCache(), clock, drivetime.Options{
		BatchSize:    cfg.DriveTimeBatchSize,
		BatchDelay:   cfg.DriveTimeBatchDelay,
		BatchTimeout: cfg.DriveTimeBatchTimeout,
		Shared:       deps.Shared,
	}, logger, metrics)

	sessionCfg := session.Config{
		Defaults: domain.QueryParams{
			RadiusMiles:               cfg.DefaultRadiusMiles,
			DriveTimeThresholdMinutes: cfg.DefaultDriveTimeMinutes,
		},
		Publisher: deps.Publisher,
		Clock:     clock,
	}

	return &App{
		Refs:     refs,
		Provider: provider,
		Session:  session.New(refs, engine, drive, sessionCfg, logger, metrics),
		Clock:    clock,
	}, nil
}
