package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidParams wraps every query parameter validation failure.
var ErrInvalidParams = errors.New("invalid query parameters")

// Default query parameters for a new session.
const (
	DefaultRadiusMiles               = 15.0
	DefaultDriveTimeThresholdMinutes = 25.0
)

// QueryParams are the inputs of one radius query.
type QueryParams struct {
	SourceCode                string  `json:"source_code"`
	RadiusMiles               float64 `json:"radius_miles"`
	DriveTimeThresholdMinutes float64 `json:"drive_time_threshold_minutes"`
}

// DefaultParams returns the parameters a fresh session starts with.
func DefaultParams() QueryParams {
	return QueryParams{
		RadiusMiles:               DefaultRadiusMiles,
		DriveTimeThresholdMinutes: DefaultDriveTimeThresholdMinutes,
	}
}

// Validate checks that the source code is set and radius and threshold are positive.
func (p QueryParams) Validate() error {
	if strings.TrimSpace(p.SourceCode) == "" {
		return fmt.Errorf("%w: source code is required", ErrInvalidParams)
	}
	if !(p.RadiusMiles > 0) {
		return fmt.Errorf("%w: radius must be positive, got %v", ErrInvalidParams, p.RadiusMiles)
	}
	if !(p.DriveTimeThresholdMinutes > 0) {
		return fmt.Errorf("%w: drive time threshold must be positive, got %v", ErrInvalidParams, p.DriveTimeThresholdMinutes)
	}
	return nil
}

// Phase is the processing stage of a query.
type Phase string

const (
	PhaseIdle                 Phase = "idle"
	PhaseCalculatingDistances Phase = "calculating_distances"
	PhaseCheckingDriveTimes   Phase = "checking_drive_times"
	PhaseComplete             Phase = "complete"
)

// Progress is a point-in-time status of a running query.
type Progress struct {
	Phase       Phase  `json:"phase"`
	CurrentItem int    `json:"current_item"`
	TotalItems  int    `json:"total_items"`
	Message     string `json:"message"`
}

// ProgressFunc receives progress events. Implementations must not block.
type ProgressFunc func(Progress)

// Report calls f when it is non-nil.
func (f ProgressFunc) Report(p Progress) {
	if f != nil {
		f(p)
	}
}
