package domain

import (
	"context"
	"fmt"
)

// DriveTime is a resolved drive-time lookup: minutes, or unreachable when the
// lookup was attempted but produced no route.
type DriveTime struct {
	Minutes   float64 `json:"minutes"`
	Reachable bool    `json:"reachable"`
}

// Unreachable is the outcome recorded for failed lookups.
var Unreachable = DriveTime{}

// MinutesPtr returns the minutes as a pointer, nil when unreachable.
func (d DriveTime) MinutesPtr() *float64 {
	if !d.Reachable {
		return nil
	}
	m := d.Minutes
	return &m
}

// CoordinatePair is one directional route request.
type CoordinatePair struct {
	SourceLat float64 `json:"source_lat"`
	SourceLng float64 `json:"source_lng"`
	DestLat   float64 `json:"dest_lat"`
	DestLng   float64 `json:"dest_lng"`
}

// Key is the directional cache key built from the raw coordinates.
func (p CoordinatePair) Key() string {
	return fmt.Sprintf("%v,%v->%v,%v", p.SourceLat, p.SourceLng, p.DestLat, p.DestLng)
}

// OutcomeStatus is the per-pair status reported by a drive-time provider.
type OutcomeStatus string

const (
	StatusOK    OutcomeStatus = "ok"
	StatusError OutcomeStatus = "error"
)

// DriveTimeOutcome is the provider's answer for the pair at Index.
type DriveTimeOutcome struct {
	Index   int           `json:"index"`
	Minutes *float64      `json:"drive_time_minutes"`
	Status  OutcomeStatus `json:"status"`
	Message string        `json:"message,omitempty"`
}

// DriveTime converts the outcome into a cacheable DriveTime.
func (o DriveTimeOutcome) DriveTime() DriveTime {
	if o.Status != StatusOK || o.Minutes == nil {
		return Unreachable
	}
	return DriveTime{Minutes: *o.Minutes, Reachable: true}
}

// DriveTimeResponse is the provider's answer for one batch.
type DriveTimeResponse struct {
	Results []DriveTimeOutcome `json:"results"`
	Errors  []string           `json:"errors"`
}

// DriveTimeProvider resolves road drive times for ordered coordinate pairs.
// It returns one outcome per pair tagged by input index. A returned error
// means the batch did not complete; the response may still carry the
// outcomes resolved before the failure. The caller enforces the batch size cap.
type DriveTimeProvider interface {
	DriveTimes(ctx context.Context, pairs []CoordinatePair) (DriveTimeResponse, error)
}
