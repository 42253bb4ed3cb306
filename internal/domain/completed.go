package domain

import "time"

// CompletedQuery is the record of a finished query, as published downstream.
type CompletedQuery struct {
	QueryID     string      `json:"query_id"`
	SessionID   string      `json:"session_id"`
	Params      QueryParams `json:"params"`
	Summary     Summary     `json:"summary"`
	Rows        []ExportRow `json:"rows"`
	Errors      []string    `json:"errors,omitempty"`
	CompletedAt time.Time   `json:"completed_at"`
}

// NewCompletedQuery snapshots a result set. Every result is exported,
// included or not.
func NewCompletedQuery(queryID, sessionID string, set *ResultSet, errs []string, completedAt time.Time) CompletedQuery {
	results := set.Results()
	return CompletedQuery{
		QueryID:     queryID,
		SessionID:   sessionID,
		Params:      set.Params(),
		Summary:     Summarize(results),
		Rows:        ExportRows(results, true),
		Errors:      errs,
		CompletedAt: completedAt,
	}
}
