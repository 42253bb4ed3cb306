package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/delivery-radius-service/internal/domain"
	"github.com/couchcryptid/delivery-radius-service/internal/reference"
	"github.com/couchcryptid/delivery-radius-service/internal/session"
)

// MaxDriveTimePairs caps one drive-time request.
const MaxDriveTimePairs = 50

const maxBodyBytes = 1 << 20

type resultsResponse struct {
	Params              domain.QueryParams       `json:"params"`
	Results             []domain.CandidateResult `json:"results"`
	Summary             domain.Summary           `json:"summary"`
	HasUnsavedOverrides bool                     `json:"has_unsaved_overrides"`
}

type codeResponse struct {
	domain.ReferencePoint
	Location string `json:"location"`
	Label    string `json:"label"`
}

// handleQuery runs a query. Fields omitted from the body keep the session's
// current values.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	params := s.session.Params()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %v", err))
		return
	}

	out, err := s.session.RunQuery(r.Context(), params, nil)
	switch {
	case errors.Is(err, domain.ErrInvalidParams):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, session.ErrQueryInFlight):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		s.logger.Error("query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if out.InvalidSource {
		sharedobs.WriteJSON(w, http.StatusUnprocessableEntity, out)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) handleResults(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.snapshot(s.session.Results()))
}

// handleToggleOverride flips one override. An unknown code, or no results
// yet, is a no-op that still answers with the current results.
func (s *Server) handleToggleOverride(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	results, ok := s.session.ToggleOverride(code)
	if !ok {
		s.logger.Debug("override ignored: no result for zip code", "code", code)
	}
	sharedobs.WriteJSON(w, http.StatusOK, s.snapshot(results))
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.session.Summary())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	includeAll, _ := strconv.ParseBool(r.URL.Query().Get("all"))
	rows := s.session.Export(includeAll)
	filename := domain.ExportFilename(s.session.Params().SourceCode, s.clock.Now(), includeAll)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if err := domain.WriteCSV(w, rows); err != nil {
		s.logger.Warn("write csv export failed", "error", err)
	}
}

func (s *Server) handleProgress(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.session.Progress())
}

func (s *Server) handleNewSearch(w http.ResponseWriter, _ *http.Request) {
	if err := s.session.NewSearch(); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	if err := s.session.Reset(); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pairRequest uses pointers so missing fields can be reported.
type pairRequest struct {
	SourceLat *float64 `json:"source_lat"`
	SourceLng *float64 `json:"source_lng"`
	DestLat   *float64 `json:"dest_lat"`
	DestLng   *float64 `json:"dest_lng"`
}

func (s *Server) handleDriveTimes(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Pairs []pairRequest `json:"pairs"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %v", err))
		return
	}
	pairs, msg := validatePairs(body.Pairs)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	resp, err := s.provider.DriveTimes(r.Context(), pairs)
	if err != nil {
		s.logger.Error("drive time request failed", "pairs", len(pairs), "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Internal error: %v", err))
		return
	}
	if resp.Errors == nil {
		resp.Errors = []string{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, resp)
}

func validatePairs(in []pairRequest) ([]domain.CoordinatePair, string) {
	if len(in) == 0 {
		return nil, "No coordinate pairs provided"
	}
	if len(in) > MaxDriveTimePairs {
		return nil, fmt.Sprintf("Too many pairs. Maximum is %d, received %d", MaxDriveTimePairs, len(in))
	}
	out := make([]domain.CoordinatePair, len(in))
	for i, p := range in {
		for _, f := range []struct {
			name string
			v    *float64
		}{
			{"source_lat", p.SourceLat},
			{"source_lng", p.SourceLng},
			{"dest_lat", p.DestLat},
			{"dest_lng", p.DestLng},
		} {
			if f.v == nil {
				return nil, fmt.Sprintf("Missing field '%s' in pair at index %d", f.name, i)
			}
		}
		out[i] = domain.CoordinatePair{
			SourceLat: *p.SourceLat,
			SourceLng: *p.SourceLng,
			DestLat:   *p.DestLat,
			DestLng:   *p.DestLng,
		}
	}
	return out, ""
}

// handleSearchCodes searches by city (?q=) or lists a state (?state=).
func (s *Server) handleSearchCodes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	var points []domain.ReferencePoint
	switch {
	case q.Get("state") != "":
		points = s.codes.ByState(q.Get("state"))
		if limit > 0 && len(points) > limit {
			points = points[:limit]
		}
	case q.Get("q") != "":
		points = s.codes.SearchByCity(q.Get("q"), limit)
	default:
		writeError(w, http.StatusBadRequest, "q or state is required")
		return
	}

	out := make([]codeResponse, len(points))
	for i, p := range points {
		out[i] = newCodeResponse(p)
	}
	sharedobs.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) handleLookupCode(w http.ResponseWriter, r *http.Request) {
	p, ok := s.codes.Lookup(r.PathValue("code"))
	if !ok {
		writeError(w, http.StatusNotFound, "zip code not found")
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, newCodeResponse(p))
}

func (s *Server) snapshot(results []domain.CandidateResult) resultsResponse {
	if results == nil {
		results = []domain.CandidateResult{}
	}
	return resultsResponse{
		Params:              s.session.Params(),
		Results:             results,
		Summary:             domain.Summarize(results),
		HasUnsavedOverrides: s.session.HasUnsavedOverrides(),
	}
}

func newCodeResponse(p domain.ReferencePoint) codeResponse {
	return codeResponse{
		ReferencePoint: p,
		Location:       reference.FormatLocation(p),
		Label:          reference.FormatFull(p),
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
