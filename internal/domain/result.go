package domain

import "sort"

// CandidateResult is one candidate postal code within 1.2x the radius.
type CandidateResult struct {
	Source                 ReferencePoint `json:"source"`
	Candidate              ReferencePoint `json:"candidate"`
	DistanceMiles          float64        `json:"distance_miles"`
	DriveTimeMinutes       *float64       `json:"drive_time_minutes"`
	DriveTimeChecked       bool           `json:"drive_time_checked"`
	Classification         Classification `json:"classification"`
	IsOverridden           bool           `json:"is_overridden"`
	OriginalClassification Classification `json:"original_classification"`
}

// Pair returns the directional route request from source to candidate.
func (r CandidateResult) Pair() CoordinatePair {
	return CoordinatePair{
		SourceLat: r.Source.Lat,
		SourceLng: r.Source.Lng,
		DestLat:   r.Candidate.Lat,
		DestLng:   r.Candidate.Lng,
	}
}

// NewCandidateResult classifies a candidate by distance alone.
func NewCandidateResult(source, candidate ReferencePoint, distanceMiles float64, params QueryParams) CandidateResult {
	c := Classify(distanceMiles, params.RadiusMiles, nil, params.DriveTimeThresholdMinutes)
	return CandidateResult{
		Source:                 source,
		Candidate:              candidate,
		DistanceMiles:          distanceMiles,
		Classification:         c,
		OriginalClassification: c,
	}
}

// SortResults orders results by distance, breaking ties by candidate code.
func SortResults(results []CandidateResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].DistanceMiles != results[j].DistanceMiles {
			return results[i].DistanceMiles < results[j].DistanceMiles
		}
		return results[i].Candidate.Code < results[j].Candidate.Code
	})
}

// ExtractEdgeCases returns the results in the edge zone, in order.
func ExtractEdgeCases(results []CandidateResult, radiusMiles float64) []CandidateResult {
	var edge []CandidateResult
	for _, r := range results {
		if NeedsDriveTime(r.DistanceMiles, radiusMiles) {
			edge = append(edge, r)
		}
	}
	return edge
}

// ResultSet is the indexed result collection of one query. Updates happen at
// the position of a candidate code; results are never duplicated.
type ResultSet struct {
	params  QueryParams
	results []CandidateResult
	index   map[string]int
}

// NewResultSet takes ownership of results.
func NewResultSet(params QueryParams, results []CandidateResult) *ResultSet {
	index := make(map[string]int, len(results))
	for i, r := range results {
		index[r.Candidate.Code] = i
	}
	return &ResultSet{params: params, results: results, index: index}
}

// Params returns the query parameters the set was computed with.
func (s *ResultSet) Params() QueryParams { return s.params }

// Len returns the number of results.
func (s *ResultSet) Len() int { return len(s.results) }

// Results returns a copy of the results in order.
func (s *ResultSet) Results() []CandidateResult {
	out := make([]CandidateResult, len(s.results))
	copy(out, s.results)
	return out
}

// Get returns the result for a candidate code.
func (s *ResultSet) Get(code string) (CandidateResult, bool) {
	i, ok := s.index[code]
	if !ok {
		return CandidateResult{}, false
	}
	return s.results[i], true
}

// EdgeCases returns the results in the edge zone.
func (s *ResultSet) EdgeCases() []CandidateResult {
	return ExtractEdgeCases(s.results, s.params.RadiusMiles)
}

// ApplyDriveTimes merges drive-time outcomes keyed by candidate code and
// reclassifies. Overridden results keep their classification but get the
// new drive time. Results without an outcome are left untouched. It returns
// the number of results updated.
func (s *ResultSet) ApplyDriveTimes(outcomes map[string]DriveTime) int {
	updated := 0
	for code, dt := range outcomes {
		i, ok := s.index[code]
		if !ok {
			continue
		}
		r := s.results[i]
		r.DriveTimeMinutes = dt.MinutesPtr()
		r.DriveTimeChecked = true
		c := Classify(r.DistanceMiles, s.params.RadiusMiles, r.DriveTimeMinutes, s.params.DriveTimeThresholdMinutes)
		if !r.IsOverridden {
			r.Classification = c
			r.OriginalClassification = c
		}
		s.results[i] = r
		updated++
	}
	return updated
}

// ToggleOverride flips manual inclusion of one result. Unknown codes are a
// no-op and return false.
func (s *ResultSet) ToggleOverride(code string) bool {
	i, ok := s.index[code]
	if !ok {
		return false
	}
	r := s.results[i]
	if r.IsOverridden {
		r.IsOverridden = false
		r.Classification = Classify(r.DistanceMiles, s.params.RadiusMiles, r.DriveTimeMinutes, s.params.DriveTimeThresholdMinutes)
	} else {
		r.IsOverridden = true
		if r.Classification == InDistance || r.Classification == InDriveTime {
			r.Classification = OverriddenOut
		} else {
			r.Classification = OverriddenIn
		}
	}
	s.results[i] = r
	return true
}

// HasOverrides reports whether any result is overridden.
func (s *ResultSet) HasOverrides() bool {
	for _, r := range s.results {
		if r.IsOverridden {
			return true
		}
	}
	return false
}
