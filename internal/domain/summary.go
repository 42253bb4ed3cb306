package domain

// Summary is the count rollup of a result set.
type Summary struct {
	Total      int `json:"total"`
	Included   int `json:"included"`
	Excluded   int `json:"excluded"`
	Overridden int `json:"overridden"`
}

// Summarize counts results. Excluded is always Total - Included.
func Summarize(results []CandidateResult) Summary {
	var s Summary
	for _, r := range results {
		if IsIncluded(r.Classification) {
			s.Included++
		}
		if r.IsOverridden {
			s.Overridden++
		}
	}
	s.Total = len(results)
	s.Excluded = s.Total - s.Included
	return s
}
