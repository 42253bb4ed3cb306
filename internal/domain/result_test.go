package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testSource = ReferencePoint{Code: "98001", City: "Auburn", State: "WA", County: "King", Lat: 47.0, Lng: -122.0}
	testParams = QueryParams{SourceCode: "98001", RadiusMiles: 15, DriveTimeThresholdMinutes: 25}
)

func candidate(code string) ReferencePoint {
	return ReferencePoint{Code: code, City: "City " + code, State: "WA", County: "Pierce"}
}

func testResultSet() *ResultSet {
	results := []CandidateResult{
		NewCandidateResult(testSource, candidate("A"), 10, testParams), // inner
		NewCandidateResult(testSource, candidate("B"), 14, testParams), // edge
		NewCandidateResult(testSource, candidate("C"), 17, testParams), // edge
	}
	return NewResultSet(testParams, results)
}

func TestNewCandidateResult_ProvisionalClassification(t *testing.T) {
	inner := NewCandidateResult(testSource, candidate("A"), 10, testParams)
	assert.Equal(t, InDistance, inner.Classification)
	assert.Equal(t, InDistance, inner.OriginalClassification)
	assert.Nil(t, inner.DriveTimeMinutes)

	edge := NewCandidateResult(testSource, candidate("B"), 14, testParams)
	assert.Equal(t, OutDriveTime, edge.Classification)
	assert.False(t, edge.DriveTimeChecked)
}

func TestSortResults_TieBreaksByCode(t *testing.T) {
	results := []CandidateResult{
		NewCandidateResult(testSource, candidate("Z"), 5, testParams),
		NewCandidateResult(testSource, candidate("B"), 3, testParams),
		NewCandidateResult(testSource, candidate("A"), 5, testParams),
	}
	SortResults(results)
	assert.Equal(t, "B", results[0].Candidate.Code)
	assert.Equal(t, "A", results[1].Candidate.Code)
	assert.Equal(t, "Z", results[2].Candidate.Code)
}

func TestExtractEdgeCases(t *testing.T) {
	set := testResultSet()
	edge := set.EdgeCases()
	require.Len(t, edge, 2)
	assert.Equal(t, "B", edge[0].Candidate.Code)
	assert.Equal(t, "C", edge[1].Candidate.Code)

	for _, r := range edge {
		assert.True(t, NeedsDriveTime(r.DistanceMiles, testParams.RadiusMiles))
	}
}

func TestApplyDriveTimes(t *testing.T) {
	t.Run("within threshold becomes in_drive_time", func(t *testing.T) {
		set := testResultSet()
		n := set.ApplyDriveTimes(map[string]DriveTime{"B": {Minutes: 20, Reachable: true}})
		assert.Equal(t, 1, n)

		r, ok := set.Get("B")
		require.True(t, ok)
		assert.Equal(t, InDriveTime, r.Classification)
		require.NotNil(t, r.DriveTimeMinutes)
		assert.Equal(t, 20.0, *r.DriveTimeMinutes)
		assert.True(t, r.DriveTimeChecked)
	})

	t.Run("over threshold stays out", func(t *testing.T) {
		set := testResultSet()
		set.ApplyDriveTimes(map[string]DriveTime{"B": {Minutes: 30, Reachable: true}})
		r, _ := set.Get("B")
		assert.Equal(t, OutDriveTime, r.Classification)
	})

	t.Run("unreachable is checked with no minutes", func(t *testing.T) {
		set := testResultSet()
		set.ApplyDriveTimes(map[string]DriveTime{"C": Unreachable})
		r, _ := set.Get("C")
		assert.Equal(t, OutDriveTime, r.Classification)
		assert.Nil(t, r.DriveTimeMinutes)
		assert.True(t, r.DriveTimeChecked)
	})

	t.Run("missing outcome keeps provisional state", func(t *testing.T) {
		set := testResultSet()
		set.ApplyDriveTimes(map[string]DriveTime{"B": {Minutes: 5, Reachable: true}, "unknown": {Minutes: 1, Reachable: true}})
		r, _ := set.Get("C")
		assert.Equal(t, OutDriveTime, r.Classification)
		assert.False(t, r.DriveTimeChecked)
	})

	t.Run("overridden keeps classification but refreshes drive time", func(t *testing.T) {
		set := testResultSet()
		require.True(t, set.ToggleOverride("B"))
		set.ApplyDriveTimes(map[string]DriveTime{"B": {Minutes: 40, Reachable: true}})

		r, _ := set.Get("B")
		assert.Equal(t, OverriddenIn, r.Classification)
		assert.True(t, r.IsOverridden)
		require.NotNil(t, r.DriveTimeMinutes)
		assert.Equal(t, 40.0, *r.DriveTimeMinutes)
	})
}

func TestToggleOverride(t *testing.T) {
	t.Run("out_drive_time flips in and back", func(t *testing.T) {
		set := testResultSet()
		set.ApplyDriveTimes(map[string]DriveTime{"B": {Minutes: 30, Reachable: true}})
		before := Summarize(set.Results())

		require.True(t, set.ToggleOverride("B"))
		r, _ := set.Get("B")
		assert.Equal(t, OverriddenIn, r.Classification)
		assert.True(t, r.IsOverridden)
		mid := Summarize(set.Results())
		assert.Equal(t, before.Included+1, mid.Included)
		assert.Equal(t, 1, mid.Overridden)

		require.True(t, set.ToggleOverride("B"))
		r, _ = set.Get("B")
		assert.Equal(t, OutDriveTime, r.Classification)
		assert.False(t, r.IsOverridden)
		assert.Equal(t, before, Summarize(set.Results()))
	})

	t.Run("included flips out", func(t *testing.T) {
		set := testResultSet()
		require.True(t, set.ToggleOverride("A"))
		r, _ := set.Get("A")
		assert.Equal(t, OverriddenOut, r.Classification)
	})

	t.Run("removal recomputes from canonical rule", func(t *testing.T) {
		set := testResultSet()
		require.True(t, set.ToggleOverride("C"))
		// Drive time arrives while overridden; removing the override must
		// reflect it rather than the state captured at override time.
		set.ApplyDriveTimes(map[string]DriveTime{"C": {Minutes: 10, Reachable: true}})
		require.True(t, set.ToggleOverride("C"))

		r, _ := set.Get("C")
		assert.Equal(t, InDriveTime, r.Classification)
	})

	t.Run("double toggle restores inclusion for every result", func(t *testing.T) {
		set := testResultSet()
		set.ApplyDriveTimes(map[string]DriveTime{"B": {Minutes: 20, Reachable: true}, "C": Unreachable})
		for _, r := range set.Results() {
			code := r.Candidate.Code
			want := IsIncluded(r.Classification)
			set.ToggleOverride(code)
			set.ToggleOverride(code)
			got, _ := set.Get(code)
			assert.Equal(t, want, IsIncluded(got.Classification), code)
		}
	})

	t.Run("unknown code is a no-op", func(t *testing.T) {
		set := testResultSet()
		before := set.Results()
		assert.False(t, set.ToggleOverride("nope"))
		assert.Equal(t, before, set.Results())
	})

	t.Run("only one result changes", func(t *testing.T) {
		set := testResultSet()
		before := set.Results()
		set.ToggleOverride("B")
		after := set.Results()
		assert.Equal(t, before[0], after[0])
		assert.Equal(t, before[2], after[2])
		assert.NotEqual(t, before[1], after[1])
	})
}

func TestResultSet_HasOverrides(t *testing.T) {
	set := testResultSet()
	assert.False(t, set.HasOverrides())
	set.ToggleOverride("A")
	assert.True(t, set.HasOverrides())
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil))

	set := testResultSet()
	set.ApplyDriveTimes(map[string]DriveTime{"B": {Minutes: 20, Reachable: true}})
	set.ToggleOverride("C")

	s := Summarize(set.Results())
	assert.Equal(t, Summary{Total: 3, Included: 3, Excluded: 0, Overridden: 1}, s)
	assert.Equal(t, s.Total, s.Included+s.Excluded)
}
