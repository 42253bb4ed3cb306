package domain

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"
)

// ExportHeader is the column header row of the CSV export.
var ExportHeader = []string{
	"Source Zip",
	"Candidate Zip",
	"City",
	"County",
	"State",
	"Distance (miles)",
	"Drive Time (minutes)",
	"Status",
	"Included",
}

// ExportRow is the flat projection of a CandidateResult.
type ExportRow struct {
	SourceCode    string `json:"source_code"`
	CandidateCode string `json:"candidate_code"`
	City          string `json:"city"`
	County        string `json:"county"`
	State         string `json:"state"`
	Distance      string `json:"distance"`
	DriveTime     string `json:"drive_time"`
	Status        string `json:"status"`
	Included      string `json:"included"`
}

// Record returns the row in ExportHeader column order.
func (r ExportRow) Record() []string {
	return []string{
		r.SourceCode, r.CandidateCode, r.City, r.County, r.State,
		r.Distance, r.DriveTime, r.Status, r.Included,
	}
}

// ExportRows projects results for export. With includeAll false only
// included results are exported.
func ExportRows(results []CandidateResult, includeAll bool) []ExportRow {
	rows := make([]ExportRow, 0, len(results))
	for _, r := range results {
		included := IsIncluded(r.Classification)
		if !includeAll && !included {
			continue
		}
		row := ExportRow{
			SourceCode:    r.Source.Code,
			CandidateCode: r.Candidate.Code,
			City:          r.Candidate.City,
			County:        r.Candidate.County,
			State:         r.Candidate.State,
			Distance:      strconv.FormatFloat(r.DistanceMiles, 'f', 2, 64),
			Status:        StatusLabel(r.Classification),
			Included:      "No",
		}
		if r.DriveTimeMinutes != nil {
			row.DriveTime = strconv.FormatFloat(math.Round(*r.DriveTimeMinutes), 'f', 0, 64)
		}
		if included {
			row.Included = "Yes"
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteCSV writes the header and rows as CSV.
func WriteCSV(w io.Writer, rows []ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.Record()); err != nil {
			return fmt.Errorf("write csv row %s: %w", r.CandidateCode, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFilename names an export file, e.g.
// delivery-radius-98101-2026-01-31-included.csv.
func ExportFilename(sourceCode string, at time.Time, includeAll bool) string {
	suffix := "included"
	if includeAll {
		suffix = "all"
	}
	return fmt.Sprintf("delivery-radius-%s-%s-%s.csv", sourceCode, at.Format(time.DateOnly), suffix)
}
