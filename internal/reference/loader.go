// Package reference loads and indexes the US postal code reference dataset.
package reference

import (
	"archive/zip"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/delivery-radius-service/internal/domain"
)

// geonamesFile is the entry read from a GeoNames country archive.
const geonamesFile = "US.txt"

// ParseStats counts what the parser kept and dropped.
type ParseStats struct {
	Rows       int
	Kept       int
	Duplicates int
	Invalid    int
}

// ParseGeoNames reads the tab-separated GeoNames postal code format:
//
//	0 country | 1 postal code | 2 place | 3 state name | 4 state code |
//	5 county | 6 county code | 7-8 admin3 | 9 lat | 10 lng | 11 accuracy
//
// Only 5-digit codes are kept. GeoNames lists multi-city codes more than
// once; the first row wins.
func ParseGeoNames(r io.Reader, logger *slog.Logger) ([]domain.ReferencePoint, ParseStats) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var (
		points []domain.ReferencePoint
		stats  ParseStats
		seen   = make(map[string]struct{})
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			stats.Invalid++
			logger.Warn("skipping unreadable reference row", "error", err)
			continue
		}
		stats.Rows++

		if len(record) < 11 {
			stats.Invalid++
			continue
		}

		code := strings.TrimSpace(record[1])
		if _, dup := seen[code]; dup {
			stats.Duplicates++
			continue
		}
		seen[code] = struct{}{}

		if !isFiveDigit(code) {
			stats.Invalid++
			continue
		}

		lat, err := strconv.ParseFloat(strings.TrimSpace(record[9]), 64)
		if err != nil {
			stats.Invalid++
			logger.Warn("invalid latitude", "code", code, "error", err)
			continue
		}
		lng, err := strconv.ParseFloat(strings.TrimSpace(record[10]), 64)
		if err != nil {
			stats.Invalid++
			logger.Warn("invalid longitude", "code", code, "error", err)
			continue
		}

		points = append(points, domain.ReferencePoint{
			Code:   code,
			City:   record[2],
			State:  record[4],
			County: record[5],
			Lat:    lat,
			Lng:    lng,
		})
		stats.Kept++
	}
	return points, stats
}

// jsonPoint is the bundled JSON dataset format.
type jsonPoint struct {
	Zip    string  `json:"zip"`
	City   string  `json:"city"`
	State  string  `json:"state"`
	County string  `json:"county"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
}

// ParseJSON reads a JSON array of {zip, city, state, county, lat, lng}.
func ParseJSON(r io.Reader) ([]domain.ReferencePoint, error) {
	var raw []jsonPoint
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode reference json: %w", err)
	}
	points := make([]domain.ReferencePoint, 0, len(raw))
	for _, p := range raw {
		points = append(points, domain.ReferencePoint{
			Code:   p.Zip,
			City:   p.City,
			State:  p.State,
			County: p.County,
			Lat:    p.Lat,
			Lng:    p.Lng,
		})
	}
	return points, nil
}

// LoadFile loads a reference dataset from a GeoNames .txt file, a GeoNames
// .zip archive containing US.txt, or a .json export.
func LoadFile(path string, logger *slog.Logger) (*Set, error) {
	var (
		points []domain.ReferencePoint
		err    error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip":
		points, err = loadZip(path, logger)
	case ".json":
		points, err = loadJSON(path)
	default:
		points, err = loadTSV(path, logger)
	}
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("reference data %s contains no usable rows", path)
	}
	logger.Info("reference data loaded", "path", path, "points", len(points))
	return New(points), nil
}

func loadTSV(path string, logger *slog.Logger) ([]domain.ReferencePoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference data: %w", err)
	}
	defer f.Close()

	points, stats := ParseGeoNames(f, logger)
	logStats(logger, path, stats)
	return points, nil
}

func loadZip(path string, logger *slog.Logger) ([]domain.ReferencePoint, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open reference archive: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != geonamesFile {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s in archive: %w", geonamesFile, err)
		}
		defer rc.Close()

		points, stats := ParseGeoNames(rc, logger)
		logStats(logger, path, stats)
		return points, nil
	}
	return nil, fmt.Errorf("%s not found in %s", geonamesFile, path)
}

func loadJSON(path string) ([]domain.ReferencePoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference data: %w", err)
	}
	defer f.Close()
	return ParseJSON(f)
}

func logStats(logger *slog.Logger, path string, stats ParseStats) {
	logger.Debug("reference data parsed",
		"path", path,
		"rows", stats.Rows,
		"kept", stats.Kept,
		"duplicates", stats.Duplicates,
		"invalid", stats.Invalid,
	)
}

func isFiveDigit(code string) bool {
	if len(code) != 5 {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
