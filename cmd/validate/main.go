// Command validate performs integrity checks on the postal code reference
// dataset: parse health, field completeness, coordinate ranges, index
// consistency and, when a JSON export is given, parity between the GeoNames
// source and the export.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -geonames data/US.txt \
//	  -json data/zipcodes.json
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"regexp"

	"github.com/couchcryptid/delivery-radius-service/internal/domain"
	"github.com/couchcryptid/delivery-radius-service/internal/reference"
)

// coordTolerance is the largest coordinate drift allowed between sources.
const coordTolerance = 1e-4

var stateCode = regexp.MustCompile(`^[A-Z]{2}$`)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	geonames := flag.String("geonames", "", "path to GeoNames US.txt")
	jsonPath := flag.String("json", "", "optional path to JSON reference export")
	flag.Parse()

	if *geonames == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(os.Stdout, *geonames, *jsonPath); code != 0 {
		os.Exit(code)
	}
}

func run(out io.Writer, geonamesPath, jsonPath string) int {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	fmt.Fprintln(out, "=== Reference Data Integrity Validation ===")
	fmt.Fprintln(out)

	f, err := os.Open(geonamesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open GeoNames file: %v\n", err)
		return 1
	}
	points, stats := reference.ParseGeoNames(f, logger)
	_ = f.Close()

	phases := []*phase{
		validateParse(stats),
		validateFields(points),
		validateCoordinates(points),
		validateIndex(points),
	}

	var exported []domain.ReferencePoint
	if jsonPath != "" {
		jf, err := os.Open(jsonPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: open JSON export: %v\n", err)
			return 1
		}
		exported, err = reference.ParseJSON(jf)
		_ = jf.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
			return 1
		}
		phases = append(phases, validateParity(points, exported))
	}

	fmt.Fprintln(out)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Rows: %d read, %d kept, %d duplicate, %d invalid; %d JSON\n",
		stats.Rows, stats.Kept, stats.Duplicates, stats.Invalid, len(exported))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

// ── Phases ──

func validateParse(stats reference.ParseStats) *phase {
	p := &phase{name: "Parse: rows kept, none invalid"}
	if stats.Kept == 0 {
		p.errorf("no usable rows")
	}
	if stats.Invalid > 0 {
		p.errorf("%d invalid rows (bad code, short record or unparseable coordinates)", stats.Invalid)
	}
	return p
}

func validateFields(points []domain.ReferencePoint) *phase {
	p := &phase{name: "Fields: city and state present"}
	for _, pt := range points {
		if pt.City == "" {
			p.errorf("%s: empty city", pt.Code)
		}
		if !stateCode.MatchString(pt.State) {
			p.errorf("%s: state %q is not a two-letter code", pt.Code, pt.State)
		}
	}
	return p
}

func validateCoordinates(points []domain.ReferencePoint) *phase {
	p := &phase{name: "Coordinates: in range, not null island"}
	for _, pt := range points {
		if pt.Lat < -90 || pt.Lat > 90 {
			p.errorf("%s: latitude %v out of range", pt.Code, pt.Lat)
		}
		if pt.Lng < -180 || pt.Lng > 180 {
			p.errorf("%s: longitude %v out of range", pt.Code, pt.Lng)
		}
		if pt.Lat == 0 && pt.Lng == 0 {
			p.errorf("%s: coordinates are 0,0", pt.Code)
		}
	}
	return p
}

// validateIndex checks that every point is found by code and by a small
// spatial query around itself.
func validateIndex(points []domain.ReferencePoint) *phase {
	p := &phase{name: "Index: lookup and spatial search agree"}
	set := reference.New(points)
	for _, pt := range points {
		got, ok := set.Lookup(pt.Code)
		if !ok {
			p.errorf("%s: not found by code", pt.Code)
			continue
		}
		if got != pt {
			p.errorf("%s: lookup returned %+v", pt.Code, got)
		}

		near, ok := set.Within(pt.Lat, pt.Lng, 1)
		if !ok {
			continue
		}
		if !containsCode(near, pt.Code) {
			p.errorf("%s: missing from spatial search around its own coordinates", pt.Code)
		}
	}
	return p
}

func validateParity(source, exported []domain.ReferencePoint) *phase {
	p := &phase{name: "Parity: GeoNames matches JSON export"}
	byCode := make(map[string]domain.ReferencePoint, len(exported))
	for _, e := range exported {
		byCode[e.Code] = e
	}
	if len(source) != len(exported) {
		p.errorf("count mismatch: GeoNames=%d JSON=%d", len(source), len(exported))
	}
	for _, s := range source {
		e, ok := byCode[s.Code]
		if !ok {
			p.errorf("%s: missing from JSON export", s.Code)
			continue
		}
		if s.City != e.City || s.State != e.State {
			p.errorf("%s: location %s, %s vs %s, %s", s.Code, s.City, s.State, e.City, e.State)
		}
		if !coordEq(s.Lat, e.Lat) || !coordEq(s.Lng, e.Lng) {
			p.errorf("%s: coordinates %v,%v vs %v,%v", s.Code, s.Lat, s.Lng, e.Lat, e.Lng)
		}
	}
	return p
}

// ── Helpers ──

func containsCode(points []domain.ReferencePoint, code string) bool {
	for _, pt := range points {
		if pt.Code == code {
			return true
		}
	}
	return false
}

func coordEq(a, b float64) bool {
	return math.Abs(a-b) < coordTolerance
}
