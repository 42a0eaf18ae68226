// Command validate runs integrity checks over an enriched artifact and the
// raw CSVs it was built from: schema and value sanity, key uniqueness and
// ordering, derived-feature consistency, and coverage against the sources.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -artifact data/air_quality_enriched.csv \
//	  -weather data/raw/weather.csv \
//	  -pollution data/raw/pollution.csv
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/X13arXy/Poland-Air-Quality-Analysis-2016-2026/internal/adapter/flatfile"
	"github.com/X13arXy/Poland-Air-Quality-Analysis-2016-2026/internal/domain"
	"github.com/X13arXy/Poland-Air-Quality-Analysis-2016-2026/internal/observability"
)

// phase tracks pass/fail for one validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// row is one parsed artifact record plus its CSV line number.
type row struct {
	line int
	rec  domain.EnrichedRecord
}

func main() {
	artifact := flag.String("artifact", "", "path to the enriched artifact CSV")
	weather := flag.String("weather", "", "path to the raw weather CSV (optional)")
	pollution := flag.String("pollution", "", "path to the raw pollution CSV (optional)")
	windThreshold := flag.Float64("wind-threshold", 16, "wind threshold the artifact was built with (km/h)")
	flag.Parse()

	if *artifact == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*artifact, *weather, *pollution, *windThreshold))
}

func run(artifactPath, weatherPath, pollutionPath string, windThreshold float64) int {
	fmt.Println("=== Enriched Artifact Validation ===")
	fmt.Println()

	rows, schemaPhase, err := loadArtifact(artifactPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load artifact: %v\n", err)
		return 1
	}

	phases := []*phase{
		schemaPhase,
		validateKeys(rows),
		validateFeatures(rows, windThreshold),
	}
	if weatherPath != "" && pollutionPath != "" {
		p, err := validateCoverage(rows, weatherPath, pollutionPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load raw inputs: %v\n", err)
			return 1
		}
		phases = append(phases, p)
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-44s %s\n", p.name, status)
	}
	fmt.Printf("\nRecords: %d\n", len(rows))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i == 20 {
				fmt.Printf("  ... and %d more\n", len(p.errors)-i)
				break
			}
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Schema ──
// Header, row width, and per-value parsing. Parse failures keep the row out
// of the later phases.

func loadArtifact(path string) ([]row, *phase, error) {
	p := &phase{name: "Phase 1: Schema (header and values)"}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	all, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("empty file")
	}

	header := all[0]
	if len(header) != len(flatfile.Columns) {
		p.errorf("header has %d columns, expected %d", len(header), len(flatfile.Columns))
	}
	for i, want := range flatfile.Columns {
		if i >= len(header) {
			break
		}
		if header[i] != want {
			p.errorf("column %d is %q, expected %q", i, header[i], want)
		}
	}
	if !p.passed() {
		return nil, p, nil
	}

	var rows []row
	for i, record := range all[1:] {
		line := i + 2
		if len(record) != len(flatfile.Columns) {
			p.errorf("line %d: %d fields, expected %d", line, len(record), len(flatfile.Columns))
			continue
		}
		rec, err := parseRecord(record)
		if err != nil {
			p.errorf("line %d: %v", line, err)
			continue
		}
		rows = append(rows, row{line: line, rec: rec})
	}
	return rows, p, nil
}

func parseRecord(record []string) (domain.EnrichedRecord, error) {
	var rec domain.EnrichedRecord
	var err error

	rec.City = record[0]
	if rec.City == "" {
		return rec, fmt.Errorf("empty city")
	}
	rec.Timestamp, err = time.Parse(time.RFC3339, record[1])
	if err != nil {
		return rec, fmt.Errorf("timestamp: %w", err)
	}

	floats := []struct {
		col  int
		dest *float64
	}{
		{2, &rec.TemperatureC}, {3, &rec.WindSpeedKmh}, {4, &rec.PrecipitationMm}, {5, &rec.PM10},
	}
	for _, fl := range floats {
		*fl.dest, err = strconv.ParseFloat(record[fl.col], 64)
		if err != nil {
			return rec, fmt.Errorf("%s: %w", flatfile.Columns[fl.col], err)
		}
	}

	rec.TemperatureBand = domain.TemperatureBand(record[6])
	switch rec.TemperatureBand {
	case domain.BandBelowZero, domain.BandZeroToTen, domain.BandAboveTen:
	default:
		return rec, fmt.Errorf("invalid temperature_band %q", record[6])
	}
	rec.WindCategory = domain.WindCategory(record[7])
	switch rec.WindCategory {
	case domain.WindLow, domain.WindHigh:
	default:
		return rec, fmt.Errorf("invalid wind_category %q", record[7])
	}

	bools := []struct {
		col  int
		dest *bool
	}{
		{8, &rec.IsWeekend}, {9, &rec.IsNewYearsEve}, {10, &rec.HeatingSeason},
	}
	for _, b := range bools {
		*b.dest, err = strconv.ParseBool(record[b.col])
		if err != nil {
			return rec, fmt.Errorf("%s: %w", flatfile.Columns[b.col], err)
		}
	}
	return rec, nil
}

// ── Phase 2: Keys ──
// (city, timestamp) must be unique and the file sorted by city then time.

func validateKeys(rows []row) *phase {
	p := &phase{name: "Phase 2: Keys (uniqueness and order)"}

	seen := make(map[string]int, len(rows))
	for i, r := range rows {
		k := r.rec.City + "|" + strconv.FormatInt(r.rec.Timestamp.Unix(), 10)
		if prev, ok := seen[k]; ok {
			p.errorf("line %d: duplicate key (%s, %s), first seen line %d",
				r.line, r.rec.City, r.rec.Timestamp.Format(time.RFC3339), prev)
		}
		seen[k] = r.line

		if i == 0 {
			continue
		}
		prev := rows[i-1].rec
		if prev.City > r.rec.City ||
			(prev.City == r.rec.City && prev.Timestamp.After(r.rec.Timestamp)) {
			p.errorf("line %d: out of order after (%s, %s)",
				r.line, prev.City, prev.Timestamp.Format(time.RFC3339))
		}
	}
	return p
}

// ── Phase 3: Features ──
// Re-derive the per-record features and compare. Heating season depends on a
// daily mean across records, so it is only checked for internal consistency
// when a city-day has multiple rows.

func validateFeatures(rows []row, windThreshold float64) *phase {
	p := &phase{name: "Phase 3: Features (derived columns)"}

	heatingByDay := make(map[string]bool)
	for _, r := range rows {
		rec := r.rec
		if got, want := rec.TemperatureBand, domain.TemperatureBandFor(rec.TemperatureC); got != want {
			p.errorf("line %d: temperature_band %q for %.2f°C, expected %q", r.line, got, rec.TemperatureC, want)
		}
		if got, want := rec.WindCategory, domain.WindCategoryFor(rec.WindSpeedKmh, windThreshold); got != want {
			p.errorf("line %d: wind_category %q for %.2f km/h, expected %q", r.line, got, rec.WindSpeedKmh, want)
		}
		if got, want := rec.IsWeekend, domain.IsWeekend(rec.Timestamp); got != want {
			p.errorf("line %d: is_weekend %v for %s", r.line, got, rec.Timestamp.Weekday())
		}
		if got, want := rec.IsNewYearsEve, domain.IsNewYearsEve(rec.Timestamp); got != want {
			p.errorf("line %d: is_new_years_eve %v at %s", r.line, got, rec.Timestamp.Format(time.RFC3339))
		}

		dayKey := rec.City + "|" + rec.Timestamp.Format("2006-01-02")
		if prev, ok := heatingByDay[dayKey]; ok && prev != rec.HeatingSeason {
			p.errorf("line %d: heating_season flips within city-day %s", r.line, dayKey)
		}
		heatingByDay[dayKey] = rec.HeatingSeason
	}
	return p
}

// ── Phase 4: Coverage ──
// Every artifact key must exist in at least one raw source; merged records
// are only created for keys seen in a source.

func validateCoverage(rows []row, weatherPath, pollutionPath string) (*phase, error) {
	p := &phase{name: "Phase 4: Coverage (vs raw sources)"}
	logger := observability.NewLogger("error", "text")

	weather, _, err := flatfile.ReadWeather(weatherPath, domain.DateRange{}, logger)
	if err != nil {
		return nil, err
	}
	pollution, _, err := flatfile.ReadPollution(pollutionPath, domain.DateRange{}, logger)
	if err != nil {
		return nil, err
	}

	sourceKeys := make(map[string]bool, len(weather)+len(pollution))
	for _, w := range weather {
		sourceKeys[w.City+"|"+strconv.FormatInt(w.Timestamp.Unix(), 10)] = true
	}
	for _, pl := range pollution {
		sourceKeys[pl.City+"|"+strconv.FormatInt(pl.Timestamp.Unix(), 10)] = true
	}

	for _, r := range rows {
		k := r.rec.City + "|" + strconv.FormatInt(r.rec.Timestamp.Unix(), 10)
		if !sourceKeys[k] {
			p.errorf("line %d: key (%s, %s) not present in either raw source",
				r.line, r.rec.City, r.rec.Timestamp.Format(time.RFC3339))
		}
	}
	return p, nil
}
