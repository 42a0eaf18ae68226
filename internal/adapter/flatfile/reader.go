// Package flatfile reads raw observation feeds from local CSV or JSON dumps
// and writes the enriched artifact. Input format is detected by extension.
package flatfile

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/X13arXy/Poland-Air-Quality-Analysis-2016-2026/internal/domain"
)

// Extractor implements the pipeline's extract stage over local files.
type Extractor struct {
	WeatherPath   string
	PollutionPath string
	Range         domain.DateRange
	Logger        *slog.Logger
}

// Extract loads both feeds, skipping and counting malformed records.
func (e *Extractor) Extract(ctx context.Context) (domain.RawSeries, error) {
	var series domain.RawSeries

	weather, skipped, err := ReadWeather(e.WeatherPath, e.Range, e.Logger)
	if err != nil {
		return domain.RawSeries{}, fmt.Errorf("load weather feed: %w", err)
	}
	series.Weather = weather
	series.Malformed += skipped

	if err := ctx.Err(); err != nil {
		return domain.RawSeries{}, err
	}

	pollution, skipped, err := ReadPollution(e.PollutionPath, e.Range, e.Logger)
	if err != nil {
		return domain.RawSeries{}, fmt.Errorf("load pollution feed: %w", err)
	}
	series.Pollution = pollution
	series.Malformed += skipped

	return series, nil
}

// ReadWeather loads a weather feed, returning the parsed records and the
// number of malformed rows skipped. Rows outside the date range are ignored.
func ReadWeather(path string, rng domain.DateRange, logger *slog.Logger) ([]domain.RawWeatherRecord, int, error) {
	var records []domain.RawWeatherRecord
	skipped, err := readFeed(path, logger, weatherColumns, func(city string, ts time.Time, values []float64) {
		if !rng.Contains(ts) {
			return
		}
		records = append(records, domain.RawWeatherRecord{
			City:            city,
			Timestamp:       ts,
			TemperatureC:    values[0],
			WindSpeedKmh:    values[1],
			PrecipitationMm: values[2],
		})
	})
	return records, skipped, err
}

// ReadPollution loads a PM10 feed; same contract as ReadWeather.
func ReadPollution(path string, rng domain.DateRange, logger *slog.Logger) ([]domain.RawPollutionRecord, int, error) {
	var records []domain.RawPollutionRecord
	skipped, err := readFeed(path, logger, pollutionColumns, func(city string, ts time.Time, values []float64) {
		if !rng.Contains(ts) {
			return
		}
		records = append(records, domain.RawPollutionRecord{City: city, Timestamp: ts, PM10: values[0]})
	})
	return records, skipped, err
}

// Column names follow the Open-Meteo API variables the feeds are dumped from.
var (
	weatherColumns   = []string{"temperature_2m_mean", "wind_speed_10m_max", "precipitation_sum"}
	pollutionColumns = []string{"pm10"}
)

func readFeed(path string, logger *slog.Logger, numericCols []string, emit func(city string, ts time.Time, values []float64)) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return readJSONFeed(f, path, logger, numericCols, emit)
	default:
		return readCSVFeed(f, path, logger, numericCols, emit)
	}
}

func readCSVFeed(r io.Reader, path string, logger *slog.Logger, numericCols []string, emit func(string, time.Time, []float64)) (int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}

	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[strings.TrimSpace(name)] = i
	}
	for _, name := range append([]string{"city", "time"}, numericCols...) {
		if _, ok := colIdx[name]; !ok {
			return 0, fmt.Errorf("feed %s is missing column %q", path, name)
		}
	}

	skipped := 0
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read row %d: %w", line, err)
		}

		city, ts, values, perr := parseRow(row, colIdx, numericCols, path, line)
		if perr != nil {
			skipMalformed(logger, perr)
			skipped++
			continue
		}
		emit(city, ts, values)
	}
	return skipped, nil
}

func parseRow(row []string, colIdx map[string]int, numericCols []string, path string, line int) (string, time.Time, []float64, *domain.MalformedRecordError) {
	cell := func(name string) string {
		i := colIdx[name]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	city := cell("city")
	if city == "" {
		return "", time.Time{}, nil, &domain.MalformedRecordError{Source: path, Line: line, Reason: "missing city"}
	}

	ts, err := ParseTimestamp(cell("time"))
	if err != nil {
		return "", time.Time{}, nil, &domain.MalformedRecordError{Source: path, Line: line, Reason: fmt.Sprintf("bad time %q", cell("time"))}
	}

	values := make([]float64, len(numericCols))
	for i, name := range numericCols {
		raw := cell(name)
		if raw == "" {
			return "", time.Time{}, nil, &domain.MalformedRecordError{Source: path, Line: line, Reason: "missing " + name}
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return "", time.Time{}, nil, &domain.MalformedRecordError{Source: path, Line: line, Reason: fmt.Sprintf("bad %s %q", name, raw)}
		}
		values[i] = v
	}
	return city, ts, values, nil
}

func readJSONFeed(r io.Reader, path string, logger *slog.Logger, numericCols []string, emit func(string, time.Time, []float64)) (int, error) {
	var rows []map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return 0, fmt.Errorf("decode %s: %w", path, err)
	}

	skipped := 0
	for i, row := range rows {
		city, ts, values, perr := parseJSONRow(row, numericCols, path, i+1)
		if perr != nil {
			skipMalformed(logger, perr)
			skipped++
			continue
		}
		emit(city, ts, values)
	}
	return skipped, nil
}

func parseJSONRow(row map[string]json.RawMessage, numericCols []string, path string, index int) (string, time.Time, []float64, *domain.MalformedRecordError) {
	var city, timeStr string
	if raw, ok := row["city"]; ok {
		_ = json.Unmarshal(raw, &city)
	}
	if city == "" {
		return "", time.Time{}, nil, &domain.MalformedRecordError{Source: path, Line: index, Reason: "missing city"}
	}
	if raw, ok := row["time"]; ok {
		_ = json.Unmarshal(raw, &timeStr)
	}
	ts, err := ParseTimestamp(timeStr)
	if err != nil {
		return "", time.Time{}, nil, &domain.MalformedRecordError{Source: path, Line: index, Reason: fmt.Sprintf("bad time %q", timeStr)}
	}

	values := make([]float64, len(numericCols))
	for i, name := range numericCols {
		raw, ok := row[name]
		if !ok || string(raw) == "null" {
			return "", time.Time{}, nil, &domain.MalformedRecordError{Source: path, Line: index, Reason: "missing " + name}
		}
		if err := json.Unmarshal(raw, &values[i]); err != nil {
			return "", time.Time{}, nil, &domain.MalformedRecordError{Source: path, Line: index, Reason: fmt.Sprintf("bad %s: %v", name, err)}
		}
	}
	return city, ts, values, nil
}

func skipMalformed(logger *slog.Logger, err *domain.MalformedRecordError) {
	if logger != nil {
		logger.Warn("skipping malformed record", "source", err.Source, "line", err.Line, "reason", err.Reason)
	}
}

// timestampFormats covers the shapes seen across API dumps and hand-made CSVs.
var timestampFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses a feed timestamp, trying each known layout. Naive
// timestamps are taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
