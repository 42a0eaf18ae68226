// Command fetch downloads the raw weather and PM10 history from Open-Meteo
// and writes the two CSV files the file-sourced pipeline reads. Use it to
// build a local snapshot once instead of hitting the API on every run.
//
// Usage:
//
//	go run ./cmd/fetch \
//	  -start 2016-01-01 -end 2026-01-01 \
//	  -cities "Kraków,Warszawa" \
//	  -out-dir data/raw
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/X13arXy/Poland-Air-Quality-Analysis-2016-2026/internal/adapter/flatfile"
	"github.com/X13arXy/Poland-Air-Quality-Analysis-2016-2026/internal/adapter/openmeteo"
	"github.com/X13arXy/Poland-Air-Quality-Analysis-2016-2026/internal/domain"
	"github.com/X13arXy/Poland-Air-Quality-Analysis-2016-2026/internal/observability"
)

func main() {
	start := flag.String("start", "", "first day to fetch (YYYY-MM-DD)")
	end := flag.String("end", "", "last day to fetch (YYYY-MM-DD)")
	cities := flag.String("cities", "", "comma-separated city names; empty fetches every default city")
	outDir := flag.String("out-dir", "data/raw", "directory for weather.csv and pollution.csv")
	timeout := flag.Duration("timeout", 90*time.Second, "per-request HTTP timeout")
	pause := flag.Duration("pause", time.Second, "pause between per-city requests")
	daily := flag.Bool("daily", true, "resample hourly PM10 to daily means")
	flag.Parse()

	logger := observability.NewLogger("info", "text")

	rng, err := parseRange(*start, *end)
	if err != nil {
		logger.Error("invalid date range", "error", err)
		os.Exit(1)
	}

	selected, err := openmeteo.CitiesByName(splitCities(*cities))
	if err != nil {
		logger.Error("invalid city list", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	extractor := &openmeteo.Extractor{
		Client: openmeteo.NewClient(*timeout, logger),
		Cities: selected,
		Range:  rng,
		Pause:  *pause,
		Logger: logger,
	}
	if *daily {
		extractor.Step = 24 * time.Hour
	}

	series, err := extractor.Extract(ctx)
	if err != nil {
		logger.Error("fetch failed", "error", err)
		os.Exit(1)
	}

	weatherPath := filepath.Join(*outDir, "weather.csv")
	if err := writeWeatherCSV(weatherPath, series.Weather); err != nil {
		logger.Error("write weather snapshot failed", "error", err)
		os.Exit(1)
	}
	logger.Info("weather snapshot written", "path", weatherPath, "records", len(series.Weather))

	pollutionPath := filepath.Join(*outDir, "pollution.csv")
	if err := writePollutionCSV(pollutionPath, series.Pollution, *daily); err != nil {
		logger.Error("write pollution snapshot failed", "error", err)
		os.Exit(1)
	}
	logger.Info("pollution snapshot written", "path", pollutionPath, "records", len(series.Pollution))

	if series.Malformed > 0 {
		logger.Warn("source reported missing values", "skipped", series.Malformed)
	}
}

func parseRange(start, end string) (domain.DateRange, error) {
	if start == "" || end == "" {
		return domain.DateRange{}, fmt.Errorf("-start and -end are required")
	}
	s, err := time.Parse("2006-01-02", start)
	if err != nil {
		return domain.DateRange{}, fmt.Errorf("invalid -start: %w", err)
	}
	e, err := time.Parse("2006-01-02", end)
	if err != nil {
		return domain.DateRange{}, fmt.Errorf("invalid -end: %w", err)
	}
	if e.Before(s) {
		return domain.DateRange{}, fmt.Errorf("-end precedes -start")
	}
	return domain.DateRange{Start: s, End: e}, nil
}

func splitCities(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func writeWeatherCSV(path string, records []domain.RawWeatherRecord) error {
	return flatfile.WriteAtomic(path, func(f *os.File) error {
		w := csv.NewWriter(f)
		if err := w.Write([]string{"city", "time", "temperature_2m_mean", "wind_speed_10m_max", "precipitation_sum"}); err != nil {
			return err
		}
		for _, r := range records {
			row := []string{
				r.City,
				r.Timestamp.Format("2006-01-02"),
				formatFloat(r.TemperatureC),
				formatFloat(r.WindSpeedKmh),
				formatFloat(r.PrecipitationMm),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	})
}

func writePollutionCSV(path string, records []domain.RawPollutionRecord, daily bool) error {
	layout := "2006-01-02T15:04"
	if daily {
		layout = "2006-01-02"
	}
	return flatfile.WriteAtomic(path, func(f *os.File) error {
		w := csv.NewWriter(f)
		if err := w.Write([]string{"city", "time", "pm10"}); err != nil {
			return err
		}
		for _, r := range records {
			if err := w.Write([]string{r.City, r.Timestamp.Format(layout), formatFloat(r.PM10)}); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	})
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
