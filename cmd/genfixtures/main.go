// Command genfixtures generates synthetic raw weather and PM10 CSV fixtures
// for pipeline tests and local runs. The series follow plausible seasonal
// shapes and are seeded with the defects the pipeline has to handle: missing
// rows, duplicate keys, and malformed fields.
//
// Usage:
//
//	go run ./cmd/genfixtures \
//	  -out-dir data/fixtures -start 2024-01-01 -days 365 -seed 42
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/X13arXy/Poland-Air-Quality-Analysis-2016-2026/internal/adapter/flatfile"
	"github.com/X13arXy/Poland-Air-Quality-Analysis-2016-2026/internal/adapter/openmeteo"
	"github.com/X13arXy/Poland-Air-Quality-Analysis-2016-2026/internal/observability"
)

func main() {
	outDir := flag.String("out-dir", "data/fixtures", "directory for the generated CSVs")
	start := flag.String("start", "2024-01-01", "first day of the series (YYYY-MM-DD)")
	days := flag.Int("days", 365, "number of days per city")
	cityCount := flag.Int("cities", 5, "number of cities from the default set")
	seed := flag.Int64("seed", 42, "PRNG seed for reproducible fixtures")
	gapRate := flag.Float64("gap-rate", 0.02, "probability a day is missing from a series")
	dupRate := flag.Float64("dup-rate", 0.01, "probability a row is emitted twice")
	malformedRate := flag.Float64("malformed-rate", 0.005, "probability a row has an unparseable value")
	flag.Parse()

	logger := observability.NewLogger("info", "text")

	startDay, err := time.Parse("2006-01-02", *start)
	if err != nil {
		logger.Error("invalid -start", "error", err)
		os.Exit(1)
	}
	if *cityCount < 1 || *cityCount > len(openmeteo.DefaultCities) {
		logger.Error("invalid -cities", "max", len(openmeteo.DefaultCities))
		os.Exit(1)
	}

	g := &generator{
		rng:           rand.New(rand.NewSource(*seed)),
		start:         startDay.UTC(),
		days:          *days,
		cities:        openmeteo.DefaultCities[:*cityCount],
		gapRate:       *gapRate,
		dupRate:       *dupRate,
		malformedRate: *malformedRate,
	}

	weatherPath := filepath.Join(*outDir, "weather.csv")
	weatherRows := g.weatherRows()
	if err := writeCSV(weatherPath, []string{"city", "time", "temperature_2m_mean", "wind_speed_10m_max", "precipitation_sum"}, weatherRows); err != nil {
		logger.Error("write weather fixture failed", "error", err)
		os.Exit(1)
	}
	logger.Info("weather fixture written", "path", weatherPath, "rows", len(weatherRows))

	pollutionPath := filepath.Join(*outDir, "pollution.csv")
	pollutionRows := g.pollutionRows()
	if err := writeCSV(pollutionPath, []string{"city", "time", "pm10"}, pollutionRows); err != nil {
		logger.Error("write pollution fixture failed", "error", err)
		os.Exit(1)
	}
	logger.Info("pollution fixture written", "path", pollutionPath, "rows", len(pollutionRows))
}

type generator struct {
	rng           *rand.Rand
	start         time.Time
	days          int
	cities        []openmeteo.City
	gapRate       float64
	dupRate       float64
	malformedRate float64
}

// dayWeather models one synthetic day. Temperature follows an annual sine
// with the minimum in late January; wind and rain are noisy baselines.
func (g *generator) dayWeather(day time.Time) (tempC, windKmh, rainMm float64) {
	yearFrac := float64(day.YearDay()) / 365.0
	tempC = 9 - 11*math.Cos(2*math.Pi*(yearFrac-0.08)) + g.rng.NormFloat64()*3
	windKmh = math.Max(0, 14+g.rng.NormFloat64()*7)
	rainMm = 0
	if g.rng.Float64() < 0.45 {
		rainMm = g.rng.ExpFloat64() * 2.5
	}
	return tempC, windKmh, rainMm
}

// dayPM10 derives pollution from the day's weather: cold and calm days
// accumulate smog, wind and rain wash it out.
func (g *generator) dayPM10(tempC, windKmh, rainMm float64) float64 {
	pm := 28 + math.Max(0, 10-tempC)*2.2 - windKmh*0.6 - rainMm*1.5 + g.rng.NormFloat64()*8
	return math.Max(2, pm)
}

func (g *generator) weatherRows() [][]string {
	var rows [][]string
	for _, city := range g.cities {
		for d := 0; d < g.days; d++ {
			if g.rng.Float64() < g.gapRate {
				continue
			}
			day := g.start.AddDate(0, 0, d)
			tempC, windKmh, rainMm := g.dayWeather(day)

			row := []string{
				city.Name,
				day.Format("2006-01-02"),
				formatFloat(tempC),
				formatFloat(windKmh),
				formatFloat(rainMm),
			}
			if g.rng.Float64() < g.malformedRate {
				row[2] = "n/a"
			}
			rows = append(rows, row)
			if g.rng.Float64() < g.dupRate {
				rows = append(rows, row)
			}
		}
	}
	return rows
}

func (g *generator) pollutionRows() [][]string {
	var rows [][]string
	for _, city := range g.cities {
		for d := 0; d < g.days; d++ {
			if g.rng.Float64() < g.gapRate {
				continue
			}
			day := g.start.AddDate(0, 0, d)
			tempC, windKmh, rainMm := g.dayWeather(day)

			row := []string{
				city.Name,
				day.Format("2006-01-02"),
				formatFloat(g.dayPM10(tempC, windKmh, rainMm)),
			}
			if g.rng.Float64() < g.malformedRate {
				row[2] = ""
			}
			rows = append(rows, row)
			if g.rng.Float64() < g.dupRate {
				dup := append([]string(nil), row...)
				// Conflicting duplicate: same key, different value.
				dup[2] = formatFloat(g.dayPM10(tempC, windKmh, rainMm))
				rows = append(rows, dup)
			}
		}
	}
	return rows
}

func writeCSV(path string, header []string, rows [][]string) error {
	return flatfile.WriteAtomic(path, func(f *os.File) error {
		w := csv.NewWriter(f)
		if err := w.Write(header); err != nil {
			return err
		}
		for _, row := range rows {
			if err := w.Write(row); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}
		w.Flush()
		return w.Error()
	})
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
