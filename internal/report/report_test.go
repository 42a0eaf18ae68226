package report

import (
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/X13arXy/Poland-Air-Quality-Analysis-2016-2026/internal/domain"
)

func rec(city string, ts time.Time, tempC, windKmh, rainMm, pm10 float64) domain.EnrichedRecord {
	return domain.EnrichedRecord{
		City:            city,
		Timestamp:       ts,
		TemperatureC:    tempC,
		WindSpeedKmh:    windKmh,
		PrecipitationMm: rainMm,
		PM10:            pm10,
		TemperatureBand: domain.TemperatureBandFor(tempC),
		WindCategory:    domain.WindCategoryFor(windKmh, 16),
		IsWeekend:       domain.IsWeekend(ts),
		IsNewYearsEve:   domain.IsNewYearsEve(ts),
		HeatingSeason:   tempC < 10,
		Scenario:        domain.ClassifyScenario(tempC, windKmh),
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func rowMap(t *testing.T, rows [][]string, keyCol, valCol string) map[string]string {
	t.Helper()
	require.NotEmpty(t, rows)
	keyIdx, valIdx := -1, -1
	for i, name := range rows[0] {
		if name == keyCol {
			keyIdx = i
		}
		if name == valCol {
			valIdx = i
		}
	}
	require.GreaterOrEqual(t, keyIdx, 0, "column %s", keyCol)
	require.GreaterOrEqual(t, valIdx, 0, "column %s", valCol)

	out := make(map[string]string, len(rows)-1)
	for _, row := range rows[1:] {
		out[row[keyIdx]] = row[valIdx]
	}
	return out
}

func TestWriter_WritesAllViews(t *testing.T) {
	dir := t.TempDir()
	w := &Writer{Dir: dir, Config: DefaultConfig(), Logger: slog.Default()}

	jan1 := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	records := []domain.EnrichedRecord{
		rec("Kraków", jan1, -3, 5, 0, 80),
		rec("Kraków", jan1.AddDate(0, 0, 1), -3, 25, 0, 40),
		rec("Kraków", time.Date(2024, time.July, 6, 0, 0, 0, 0, time.UTC), 22, 12, 1.5, 20),
		rec("Warszawa", jan1, 2, 8, 0.05, 60),
		rec("Warszawa", time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC), -1, 30, 0, 55),
	}

	require.NoError(t, w.Write(records))

	files := []string{
		"trend_yearly.csv", "seasonality_monthly.csv", "ranking_smog_days.csv",
		"wind_curve.csv", "temperature_curve.csv", "rain_effect.csv",
		"scenario_duel.csv", "weekend_effect.csv", "new_year_window.csv",
		"heating_season.csv",
	}
	for _, f := range files {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, f)
	}
}

func TestWriter_YearlyTrend(t *testing.T) {
	dir := t.TempDir()
	w := &Writer{Dir: dir, Config: DefaultConfig()}

	records := []domain.EnrichedRecord{
		rec("Kraków", time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC), 5, 10, 0, 40),
		rec("Kraków", time.Date(2023, time.March, 2, 0, 0, 0, 0, time.UTC), 5, 10, 0, 60),
		rec("Kraków", time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), 5, 10, 0, 30),
	}
	require.NoError(t, w.Write(records))

	byYear := rowMap(t, readCSV(t, filepath.Join(dir, "trend_yearly.csv")), "year", "avg_pm10")
	require.Len(t, byYear, 2)

	v2023, err := strconv.ParseFloat(byYear["2023"], 64)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, v2023, 1e-9)
	v2024, err := strconv.ParseFloat(byYear["2024"], 64)
	require.NoError(t, err)
	assert.InDelta(t, 30.0, v2024, 1e-9)
}

func TestWriter_SmogDayRanking(t *testing.T) {
	dir := t.TempDir()
	w := &Writer{Dir: dir, Config: Config{SmogThresholdPM10: 50, TopCities: 2}}

	base := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	var records []domain.EnrichedRecord
	// Zabrze: 3 smog days, Kraków: 2, Gdańsk: 1, Sopot: none.
	for i := 0; i < 3; i++ {
		records = append(records, rec("Zabrze", base.AddDate(0, 0, i), 0, 5, 0, 90))
	}
	for i := 0; i < 2; i++ {
		records = append(records, rec("Kraków", base.AddDate(0, 0, i), 0, 5, 0, 70))
	}
	records = append(records,
		rec("Gdańsk", base, 0, 5, 0, 51),
		rec("Gdańsk", base.AddDate(0, 0, 1), 0, 5, 0, 50), // at threshold, not above
		rec("Sopot", base, 0, 5, 0, 20),
	)

	require.NoError(t, w.Write(records))

	rows := readCSV(t, filepath.Join(dir, "ranking_smog_days.csv"))
	require.Len(t, rows, 3, "header plus top 2 cities")
	assert.Equal(t, []string{"city", "smog_days"}, rows[0])
	assert.Equal(t, "Zabrze", rows[1][0])
	assert.Equal(t, "3", rows[1][1])
	assert.Equal(t, "Kraków", rows[2][0])
	assert.Equal(t, "2", rows[2][1])
}

func TestWriter_RainEffect(t *testing.T) {
	dir := t.TempDir()
	w := &Writer{Dir: dir, Config: DefaultConfig()}

	day := time.Date(2024, time.April, 10, 0, 0, 0, 0, time.UTC)
	records := []domain.EnrichedRecord{
		rec("Kraków", day, 10, 10, 0, 50),                  // dry
		rec("Kraków", day.AddDate(0, 0, 1), 10, 10, 0.1, 40), // trace, still dry
		rec("Kraków", day.AddDate(0, 0, 2), 10, 10, 2.0, 20), // wet
	}
	require.NoError(t, w.Write(records))

	byCondition := rowMap(t, readCSV(t, filepath.Join(dir, "rain_effect.csv")), "rain_condition", "avg_pm10")
	require.Len(t, byCondition, 2)

	dry, err := strconv.ParseFloat(byCondition["dry"], 64)
	require.NoError(t, err)
	assert.InDelta(t, 45.0, dry, 1e-9)
	wet, err := strconv.ParseFloat(byCondition["wet"], 64)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, wet, 1e-9)
}

func TestWriter_ScenarioDuelExcludesOther(t *testing.T) {
	dir := t.TempDir()
	w := &Writer{Dir: dir, Config: DefaultConfig()}

	day := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	records := []domain.EnrichedRecord{
		rec("Kraków", day, -2, 5, 0, 90),                  // cold_calm
		rec("Kraków", day.AddDate(0, 0, 1), -2, 25, 0, 30), // cold_windy
		rec("Kraków", day.AddDate(0, 0, 2), 20, 5, 0, 15),  // summer
		rec("Kraków", day.AddDate(0, 0, 3), 8, 15, 0, 45),  // other
	}
	require.NoError(t, w.Write(records))

	byScenario := rowMap(t, readCSV(t, filepath.Join(dir, "scenario_duel.csv")), "scenario", "avg_pm10")
	assert.Len(t, byScenario, 3)
	assert.NotContains(t, byScenario, "other")
	assert.Contains(t, byScenario, "cold_calm")
	assert.Contains(t, byScenario, "cold_windy")
}

func TestWriter_NewYearWindow(t *testing.T) {
	dir := t.TempDir()
	w := &Writer{Dir: dir, Config: DefaultConfig()}

	records := []domain.EnrichedRecord{
		rec("Warszawa", time.Date(2023, time.December, 29, 0, 0, 0, 0, time.UTC), 0, 5, 0, 40),
		rec("Warszawa", time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC), 0, 5, 0, 70),
		rec("Warszawa", time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), 0, 5, 0, 120),
		rec("Warszawa", time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC), 20, 5, 0, 10),
	}
	require.NoError(t, w.Write(records))

	byLabel := rowMap(t, readCSV(t, filepath.Join(dir, "new_year_window.csv")), "new_year_label", "avg_pm10")
	require.Len(t, byLabel, 3, "records outside the window are excluded")

	nye, err := strconv.ParseFloat(byLabel["new_years_eve"], 64)
	require.NoError(t, err)
	assert.InDelta(t, 70.0, nye, 1e-9)
	ny, err := strconv.ParseFloat(byLabel["new_year"], 64)
	require.NoError(t, err)
	assert.InDelta(t, 120.0, ny, 1e-9)
}

func TestWriter_EmptyDirDisablesReports(t *testing.T) {
	w := &Writer{Config: DefaultConfig()}
	require.NoError(t, w.Write([]domain.EnrichedRecord{
		rec("Kraków", time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), 0, 5, 0, 40),
	}))
}

func TestNewYearLabelOrdering(t *testing.T) {
	label, order := newYearLabel(time.Date(2023, time.December, 29, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "dec_29", label)
	assert.Equal(t, 1, order)

	label, order = newYearLabel(time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "jan_03", label)
	assert.Equal(t, 6, order)

	label, order = newYearLabel(time.Date(2024, time.January, 4, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "", label)
	assert.Equal(t, 0, order)
}
