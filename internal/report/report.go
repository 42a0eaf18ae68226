// Package report derives the dashboard's aggregate views from the enriched
// dataset: long-term trends, seasonality, city rankings, and the weather
// scenario comparisons. Each view is one small CSV the visualization layer
// picks up as-is.
package report

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/X13arXy/Poland-Air-Quality-Analysis-2016-2026/internal/adapter/flatfile"
	"github.com/X13arXy/Poland-Air-Quality-Analysis-2016-2026/internal/domain"
)

// Config tunes the aggregate views.
type Config struct {
	// SmogThresholdPM10 is the daily WHO/EU limit used to count smog days.
	SmogThresholdPM10 float64
	// TopCities caps the smog-day ranking.
	TopCities int
}

// DefaultConfig matches the published dashboard.
func DefaultConfig() Config {
	return Config{SmogThresholdPM10: 50, TopCities: 10}
}

// Writer emits every aggregate view into Dir. An empty Dir disables reports.
type Writer struct {
	Dir    string
	Config Config
	Logger *slog.Logger
}

// Write builds and writes all aggregate views.
func (w *Writer) Write(records []domain.EnrichedRecord) error {
	if w.Dir == "" {
		return nil
	}

	df := buildFrame(records)

	views := []struct {
		file  string
		build func(dataframe.DataFrame) (dataframe.DataFrame, error)
	}{
		{"trend_yearly.csv", yearlyTrend},
		{"seasonality_monthly.csv", monthlySeasonality},
		{"ranking_smog_days.csv", w.smogDayRanking},
		{"wind_curve.csv", windCurve},
		{"temperature_curve.csv", temperatureCurve},
		{"rain_effect.csv", rainEffect},
		{"scenario_duel.csv", scenarioDuel},
		{"weekend_effect.csv", weekendEffect},
		{"new_year_window.csv", newYearWindow},
		{"heating_season.csv", heatingSeasonSplit},
	}

	for _, v := range views {
		out, err := v.build(df)
		if err != nil {
			return fmt.Errorf("build %s: %w", v.file, err)
		}
		path := filepath.Join(w.Dir, v.file)
		err = flatfile.WriteAtomic(path, func(f *os.File) error {
			return out.WriteCSV(f)
		})
		if err != nil {
			return fmt.Errorf("write %s: %w", v.file, err)
		}
		if w.Logger != nil {
			w.Logger.Info("report written", "path", path, "rows", out.Nrow())
		}
	}
	return nil
}

// buildFrame lays the enriched records out as a dataframe with every derived
// column the views group by. Calendar columns use 0=Monday like the source
// dataset the dashboard was built against.
func buildFrame(records []domain.EnrichedRecord) dataframe.DataFrame {
	n := len(records)
	cities := make([]string, n)
	years := make([]int, n)
	months := make([]int, n)
	dayOfWeek := make([]int, n)
	dayNames := make([]string, n)
	dayTypes := make([]string, n)
	pm10 := make([]float64, n)
	windBins := make([]int, n)
	tempBins := make([]int, n)
	rainConditions := make([]string, n)
	scenarios := make([]string, n)
	heating := make([]string, n)
	nyLabels := make([]string, n)
	nyOrders := make([]int, n)

	for i, r := range records {
		cities[i] = r.City
		years[i] = r.Timestamp.Year()
		months[i] = int(r.Timestamp.Month())
		dayOfWeek[i] = mondayIndexed(r.Timestamp.Weekday())
		dayNames[i] = r.Timestamp.Weekday().String()
		if r.IsWeekend {
			dayTypes[i] = "weekend"
		} else {
			dayTypes[i] = "weekday"
		}
		pm10[i] = r.PM10
		windBins[i] = int(math.Round(r.WindSpeedKmh))
		tempBins[i] = int(math.Round(r.TemperatureC))
		if r.PrecipitationMm > 0.1 {
			rainConditions[i] = "wet"
		} else {
			rainConditions[i] = "dry"
		}
		scenarios[i] = string(r.Scenario)
		if r.HeatingSeason {
			heating[i] = "heating_season"
		} else {
			heating[i] = "off_season"
		}
		nyLabels[i], nyOrders[i] = newYearLabel(r.Timestamp)
	}

	return dataframe.New(
		series.New(cities, series.String, "city"),
		series.New(years, series.Int, "year"),
		series.New(months, series.Int, "month"),
		series.New(dayOfWeek, series.Int, "day_of_week"),
		series.New(dayNames, series.String, "day_name"),
		series.New(dayTypes, series.String, "day_type"),
		series.New(pm10, series.Float, "pm10"),
		series.New(windBins, series.Int, "wind_bin"),
		series.New(tempBins, series.Int, "temp_bin"),
		series.New(rainConditions, series.String, "rain_condition"),
		series.New(scenarios, series.String, "scenario"),
		series.New(heating, series.String, "heating"),
		series.New(nyLabels, series.String, "new_year_label"),
		series.New(nyOrders, series.Int, "new_year_order"),
	)
}

func mondayIndexed(wd time.Weekday) int {
	// time.Weekday has Sunday=0; the dashboard counts Monday=0.
	return (int(wd) + 6) % 7
}

// newYearLabel tags the Dec 29 to Jan 3 window around the fireworks spike.
// Records outside the window get an empty label and are filtered out.
func newYearLabel(t time.Time) (string, int) {
	switch {
	case t.Month() == time.December && t.Day() == 29:
		return "dec_29", 1
	case t.Month() == time.December && t.Day() == 30:
		return "dec_30", 2
	case t.Month() == time.December && t.Day() == 31:
		return "new_years_eve", 3
	case t.Month() == time.January && t.Day() == 1:
		return "new_year", 4
	case t.Month() == time.January && t.Day() == 2:
		return "jan_02", 5
	case t.Month() == time.January && t.Day() == 3:
		return "jan_03", 6
	default:
		return "", 0
	}
}

func meanPM10By(df dataframe.DataFrame, sortCol string, keep []string) (dataframe.DataFrame, error) {
	groups := df.GroupBy(keep...)
	if groups.Err != nil {
		return dataframe.DataFrame{}, groups.Err
	}
	out := groups.Aggregation(
		[]dataframe.AggregationType{dataframe.Aggregation_MEAN},
		[]string{"pm10"},
	)
	out = out.Rename("avg_pm10", "pm10_MEAN").
		Arrange(dataframe.Sort(sortCol)).
		Select(append(append([]string{}, keep...), "avg_pm10"))
	return out, out.Err
}

// yearlyTrend answers whether air quality improves over the years.
func yearlyTrend(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	return meanPM10By(df, "year", []string{"year"})
}

// monthlySeasonality exposes the winter heating-season hump.
func monthlySeasonality(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	return meanPM10By(df, "month", []string{"month"})
}

// smogDayRanking counts days above the smog threshold per city, top N.
func (w *Writer) smogDayRanking(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	cfg := w.Config
	filtered := df.Filter(dataframe.F{Colname: "pm10", Comparator: series.Greater, Comparando: cfg.SmogThresholdPM10})
	if filtered.Err != nil {
		return dataframe.DataFrame{}, filtered.Err
	}
	if filtered.Nrow() == 0 {
		return dataframe.New(
			series.New([]string{}, series.String, "city"),
			series.New([]int{}, series.Int, "smog_days"),
		), nil
	}

	groups := filtered.GroupBy("city")
	if groups.Err != nil {
		return dataframe.DataFrame{}, groups.Err
	}
	out := groups.Aggregation(
		[]dataframe.AggregationType{dataframe.Aggregation_COUNT},
		[]string{"pm10"},
	)
	out = out.Rename("smog_days", "pm10_COUNT").
		Arrange(dataframe.RevSort("smog_days"))
	if out.Err != nil {
		return dataframe.DataFrame{}, out.Err
	}

	if out.Nrow() > cfg.TopCities {
		idx := make([]int, cfg.TopCities)
		for i := range idx {
			idx[i] = i
		}
		out = out.Subset(idx)
	}

	// Aggregation yields a float column; days are whole numbers.
	counts := out.Col("smog_days").Float()
	days := make([]int, len(counts))
	for i, v := range counts {
		days[i] = int(v)
	}
	out = out.Mutate(series.New(days, series.Int, "smog_days")).
		Select([]string{"city", "smog_days"})
	return out, out.Err
}

// windCurve shows the ventilation effect: mean PM10 per rounded wind speed.
// Bins above 60 km/h are storm outliers and are cut.
func windCurve(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	filtered := df.Filter(dataframe.F{Colname: "wind_bin", Comparator: series.LessEq, Comparando: 60})
	if filtered.Err != nil {
		return dataframe.DataFrame{}, filtered.Err
	}
	return meanPM10By(filtered, "wind_bin", []string{"wind_bin"})
}

// temperatureCurve shows the heating hockey stick between -20°C and 30°C.
func temperatureCurve(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	filtered := df.
		Filter(dataframe.F{Colname: "temp_bin", Comparator: series.GreaterEq, Comparando: -20}).
		Filter(dataframe.F{Colname: "temp_bin", Comparator: series.LessEq, Comparando: 30})
	if filtered.Err != nil {
		return dataframe.DataFrame{}, filtered.Err
	}
	return meanPM10By(filtered, "temp_bin", []string{"temp_bin"})
}

// rainEffect compares PM10 on wet versus dry days (wet deposition).
func rainEffect(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	return meanPM10By(df, "rain_condition", []string{"rain_condition"})
}

// scenarioDuel compares cold-calm, cold-windy, and summer records, dropping
// the unclassified background.
func scenarioDuel(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	filtered := df.Filter(dataframe.F{Colname: "scenario", Comparator: series.Neq, Comparando: string(domain.ScenarioOther)})
	if filtered.Err != nil {
		return dataframe.DataFrame{}, filtered.Err
	}
	return meanPM10By(filtered, "scenario", []string{"scenario"})
}

// weekendEffect gives mean PM10 per weekday, tagged weekday/weekend.
func weekendEffect(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	return meanPM10By(df, "day_of_week", []string{"day_of_week", "day_name", "day_type"})
}

// newYearWindow isolates Dec 29 to Jan 3 to expose the fireworks spike.
func newYearWindow(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	filtered := df.Filter(dataframe.F{Colname: "new_year_label", Comparator: series.Neq, Comparando: ""})
	if filtered.Err != nil {
		return dataframe.DataFrame{}, filtered.Err
	}
	out, err := meanPM10By(filtered, "new_year_order", []string{"new_year_order", "new_year_label"})
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	out = out.Select([]string{"new_year_label", "avg_pm10"})
	return out, out.Err
}

// heatingSeasonSplit compares heating-season records against the off season.
func heatingSeasonSplit(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	return meanPM10By(df, "heating", []string{"heating"})
}
