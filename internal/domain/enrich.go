package domain

import "time"

// EnrichConfig holds the thresholds behind the derived features.
type EnrichConfig struct {
	// WindThresholdKmh splits wind_category; speeds at or above it are "high".
	WindThresholdKmh float64
	// HeatingSeasonTempC marks heating season when the city's daily mean
	// temperature is strictly below it.
	HeatingSeasonTempC float64
}

// DefaultEnrichConfig returns the thresholds the dashboard was calibrated with.
func DefaultEnrichConfig() EnrichConfig {
	return EnrichConfig{
		WindThresholdKmh:   16,
		HeatingSeasonTempC: 10,
	}
}

// Enrich derives the categorical features for a complete merged series.
// Derivations are pure functions of each record and its calendar attributes;
// the only cross-record input is the per-city daily mean temperature, computed
// in a pre-pass. Incomplete records must not reach this stage.
func Enrich(records []MergedRecord, cfg EnrichConfig) []EnrichedRecord {
	dailyMean := dailyMeanTemperature(records)
	now := clock.Now()

	out := make([]EnrichedRecord, 0, len(records))
	for _, r := range records {
		out = append(out, EnrichedRecord{
			City:            r.City,
			Timestamp:       r.Timestamp,
			TemperatureC:    *r.TemperatureC,
			WindSpeedKmh:    *r.WindSpeedKmh,
			PrecipitationMm: *r.PrecipitationMm,
			PM10:            *r.PM10,
			TemperatureBand: TemperatureBandFor(*r.TemperatureC),
			WindCategory:    WindCategoryFor(*r.WindSpeedKmh, cfg.WindThresholdKmh),
			IsWeekend:       IsWeekend(r.Timestamp),
			IsNewYearsEve:   IsNewYearsEve(r.Timestamp),
			HeatingSeason:   dailyMean[dayKeyOf(r.City, r.Timestamp)] < cfg.HeatingSeasonTempC,
			Scenario:        ClassifyScenario(*r.TemperatureC, *r.WindSpeedKmh),
			ProcessedAt:     now,
		})
	}
	return out
}

// TemperatureBandFor buckets a mean temperature. Zero and ten both land in
// the middle band.
func TemperatureBandFor(tempC float64) TemperatureBand {
	switch {
	case tempC < 0:
		return BandBelowZero
	case tempC <= 10:
		return BandZeroToTen
	default:
		return BandAboveTen
	}
}

// WindCategoryFor classifies wind speed. The threshold itself is "high":
// 16.0 km/h is already enough ventilation to disperse smog.
func WindCategoryFor(speedKmh, thresholdKmh float64) WindCategory {
	if speedKmh >= thresholdKmh {
		return WindHigh
	}
	return WindLow
}

// IsWeekend reports whether t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsNewYearsEve reports whether t is exactly January 1st 00:00, the slot
// that captures the fireworks pollution spike.
func IsNewYearsEve(t time.Time) bool {
	return t.Month() == time.January && t.Day() == 1 &&
		t.Hour() == 0 && t.Minute() == 0
}

// ClassifyScenario tags the combined temperature/wind situation:
//
//	cold_calm:  t < 5°C and wind < 10 km/h (smog accumulates)
//	cold_windy: t < 5°C and wind > 20 km/h (cold but ventilated)
//	summer:     t > 15°C (background baseline)
//	other:      everything in between
func ClassifyScenario(tempC, windKmh float64) Scenario {
	switch {
	case tempC < 5 && windKmh < 10:
		return ScenarioColdCalm
	case tempC < 5 && windKmh > 20:
		return ScenarioColdWindy
	case tempC > 15:
		return ScenarioSummer
	default:
		return ScenarioOther
	}
}

// dayKey identifies one city-day for the daily mean pre-pass.
type dayKey struct {
	city string
	date string
}

func dayKeyOf(city string, t time.Time) dayKey {
	return dayKey{city: city, date: t.Format("2006-01-02")}
}

// dailyMeanTemperature averages each city's temperatures per calendar day.
// For daily-resolution input this is the record's own temperature; for hourly
// input it aggregates the day's observations.
func dailyMeanTemperature(records []MergedRecord) map[dayKey]float64 {
	type acc struct {
		sum float64
		n   int
	}
	sums := make(map[dayKey]acc)
	for _, r := range records {
		if r.TemperatureC == nil {
			continue
		}
		k := dayKeyOf(r.City, r.Timestamp)
		a := sums[k]
		a.sum += *r.TemperatureC
		a.n++
		sums[k] = a
	}

	means := make(map[dayKey]float64, len(sums))
	for k, a := range sums {
		means[k] = a.sum / float64(a.n)
	}
	return means
}
