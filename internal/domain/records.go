package domain

import "time"

// RawWeatherRecord is a single weather observation as delivered by the feed.
type RawWeatherRecord struct {
	City            string    `json:"city"`
	Timestamp       time.Time `json:"time"`
	TemperatureC    float64   `json:"temperature_2m_mean"`
	WindSpeedKmh    float64   `json:"wind_speed_10m_max"`
	PrecipitationMm float64   `json:"precipitation_sum"`
}

// RawPollutionRecord is a single PM10 observation as delivered by the feed.
type RawPollutionRecord struct {
	City      string    `json:"city"`
	Timestamp time.Time `json:"time"`
	PM10      float64   `json:"pm10"`
}

// RawSeries bundles the two raw feeds handed to the pipeline, along with the
// number of malformed records the loader skipped.
type RawSeries struct {
	Weather   []RawWeatherRecord
	Pollution []RawPollutionRecord
	Malformed int
}

// MergedRecord joins both sources on (city, timestamp). Fields absent from a
// source are nil, never zero; the gap filler resolves them later.
type MergedRecord struct {
	City            string
	Timestamp       time.Time
	TemperatureC    *float64
	WindSpeedKmh    *float64
	PrecipitationMm *float64
	PM10            *float64
}

// Complete reports whether every numeric field is present.
func (r MergedRecord) Complete() bool {
	return r.TemperatureC != nil && r.WindSpeedKmh != nil &&
		r.PrecipitationMm != nil && r.PM10 != nil
}

// TemperatureBand buckets mean temperature for dashboard slicing.
type TemperatureBand string

const (
	BandBelowZero TemperatureBand = "<0"
	BandZeroToTen TemperatureBand = "0-10"
	BandAboveTen  TemperatureBand = ">10"
)

// WindCategory splits wind speed at a single threshold; "high" winds ventilate
// smog, "low" winds let it accumulate.
type WindCategory string

const (
	WindLow  WindCategory = "low"
	WindHigh WindCategory = "high"
)

// Scenario classifies the combined temperature/wind situation. The duel
// between ScenarioColdCalm and ScenarioColdWindy is what demonstrates that
// wind matters more than temperature for PM10.
type Scenario string

const (
	ScenarioColdCalm  Scenario = "cold_calm"
	ScenarioColdWindy Scenario = "cold_windy"
	ScenarioSummer    Scenario = "summer"
	ScenarioOther     Scenario = "other"
)

// EnrichedRecord is a complete merged record plus the derived features that
// feed the dashboard.
type EnrichedRecord struct {
	City            string          `json:"city"`
	Timestamp       time.Time       `json:"timestamp"`
	TemperatureC    float64         `json:"temperature"`
	WindSpeedKmh    float64         `json:"wind_speed"`
	PrecipitationMm float64         `json:"precipitation"`
	PM10            float64         `json:"pm10"`
	TemperatureBand TemperatureBand `json:"temperature_band"`
	WindCategory    WindCategory    `json:"wind_category"`
	IsWeekend       bool            `json:"is_weekend"`
	IsNewYearsEve   bool            `json:"is_new_years_eve"`
	HeatingSeason   bool            `json:"heating_season"`
	Scenario        Scenario        `json:"scenario"`

	ProcessedAt time.Time `json:"processed_at"`
}

// DateRange bounds the records a run processes. Zero endpoints are unbounded;
// both bounds are inclusive.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}

// key identifies a record within a run. Timestamps are compared by instant,
// not by time.Time struct equality.
type key struct {
	city string
	unix int64
}

func keyOf(city string, t time.Time) key {
	return key{city: city, unix: t.Unix()}
}
