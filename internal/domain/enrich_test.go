package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemperatureBandFor(t *testing.T) {
	tests := []struct {
		name     string
		tempC    float64
		expected TemperatureBand
	}{
		{"well below zero", -12.4, BandBelowZero},
		{"just below zero", -0.1, BandBelowZero},
		{"exactly zero", 0, BandZeroToTen},
		{"middle", 5.5, BandZeroToTen},
		{"exactly ten", 10, BandZeroToTen},
		{"just above ten", 10.1, BandAboveTen},
		{"summer", 24, BandAboveTen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TemperatureBandFor(tt.tempC))
		})
	}
}

func TestWindCategoryFor_ThresholdBoundary(t *testing.T) {
	tests := []struct {
		name     string
		speed    float64
		expected WindCategory
	}{
		{"below threshold", 15.9, WindLow},
		{"exactly threshold", 16.0, WindHigh},
		{"above threshold", 16.1, WindHigh},
		{"calm", 0, WindLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, WindCategoryFor(tt.speed, 16))
		})
	}
}

func TestIsNewYearsEve(t *testing.T) {
	assert.True(t, IsNewYearsEve(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, IsNewYearsEve(time.Date(2024, time.January, 1, 1, 0, 0, 0, time.UTC)), "Jan 1 01:00 is not the fireworks slot")
	assert.False(t, IsNewYearsEve(time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC)))
	assert.False(t, IsNewYearsEve(time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)))
}

func TestIsWeekend(t *testing.T) {
	assert.True(t, IsWeekend(time.Date(2024, time.January, 6, 12, 0, 0, 0, time.UTC)))  // Saturday
	assert.True(t, IsWeekend(time.Date(2024, time.January, 7, 12, 0, 0, 0, time.UTC)))  // Sunday
	assert.False(t, IsWeekend(time.Date(2024, time.January, 8, 12, 0, 0, 0, time.UTC))) // Monday
}

func TestClassifyScenario(t *testing.T) {
	tests := []struct {
		name     string
		tempC    float64
		windKmh  float64
		expected Scenario
	}{
		{"cold and calm", 2, 5, ScenarioColdCalm},
		{"cold and windy", 2, 25, ScenarioColdWindy},
		{"summer", 20, 5, ScenarioSummer},
		{"cold with middling wind", 2, 15, ScenarioOther},
		{"mild", 10, 5, ScenarioOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyScenario(tt.tempC, tt.windKmh))
		})
	}
}

func TestEnrich_HeatingSeasonUsesDailyMean(t *testing.T) {
	// Hourly records for one day averaging 9°C: every record of that city-day
	// must carry heating_season, including the warm afternoon one.
	records := []MergedRecord{
		completeRec("Kraków", time.Date(2024, time.November, 5, 6, 0, 0, 0, time.UTC), 4, 5, 0, 50),
		completeRec("Kraków", time.Date(2024, time.November, 5, 12, 0, 0, 0, time.UTC), 14, 5, 0, 50),
		completeRec("Kraków", time.Date(2024, time.November, 5, 18, 0, 0, 0, time.UTC), 9, 5, 0, 50),
		// A different city on the same day stays above the threshold.
		completeRec("Gdańsk", time.Date(2024, time.November, 5, 12, 0, 0, 0, time.UTC), 12, 5, 0, 20),
	}

	enriched := Enrich(records, DefaultEnrichConfig())

	require.Len(t, enriched, 4)
	for i := 0; i < 3; i++ {
		assert.True(t, enriched[i].HeatingSeason, "record %d", i)
	}
	assert.False(t, enriched[3].HeatingSeason)
}

func TestEnrich_Idempotent(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { SetClock(nil) })

	records := []MergedRecord{
		completeRec("Łódź", day(5), -3, 22, 0.5, 70),
		completeRec("Łódź", day(6), 11, 4, 0, 55),
	}

	first := Enrich(records, DefaultEnrichConfig())
	second := Enrich(records, DefaultEnrichConfig())

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("enrichment not idempotent (-first +second):\n%s", diff)
	}
}

func TestEnrich_DerivedFields(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { SetClock(nil) })

	// Jan 6 2024 is a Saturday.
	rec := completeRec("Zabrze", time.Date(2024, time.January, 6, 0, 0, 0, 0, time.UTC), -1.5, 7, 0, 90)

	enriched := Enrich([]MergedRecord{rec}, DefaultEnrichConfig())

	require.Len(t, enriched, 1)
	e := enriched[0]
	assert.Equal(t, BandBelowZero, e.TemperatureBand)
	assert.Equal(t, WindLow, e.WindCategory)
	assert.True(t, e.IsWeekend)
	assert.False(t, e.IsNewYearsEve)
	assert.True(t, e.HeatingSeason)
	assert.Equal(t, ScenarioColdCalm, e.Scenario)
	assert.Equal(t, time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC), e.ProcessedAt)
}
