package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setFileSource(t *testing.T) {
	t.Helper()
	t.Setenv("SOURCE", "file")
	t.Setenv("INPUT_WEATHER_PATH", "testdata/weather.csv")
	t.Setenv("INPUT_POLLUTION_PATH", "testdata/pollution.csv")
}

func TestLoad_Defaults(t *testing.T) {
	setFileSource(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, SourceFile, cfg.Source)
	assert.Equal(t, 24*time.Hour, cfg.Step)
	assert.Equal(t, 3, cfg.GapThreshold)
	assert.Equal(t, 16.0, cfg.WindThresholdKmh)
	assert.Equal(t, 10.0, cfg.HeatingSeasonTempC)
	assert.Equal(t, 50.0, cfg.PM10SmogThreshold)
	assert.Equal(t, 10, cfg.RankingTopCities)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.True(t, cfg.DateRangeStart.IsZero())
	assert.Empty(t, cfg.ReportDir)
}

func TestLoad_Overrides(t *testing.T) {
	setFileSource(t)
	t.Setenv("STEP", "1h")
	t.Setenv("GAP_THRESHOLD", "6")
	t.Setenv("WIND_THRESHOLD_KMH", "12.5")
	t.Setenv("DATE_RANGE_START", "2016-01-01")
	t.Setenv("DATE_RANGE_END", "2026-01-01")
	t.Setenv("CITIES", "Kraków, Warszawa ,Łódź")
	t.Setenv("REPORT_DIR", "out/reports")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Hour, cfg.Step)
	assert.Equal(t, 6, cfg.GapThreshold)
	assert.Equal(t, 12.5, cfg.WindThresholdKmh)
	assert.Equal(t, time.Date(2016, time.January, 1, 0, 0, 0, 0, time.UTC), cfg.DateRangeStart)
	assert.Equal(t, []string{"Kraków", "Warszawa", "Łódź"}, cfg.Cities)
	assert.Equal(t, "out/reports", cfg.ReportDir)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown source", map[string]string{"SOURCE": "ftp"}},
		{"bad step", map[string]string{"STEP": "fast"}},
		{"bad gap threshold", map[string]string{"GAP_THRESHOLD": "three"}},
		{"negative gap threshold", map[string]string{"GAP_THRESHOLD": "-1"}},
		{"bad date", map[string]string{"DATE_RANGE_START": "01.01.2016"}},
		{"inverted range", map[string]string{"DATE_RANGE_START": "2026-01-01", "DATE_RANGE_END": "2016-01-01"}},
		{"bad log level", map[string]string{"LOG_LEVEL": "chatty"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setFileSource(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_FileSourceRequiresPaths(t *testing.T) {
	t.Setenv("SOURCE", "file")
	t.Setenv("INPUT_WEATHER_PATH", "")
	t.Setenv("INPUT_POLLUTION_PATH", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INPUT_WEATHER_PATH")
}

func TestLoad_OpenMeteoSourceNeedsNoPaths(t *testing.T) {
	t.Setenv("SOURCE", "openmeteo")
	t.Setenv("INPUT_WEATHER_PATH", "")
	t.Setenv("INPUT_POLLUTION_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, SourceOpenMeteo, cfg.Source)
	assert.Equal(t, 90*time.Second, cfg.OpenMeteoTimeout)
}
