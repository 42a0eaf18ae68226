package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Source names where the pipeline pulls raw records from.
const (
	SourceFile      = "file"
	SourceOpenMeteo = "openmeteo"
)

// Config holds all pipeline settings, populated from environment variables
// (optionally seeded from a .env file) and read once at start.
type Config struct {
	Source string `validate:"oneof=file openmeteo"`

	// File source.
	WeatherPath   string
	PollutionPath string

	// Open-Meteo source.
	OpenMeteoTimeout time.Duration `validate:"gt=0"`
	Cities           []string      // empty means the default Polish city set

	OutputPath string `validate:"required"`
	ReportDir  string // empty disables report generation

	DateRangeStart time.Time
	DateRangeEnd   time.Time

	Step               time.Duration `validate:"gt=0"`
	GapThreshold       int           `validate:"gte=0"`
	WindThresholdKmh   float64       `validate:"gt=0"`
	HeatingSeasonTempC float64
	PM10SmogThreshold  float64 `validate:"gt=0"`
	RankingTopCities   int     `validate:"gt=0"`

	LogLevel       string `validate:"oneof=debug info warn error"`
	LogFormat      string `validate:"oneof=json text"`
	PushgatewayURL string // empty disables the metrics push
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	// Missing .env is the normal case outside local development.
	_ = godotenv.Load()

	step, err := time.ParseDuration(envOrDefault("STEP", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid STEP: %w", err)
	}

	omTimeout, err := time.ParseDuration(envOrDefault("OPENMETEO_TIMEOUT", "90s"))
	if err != nil {
		return nil, fmt.Errorf("invalid OPENMETEO_TIMEOUT: %w", err)
	}

	start, err := envDate("DATE_RANGE_START")
	if err != nil {
		return nil, err
	}
	end, err := envDate("DATE_RANGE_END")
	if err != nil {
		return nil, err
	}

	gapThreshold, err := envInt("GAP_THRESHOLD", 3)
	if err != nil {
		return nil, err
	}
	topCities, err := envInt("RANKING_TOP_CITIES", 10)
	if err != nil {
		return nil, err
	}

	windThreshold, err := envFloat("WIND_THRESHOLD_KMH", 16)
	if err != nil {
		return nil, err
	}
	heatingTemp, err := envFloat("HEATING_SEASON_TEMP_C", 10)
	if err != nil {
		return nil, err
	}
	smogThreshold, err := envFloat("PM10_SMOG_THRESHOLD", 50)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Source:        envOrDefault("SOURCE", SourceFile),
		WeatherPath:   os.Getenv("INPUT_WEATHER_PATH"),
		PollutionPath: os.Getenv("INPUT_POLLUTION_PATH"),

		OpenMeteoTimeout: omTimeout,
		Cities:           splitList(os.Getenv("CITIES")),

		OutputPath: envOrDefault("OUTPUT_PATH", "data/air_quality_enriched.csv"),
		ReportDir:  os.Getenv("REPORT_DIR"),

		DateRangeStart: start,
		DateRangeEnd:   end,

		Step:               step,
		GapThreshold:       gapThreshold,
		WindThresholdKmh:   windThreshold,
		HeatingSeasonTempC: heatingTemp,
		PM10SmogThreshold:  smogThreshold,
		RankingTopCities:   topCities,

		LogLevel:       envOrDefault("LOG_LEVEL", "info"),
		LogFormat:      envOrDefault("LOG_FORMAT", "json"),
		PushgatewayURL: os.Getenv("PUSHGATEWAY_URL"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.Source == SourceFile {
		if cfg.WeatherPath == "" {
			return nil, errors.New("INPUT_WEATHER_PATH is required with SOURCE=file")
		}
		if cfg.PollutionPath == "" {
			return nil, errors.New("INPUT_POLLUTION_PATH is required with SOURCE=file")
		}
	}
	if !cfg.DateRangeStart.IsZero() && !cfg.DateRangeEnd.IsZero() && cfg.DateRangeEnd.Before(cfg.DateRangeStart) {
		return nil, errors.New("DATE_RANGE_END precedes DATE_RANGE_START")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

// envDate parses a YYYY-MM-DD environment variable; unset means unbounded.
func envDate(key string) (time.Time, error) {
	v := os.Getenv(key)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s (want YYYY-MM-DD): %w", key, err)
	}
	return t, nil
}

func splitList(v string) []string {
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
