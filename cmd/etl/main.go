// Command etl runs one batch pipeline pass: extract the raw weather and PM10
// series, merge, fill gaps, derive features, and write the enriched artifact
// plus the aggregate reports.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/X13arXy/Poland-Air-Quality-Analysis-2016-2026/internal/adapter/flatfile"
	"github.com/X13arXy/Poland-Air-Quality-Analysis-2016-2026/internal/adapter/openmeteo"
	"github.com/X13arXy/Poland-Air-Quality-Analysis-2016-2026/internal/config"
	"github.com/X13arXy/Poland-Air-Quality-Analysis-2016-2026/internal/domain"
	"github.com/X13arXy/Poland-Air-Quality-Analysis-2016-2026/internal/observability"
	"github.com/X13arXy/Poland-Air-Quality-Analysis-2016-2026/internal/pipeline"
	"github.com/X13arXy/Poland-Air-Quality-Analysis-2016-2026/internal/report"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	rng := domain.DateRange{Start: cfg.DateRangeStart, End: cfg.DateRangeEnd}

	extractor, err := newExtractor(cfg, rng, logger)
	if err != nil {
		logger.Error("failed to build extractor", "error", err)
		os.Exit(1)
	}

	artifact := &flatfile.Writer{Path: cfg.OutputPath, Logger: logger}

	var reports pipeline.ReportWriter
	if cfg.ReportDir != "" {
		reports = &report.Writer{
			Dir: cfg.ReportDir,
			Config: report.Config{
				SmogThresholdPM10: cfg.PM10SmogThreshold,
				TopCities:         cfg.RankingTopCities,
			},
			Logger: logger,
		}
	}

	opts := pipeline.Options{
		GapFill: domain.GapFillConfig{Step: cfg.Step, MaxGapSteps: cfg.GapThreshold},
		Enrich: domain.EnrichConfig{
			WindThresholdKmh:   cfg.WindThresholdKmh,
			HeatingSeasonTempC: cfg.HeatingSeasonTempC,
		},
	}

	p := pipeline.New(extractor, artifact, reports, opts, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, runErr := p.Run(ctx)
	logger.Info("run summary", summary.LogAttrs()...)

	if cfg.PushgatewayURL != "" {
		if err := metrics.Push(cfg.PushgatewayURL, "air_quality_etl"); err != nil {
			logger.Warn("metrics push failed", "error", err)
		}
	}

	if runErr != nil {
		logger.Error("pipeline failed", "error", runErr)
		os.Exit(1)
	}
}

// newExtractor builds the configured source adapter.
func newExtractor(cfg *config.Config, rng domain.DateRange, logger *slog.Logger) (pipeline.Extractor, error) {
	switch cfg.Source {
	case config.SourceOpenMeteo:
		if rng.Start.IsZero() || rng.End.IsZero() {
			return nil, errors.New("SOURCE=openmeteo requires DATE_RANGE_START and DATE_RANGE_END")
		}
		cities, err := openmeteo.CitiesByName(cfg.Cities)
		if err != nil {
			return nil, err
		}
		return &openmeteo.Extractor{
			Client: openmeteo.NewClient(cfg.OpenMeteoTimeout, logger),
			Cities: cities,
			Range:  rng,
			Step:   cfg.Step,
			Pause:  time.Second,
			Logger: logger,
		}, nil
	default:
		return &flatfile.Extractor{
			WeatherPath:   cfg.WeatherPath,
			PollutionPath: cfg.PollutionPath,
			Range:         rng,
			Logger:        logger,
		}, nil
	}
}
