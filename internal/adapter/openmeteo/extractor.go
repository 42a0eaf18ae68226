package openmeteo

import (
	"context"
	"log/slog"
	"time"

	"github.com/X13arXy/Poland-Air-Quality-Analysis-2016-2026/internal/domain"
)

// Extractor implements the pipeline's extract stage against the live APIs.
type Extractor struct {
	Client *Client
	Cities []City
	Range  domain.DateRange
	// Step is the pipeline resolution; at 24h or coarser the hourly PM10
	// series is resampled to daily means, matching the archive weather data.
	Step time.Duration
	// Pause between per-city requests, to stay polite with the free API.
	Pause  time.Duration
	Logger *slog.Logger
}

// Extract fetches both series for every configured city. The date range must
// be bounded: the archive API requires explicit start and end dates.
func (e *Extractor) Extract(ctx context.Context) (domain.RawSeries, error) {
	var series domain.RawSeries

	for i, city := range e.Cities {
		if i > 0 && e.Pause > 0 {
			if !sleepWithContext(ctx, e.Pause) {
				return domain.RawSeries{}, ctx.Err()
			}
		}

		e.Logger.Info("fetching city history", "city", city.Name,
			"start", e.Range.Start.Format("2006-01-02"), "end", e.Range.End.Format("2006-01-02"))

		weather, skipped, err := e.Client.FetchWeather(ctx, city, e.Range)
		if err != nil {
			return domain.RawSeries{}, err
		}
		series.Weather = append(series.Weather, weather...)
		series.Malformed += skipped

		pollution, skipped, err := e.Client.FetchPM10(ctx, city, e.Range)
		if err != nil {
			return domain.RawSeries{}, err
		}
		if e.Step >= 24*time.Hour {
			pollution = ResampleDailyMean(pollution)
		}
		series.Pollution = append(series.Pollution, pollution...)
		series.Malformed += skipped
	}

	return series, nil
}
